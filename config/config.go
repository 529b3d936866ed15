package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// envPrefix is shared by every variable the service reads.
const envPrefix = "MAKEMODEL_"

// exclusivePrefix introduces per-retailer exclusive brand overrides, e.g.
// MAKEMODEL_EXCLUSIVE_BUNNINGS="Ozito,Ryobi,Gardeners Edge".
const exclusivePrefix = envPrefix + "EXCLUSIVE_"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Session   SessionConfig
	Brands    BrandsConfig
	Search    SearchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Enabled launches a headless browser for rendered fetches and live
	// sessions. Without it only the HTTP engine and pushed HTML work.
	Enabled bool // default: true

	Headless bool // default: true

	// MaxPages bounds the pooled tabs used by one-shot fetches. Live
	// session tabs are not pooled.
	MaxPages int // default: 10

	Proxy      string
	NoSandbox  bool // default: false
	BrowserBin string
}

// FetchConfig controls how product pages are loaded.
type FetchConfig struct {
	DefaultTimeout    time.Duration // default: 30s
	MaxTimeout        time.Duration // default: 120s
	NavigationTimeout time.Duration // default: 15s

	// BlockedResourceTypes are CDP resource types dropped by browser tabs.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// EnableMultiEngine races HTTP and browser engines in "auto" mode.
	EnableMultiEngine bool // default: true

	// EscalationDelays is the start delay of each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s, 5s]

	HTTPTimeout time.Duration // default: 5s

	// EngineMemoryTTL is how long the winning engine of a host is remembered.
	EngineMemoryTTL time.Duration // default: 24h
}

// SessionConfig controls page sessions.
type SessionConfig struct {
	// Delays are the timer pass offsets after a session starts.
	Delays []time.Duration // default: [0s, 1s, 3s]

	// TTL closes sessions that have not been queried for this long.
	TTL time.Duration // default: 30m

	// WatchMutations runs a pass on each page mutation signal.
	WatchMutations bool // default: true

	// SettleTime is how long the DOM must be stable before a live tab
	// is considered loaded.
	SettleTime time.Duration // default: 500ms
}

// BrandsConfig overrides the built-in exclusive brand lists.
type BrandsConfig struct {
	// Overrides maps a lowercased retailer key to its brand list.
	Overrides map[string][]string
}

// SearchConfig controls the outbound search link.
type SearchConfig struct {
	BaseURL string // default: "https://www.google.com/search"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool // default: true
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 5
	Burst             int     // default: 10
}

// CacheConfig controls the one-shot extraction cache.
type CacheConfig struct {
	MaxEntries int // default: 1000
}

// WebhookConfig signs outgoing webhook bodies.
type WebhookConfig struct {
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("MAKEMODEL_HOST", "0.0.0.0"),
			Port: envIntOr("MAKEMODEL_PORT", 8080),
			Mode: envOr("MAKEMODEL_MODE", "release"),
		},
		Browser: BrowserConfig{
			Enabled:    envBoolOr("MAKEMODEL_BROWSER", true),
			Headless:   envBoolOr("MAKEMODEL_HEADLESS", true),
			MaxPages:   envIntOr("MAKEMODEL_MAX_PAGES", 10),
			Proxy:      os.Getenv("MAKEMODEL_PROXY"),
			NoSandbox:  envBoolOr("MAKEMODEL_NO_SANDBOX", false),
			BrowserBin: os.Getenv("MAKEMODEL_BROWSER_BIN"),
		},
		Fetch: FetchConfig{
			DefaultTimeout:    envDurationOr("MAKEMODEL_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:        envDurationOr("MAKEMODEL_MAX_TIMEOUT", 120*time.Second),
			NavigationTimeout: envDurationOr("MAKEMODEL_NAV_TIMEOUT", 15*time.Second),
			BlockedResourceTypes: envSliceOr("MAKEMODEL_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			EnableMultiEngine: envBoolOr("MAKEMODEL_MULTI_ENGINE", true),
			EscalationDelays:  envDurationSliceOr("MAKEMODEL_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second, 5 * time.Second}),
			HTTPTimeout:       envDurationOr("MAKEMODEL_HTTP_TIMEOUT", 5*time.Second),
			EngineMemoryTTL:   envDurationOr("MAKEMODEL_ENGINE_MEMORY_TTL", 24*time.Hour),
		},
		Session: SessionConfig{
			Delays:         envDurationSliceOr("MAKEMODEL_SESSION_DELAYS", []time.Duration{0, time.Second, 3 * time.Second}),
			TTL:            envDurationOr("MAKEMODEL_SESSION_TTL", 30*time.Minute),
			WatchMutations: envBoolOr("MAKEMODEL_WATCH_MUTATIONS", true),
			SettleTime:     envDurationOr("MAKEMODEL_SETTLE_TIME", 500*time.Millisecond),
		},
		Brands: BrandsConfig{
			Overrides: exclusiveOverrides(os.Environ()),
		},
		Search: SearchConfig{
			BaseURL: envOr("MAKEMODEL_SEARCH_URL", "https://www.google.com/search"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("MAKEMODEL_AUTH_ENABLED", true),
			APIKeys: envSliceOr("MAKEMODEL_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("MAKEMODEL_RATE_RPS", 5.0),
			Burst:             envIntOr("MAKEMODEL_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("MAKEMODEL_CACHE_MAX_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			Secret: os.Getenv("MAKEMODEL_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("MAKEMODEL_LOG_LEVEL", "info"),
			Format: envOr("MAKEMODEL_LOG_FORMAT", "json"),
		},
	}
}

// exclusiveOverrides collects MAKEMODEL_EXCLUSIVE_<RETAILER> entries from
// environ ("KEY=value" pairs). Retailer keys are lowercased.
func exclusiveOverrides(environ []string) map[string][]string {
	out := make(map[string][]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, exclusivePrefix) {
			continue
		}
		retailer := strings.ToLower(strings.TrimPrefix(key, exclusivePrefix))
		if retailer == "" {
			continue
		}
		out[retailer] = splitList(value)
	}
	return out
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		return splitList(v)
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []time.Duration
	for _, p := range splitList(v) {
		if d, err := time.ParseDuration(p); err == nil {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// splitList splits a comma-separated value, dropping blank items.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
