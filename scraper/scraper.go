// Package scraper owns the headless browser. It renders product pages for
// one-shot extraction and hosts live tabs for page sessions.
package scraper

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/makemodel/config"
	"github.com/use-agent/makemodel/engine"
	"github.com/use-agent/makemodel/models"
)

// Scraper manages the browser lifecycle, the page pool and the fetch
// engines. It is safe for concurrent use. With the browser disabled only
// the HTTP engine is available.
type Scraper struct {
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]

	browserCfg config.BrowserConfig
	fetchCfg   config.FetchConfig
	settle     time.Duration

	httpEngine *engine.HTTPEngine
	dispatcher *engine.Dispatcher
	memory     *engine.DomainMemory

	activePages atomic.Int32
	livePages   atomic.Int32
}

// New launches the browser when enabled and builds the engine tiers.
// validate, if non-nil, decides whether a fetched page is usable; pages it
// rejects make the dispatcher escalate to the next tier.
func New(browserCfg config.BrowserConfig, fetchCfg config.FetchConfig, settle time.Duration, validate engine.Validator) (*Scraper, error) {
	s := &Scraper{
		browserCfg: browserCfg,
		fetchCfg:   fetchCfg,
		settle:     settle,
		httpEngine: engine.NewHTTPEngine(fetchCfg.HTTPTimeout, browserCfg.Proxy),
		memory:     engine.NewDomainMemory(fetchCfg.EngineMemoryTTL),
	}

	engines := []engine.Engine{s.httpEngine}
	if browserCfg.Enabled {
		browser, err := launchBrowser(browserCfg)
		if err != nil {
			s.memory.Stop()
			return nil, err
		}
		s.browser = browser
		s.pagePool = rod.NewPagePool(browserCfg.MaxPages)
		slog.Info("page pool created", "maxPages", browserCfg.MaxPages)

		engines = append(engines,
			engine.NewRodEngine(s.render, false),
			engine.NewRodEngine(s.render, true),
		)
	}

	if fetchCfg.EnableMultiEngine {
		s.dispatcher = engine.NewDispatcher(engines, fetchCfg.EscalationDelays, s.memory, validate)
	}
	return s, nil
}

func launchBrowser(cfg config.BrowserConfig) (*rod.Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// Retailer bot protection looks for automation markers.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	return browser, nil
}

// BrowserEnabled reports whether live sessions and rendering are available.
func (s *Scraper) BrowserEnabled() bool {
	return s.browser != nil
}

// Stats returns a snapshot of the pool's current state.
func (s *Scraper) Stats() models.PoolStats {
	return models.PoolStats{
		BrowserEnabled: s.browser != nil,
		MaxPages:       s.browserCfg.MaxPages,
		ActivePages:    int(s.activePages.Load()),
		LivePages:      int(s.livePages.Load()),
	}
}

// Close drains the page pool and kills the browser process.
func (s *Scraper) Close() {
	s.memory.Stop()
	if s.browser == nil {
		return
	}
	slog.Info("scraper shutting down: draining page pool")
	s.pagePool.Cleanup(func(p *rod.Page) {
		if p != nil {
			_ = p.Close()
		}
	})
	if err := s.browser.Close(); err != nil {
		slog.Warn("scraper shutting down: close browser", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
