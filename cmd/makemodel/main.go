package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/makemodel/api"
	"github.com/use-agent/makemodel/brand"
	"github.com/use-agent/makemodel/cache"
	"github.com/use-agent/makemodel/config"
	"github.com/use-agent/makemodel/engine"
	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/scraper"
	"github.com/use-agent/makemodel/session"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("makemodel starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browser", cfg.Browser.Enabled,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Extraction pipeline ──────────────────────────────────────
	brands := brand.Default().WithOverrides(cfg.Brands.Overrides)
	for retailer := range cfg.Brands.Overrides {
		slog.Info("exclusive brand list overridden", "retailer", retailer)
	}
	pipe, err := extractor.NewPipeline(brands)
	if err != nil {
		slog.Error("failed to build extraction pipeline", "error", err)
		os.Exit(1)
	}

	// ── 4. Scraper (launches browser when enabled) ──────────────────
	// Pages of a supported retailer that yield neither make nor model are
	// client-rendered shells; rejecting them escalates to the browser.
	validate := func(res *engine.FetchResult) error {
		if !pipe.HasProduct(res.HTML, res.FinalURL) {
			return engine.ErrIncomplete
		}
		return nil
	}
	sc, err := scraper.New(cfg.Browser, cfg.Fetch, cfg.Session.SettleTime, validate)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 5. Sessions and cache ───────────────────────────────────────
	mgr := session.NewManager(pipe, cfg.Session.TTL)
	defer mgr.Close()

	cc := cache.New(cfg.Cache.MaxEntries)
	defer cc.Stop()

	// ── 6. Router ───────────────────────────────────────────────────
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	router := api.NewRouter(rootCtx, cfg, sc, pipe, mgr, cc, time.Now())

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Deferred: sessions close (live tabs first), then the browser.
	slog.Info("makemodel stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
