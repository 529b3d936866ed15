// Package api wires the HTTP surface of the service.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/makemodel/api/handler"
	"github.com/use-agent/makemodel/api/middleware"
	"github.com/use-agent/makemodel/cache"
	"github.com/use-agent/makemodel/cleaner"
	"github.com/use-agent/makemodel/config"
	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/session"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
// pages may be nil, in which case only requests carrying html work.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. Background
// loops owned by the router stop when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, pages handler.Pages, pipe *extractor.Pipeline, mgr *session.Manager, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	sessionOpts := session.Options{
		Delays:         cfg.Session.Delays,
		WatchMutations: cfg.Session.WatchMutations,
		WebhookSecret:  cfg.Webhook.Secret,
	}
	batches := handler.NewBatchStore(ctx)
	conv := cleaner.NewMarkdownConverter()
	searchBase := cfg.Search.BaseURL

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(pages, mgr, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// One-shot extraction
	protected.POST("/extract", handler.Extract(pages, pipe, cc, searchBase))
	protected.POST("/inspect", handler.Inspect(pages, pipe, conv, searchBase))

	// Page sessions
	protected.POST("/sessions", handler.OpenSession(pages, mgr, sessionOpts))
	protected.POST("/sessions/:id/query", handler.QuerySession(mgr))
	protected.PUT("/sessions/:id/html", handler.UpdateSessionHTML(mgr))
	protected.DELETE("/sessions/:id", handler.CloseSession(mgr))

	// Batch
	protected.POST("/batch/extract", handler.PostBatch(batches, pages, pipe, searchBase, cfg.Webhook.Secret))
	protected.GET("/batch/:id", handler.GetBatch(batches))

	return r
}
