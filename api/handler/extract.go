package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/makemodel/cache"
	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
)

// Extract returns a handler for POST /api/v1/extract.
//
// Flow:
//  1. Parse & validate ExtractRequest, apply defaults.
//  2. Serve from cache when max_age allows (fetched pages only).
//  3. Load the page: inline HTML, or fetch through the engines.
//  4. Scope by css_selector, run the extraction pipeline.
//  5. Attach the search link, cache, respond.
//
// An unsupported retailer or a page without make/model is still a success
// with a null or partial result.
func Extract(pages Pages, pipe *extractor.Pipeline, cc *cache.Cache, searchBase string) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ExtractRequest
		if err := bindExtractRequest(c, &req); err != nil {
			respondExtractError(c, err, totalStart)
			return
		}

		cacheable := req.HTML == "" && req.MaxAge > 0
		key := cache.Key(req.URL, req.CSSSelector)
		if cacheable {
			if hit, ok := cc.Get(key, req.MaxAge); ok {
				hit.CacheStatus = "hit"
				hit.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, hit)
				return
			}
		}

		page, err := loadPage(c.Request.Context(), pages, &req)
		if err != nil {
			respondExtractError(c, err, totalStart)
			return
		}

		resp, _, err := extractPage(pipe, page, req.CSSSelector, searchBase)
		if err != nil {
			respondExtractError(c, err, totalStart)
			return
		}
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()

		if cacheable {
			resp.CacheStatus = "miss"
			cc.Set(key, resp)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// respondExtractError writes a failed ExtractResponse with the mapped status.
func respondExtractError(c *gin.Context, err error, totalStart time.Time) {
	ee := asExtractError(err)
	c.JSON(mapErrorToStatus(ee), models.ExtractResponse{
		Success: false,
		Error:   ee.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
	})
}
