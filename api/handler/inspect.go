package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/gin-gonic/gin"

	"github.com/use-agent/makemodel/cleaner"
	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
)

// Inspect returns a handler for POST /api/v1/inspect. It extracts like
// Extract, never uses the cache, and adds what the waterfall looked at:
// the readability title and the specification blocks as Markdown.
func Inspect(pages Pages, pipe *extractor.Pipeline, conv *converter.Converter, searchBase string) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ExtractRequest
		if err := bindExtractRequest(c, &req); err != nil {
			respondExtractError(c, err, totalStart)
			return
		}

		page, err := loadPage(c.Request.Context(), pages, &req)
		if err != nil {
			respondExtractError(c, err, totalStart)
			return
		}

		resp, doc, err := extractPage(pipe, page, req.CSSSelector, searchBase)
		if err != nil {
			respondExtractError(c, err, totalStart)
			return
		}

		specs, err := cleaner.SpecSheet(conv, doc.HTML, page.PageURL)
		if err != nil {
			slog.Debug("inspect: spec sheet conversion failed", "url", page.PageURL, "error", err)
		}
		resp.Timing.TotalMs = time.Since(totalStart).Milliseconds()

		c.JSON(http.StatusOK, models.InspectResponse{
			ExtractResponse: *resp,
			Title:           cleaner.ArticleTitle(doc.HTML, page.PageURL),
			SpecSheet:       specs,
		})
	}
}
