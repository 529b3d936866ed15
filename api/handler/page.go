package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/makemodel/cleaner"
	"github.com/use-agent/makemodel/engine"
	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
	"github.com/use-agent/makemodel/scraper"
	"github.com/use-agent/makemodel/search"
)

// engineInline marks responses built from HTML supplied by the client.
const engineInline = "inline"

// Pages is what the handlers need from the browser layer.
// *scraper.Scraper implements it.
type Pages interface {
	Fetch(ctx context.Context, opts scraper.FetchOptions) (*engine.FetchResult, error)
	OpenLive(ctx context.Context, pageURL string, stealth bool) (*scraper.LivePage, error)
	BrowserEnabled() bool
	Stats() models.PoolStats
}

// loadedPage is a product page ready for extraction.
type loadedPage struct {
	HTML       string
	PageURL    string
	StatusCode int
	Engine     string
	FetchMs    int64
}

// loadPage returns the inline HTML of req, or fetches req.URL.
func loadPage(ctx context.Context, pages Pages, req *models.ExtractRequest) (*loadedPage, error) {
	if req.HTML != "" {
		return &loadedPage{HTML: req.HTML, PageURL: req.PageURL, Engine: engineInline}, nil
	}
	if pages == nil {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "page fetching is not configured, send html instead", nil)
	}

	start := time.Now()
	res, err := pages.Fetch(ctx, scraper.FetchOptions{
		URL:     req.URL,
		Timeout: time.Duration(req.Timeout) * time.Second,
		Stealth: req.Stealth,
		Mode:    req.FetchMode,
	})
	if err != nil {
		return nil, err
	}

	pageURL := res.FinalURL
	if pageURL == "" {
		pageURL = req.URL
	}
	return &loadedPage{
		HTML:       res.HTML,
		PageURL:    pageURL,
		StatusCode: res.StatusCode,
		Engine:     res.EngineName,
		FetchMs:    time.Since(start).Milliseconds(),
	}, nil
}

// extractPage runs the pipeline over a loaded page. The returned document
// is the one extraction saw, after selector scoping.
func extractPage(pipe *extractor.Pipeline, page *loadedPage, cssSelector, searchBase string) (*models.ExtractResponse, *extractor.Document, error) {
	start := time.Now()

	rawHTML := page.HTML
	if cssSelector != "" {
		scoped, err := cleaner.ApplyCSSSelector(rawHTML, cssSelector)
		if err != nil {
			return nil, nil, models.NewExtractError(models.ErrCodeInvalidInput, "invalid css_selector", err)
		}
		rawHTML = scoped
	}

	doc, err := extractor.NewDocument(rawHTML, page.PageURL)
	if err != nil {
		return nil, nil, models.NewExtractError(models.ErrCodeInvalidInput, "page could not be parsed", err)
	}

	result := pipe.Extract(doc)
	resp := &models.ExtractResponse{
		Success:    true,
		Result:     result,
		FinalURL:   page.PageURL,
		StatusCode: page.StatusCode,
		EngineUsed: page.Engine,
		Timing: models.TimingInfo{
			FetchMs:   page.FetchMs,
			ExtractMs: time.Since(start).Milliseconds(),
		},
	}
	if u, ok := search.ForResult(searchBase, result); ok {
		resp.SearchURL = u
	}
	return resp, doc, nil
}

// bindExtractRequest parses, defaults and validates an extract payload.
func bindExtractRequest(c *gin.Context, req *models.ExtractRequest) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return models.NewExtractError(models.ErrCodeInvalidInput, err.Error(), err)
	}
	req.Defaults()
	return req.Validate()
}

// asExtractError wraps unknown errors as INTERNAL_ERROR.
func asExtractError(err error) *models.ExtractError {
	var ee *models.ExtractError
	if errors.As(err, &ee) {
		return ee
	}
	return models.NewExtractError(models.ErrCodeInternal, err.Error(), err)
}

// respondError writes err as an ErrorResponse with the mapped status.
func respondError(c *gin.Context, err error) {
	ee := asExtractError(err)
	c.JSON(mapErrorToStatus(ee), models.ErrorResponse{Error: ee.ToDetail()})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ExtractError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case models.ErrCodeNavigation:
		return http.StatusBadGateway
	case models.ErrCodeInvalidInput, models.ErrCodeUnsupportedAction:
		return http.StatusBadRequest
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeSessionNotFound:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
