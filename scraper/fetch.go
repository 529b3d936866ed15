package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/makemodel/engine"
	"github.com/use-agent/makemodel/models"
)

// Fetch modes accepted by FetchOptions.Mode.
const (
	ModeAuto    = "auto"
	ModeHTTP    = "http"
	ModeBrowser = "browser"
)

// FetchOptions describes a one-shot page load.
type FetchOptions struct {
	URL     string
	Timeout time.Duration
	Stealth bool
	Mode    string
}

// Fetch loads a product page using the requested mode. In auto mode the
// dispatcher races the engine tiers; without it the browser is preferred
// when available.
func (s *Scraper) Fetch(ctx context.Context, opts FetchOptions) (*engine.FetchResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.fetchCfg.DefaultTimeout
	}
	if s.fetchCfg.MaxTimeout > 0 && timeout > s.fetchCfg.MaxTimeout {
		timeout = s.fetchCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := &engine.FetchRequest{URL: opts.URL, Timeout: timeout, Stealth: opts.Stealth}

	switch opts.Mode {
	case ModeHTTP:
		res, err := s.httpEngine.Fetch(ctx, req)
		if err != nil && !usable(res, err) {
			return nil, categorizeError(err, "http fetch failed")
		}
		return res, nil

	case ModeBrowser:
		if s.browser == nil {
			return nil, models.NewExtractError(models.ErrCodeInvalidInput, "browser fetching is disabled", nil)
		}
		res, err := engine.NewRodEngine(s.render, opts.Stealth).Fetch(ctx, req)
		if err != nil {
			return nil, categorizeError(err, "browser fetch failed")
		}
		return res, nil
	}

	if s.dispatcher != nil {
		res, err := s.dispatcher.Dispatch(ctx, req)
		if err != nil {
			return nil, categorizeError(err, "all fetch engines failed")
		}
		return res, nil
	}

	var eng engine.Engine = s.httpEngine
	if s.browser != nil {
		eng = engine.NewRodEngine(s.render, opts.Stealth)
	}
	res, err := eng.Fetch(ctx, req)
	if err != nil && !usable(res, err) {
		return nil, categorizeError(err, "fetch failed")
	}
	return res, nil
}

// usable reports whether a page came back incomplete rather than failed.
// With no heavier engine left it is extracted as is.
func usable(res *engine.FetchResult, err error) bool {
	return res != nil && errors.Is(err, engine.ErrIncomplete)
}

// render loads req.URL in a pooled tab. It backs the rod engines.
//
// Stealth and the hijack router must be installed before navigation; the
// deferred about:blank uses the page without the request context so cleanup
// still runs after a timeout.
func (s *Scraper) render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if s.browser == nil {
		return nil, errors.New("browser disabled")
	}

	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		// Get consumed a slot even though no page was created.
		s.pagePool.Put(nil)
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}

	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	if req.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	setReferer(page, req.URL)

	if router := setupHijack(page, s.fetchCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)
	if err := navigate(p, req.URL, s.fetchCfg.NavigationTimeout); err != nil {
		return nil, err
	}
	s.waitSettled(p)

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to read page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}
	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      evalStringOrEmpty(p, `() => document.title`),
		StatusCode: navigationStatus(p),
		FinalURL:   finalURL,
	}, nil
}

// navigate bounds the initial load separately from the overall request so a
// hung navigation leaves time for the dispatcher's next tier.
func navigate(p *rod.Page, rawURL string, timeout time.Duration) error {
	nav := p
	if timeout > 0 {
		nav = p.Timeout(timeout)
		defer nav.CancelTimeout()
	}
	if err := nav.Navigate(rawURL); err != nil {
		return categorizeError(err, "navigation to product page failed")
	}
	return nil
}

// waitSettled waits for client rendering to calm down. Product pages keep
// polling for stock and prices, so a DOM that never converges is not an
// error.
func (s *Scraper) waitSettled(p *rod.Page) {
	settle := s.settle
	if settle <= 0 {
		settle = 300 * time.Millisecond
	}
	if err := p.WaitDOMStable(settle, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// navigationStatus reads the document's HTTP status from the performance
// timeline. Network events conflict with the hijack router on recent
// Chromium builds.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// setReferer makes the visit look like it came from a search result.
func setReferer(page *rod.Page, rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{
			"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
		},
	}.Call(page)
}

func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw errors into ExtractErrors so the API layer can
// map them to status codes. Errors that already carry a code pass through.
func categorizeError(err error, msg string) *models.ExtractError {
	var ee *models.ExtractError
	if errors.As(err, &ee) {
		return ee
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewExtractError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewExtractError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewExtractError(models.ErrCodeNavigation, msg, err)
	}
}
