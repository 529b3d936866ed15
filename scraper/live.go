package scraper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/makemodel/extractor"
	"github.com/use-agent/makemodel/models"
	"github.com/use-agent/makemodel/session"
)

// resultAttr holds the serialized result on the document root.
const resultAttr = "data-make-model"

// mutationBinding is the page-side function the observer calls.
const mutationBinding = "__makemodelMutated"

// observerJS installs a debounced MutationObserver on the document root.
// Attribute changes are not observed, so writing resultAttr does not
// signal a mutation.
const observerJS = `() => {
	const start = () => {
		if (window.__makemodelObserver || !document.documentElement) return;
		let pending = null;
		const obs = new MutationObserver(() => {
			if (pending) return;
			pending = setTimeout(() => {
				pending = null;
				if (window.` + mutationBinding + `) window.` + mutationBinding + `(null);
			}, 250);
		});
		obs.observe(document.documentElement, {childList: true, subtree: true, characterData: true});
		window.__makemodelObserver = obs;
	};
	if (document.readyState === 'loading') {
		document.addEventListener('DOMContentLoaded', start);
	} else {
		start();
	}
}`

// LivePage is a browser tab that stays open for a page session. It is the
// session's Source and its Store: results live in an attribute on the
// page's own document, so a navigation or reload drops them.
type LivePage struct {
	page   *rod.Page
	cancel context.CancelFunc
	onDone func()

	stopBinding func() error

	mu      sync.Mutex
	closed  bool
	signals chan struct{}
}

var (
	_ session.MutationSource = (*LivePage)(nil)
	_ session.Store          = (*LivePage)(nil)
)

// OpenLive opens pageURL in a dedicated tab and starts watching it for
// mutations. The tab is not pooled and lives until Close.
func (s *Scraper) OpenLive(ctx context.Context, pageURL string, useStealth bool) (*LivePage, error) {
	if s.browser == nil {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "live sessions need the browser", nil)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to create live page", err)
	}

	// The tab outlives the opening request.
	lifeCtx, cancel := context.WithCancel(context.Background())
	lp := &LivePage{
		page:    page.Context(lifeCtx),
		cancel:  cancel,
		signals: make(chan struct{}, 1),
	}
	s.livePages.Add(1)
	lp.onDone = func() { s.livePages.Add(-1) }

	if err := lp.open(ctx, pageURL, useStealth, s.fetchCfg.BlockedResourceTypes); err != nil {
		_ = lp.Close()
		return nil, err
	}
	s.waitSettled(lp.page.Context(ctx))

	slog.Info("live page opened", "url", pageURL)
	return lp, nil
}

func (lp *LivePage) open(ctx context.Context, pageURL string, useStealth bool, blockedTypes []string) error {
	if useStealth {
		if _, err := lp.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	setReferer(lp.page, pageURL)

	// Hijacking for the lifetime of the tab keeps trackers out of every
	// re-render, not just the first load.
	router := setupHijack(lp.page, blockedTypes)
	stopBinding, err := lp.page.Expose(mutationBinding, func(gson.JSON) (interface{}, error) {
		lp.signal()
		return nil, nil
	})
	if err != nil {
		_ = router.Stop()
		return models.NewExtractError(models.ErrCodeBrowserCrash, "failed to bind mutation signal", err)
	}
	lp.stopBinding = func() error {
		_ = router.Stop()
		return stopBinding()
	}

	if _, err := lp.page.EvalOnNewDocument("(" + observerJS + ")()"); err != nil {
		return models.NewExtractError(models.ErrCodeBrowserCrash, "failed to install mutation observer", err)
	}

	if err := lp.page.Context(ctx).Navigate(pageURL); err != nil {
		return categorizeError(err, "navigation to product page failed")
	}
	return nil
}

func (lp *LivePage) signal() {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if lp.closed {
		return
	}
	select {
	case lp.signals <- struct{}{}:
	default:
	}
}

// Snapshot returns the tab's current DOM, addressed by its current URL.
func (lp *LivePage) Snapshot(ctx context.Context) (*extractor.Document, error) {
	p := lp.page.Context(ctx)
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to read page HTML")
	}
	return extractor.NewDocument(rawHTML, evalStringOrEmpty(p, `() => window.location.href`))
}

// Mutations is signalled, coalesced, when the page content changes.
func (lp *LivePage) Mutations() <-chan struct{} {
	return lp.signals
}

func (lp *LivePage) Load(ctx context.Context) (string, bool, error) {
	res, err := lp.page.Context(ctx).Eval(`(name) => document.documentElement.getAttribute(name)`, resultAttr)
	if err != nil {
		return "", false, categorizeError(err, "failed to read cached result")
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

func (lp *LivePage) Save(ctx context.Context, value string) error {
	_, err := lp.page.Context(ctx).Eval(`(name, v) => document.documentElement.setAttribute(name, v)`, resultAttr, value)
	if err != nil {
		return categorizeError(err, "failed to write cached result")
	}
	return nil
}

func (lp *LivePage) Clear(ctx context.Context) error {
	_, err := lp.page.Context(ctx).Eval(`(name) => document.documentElement.removeAttribute(name)`, resultAttr)
	if err != nil {
		return categorizeError(err, "failed to clear cached result")
	}
	return nil
}

// Close stops the observer binding and closes the tab. It is safe to call
// more than once.
func (lp *LivePage) Close() error {
	lp.mu.Lock()
	if lp.closed {
		lp.mu.Unlock()
		return nil
	}
	lp.closed = true
	close(lp.signals)
	lp.mu.Unlock()

	if lp.stopBinding != nil {
		_ = lp.stopBinding()
	}
	err := lp.page.Close()
	lp.cancel()
	lp.onDone()
	return err
}
