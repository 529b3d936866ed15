package models

// ExtractRequest is the payload for POST /api/v1/extract and /api/v1/inspect.
// Exactly one of URL or HTML must be set.
type ExtractRequest struct {
	// URL is the product page to fetch and extract from.
	URL string `json:"url,omitempty" binding:"omitempty,url"`

	// HTML is an already rendered page, e.g. pushed by a browser extension.
	HTML string `json:"html,omitempty"`

	// PageURL is the address HTML was captured from. Its host selects the
	// retailer strategy. Required when HTML is set.
	PageURL string `json:"page_url,omitempty" binding:"omitempty,url"`

	// CSSSelector is an optional CSS selector to scope the page before
	// extraction. When set, only the matched elements are searched.
	CSSSelector string `json:"css_selector,omitempty"`

	// Timeout is the maximum duration in seconds for fetching the page.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth enables anti-bot-detection evasions for browser fetches.
	Stealth bool `json:"stealth,omitempty"`

	// FetchMode controls the fetching strategy.
	// "auto" (default): race HTTP and browser engines.
	// "http": force pure HTTP (fastest, no JS rendering).
	// "browser": force headless Chrome.
	FetchMode string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`

	// MaxAge allows a cached response younger than MaxAge milliseconds.
	// 0 disables the cache for this request.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ExtractRequest) Defaults() {
	if r.Timeout == 0 {
		r.Timeout = 30
	}
	if r.FetchMode == "" {
		r.FetchMode = "auto"
	}
	if r.HTML != "" && r.PageURL == "" {
		r.PageURL = r.URL
	}
}

// Validate checks the URL/HTML combination that binding tags cannot express.
func (r *ExtractRequest) Validate() error {
	switch {
	case r.URL == "" && r.HTML == "":
		return NewExtractError(ErrCodeInvalidInput, "one of url or html is required", nil)
	case r.HTML != "" && r.PageURL == "":
		return NewExtractError(ErrCodeInvalidInput, "page_url is required with html", nil)
	}
	return nil
}

// SessionRequest is the payload for POST /api/v1/sessions.
type SessionRequest struct {
	ExtractRequest

	// WebhookURL receives a "session.result" event whenever the cached
	// result of the session changes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// UpdateHTMLRequest is the payload for PUT /api/v1/sessions/:id/html.
// It replaces the page content of an HTML-backed session, as a client-side
// re-render would.
type UpdateHTMLRequest struct {
	HTML string `json:"html" binding:"required"`
}
