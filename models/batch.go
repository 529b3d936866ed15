package models

// BatchRequest is the payload for POST /api/v1/batch/extract.
type BatchRequest struct {
	// URLs is the list of product pages to extract from. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100"`

	// Options contains shared fetch options applied to all URLs.
	Options BatchOptions `json:"options"`

	// WebhookURL receives a "batch.completed" event when every URL is done.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// BatchOptions are the shared fetch settings applied to every URL in a batch.
type BatchOptions struct {
	CSSSelector string `json:"css_selector,omitempty"`
	Timeout     int    `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
	Stealth     bool   `json:"stealth,omitempty"`
	FetchMode   string `json:"fetch_mode,omitempty" binding:"omitempty,oneof=auto browser http"`
}

// ToExtractRequest builds the per-URL request for one batch entry.
func (o BatchOptions) ToExtractRequest(url string) *ExtractRequest {
	req := &ExtractRequest{
		URL:         url,
		CSSSelector: o.CSSSelector,
		Timeout:     o.Timeout,
		Stealth:     o.Stealth,
		FetchMode:   o.FetchMode,
	}
	req.Defaults()
	return req
}

// BatchResponse is the immediate response for POST /api/v1/batch/extract.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"` // "processing", "completed", "partial", "failed"
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []*ExtractResponse `json:"results,omitempty"`
}
