package models

// ExtractResponse is the response for POST /api/v1/extract.
type ExtractResponse struct {
	// Success indicates whether the page could be fetched and searched.
	// A page where nothing was found is still a success with a null result.
	Success bool `json:"success"`

	// Result is the extraction record, null for unsupported retailers.
	Result *ExtractionResult `json:"result"`

	// SearchURL is the web search link for the result's search term.
	// Empty when there is no search term or the brand is exclusive.
	SearchURL string `json:"search_url,omitempty"`

	// FinalURL is the page URL after following redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP status code of the fetched page.
	StatusCode int `json:"status_code,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// EngineUsed indicates which fetch engine produced the page
	// (e.g. "http", "rod", "rod-stealth", "inline").
	EngineUsed string `json:"engine_used,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// InspectResponse is the response for POST /api/v1/inspect.
type InspectResponse struct {
	ExtractResponse

	// Title is the page title as seen by the readability parser.
	Title string `json:"title,omitempty"`

	// SpecSheet is the product specification block rendered as Markdown.
	SpecSheet string `json:"spec_sheet"`
}

// SessionResponse is the response for POST /api/v1/sessions and DELETE.
type SessionResponse struct {
	ID      string       `json:"id"`
	Status  string       `json:"status"` // "open" or "closed"
	PageURL string       `json:"page_url,omitempty"`
	Live    bool         `json:"live"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent fetching and rendering the page.
	FetchMs int64 `json:"fetch_ms"`

	// ExtractMs is the time spent running the extraction waterfall.
	ExtractMs int64 `json:"extract_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Sessions  int       `json:"sessions"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	BrowserEnabled bool `json:"browser_enabled"`
	MaxPages       int  `json:"max_pages"`
	ActivePages    int  `json:"active_pages"`
	LivePages      int  `json:"live_pages"`
}

// ErrorResponse is the body of a rejected request that has no richer
// response type, such as an auth or rate limit failure.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// ErrorBody builds an ErrorResponse for code and message.
func ErrorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: &ErrorDetail{Code: code, Message: message}}
}
