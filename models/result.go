package models

// ActionGetMakeAndModel is the only query action a page session answers.
const ActionGetMakeAndModel = "getMakeAndModel"

// ExtractionResult is the record built from one extraction pass over a
// product page. It is replaced wholesale on re-extraction and never
// mutated after construction.
//
// The JSON field names are the wire format of the cached page attribute
// and of the query response, so they stay camelCase.
type ExtractionResult struct {
	// Make is the normalized brand name, nil when not found.
	Make *string `json:"make"`

	// Model is the normalized model identifier, nil when not found.
	Model *string `json:"model"`

	// SearchTerm is Make and Model joined by a single space ("" if both nil).
	SearchTerm string `json:"searchTerm"`

	// IsExclusive is true when the brand is sold only at Retailer.
	IsExclusive bool `json:"isExclusive"`

	// ExclusiveMessage is non-nil if and only if IsExclusive is true.
	ExclusiveMessage *string `json:"exclusiveMessage"`

	// Retailer is the canonical label of the source site ("Bunnings", "Mitre10").
	Retailer string `json:"retailer"`
}

// Clone returns a deep copy so callers never share the cached record.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Make = cloneString(r.Make)
	c.Model = cloneString(r.Model)
	c.ExclusiveMessage = cloneString(r.ExclusiveMessage)
	return &c
}

// QueryRequest is the message sent by a consumer to a page session.
type QueryRequest struct {
	Action string `json:"action" binding:"required"`
}

// QueryResponse always carries a result field, null when nothing was found.
type QueryResponse struct {
	Result *ExtractionResult `json:"result"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
