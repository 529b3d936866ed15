package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionResult_RoundTrip(t *testing.T) {
	brandName, model, msg := "Ryobi", "R18PD3-0", "Ryobi can only be purchased at Bunnings."

	for _, r := range []*ExtractionResult{
		{Make: &brandName, Model: &model, SearchTerm: "Ryobi R18PD3-0", IsExclusive: true, ExclusiveMessage: &msg, Retailer: "Bunnings"},
		{Model: &model, SearchTerm: "R18PD3-0", Retailer: "Mitre10"},
		{Retailer: "Bunnings"},
	} {
		data, err := json.Marshal(r)
		require.NoError(t, err)

		var back ExtractionResult
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, r, &back)
	}
}

func TestExtractionResult_WireNames(t *testing.T) {
	data, err := json.Marshal(QueryResponse{Result: &ExtractionResult{Retailer: "Bunnings"}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"result":{"make":null,"model":null,"searchTerm":"","isExclusive":false,"exclusiveMessage":null,"retailer":"Bunnings"}}`, string(data))

	data, err = json.Marshal(QueryResponse{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":null}`, string(data))
}

func TestExtractionResult_Clone(t *testing.T) {
	brandName := "Ozito"
	r := &ExtractionResult{Make: &brandName, SearchTerm: "Ozito", Retailer: "Bunnings"}

	c := r.Clone()
	*c.Make = "changed"

	assert.Equal(t, "Ozito", *r.Make)
	assert.Nil(t, (*ExtractionResult)(nil).Clone())
}
