package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/makemodel/models"
)

func response(brandName string) *models.ExtractResponse {
	return &models.ExtractResponse{
		Success: true,
		Result:  &models.ExtractionResult{Make: &brandName, SearchTerm: brandName, Retailer: "Mitre10"},
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(10)
	defer c.Stop()

	key := Key("https://www.mitre10.co.nz/shop/jobmate-hammer", "")
	_, ok := c.Get(key, 1000)
	assert.False(t, ok, "empty cache")

	c.Set(key, response("Jobmate"))

	got, ok := c.Get(key, 60_000)
	require.True(t, ok)
	assert.Equal(t, "Jobmate", *got.Result.Make)

	_, ok = c.Get(key, 0)
	assert.False(t, ok, "max_age 0 disables the lookup")
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := New(10)
	defer c.Stop()

	key := Key("https://www.bunnings.co.nz/p", "")
	stored := response("Ozito")
	c.Set(key, stored)
	*stored.Result.Make = "mutated after set"

	got, ok := c.Get(key, 60_000)
	require.True(t, ok)
	assert.Equal(t, "Ozito", *got.Result.Make)

	*got.Result.Make = "mutated after get"
	again, _ := c.Get(key, 60_000)
	assert.Equal(t, "Ozito", *again.Result.Make)
}

func TestCache_Expiry(t *testing.T) {
	c := New(10)
	defer c.Stop()

	key := Key("https://www.bunnings.co.nz/p", "")
	c.Set(key, response("Ryobi"))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(key, 1)
	assert.False(t, ok, "older than max_age")

	c.sweep(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, c.Len())
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2)
	defer c.Stop()

	c.Set("a", response("A"))
	c.Set("b", response("B"))
	c.Set("a", response("A2"))
	assert.Equal(t, 2, c.Len(), "overwriting does not evict")

	c.Set("c", response("C"))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c", 60_000)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("u", "s"), Key("u", "s"))
	assert.NotEqual(t, Key("u", ""), Key("u", ".spec"))
	assert.NotEqual(t, Key("u1", ""), Key("u2", ""))
}

func TestCache_Nil(t *testing.T) {
	var c *Cache
	c.Set("k", response("X"))
	_, ok := c.Get("k", 1000)
	assert.False(t, ok)
}
