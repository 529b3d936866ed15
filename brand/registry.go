// Package brand holds the exclusive-brand registry and the classifier that
// decides whether a product can only be bought at the retailer showing it.
package brand

import "strings"

// Entry is the exclusive-brand list of one retailer.
type Entry struct {
	// Label is the retailer's display name used in messages ("Bunnings").
	Label string

	// Brands are the exclusive brand names as authored. Matching is
	// case-insensitive; the authored case is kept for messages.
	Brands []string
}

// Registry maps a lowercased retailer key to its Entry. It is immutable
// after construction and safe for concurrent use.
type Registry struct {
	entries map[string]Entry
	order   []string
}

// defaultEntries is the consolidated list across the extension's variants.
// It is configuration data; confirm against current range agreements
// before relying on it.
var defaultEntries = []Entry{
	{
		Label:  "Mitre10",
		Brands: []string{"Number 8", "Jobmate", "Nouveau"},
	},
	{
		Label: "Bunnings",
		Brands: []string{
			"Baracuda",
			"Citeco",
			"Click",
			"Craftright",
			"DETA",
			"Full Boar",
			"Gerni",
			"Hy-Clor",
			"Jumbuck",
			"Mondella",
			"Ozito",
			"Pinnacle Hardware",
			"Ryobi",
			"Saxon",
			"Tradie",
			"Trojan",
			"Marquee",
			"Arlec",
			"Happy Tails",
		},
	},
}

// Default returns the registry with the built-in lists.
func Default() *Registry {
	return NewRegistry(defaultEntries...)
}

// NewRegistry builds a registry keyed by the lowercased entry labels.
// Empty brand names are dropped; brand slices are copied.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := Key(e.Label)
		if key == "" {
			continue
		}
		if _, exists := r.entries[key]; !exists {
			r.order = append(r.order, key)
		}
		r.entries[key] = Entry{Label: e.Label, Brands: cleanBrands(e.Brands)}
	}
	return r
}

// WithOverrides returns a new registry where every retailer present in
// overrides (keyed case-insensitively) has its brand list replaced.
// Unknown retailers in overrides are added with the key as label.
func (r *Registry) WithOverrides(overrides map[string][]string) *Registry {
	entries := r.Entries()
	for key, brands := range overrides {
		replaced := false
		for i := range entries {
			if Key(entries[i].Label) == Key(key) {
				entries[i].Brands = brands
				replaced = true
			}
		}
		if !replaced {
			entries = append(entries, Entry{Label: key, Brands: brands})
		}
	}
	return NewRegistry(entries...)
}

// Lookup returns the entry of a retailer. Unknown retailers yield an empty
// entry and false, never an error.
func (r *Registry) Lookup(retailer string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	e, ok := r.entries[Key(retailer)]
	return e, ok
}

// Entries returns a copy of all entries in insertion order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, key := range r.order {
		e := r.entries[key]
		out = append(out, Entry{Label: e.Label, Brands: append([]string(nil), e.Brands...)})
	}
	return out
}

// Key is the registry key of a retailer name.
func Key(retailer string) string {
	return strings.ToLower(strings.TrimSpace(retailer))
}

func cleanBrands(brands []string) []string {
	out := make([]string, 0, len(brands))
	for _, b := range brands {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
