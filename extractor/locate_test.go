package extractor

import (
	"testing"

	"github.com/ysmood/gson"
)

func TestLocatePath(t *testing.T) {
	payload := `{"items":[{"id":"a","v":1},{"id":"b","v":"two"}],"n":null}`
	byID := func(id string) Where {
		return func(el gson.JSON) bool {
			v, ok := el.Gets("id")
			return ok && v.Str() == id
		}
	}

	tests := []struct {
		name    string
		payload string
		steps   []any
		want    string
		found   bool
	}{
		{"where then key", payload, []any{"items", byID("b"), "v"}, "two", true},
		{"index", payload, []any{"items", 0, "id"}, "a", true},
		{"number rendered", payload, []any{"items", byID("a"), "v"}, "1", true},
		{"no element matches", payload, []any{"items", byID("z"), "v"}, "", false},
		{"index out of range", payload, []any{"items", 5}, "", false},
		{"key on array", payload, []any{"items", "id"}, "", false},
		{"null value", payload, []any{"n"}, "", false},
		{"malformed payload", `{"items": [`, []any{"items"}, "", false},
		{"empty payload", ``, []any{"items"}, "", false},
		{"unsupported step", payload, []any{"items", 1.5}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := LocatePath(tt.payload, tt.steps...)
			if loc.Found != tt.found {
				t.Fatalf("Found = %v, want %v", loc.Found, tt.found)
			}
			got := ""
			if s := loc.Str(); s != nil {
				got = *s
			}
			if got != tt.want {
				t.Errorf("Str() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocatePath_PanickingPredicate(t *testing.T) {
	loc := LocatePath(`{"a":[1]}`, "a", Where(func(gson.JSON) bool { panic("boom") }))
	if loc.Found {
		t.Error("a panicking step must be reported as not found")
	}
}
