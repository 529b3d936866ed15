package extractor

import (
	"encoding/json"
	"log/slog"

	"github.com/ysmood/gson"
)

// Where selects the first array element for which it returns true. It is a
// path step for LocatePath alongside string keys and int indexes.
type Where func(el gson.JSON) bool

// Located is the outcome of looking up a path in untyped data. Value is
// only meaningful when Found is true.
type Located struct {
	Value gson.JSON
	Found bool
}

// Str returns the located value as trimmed text, nil when not found or
// blank. Non-string scalars are rendered with fmt.
func (l Located) Str() *string {
	if !l.Found || l.Value.Nil() {
		return nil
	}
	return trimmed(l.Value.Str())
}

// LocatePath walks payload (JSON text) along steps. Each step is a string
// key, an int index or a Where predicate. A malformed payload, a missing
// key, an index out of range or a step applied to the wrong kind of value
// all yield a not-found Located; LocatePath never panics.
func LocatePath(payload string, steps ...any) (loc Located) {
	if !json.Valid([]byte(payload)) {
		return Located{}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("locate path: recovered", "panic", r)
			loc = Located{}
		}
	}()

	sections := make([]any, 0, len(steps))
	for _, s := range steps {
		switch step := s.(type) {
		case Where:
			sections = append(sections, gson.Query(func(v any) (any, bool) {
				for _, el := range gson.New(v).Arr() {
					if step(el) {
						return el.Val(), true
					}
				}
				return nil, false
			}))
		case string, int:
			sections = append(sections, step)
		default:
			return Located{}
		}
	}

	v, ok := gson.NewFrom(payload).Gets(sections...)
	if !ok || v.Nil() {
		return Located{}
	}
	return Located{Value: v, Found: true}
}
