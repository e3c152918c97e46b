// Package reconcile maps loosely-typed extracted answers onto the exact
// question and option identifiers of a survey template, producing the
// submission payload. Matching is best-effort: anything that cannot be
// matched is dropped without failing the rest of the answer set.
package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a raw answer value as produced by an extraction model. The
// model may hand back a string, a bare number, a boolean, or a list of
// such; Value normalizes all of them to stringified items.
type Value struct {
	items  []string
	isList bool
	set    bool
}

// StringValue wraps a single scalar.
func StringValue(s string) Value {
	return Value{items: []string{s}, set: true}
}

// ListValue wraps a list of scalars.
func ListValue(items ...string) Value {
	return Value{items: items, isList: true, set: true}
}

// UnmarshalJSON accepts null, scalars, and arrays of scalars.
func (v *Value) UnmarshalJSON(b []byte) error {
	var anyVal any
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	if err := d.Decode(&anyVal); err != nil {
		return fmt.Errorf("decoding answer value: %w", err)
	}

	switch t := anyVal.(type) {
	case nil:
		*v = Value{}
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, stringifyScalar(item))
		}
		*v = Value{items: items, isList: true, set: true}
	default:
		*v = Value{items: []string{stringifyScalar(t)}, set: true}
	}
	return nil
}

// MarshalJSON round-trips the value as a string or string list.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	if v.isList {
		return json.Marshal(v.items)
	}
	return json.Marshal(v.items[0])
}

// Empty reports whether the value should be skipped entirely: unset,
// null, an empty scalar, or an empty list. A list of empty strings is
// not empty; its items simply fail to match anything.
func (v Value) Empty() bool {
	if !v.set || len(v.items) == 0 {
		return true
	}
	if !v.isList && v.items[0] == "" {
		return true
	}
	return false
}

// Items returns the value as a list, wrapping a scalar in a singleton.
func (v Value) Items() []string {
	return v.items
}

// String renders the value for an open-text answer. Stringification is
// idempotent for values that are already strings.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	if !v.isList {
		return v.items[0]
	}
	out := ""
	for i, item := range v.items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

func stringifyScalar(x any) string {
	switch t := x.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		// Nested structures: fall back to their JSON form.
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
