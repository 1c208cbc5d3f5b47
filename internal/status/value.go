package status

import (
	"encoding/json"
	"fmt"
)

// Value is a read-only view into a parsed JSON document. Lookups on a
// missing key, a wrong type or an out-of-range index yield an absent Value,
// and every accessor takes the default to use in that case, so a chain like
// doc.Get("status").Index(0).Get("media").Get("duration").FloatOr(0) never
// fails.
type Value struct {
	v       any
	present bool
}

// Parse decodes data into a Value tree. Payloads larger than limit bytes
// are rejected; limit <= 0 disables the check.
func Parse(data []byte, limit int) (Value, error) {
	if limit > 0 && len(data) > limit {
		return Value{}, fmt.Errorf("payload of %d bytes exceeds %d byte limit", len(data), limit)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return Value{v: v, present: true}, nil
}

// Exists reports whether the value is present (JSON null counts as absent)
func (v Value) Exists() bool {
	return v.present && v.v != nil
}

// Get returns the member key of an object
func (v Value) Get(key string) Value {
	obj, ok := v.v.(map[string]any)
	if !ok {
		return Value{}
	}
	child, ok := obj[key]
	if !ok {
		return Value{}
	}
	return Value{v: child, present: true}
}

// Index returns element i of an array
func (v Value) Index(i int) Value {
	arr, ok := v.v.([]any)
	if !ok || i < 0 || i >= len(arr) {
		return Value{}
	}
	return Value{v: arr[i], present: true}
}

// StringOr returns the string value or def
func (v Value) StringOr(def string) string {
	if s, ok := v.v.(string); ok {
		return s
	}
	return def
}

// FloatOr returns the numeric value or def
func (v Value) FloatOr(def float64) float64 {
	if f, ok := v.v.(float64); ok {
		return f
	}
	return def
}

// IntOr returns the numeric value truncated to an integer, or def
func (v Value) IntOr(def int64) int64 {
	if f, ok := v.v.(float64); ok {
		return int64(f)
	}
	return def
}

// BoolOr returns the boolean value or def
func (v Value) BoolOr(def bool) bool {
	if b, ok := v.v.(bool); ok {
		return b
	}
	return def
}
