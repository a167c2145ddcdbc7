package generator

import (
	"encoding/json"
	"maps"
)

// Params carries provider sampling options such as temperature or max_tokens.
// Values usually come straight from JSON config, so numbers arrive as float64.
type Params map[string]any

// MergeParams layers params left to right; later layers win on key collision.
func MergeParams(layers ...Params) Params {
	out := Params{}
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}

// Float returns a numeric option as float64.
func (p Params) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Int returns a numeric option truncated to int64.
func (p Params) Int(key string) (int64, bool) {
	switch v := p[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

// String returns a non-empty string option.
func (p Params) String(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok && s != ""
}
