package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeNumber turns whatever the backend sent for a numeric field into a
// finite float, or nil. Decimal columns come back as strings, so "46.6" is
// accepted while "46.6x", "", "NaN" and non-scalar values yield nil.
func NormalizeNumber(v interface{}) *float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// NormalizeInt is NormalizeNumber truncated to an integer count.
func NormalizeInt(v interface{}) *int64 {
	f := NormalizeNumber(v)
	if f == nil {
		return nil
	}
	if *f >= math.MaxInt64 || *f < math.MinInt64 {
		return nil
	}
	i := int64(*f)
	return &i
}
