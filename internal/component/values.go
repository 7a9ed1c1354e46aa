package component

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The accessors below read loosely typed block data. They never fail:
// malformed input falls back to the empty value of the requested shape.

// AsString renders scalars as text; containers and nil become "".
func AsString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case bool:
		return strconv.FormatBool(typed)
	case json.Number:
		return typed.String()
	default:
		return ""
	}
}

// AsNumber parses numbers and numeric strings. NaN and infinities become 0.
func AsNumber(value any) float64 {
	var n float64
	switch typed := value.(type) {
	case float64:
		n = typed
	case float32:
		n = float64(typed)
	case int:
		n = float64(typed)
	case int64:
		n = float64(typed)
	case json.Number:
		n, _ = typed.Float64()
	case string:
		n, _ = strconv.ParseFloat(strings.TrimSpace(typed), 64)
	case bool:
		if typed {
			n = 1
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// AsBool accepts booleans, non-zero numbers and "1", "true", "on", "yes".
func AsBool(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "1", "true", "on", "yes":
			return true
		}
		return false
	case float64:
		return typed != 0
	case int:
		return typed != 0
	default:
		return false
	}
}

func AsSlice(value any) []any {
	switch typed := value.(type) {
	case []any:
		return typed
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	default:
		return []any{}
	}
}

func AsMap(value any) map[string]any {
	if typed, ok := value.(map[string]any); ok && typed != nil {
		return typed
	}
	return map[string]any{}
}
