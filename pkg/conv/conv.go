// Package conv provides small type-conversion helpers shared by the config
// factory and node builders.
package conv

// ToFloat64 converts any to float64.
// Supports float64, float32, int, int64, int32; bool maps to 1.0/0.0.
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToInt converts any to int.
func ToInt(v any) (int, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case int32:
		return int(val), true
	case float64:
		return int(val), true
	case float32:
		return int(val), true
	default:
		return 0, false
	}
}

// MapToFloat64 converts map[string]any to map[string]float64, skipping
// values that are not numeric.
func MapToFloat64(in map[string]any) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if f, ok := ToFloat64(v); ok {
			out[k] = f
		}
	}
	return out
}

// SliceAnyToString converts []any to []string, skipping non-strings.
// Returns nil when the input is not a slice.
func SliceAnyToString(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ConfigGet reads a typed value from a config map with a default.
func ConfigGet[T any](config map[string]any, key string, def T) T {
	if v, ok := config[key]; ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	return def
}

// ConfigGetInt64 reads an integer config value, accepting int, int64 and
// float64 (YAML and JSON decode numbers differently).
func ConfigGetInt64(config map[string]any, key string, def int64) int64 {
	v, ok := config[key]
	if !ok {
		return def
	}
	if n, ok := ToInt(v); ok {
		return int64(n)
	}
	return def
}

// ConfigGetFloat reads a float config value, accepting any numeric type.
func ConfigGetFloat(config map[string]any, key string, def float64) float64 {
	v, ok := config[key]
	if !ok {
		return def
	}
	if f, ok := ToFloat64(v); ok {
		return f
	}
	return def
}
