package config

import "fmt"

// Values wraps a map[string]any for type-safe value extraction.
// All accessor methods return default values if the key is missing
// or the value cannot be converted to the requested type.
type Values struct {
	data map[string]any
}

// New creates Values from the given map.
// If data is nil, empty Values are returned.
func New(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (v Values) String(key, defaultVal string) string {
	val, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := val.(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (v Values) Bool(key string, defaultVal bool) bool {
	val, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
//
// Accepts:
//   - int: used directly
//   - int64: converted to int
//   - float64: converted to int (only if no fractional part)
func (v Values) Int(key string, defaultVal int) int {
	val, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not convertible.
func (v Values) Float(key string, defaultVal float64) float64 {
	val, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	switch n := val.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return defaultVal
}

// Sub returns the nested map under key as Values.
// Missing keys and non-map values yield empty Values.
func (v Values) Sub(key string) Values {
	switch m := v.data[key].(type) {
	case map[string]any:
		return New(m)
	case map[any]any:
		converted := make(map[string]any, len(m))
		for k, val := range m {
			converted[fmt.Sprint(k)] = val
		}
		return New(converted)
	}
	return New(nil)
}

// Any returns the raw value for key, or defaultVal if missing.
func (v Values) Any(key string, defaultVal any) any {
	val, ok := v.data[key]
	if !ok {
		return defaultVal
	}
	return val
}

// Has returns true if the key exists.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (v Values) Raw() map[string]any {
	return v.data
}
