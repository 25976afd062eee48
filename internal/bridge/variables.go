package bridge

import "fmt"

// Variables is the template variable bag shared by a manager and every
// bridge it builds. Bridges hold the same *Variables as their manager, so
// changes made through the manager are visible to bridges built earlier.
type Variables struct {
	values map[string]any
}

// NewVariables creates a bag holding a copy of values
func NewVariables(values map[string]any) *Variables {
	v := &Variables{values: make(map[string]any, len(values))}
	v.Add(values)
	return v
}

// Set replaces the whole content of the bag
func (v *Variables) Set(values map[string]any) {
	v.values = make(map[string]any, len(values))
	v.Add(values)
}

// Add merges values over the bag; on key collision the new value wins
func (v *Variables) Add(values map[string]any) {
	for key, value := range values {
		v.values[key] = value
	}
}

// Get returns the value stored under key
func (v *Variables) Get(key string) (any, bool) {
	value, ok := v.values[key]
	return value, ok
}

// String returns the value under key formatted as a string, or ""
func (v *Variables) String(key string) string {
	value, ok := v.values[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// All returns a copy of the bag
func (v *Variables) All() map[string]any {
	out := make(map[string]any, len(v.values))
	for key, value := range v.values {
		out[key] = value
	}
	return out
}

// Len returns the number of entries
func (v *Variables) Len() int {
	return len(v.values)
}
