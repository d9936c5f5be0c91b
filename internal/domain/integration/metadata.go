package integration

// MetadataDurationKey is the Result metadata key holding the elapsed call time
const MetadataDurationKey = "duration_ms"

// Metadata is a free-form bag attached to events and results
type Metadata map[string]any

// Clone returns a shallow copy that never aliases the receiver.
// A nil receiver yields an empty, non-nil map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a copy of m with every key of other set on it
func (m Metadata) Merge(other Metadata) Metadata {
	out := m.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// String retrieves a string value
func (m Metadata) String(key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// Int retrieves an int64 value
func (m Metadata) Int(key string) int64 {
	if val, ok := m[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// Float retrieves a float64 value
func (m Metadata) Float(key string) float64 {
	if val, ok := m[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		}
	}
	return 0.0
}

// Bool retrieves a bool value
func (m Metadata) Bool(key string) bool {
	if val, ok := m[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}
