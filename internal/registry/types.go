package registry

import "time"

// Well-known host states. The host reports these as the entity state
// string when a backing device is missing or has never reported.
const (
	// StateUnavailable indicates the entity's backing device is offline
	// or the entity does not exist on the host.
	StateUnavailable = "unavailable"

	// StateUnknown indicates the entity exists but has not reported yet.
	StateUnknown = "unknown"
)

// StateRecord is the last known state of a single host entity.
//
// Records arrive over the statestream feed and are cached by the
// Registry. State is the entity's primary state string (for climate
// entities this is the HVAC operating mode, e.g. "heat"); Attributes
// carries the entity's full attribute map as decoded JSON.
type StateRecord struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DeepCopy returns a full copy of the record, including a copied
// attribute map. Callers can safely modify the result without
// affecting the registry cache.
func (r *StateRecord) DeepCopy() *StateRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Attributes = deepCopyAttributes(r.Attributes)
	return &cp
}

// Unavailable reports whether the record's state marks the entity as
// unavailable on the host.
func (r *StateRecord) Unavailable() bool {
	return r == nil || r.State == StateUnavailable
}

// Float returns a numeric attribute as float64.
//
// JSON numbers decode as float64, but attributes set programmatically
// may be other numeric types, so common widths are handled.
func (r *StateRecord) Float(key string) (float64, bool) {
	if r == nil || r.Attributes == nil {
		return 0, false
	}
	switch v := r.Attributes[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns a string attribute.
func (r *StateRecord) String(key string) (string, bool) {
	if r == nil || r.Attributes == nil {
		return "", false
	}
	s, ok := r.Attributes[key].(string)
	return s, ok
}

// StringList returns a list attribute as a string slice.
//
// Decoded JSON arrays are []any; non-string elements are skipped.
func (r *StateRecord) StringList(key string) ([]string, bool) {
	if r == nil || r.Attributes == nil {
		return nil, false
	}
	switch v := r.Attributes[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// deepCopyAttributes recursively copies an attribute map.
// Nested maps and slices from decoded JSON are copied; scalar values
// are immutable and shared.
func deepCopyAttributes(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	cp := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cp[k] = deepCopyValue(v)
	}
	return cp
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyAttributes(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyValue(item)
		}
		return cp
	default:
		return v
	}
}
