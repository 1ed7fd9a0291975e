package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Normalize converts v to its canonical JSON-shaped form. Structs and typed
// maps become map[string]any, numbers become float64, empty maps become nil.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return prune(out)
}

func prune(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	for k, child := range m {
		if err := ValidateKey(k); err != nil {
			return nil, err
		}
		c, err := prune(child)
		if err != nil {
			return nil, err
		}
		if c == nil {
			delete(m, k)
			continue
		}
		m[k] = c
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

// Equal reports whether two normalized values are the same tree.
func Equal(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}

// Clone deep-copies a normalized value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = Clone(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = Clone(c)
		}
		return out
	default:
		return v
	}
}

// Snapshot is the value observed at a path.
type Snapshot struct {
	Path  string
	Value any
}

// Exists reports whether anything is stored at the path.
func (s Snapshot) Exists() bool { return s.Value != nil }

// Map returns the value as an inner node, or nil for leaves and missing nodes.
func (s Snapshot) Map() map[string]any {
	m, _ := s.Value.(map[string]any)
	return m
}

// Keys returns the child keys in ascending order.
func (s Snapshot) Keys() []string {
	m := s.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Child returns the snapshot of a direct child.
func (s Snapshot) Child(key string) Snapshot {
	return Snapshot{Path: Join(s.Path, key), Value: s.Map()[key]}
}

// String returns the leaf value as a string, or "".
func String(v any) string {
	s, _ := v.(string)
	return s
}

// Bool returns the leaf value as a bool, or false.
func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Int64 returns a numeric leaf as int64, or 0.
func Int64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
