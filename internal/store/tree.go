package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/questboard/internal/common"
)

const forbiddenKeyChars = ".#$[]"

// SplitPath validates path and returns its segments. Leading and trailing
// slashes are ignored; the empty path is the root and has no segments.
func SplitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if err := validateKey(s); err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
	}
	return segs, nil
}

// JoinPath joins segments with "/".
func JoinPath(segs ...string) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

func validateKey(k string) error {
	if k == "" {
		return fmt.Errorf("%w: empty key", common.ErrValidation)
	}
	if strings.ContainsAny(k, forbiddenKeyChars) {
		return fmt.Errorf("%w: key %q contains one of %q", common.ErrValidation, k, forbiddenKeyChars)
	}
	return nil
}

// overlaps reports whether one path is a segment prefix of the other.
func overlaps(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// normalize converts v into the JSON-like form the store keeps, validates
// map keys and drops nil leaves and empty maps. The result is nil when
// nothing would be stored.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, float64, bool, map[string]any, []any:
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return nil, err
		}
		v = generic
	}
	return prune(v)
}

func prune(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			if err := validateKey(k); err != nil {
				return nil, err
			}
			c, err := normalize(child)
			if err != nil {
				return nil, err
			}
			if c != nil {
				out[k] = c
			}
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(t))
		for _, child := range t {
			c, err := normalize(child)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return v, nil
	}
}

// deepCopy copies maps and slices so callers never share the stored tree.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = deepCopy(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = deepCopy(c)
		}
		return out
	default:
		return v
	}
}

// flatten lists the leaves of a normalized value keyed by full path.
// Maps are expanded; every other value, slices included, is a leaf.
func flatten(prefix string, v any, out map[string]any) {
	m, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			out[prefix] = v
		}
		return
	}
	for k, c := range m {
		flatten(JoinPath(prefix, k), c, out)
	}
}

// assemble rebuilds the value at base from leaf rows keyed by full path.
func assemble(base []string, leaves map[string]any) any {
	var root any
	for p, v := range leaves {
		segs, err := SplitPath(p)
		if err != nil || len(segs) < len(base) || !overlaps(base, segs) {
			continue
		}
		rel := segs[len(base):]
		if len(rel) == 0 {
			return v
		}
		if root == nil {
			root = map[string]any{}
		}
		m, ok := root.(map[string]any)
		if !ok {
			continue
		}
		for _, s := range rel[:len(rel)-1] {
			next, ok := m[s].(map[string]any)
			if !ok {
				next = map[string]any{}
				m[s] = next
			}
			m = next
		}
		m[rel[len(rel)-1]] = v
	}
	return root
}
