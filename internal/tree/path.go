package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for malformed paths and keys.
var ErrInvalidPath = errors.New("invalid path")

const forbiddenKeyChars = "/.#$[]"

// Split parses path into its segments. The empty path is the root.
func Split(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if err := ValidateKey(s); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPath, path, err)
		}
	}
	return segs, nil
}

// ValidateKey checks a single path segment.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidPath)
	}
	if strings.ContainsAny(key, forbiddenKeyChars) {
		return fmt.Errorf("%w: key %q contains one of %q", ErrInvalidPath, key, forbiddenKeyChars)
	}
	return nil
}

// Join concatenates path segments.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// related reports whether a change at one path can alter the value at the other.
func related(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
