package store

import (
	"fmt"
	"path"
)

// MatchName reports whether a file name matches a glob pattern.
//
// Supported syntax: '*' (any run of characters), '?' (one character) and
// '[...]' character classes. Matching is applied to the file name only, so
// '*' never needs to cross a separator.
func MatchName(pattern, name string) (bool, error) {
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false, fmt.Errorf("pattern %q: %w", pattern, ErrInvalidInput)
	}
	return ok, nil
}

// Filter keeps the blobs whose file name matches pattern, preserving order.
func Filter(blobs []Blob, pattern string) ([]Blob, error) {
	if _, err := MatchName(pattern, ""); err != nil {
		return nil, err
	}

	out := make([]Blob, 0, len(blobs))
	for _, b := range blobs {
		if ok, _ := MatchName(pattern, path.Base(b.ID)); ok {
			out = append(out, b)
		}
	}
	return out, nil
}
