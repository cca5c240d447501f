// Package storepath canonicalizes logical storage paths.
//
// Logical paths always use '/' as separator regardless of the host operating
// system or the backend that eventually stores the object. A directory tree,
// a blob container and an S3 bucket all receive ids produced by this package.
//
// Conventions:
//   - The root path is a single separator: "/"
//   - Normalized paths carry no trailing separator and no empty segments
//   - A nil path (no path at all) is distinct from the root path
package storepath

import "strings"

const (
	// Separator splits logical path segments.
	Separator = '/'

	// Root is the normalized root path.
	Root = "/"
)

// Combine joins path parts into a single normalized path.
//
// Empty parts are skipped and separators are trimmed from both ends of every
// part before joining, so Combine("/a/", "", "b") == "a/b". When no part
// carries a segment the root path is returned.
func Combine(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		p := Normalize(part, false)
		if p == Root || p == "" {
			continue
		}
		segments = append(segments, p)
	}

	if len(segments) == 0 {
		return Root
	}

	return strings.Join(segments, string(Separator))
}

// Normalize canonicalizes a path.
//
// Backslashes become separators, repeated separators collapse and separators
// are trimmed from both ends. An empty input yields the root path. When
// includeLeadingSeparator is true the result is prefixed with a separator.
//
// Normalize is idempotent for a fixed includeLeadingSeparator.
func Normalize(path string, includeLeadingSeparator bool) string {
	segments := segmentsOf(path)
	if len(segments) == 0 {
		return Root
	}

	joined := strings.Join(segments, string(Separator))
	if includeLeadingSeparator {
		return string(Separator) + joined
	}
	return joined
}

// Split returns the ordered segments of a path.
//
// A nil path returns nil, while the root path returns an empty non-nil slice,
// so callers can tell "no path" apart from "path with no segments".
func Split(path *string) []string {
	if path == nil {
		return nil
	}
	return segmentsOf(*path)
}

// IsRoot reports whether path designates the root.
func IsRoot(path string) bool {
	return len(segmentsOf(path)) == 0
}

// Name returns the last segment of path, or "" for the root.
func Name(path string) string {
	segments := segmentsOf(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// Folder returns the normalized path of the folder containing path,
// with a leading separator. Root-level entries live in the root folder.
func Folder(path string) string {
	segments := segmentsOf(path)
	if len(segments) <= 1 {
		return Root
	}
	return string(Separator) + strings.Join(segments[:len(segments)-1], string(Separator))
}

// Parent returns the name of the folder immediately containing path,
// or "" when path is at the root.
func Parent(path string) string {
	return Name(Folder(path))
}

func segmentsOf(path string) []string {
	path = strings.ReplaceAll(path, `\`, string(Separator))

	raw := strings.Split(path, string(Separator))
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
