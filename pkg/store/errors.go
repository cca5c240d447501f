package store

import "errors"

// ============================================================================
// Standard Store Errors
// ============================================================================

// Implementations wrap these errors with context:
//
//	if os.IsNotExist(err) {
//	    return fmt.Errorf("object %s: %w", id, store.ErrNotFound)
//	}
//
// Callers inspect them with errors.Is.

var (
	// ErrNotFound indicates the requested object does not exist.
	//
	// Returned by OpenRead and Delete. Exists reports absence with
	// (false, nil) instead.
	//
	// HTTP: 404 Not Found
	ErrNotFound = errors.New("object not found")

	// ErrInvalidInput indicates the caller supplied an unusable argument:
	// an empty id, an id that designates a folder or a source stream
	// whose length cannot be determined.
	//
	// HTTP: 400 Bad Request
	ErrInvalidInput = errors.New("invalid input")
)
