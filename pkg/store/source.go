package store

import (
	"fmt"
	"io"
)

// SourceLength returns the number of bytes remaining in r.
//
// Backends that need the object size up front (blob and S3 uploads) rely on
// this, so every Store.Write validates its source through it. Supported
// readers are those exposing Len() int (bytes.Reader, strings.Reader,
// bytes.Buffer), Size() int64 or io.Seeker. Anything else yields
// ErrInvalidInput.
func SourceLength(r io.Reader) (int64, error) {
	switch src := r.(type) {
	case nil:
		return 0, fmt.Errorf("nil source stream: %w", ErrInvalidInput)
	case interface{ Len() int }:
		return int64(src.Len()), nil
	case interface{ Size() int64 }:
		return src.Size(), nil
	case io.Seeker:
		current, err := src.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, fmt.Errorf("source stream is not seekable: %w", ErrInvalidInput)
		}
		end, err := src.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, fmt.Errorf("source stream is not seekable: %w", ErrInvalidInput)
		}
		if _, err := src.Seek(current, io.SeekStart); err != nil {
			return 0, fmt.Errorf("failed to rewind source stream: %w", err)
		}
		return end - current, nil
	default:
		return 0, fmt.Errorf("source stream length cannot be determined: %w", ErrInvalidInput)
	}
}
