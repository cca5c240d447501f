package gateway

import (
	"strings"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/marmos91/storfiler/pkg/storepath"
)

// FileEntry is the backend-independent description of a stored file.
type FileEntry struct {
	ID             string `json:"id,omitempty"`
	FullPath       string `json:"fullPath,omitempty"`
	Parent         string `json:"parent,omitempty"`
	Name           string `json:"name,omitempty"`
	NameWithoutExt string `json:"nameWithoutExt,omitempty"`
	FolderPath     string `json:"folderPath,omitempty"`
}

// ToFileEntry normalizes a listed blob.
//
// The extension is everything after the last '.' of the file name. Names
// without a dot, or whose only dot is the leading one (".env"), keep their
// full name.
func ToFileEntry(b store.Blob) FileEntry {
	full := b.FullPath
	if full == "" {
		full = storepath.Normalize(b.ID, true)
	}

	name := storepath.Name(full)

	return FileEntry{
		ID:             b.ID,
		FullPath:       full,
		Parent:         storepath.Parent(full),
		Name:           name,
		NameWithoutExt: trimExt(name),
		FolderPath:     b.FolderPath,
	}
}

func trimExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}

// toFileEntries normalizes blobs in order.
func toFileEntries(blobs []store.Blob) []FileEntry {
	out := make([]FileEntry, len(blobs))
	for i, b := range blobs {
		out[i] = ToFileEntry(b)
	}
	return out
}
