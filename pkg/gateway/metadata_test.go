package gateway

import (
	"encoding/json"
	"testing"

	"github.com/marmos91/storfiler/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFileEntry(t *testing.T) {
	entry := ToFileEntry(store.NewBlob("/x/y/report.final.csv"))

	assert.Equal(t, "x/y/report.final.csv", entry.ID)
	assert.Equal(t, "/x/y/report.final.csv", entry.FullPath)
	assert.Equal(t, "report.final.csv", entry.Name)
	assert.Equal(t, "report.final", entry.NameWithoutExt)
	assert.Equal(t, "y", entry.Parent)
	assert.Equal(t, "/x/y", entry.FolderPath)
}

func TestToFileEntry_ExtensionPolicy(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"README", "README"},
		{".env", ".env"},
		{"archive.tar.gz", "archive.tar"},
		{"trailing.", "trailing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToFileEntry(store.NewBlob("dir/"+tt.name)).NameWithoutExt)
		})
	}
}

func TestToFileEntry_RootLevel(t *testing.T) {
	entry := ToFileEntry(store.NewBlob("top.txt"))

	assert.Equal(t, "", entry.Parent)
	assert.Equal(t, "/", entry.FolderPath)
}

func TestFileEntry_JSON(t *testing.T) {
	data, err := json.Marshal(ToFileEntry(store.NewBlob("top.txt")))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Equal(t, "top.txt", fields["name"])
	assert.Equal(t, "top", fields["nameWithoutExt"])
	assert.Equal(t, "/top.txt", fields["fullPath"])
	assert.NotContains(t, fields, "parent", "empty fields are omitted")
}
