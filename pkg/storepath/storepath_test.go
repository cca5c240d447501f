package storepath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		leading bool
		want    string
	}{
		{"Empty", "", false, "/"},
		{"EmptyLeading", "", true, "/"},
		{"Root", "/", false, "/"},
		{"TrimBothEnds", "/a/b/", false, "a/b"},
		{"Leading", "a/b", true, "/a/b"},
		{"CollapsesSeparators", "a//b///c", false, "a/b/c"},
		{"Backslashes", `a\b\c.txt`, true, "/a/b/c.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, tt.leading))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"", "/", "//", "a", "/a/", "a//b", `\x\y\`, "/data/report.csv", "..//x/./y"}

	for _, in := range inputs {
		for _, leading := range []bool{false, true} {
			once := Normalize(in, leading)
			assert.Equal(t, once, Normalize(once, leading), "input %q leading=%v", in, leading)
		}
	}
}

func TestCombine(t *testing.T) {
	assert.Equal(t, "/", Combine())
	assert.Equal(t, "/", Combine("", "/", "//"))
	assert.Equal(t, "a/b", Combine("/a/", "", "b"))
	assert.Equal(t, "data/report.csv", Combine("/data", "report.csv"))
	assert.Equal(t, "data/sub/file.txt", Combine("data/", "/sub/", "/file.txt"))
}

func TestSplit(t *testing.T) {
	t.Run("NilPath", func(t *testing.T) {
		assert.Nil(t, Split(nil))
	})

	t.Run("RootHasNoSegments", func(t *testing.T) {
		root := "/"
		segments := Split(&root)
		require.NotNil(t, segments)
		assert.Empty(t, segments)
	})

	t.Run("DropsEmptySegments", func(t *testing.T) {
		p := "/a//b/c/"
		assert.Equal(t, []string{"a", "b", "c"}, Split(&p))
	})
}

func TestNameFolderParent(t *testing.T) {
	p := "/x/y/report.final.csv"

	assert.Equal(t, "report.final.csv", Name(p))
	assert.Equal(t, "/x/y", Folder(p))
	assert.Equal(t, "y", Parent(p))

	assert.Equal(t, "", Name("/"))
	assert.Equal(t, "/", Folder("top.txt"))
	assert.Equal(t, "", Parent("top.txt"))
	assert.True(t, IsRoot(""))
	assert.False(t, IsRoot("a"))
}
