package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestFiles(t *testing.T) {
	dir := tree(t, map[string]string{
		"schema.graphql":              "type Post { id: ID! }",
		"fragments/post.graphql":      "fragment A on Post { id }",
		"fragments/user/user.graphql": "fragment B on User { id }",
		"fragments/readme.md":         "notes",
	})

	t.Run("plain path", func(t *testing.T) {
		files, err := Files(filepath.Join(dir, "schema.graphql"))
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "schema.graphql")}, files)
	})

	t.Run("single level pattern", func(t *testing.T) {
		files, err := Files(filepath.Join(dir, "fragments", "*.graphql"))
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "fragments", "post.graphql")}, files)
	})

	t.Run("recursive pattern", func(t *testing.T) {
		files, err := Files(filepath.Join(dir, "**", "*.graphql"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "fragments", "post.graphql"),
			filepath.Join(dir, "fragments", "user", "user.graphql"),
			filepath.Join(dir, "schema.graphql"),
		}, files)
	})

	t.Run("duplicates are dropped", func(t *testing.T) {
		post := filepath.Join(dir, "fragments", "post.graphql")
		files, err := Files(post, filepath.Join(dir, "fragments", "*.graphql"), post)
		require.NoError(t, err)
		assert.Equal(t, []string{post}, files)
	})

	t.Run("pattern without matches", func(t *testing.T) {
		_, err := Files(filepath.Join(dir, "*.gql"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no files match")
	})
}

func TestDocuments(t *testing.T) {
	dir := tree(t, map[string]string{
		"a.graphql":     "type A { id: ID! }",
		"b.graphql":     "type B { id: ID! }",
		"sub/c.graphql": "type C { id: ID! }",
	})

	t.Run("reads in order", func(t *testing.T) {
		docs, err := Documents(filepath.Join(dir, "*.graphql"))
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, filepath.Join(dir, "a.graphql"), docs[0].Path)
		assert.Equal(t, []string{"type A { id: ID! }", "type B { id: ID! }"}, Texts(docs))
	})

	t.Run("directories are skipped", func(t *testing.T) {
		docs, err := Documents(filepath.Join(dir, "*"))
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("missing file is fatal", func(t *testing.T) {
		_, err := Documents(filepath.Join(dir, "missing.graphql"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty", func(t *testing.T) {
		docs, err := Documents()
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestDirs(t *testing.T) {
	docs := []*Document{
		{Path: filepath.Join("schema", "a.graphql")},
		{Path: filepath.Join("schema", "b.graphql")},
		{Path: filepath.Join("fragments", "post", "p.graphql")},
	}
	dirs := Dirs(docs, filepath.Join("fragments", "**", "*.graphql"), "plain.graphql")
	assert.Equal(t, []string{"fragments", filepath.Join("fragments", "post"), "schema"}, dirs)
}

func TestIsPattern(t *testing.T) {
	assert.True(t, IsPattern("*.graphql"))
	assert.True(t, IsPattern("a/**/b.graphql"))
	assert.True(t, IsPattern("{a,b}.graphql"))
	assert.False(t, IsPattern("schema.graphql"))
}
