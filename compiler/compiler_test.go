package compiler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fragmodel/compiler/diag"
	"github.com/syssam/fragmodel/compiler/gen"
)

const schemaSDL = `
type Post {
  id: ID!
  title: String!
  author: User
  comments: [Comment!]!
}

type User {
  id: ID!
  name: String
}

type Comment {
  body: String
  author: User
}
`

const fragmentDoc = `
fragment PostCard on Post {
  id
  title
  author { ...UserName }
  comments { body }
}

fragment UserName on User { name }
`

func quiet(t *testing.T, opts ...gen.Option) *gen.Config {
	t.Helper()
	opts = append(opts, gen.WithLogger(slog.New(slog.DiscardHandler)))
	cfg, err := gen.NewConfig(opts...)
	require.NoError(t, err)
	return cfg
}

func TestCompileDocuments(t *testing.T) {
	res, err := CompileDocuments(context.Background(), quiet(t), []string{schemaSDL}, []string{fragmentDoc})
	require.NoError(t, err)

	require.NotNil(t, res.Schema)
	assert.Equal(t, 2, res.Fragments.Len())
	assert.Empty(t, res.Diagnostics)
	assert.NoError(t, res.Err())

	require.Len(t, res.Outputs, 2)
	assert.Equal(t, "PostCard", res.Outputs[0].Model)
	assert.Equal(t, []string{"PostCard", "PostCardAuthor", "PostCardComment"}, res.Outputs[0].Models)
	assert.Equal(t, "user_name.go", res.Outputs[1].Filename)
}

func TestCompileDocumentsDiagnostics(t *testing.T) {
	frags := `
fragment Broken on Post { id {
fragment PostCard on Post { id missing ...Nope }
`
	res, err := CompileDocuments(context.Background(), quiet(t), []string{schemaSDL}, []string{frags})
	require.NoError(t, err)

	require.Len(t, res.Outputs, 1)
	assert.Equal(t, "PostCard", res.Outputs[0].Model)

	var kinds []diag.Kind
	for _, d := range res.Diagnostics {
		kinds = append(kinds, diag.KindOf(d))
	}
	assert.Equal(t, []diag.Kind{diag.KindSyntax, diag.KindUnresolvedReference, diag.KindUnresolvedReference}, kinds)
	assert.Error(t, res.Err())
}

func TestCompileDocumentsWithoutInference(t *testing.T) {
	cfg := quiet(t, gen.WithSchemaTypeInference(false))
	res, err := CompileDocuments(context.Background(), cfg, []string{schemaSDL}, []string{`fragment P on Post { id title: String! }`})
	require.NoError(t, err)
	require.Len(t, res.Outputs, 1)

	var b strings.Builder
	require.NoError(t, res.Outputs[0].File.Render(&b))
	src := strings.Join(strings.Fields(b.String()), " ")
	assert.Contains(t, src, "ID any `graphql:\"id\" json:\"id,omitempty\"`")
	assert.Contains(t, src, "Title string `graphql:\"title\" json:\"title\"`")
}

func TestCompileCollisions(t *testing.T) {
	cfg := quiet(t, gen.WithNesting(gen.Flattened))
	res, err := CompileDocuments(context.Background(), cfg, []string{schemaSDL}, []string{`
fragment A on Post { author { id } }
fragment B on Comment { author { name } }
`})
	require.NoError(t, err)

	require.Len(t, res.Diagnostics, 1)
	var ge *diag.GenerationError
	require.ErrorAs(t, res.Diagnostics[0], &ge)
	assert.Equal(t, "B", ge.Fragment)
	assert.Equal(t, "Author", ge.Model)
}

func TestCompileFilenames(t *testing.T) {
	res, err := CompileDocuments(context.Background(), quiet(t), []string{schemaSDL}, []string{`
fragment PostV on Post { id }
fragment Postv on Post { title }
fragment PostCard on Post { id }
fragment post_card on Post { title }
`})
	require.NoError(t, err)

	var models, files []string
	for _, out := range res.Outputs {
		models = append(models, out.Model)
		files = append(files, out.Filename)
	}
	assert.Equal(t, []string{"PostV", "Postv", "PostCard", "PostCard"}, models)
	assert.Equal(t, []string{"post_v.go", "postv.go", "post_card.go", "post_card_2.go"}, files)

	require.Len(t, res.Diagnostics, 1)
	var ge *diag.GenerationError
	require.ErrorAs(t, res.Diagnostics[0], &ge)
	assert.Equal(t, "post_card", ge.Fragment)
	assert.Equal(t, "PostCard", ge.Model)
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CompileDocuments(ctx, quiet(t), nil, []string{fragmentDoc})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fragments"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.graphql"), []byte(schemaSDL), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragments", "post.graphql"), []byte(fragmentDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragmodel.yaml"), []byte(`
namespace: api
schemaFilePaths: schema.graphql
fragments: fragments/**/*.graphql
target: out
workers: 2
`), 0o644))

	cfg, err := gen.LoadConfig(filepath.Join(dir, "fragmodel.yaml"), gen.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	res, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, res.Outputs, 2)

	data, err := os.ReadFile(filepath.Join(dir, "out", "post_card.go"))
	require.NoError(t, err)
	src := string(data)
	assert.True(t, strings.HasPrefix(src, "// Code generated by fragmodel. DO NOT EDIT."))
	assert.Contains(t, src, "package api")
	assert.Contains(t, src, "type PostCardAuthor struct")
	assert.FileExists(t, filepath.Join(dir, "out", "user_name.go"))

	t.Run("unreadable document", func(t *testing.T) {
		cfg := quiet(t, gen.WithSchemaFiles(filepath.Join(dir, "missing.graphql")))
		_, err := Generate(context.Background(), cfg)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := Compile(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, gen.IsConfigError(err))
	})
}
