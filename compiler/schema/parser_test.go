package schema

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/syssam/fragmodel/compiler/diag"
)

const blogSchema = `
schema {
  query: Query
  mutation: Mutation
}

"""A node with a global ID."""
interface Node {
  id: ID!
}

interface User implements Node {
  id: ID!
  name: String!
}

type Admin implements Node & User @key(fields: "id") {
  id: ID!
  name: String!
  permissions: [String!]!
}

type Member implements Node & User {
  id: ID!
  name: String!
  joinedAt: DateTime
}

"A blog post."
type Post implements Node {
  id: ID!
  "The post title."
  title: String!
  tags: [String]
  author: User
  comments(first: Int = 10, after: String): [Comment!]!
  legacyId: Int @deprecated
  slug: String @deprecated(reason: "Use id.")
  status: PostStatus!
}

type Comment {
  body: String!
  author: User!
  replies: [Comment!]
}

union SearchResult = | Post | Comment

enum PostStatus {
  DRAFT
  PUBLISHED
  ARCHIVED @deprecated(reason: "Gone.")
}

input PostFilter {
  status: PostStatus = PUBLISHED
  tags: [String!]
}

scalar DateTime

directive @key(fields: String!) repeatable on OBJECT | INTERFACE

type Query {
  post(id: ID!): Post
  search(term: String!): [SearchResult!]!
}

type Mutation {
  publish(id: ID!): Post
}
`

func quietReporter() *diag.Reporter {
	return diag.NewReporter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParse(t *testing.T) {
	s, err := Parse(blogSchema)
	require.NoError(t, err)

	t.Run("root operations", func(t *testing.T) {
		assert.Equal(t, "Query", s.Query)
		assert.Equal(t, "Mutation", s.Mutation)
		assert.Empty(t, s.Subscription)
	})

	t.Run("kinds", func(t *testing.T) {
		assert.Equal(t, KindInterface, s.KindOf("Node"))
		assert.Equal(t, KindObject, s.KindOf("Post"))
		assert.Equal(t, KindUnion, s.KindOf("SearchResult"))
		assert.Equal(t, KindEnum, s.KindOf("PostStatus"))
		assert.Equal(t, KindInput, s.KindOf("PostFilter"))
		assert.Equal(t, KindScalar, s.KindOf("DateTime"))
		assert.Equal(t, KindScalar, s.KindOf("String"))
		assert.Equal(t, KindUnknown, s.KindOf("Nope"))
		assert.True(t, s.IsComposite("SearchResult"))
		assert.False(t, s.IsComposite("PostStatus"))
	})

	t.Run("implements", func(t *testing.T) {
		assert.Equal(t, []string{"Node", "User"}, s.Objects["Admin"].Implements)
		assert.Equal(t, []string{"Node"}, s.Interfaces["User"].Implements)
		assert.True(t, s.Implements("Admin", "User"))
		assert.False(t, s.Implements("Post", "User"))
	})

	t.Run("union members", func(t *testing.T) {
		assert.Equal(t, []string{"Post", "Comment"}, s.Unions["SearchResult"].Members)
		assert.True(t, s.IsMember("SearchResult", "Comment"))
		assert.False(t, s.IsMember("SearchResult", "Admin"))
	})

	t.Run("field order", func(t *testing.T) {
		var names []string
		for _, f := range s.Objects["Post"].Fields {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"id", "title", "tags", "author", "comments", "legacyId", "slug", "status"}, names)
	})

	t.Run("arguments", func(t *testing.T) {
		f := s.Field("Post", "comments")
		require.NotNil(t, f)
		require.Len(t, f.Arguments, 2)
		assert.Equal(t, "first", f.Arguments[0].Name)
		assert.Equal(t, "Int", f.Arguments[0].Type.String())
		require.NotNil(t, f.Arguments[0].Default)
		assert.Equal(t, "10", *f.Arguments[0].Default)
		assert.Nil(t, f.Arguments[1].Default)
	})

	t.Run("deprecation", func(t *testing.T) {
		legacy := s.Field("Post", "legacyId")
		assert.True(t, legacy.Deprecated)
		assert.Nil(t, legacy.DeprecationReason)

		slug := s.Field("Post", "slug")
		assert.True(t, slug.Deprecated)
		require.NotNil(t, slug.DeprecationReason)
		assert.Equal(t, "Use id.", *slug.DeprecationReason)

		assert.False(t, s.Field("Post", "title").Deprecated)

		values := s.Enums["PostStatus"].Values
		require.Len(t, values, 3)
		assert.False(t, values[0].Deprecated)
		assert.True(t, values[2].Deprecated)
		assert.Equal(t, "Gone.", *values[2].DeprecationReason)
	})

	t.Run("descriptions", func(t *testing.T) {
		assert.Equal(t, "A node with a global ID.", s.Interfaces["Node"].Description)
		assert.Equal(t, "A blog post.", s.Description("Post"))
		assert.Equal(t, "The post title.", s.Field("Post", "title").Description)
	})
}

func TestParseTypeBinding(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"String", &Named{Name: "String"}},
		{"String!", &Named{Name: "String", NonNull: true}},
		{"[String!]!", &List{NonNull: true, Elem: &Named{Name: "String", NonNull: true}}},
		{"[String]", &List{Elem: &Named{Name: "String"}}},
		{"[[Int!]]!", &List{NonNull: true, Elem: &List{Elem: &Named{Name: "Int", NonNull: true}}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	t.Run("errors", func(t *testing.T) {
		for _, in := range []string{"[String", "", "String ]"} {
			_, err := ParseType(in)
			assert.True(t, diag.IsSyntaxError(err), in)
		}
	})
}

func TestParseRecovery(t *testing.T) {
	t.Run("malformed definition is skipped", func(t *testing.T) {
		r := quietReporter()
		s, err := Parse(`
type Good {
  id: ID!
}

type Broken {
  id ID!
  name: String
}

type AlsoGood {
  name: String
}
`, WithReporter(r))
		require.Error(t, err)
		assert.True(t, diag.IsSyntaxError(err))
		assert.Equal(t, 1, r.Count(diag.KindSyntax))
		assert.Contains(t, err.Error(), "type Broken")
		assert.NotNil(t, s.Objects["Good"])
		assert.Nil(t, s.Objects["Broken"])
		require.NotNil(t, s.Objects["AlsoGood"])
		assert.Len(t, s.Objects["AlsoGood"].Fields, 1)
	})

	t.Run("missing closing brace recovers at unindented keyword", func(t *testing.T) {
		s, err := Parse(`
type A {
  id: ID!
  type: String
type B {
  id: ID!
}
`)
		require.Error(t, err)
		assert.NotNil(t, s.Objects["B"])
	})

	t.Run("keyword-named fields do not trigger recovery", func(t *testing.T) {
		s, err := Parse(`
type Broken {
  input: ;
  type: String
}
type Next { id: ID }
`)
		require.Error(t, err)
		assert.NotNil(t, s.Objects["Next"])
		assert.Nil(t, s.Objects["String"])
	})

	t.Run("garbage at top level", func(t *testing.T) {
		r := quietReporter()
		s, err := Parse(`garbage here { } type A { id: ID }`, WithReporter(r))
		require.Error(t, err)
		assert.Equal(t, 1, r.Count(diag.KindSyntax))
		assert.NotNil(t, s.Objects["A"])
	})
}

func TestParseExtend(t *testing.T) {
	s, err := ParseAll([]string{
		`type Post { id: ID! }`,
		`extend type Post implements Node { title: String }
		 extend union Result = Post
		 extend type Comment { body: String }`,
	})
	require.NoError(t, err)
	post := s.Objects["Post"]
	require.NotNil(t, post)
	assert.Len(t, post.Fields, 2)
	assert.Equal(t, []string{"Node"}, post.Implements)
	assert.Equal(t, []string{"Post"}, s.Unions["Result"].Members)
	assert.NotNil(t, s.Objects["Comment"])
}

func TestParseLastWriteWins(t *testing.T) {
	s, err := Parse(`type A { x: Int } type A { y: Int }`)
	require.NoError(t, err)
	require.Len(t, s.Objects["A"].Fields, 1)
	assert.Equal(t, "y", s.Objects["A"].Fields[0].Name)
}

// TestParseMatchesGQLParser cross-checks field types against gqlparser.
func TestParseMatchesGQLParser(t *testing.T) {
	ours, err := Parse(blogSchema)
	require.NoError(t, err)
	theirs, gerr := gqlparser.LoadSchema(&ast.Source{Name: "blog.graphql", Input: blogSchema})
	require.Nil(t, gerr)

	for name, obj := range ours.Objects {
		def := theirs.Types[name]
		require.NotNil(t, def, name)
		for _, f := range obj.Fields {
			other := def.Fields.ForName(f.Name)
			require.NotNil(t, other, "%s.%s", name, f.Name)
			assertSameType(t, other.Type, f.Type)
			assert.Equal(t, other.Directives.ForName("deprecated") != nil, f.Deprecated, "%s.%s", name, f.Name)
		}
	}
}

func assertSameType(t *testing.T, want *ast.Type, got Type) {
	t.Helper()
	assert.Equal(t, want.NonNull, !got.Nullable(), want.String())
	switch got := got.(type) {
	case *List:
		require.NotNil(t, want.Elem, want.String())
		assertSameType(t, want.Elem, got.Elem)
	case *Named:
		assert.Equal(t, want.NamedType, got.Name)
	}
}

func TestTypeCopy(t *testing.T) {
	orig := &List{NonNull: true, Elem: &Named{Name: "Post", NonNull: true}}
	cp := orig.Copy().(*List)
	cp.Elem.(*Named).Name = "Comment"
	cp.NonNull = false

	assert.Equal(t, "[Post!]!", orig.String())
	assert.Equal(t, "[Comment!]", cp.String())
	assert.Equal(t, "Post", orig.Innermost())
	assert.True(t, IsList(orig))
	assert.Nil(t, CopyType(nil))
}
