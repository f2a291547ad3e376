package gen

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithHeader(t *testing.T) {
	t.Run("sets header", func(t *testing.T) {
		c := &Config{}
		err := WithHeader("Custom header")(c)

		require.NoError(t, err)
		assert.Equal(t, "Custom header", c.Header)
	})

	t.Run("empty header is allowed", func(t *testing.T) {
		c := &Config{Header: "existing"}
		err := WithHeader("")(c)

		require.NoError(t, err)
		assert.Equal(t, "", c.Header)
	})
}

func TestWithNamespace(t *testing.T) {
	tests := []struct {
		name    string
		ns      string
		wantErr bool
	}{
		{"simple", "models", false},
		{"underscore", "api_models", false},
		{"empty", "", true},
		{"dash", "my-models", true},
		{"keyword", "type", true},
		{"leading digit", "1models", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			err := WithNamespace(tt.ns)(c)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ns, c.Namespace)
		})
	}
}

func TestWithTarget(t *testing.T) {
	t.Run("sets target", func(t *testing.T) {
		c := &Config{}
		err := WithTarget("./generated")(c)

		require.NoError(t, err)
		assert.Equal(t, "./generated", c.Target)
	})

	t.Run("empty target returns error", func(t *testing.T) {
		c := &Config{}
		err := WithTarget("")(c)

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})
}

func TestWithDocuments(t *testing.T) {
	c := &Config{}
	require.NoError(t, c.Apply(
		WithSchemaFiles("schema.graphql"),
		WithSchemaFiles("extra/*.graphql"),
		WithFragments("fragments/**/*.graphql"),
	))

	assert.Equal(t, StringList{"schema.graphql", "extra/*.graphql"}, c.SchemaFiles)
	assert.Equal(t, StringList{"fragments/**/*.graphql"}, c.Fragments)
}

func TestWithScalars(t *testing.T) {
	t.Run("merges mappings", func(t *testing.T) {
		c := &Config{Scalars: map[string]string{"Cursor": "string"}}
		err := WithScalars(map[string]string{
			"UUID":   "github.com/google/uuid.UUID",
			"Cursor": "int64",
		})(c)

		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"UUID":   "github.com/google/uuid.UUID",
			"Cursor": "int64",
		}, c.Scalars)
	})

	t.Run("nil map is allocated", func(t *testing.T) {
		c := &Config{}
		require.NoError(t, WithScalars(map[string]string{"Money": "int64"})(c))
		assert.Equal(t, "int64", c.Scalars["Money"])
	})

	t.Run("invalid type returns error", func(t *testing.T) {
		c := &Config{}
		err := WithScalars(map[string]string{"Bad": "github.com/x/pkg."})(c)

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Nil(t, c.Scalars)
	})
}

func TestWithNesting(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithNesting(Mixed)(c))
	assert.Equal(t, Mixed, c.Nesting)

	err := WithNesting(NestingPolicy(9))(c)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Equal(t, Mixed, c.Nesting)
}

func TestWithMaxNestedDepth(t *testing.T) {
	c := &Config{}
	require.NoError(t, WithMaxNestedDepth(2)(c))
	assert.Equal(t, 2, c.MaxNestedDepth)

	err := WithMaxNestedDepth(-1)(c)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestWithToggles(t *testing.T) {
	c := &Config{SchemaTypeInference: true}
	require.NoError(t, c.Apply(
		WithValueSemantics(true),
		WithInitOnlyProperties(true),
		WithDocComments(true, true),
		WithSchemaTypeInference(false),
		WithValidateNonNull(true),
	))

	assert.True(t, c.ValueSemantics)
	assert.True(t, c.InitOnlyProperties)
	assert.True(t, c.DocComments)
	assert.True(t, c.FieldDescriptions)
	assert.False(t, c.SchemaTypeInference)
	assert.True(t, c.ValidateNonNull)
}

func TestWithWorkers(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"one", 1, false},
		{"many", 16, false},
		{"zero", 0, true},
		{"negative", -4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			err := WithWorkers(tt.n)(c)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.n, c.Workers)
		})
	}
}

func TestWithLogger(t *testing.T) {
	t.Run("sets logger", func(t *testing.T) {
		l := slog.New(slog.DiscardHandler)
		c := &Config{}
		require.NoError(t, WithLogger(l)(c))
		assert.Same(t, l, c.Log())
	})

	t.Run("nil logger returns error", func(t *testing.T) {
		c := &Config{}
		err := WithLogger(nil)(c)
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Same(t, slog.Default(), c.Log())
	})
}

func TestConfigApply(t *testing.T) {
	t.Run("applies all options", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(
			WithNamespace("api"),
			WithTarget("./out"),
		)

		require.NoError(t, err)
		assert.Equal(t, "api", c.Namespace)
		assert.Equal(t, "./out", c.Target)
	})

	t.Run("stops on first error", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(
			WithNamespace("api"),
			WithTarget(""),
			WithHeader("never applied"),
		)

		require.Error(t, err)
		assert.Equal(t, "api", c.Namespace)
		assert.Empty(t, c.Header)
	})
}

func TestConfigApplyAll(t *testing.T) {
	c := &Config{}
	err := c.ApplyAll(
		WithNamespace("bad-name"),
		WithTarget(""),
		WithHeader("applied"),
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, "applied", c.Header)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.Len(t, joined.Unwrap(), 2)
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewConfig()
		require.NoError(t, err)

		assert.Equal(t, "models", c.Namespace)
		assert.Equal(t, "models", c.Target)
		assert.Equal(t, DefaultHeader, c.Header)
		assert.Equal(t, Nested, c.Nesting)
		assert.True(t, c.SchemaTypeInference)
		assert.Positive(t, c.Workers)
	})

	t.Run("option error", func(t *testing.T) {
		c, err := NewConfig(WithWorkers(0))
		require.Error(t, err)
		assert.Nil(t, c)
	})

	t.Run("must panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNewConfig(WithNamespace("")) })
		assert.NotPanics(t, func() { MustNewConfig(WithNamespace("api")) })
	})
}
