package diag

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntaxError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		err := NewSyntaxError("type Post", Pos{Line: 3, Column: 7}, "expected ':'")

		assert.Contains(t, err.Error(), "fragmodel: syntax error")
		assert.Contains(t, err.Error(), "at 3:7")
		assert.Contains(t, err.Error(), "in type Post")
		assert.Contains(t, err.Error(), "expected ':'")
	})

	t.Run("Error message without position", func(t *testing.T) {
		err := NewSyntaxError("", Pos{}, "unexpected end of input")
		assert.NotContains(t, err.Error(), " at ")
	})

	t.Run("Is matches ErrSyntax", func(t *testing.T) {
		err := NewSyntaxError("type Post", Pos{}, "")
		assert.True(t, errors.Is(err, ErrSyntax))
		assert.False(t, errors.Is(err, ErrGenerationFailed))
		assert.True(t, IsSyntaxError(err))
		assert.False(t, IsSyntaxError(errors.New("other")))
	})
}

func TestUnresolvedReferenceError(t *testing.T) {
	err := NewUnresolvedReferenceError("A", "X", "B", "fragment is not defined")

	assert.Contains(t, err.Error(), `unresolved reference "B"`)
	assert.Contains(t, err.Error(), "on X")
	assert.Contains(t, err.Error(), "in fragment A")
	assert.True(t, errors.Is(err, ErrUnresolvedReference))
	assert.True(t, IsUnresolvedReference(fmt.Errorf("wrapped: %w", err)))
}

func TestInvalidIdentifierError(t *testing.T) {
	err := NewInvalidIdentifierError("9lives", "X9lives")

	assert.Contains(t, err.Error(), `"9lives"`)
	assert.Contains(t, err.Error(), `using "X9lives"`)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
	assert.True(t, IsInvalidIdentifier(err))
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("boom")
	err := NewGenerationError("PostFields", "PostFieldsAuthor", "name", cause)

	assert.Contains(t, err.Error(), "in fragment PostFields")
	assert.Contains(t, err.Error(), "model PostFieldsAuthor")
	assert.Contains(t, err.Error(), "field name")
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.True(t, IsGenerationError(err))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{NewSyntaxError("", Pos{}, ""), KindSyntax},
		{NewUnresolvedReferenceError("", "", "x", ""), KindUnresolvedReference},
		{NewInvalidIdentifierError("x", ""), KindInvalidIdentifier},
		{NewGenerationError("", "", "", nil), KindGeneration},
		{errors.New("plain"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestReporter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("collects in order", func(t *testing.T) {
		r := NewReporter(logger)
		r.Report(NewSyntaxError("type A", Pos{}, "bad"))
		r.Report(nil)
		r.Report(NewUnresolvedReferenceError("A", "", "B", ""))

		require.Equal(t, 2, r.Len())
		diags := r.Diagnostics()
		assert.True(t, IsSyntaxError(diags[0]))
		assert.True(t, IsUnresolvedReference(diags[1]))
		assert.Equal(t, 1, r.Count(KindSyntax))
		assert.Equal(t, 1, r.Count(KindUnresolvedReference))
		assert.Equal(t, 0, r.Count(KindGeneration))
		assert.ErrorIs(t, r.Err(), ErrSyntax)
		assert.ErrorIs(t, r.Err(), ErrUnresolvedReference)
	})

	t.Run("nil reporter is a no-op", func(t *testing.T) {
		var r *Reporter
		r.Report(errors.New("ignored"))
		assert.Equal(t, 0, r.Len())
		assert.Nil(t, r.Diagnostics())
		assert.NoError(t, r.Err())
		assert.NotNil(t, r.Logger())
	})

	t.Run("concurrent reports", func(t *testing.T) {
		r := NewReporter(logger)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Report(NewGenerationError("F", "M", "f", nil))
			}()
		}
		wg.Wait()
		assert.Equal(t, 50, r.Count(KindGeneration))
	})
}

func TestPos(t *testing.T) {
	assert.Equal(t, "-", Pos{}.String())
	assert.Equal(t, "2:5", Pos{Line: 2, Column: 5}.String())
	assert.False(t, Pos{}.IsValid())
}
