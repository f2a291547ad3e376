// Package diag defines the diagnostics reported while compiling fragments.
//
// Every stage of the pipeline is best-effort: a malformed definition, a
// dangling reference or a failing model never aborts the run. Instead the
// stage reports a typed error to a Reporter and carries on with the rest of
// the input.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the diagnostic kinds.
var (
	// ErrSyntax indicates a malformed schema or fragment definition.
	ErrSyntax = errors.New("fragmodel: syntax error")
	// ErrUnresolvedReference indicates a spread or field that could not be resolved.
	ErrUnresolvedReference = errors.New("fragmodel: unresolved reference")
	// ErrInvalidIdentifier indicates a name unusable as a Go identifier.
	ErrInvalidIdentifier = errors.New("fragmodel: invalid identifier")
	// ErrGenerationFailed indicates a failure emitting one field or model.
	ErrGenerationFailed = errors.New("fragmodel: generation failed")
)

// Kind classifies a diagnostic.
type Kind uint8

// Diagnostic kinds.
const (
	KindSyntax Kind = iota + 1
	KindUnresolvedReference
	KindInvalidIdentifier
	KindGeneration
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindUnresolvedReference:
		return "UnresolvedReference"
	case KindInvalidIdentifier:
		return "InvalidIdentifier"
	case KindGeneration:
		return "GenerationFailure"
	default:
		return "Unknown"
	}
}

// Pos is a 1-based line and column in a source document.
// The zero value means the position is unknown.
type Pos struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool { return p.Line > 0 }

// String implements fmt.Stringer.
func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError represents a malformed definition.
type SyntaxError struct {
	Definition string // e.g. "type Post", "fragment PostFields"
	Pos        Pos
	Message    string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var b strings.Builder
	b.WriteString("fragmodel: syntax error")
	if e.Pos.IsValid() {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}
	if e.Definition != "" {
		b.WriteString(" in ")
		b.WriteString(e.Definition)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// NewSyntaxError creates a new SyntaxError.
func NewSyntaxError(definition string, pos Pos, message string) *SyntaxError {
	return &SyntaxError{Definition: definition, Pos: pos, Message: message}
}

// UnresolvedReferenceError represents a fragment spread naming a missing
// fragment, or a selection that could not be resolved against its parent.
type UnresolvedReferenceError struct {
	Fragment string // fragment being processed
	Parent   string // parent type or model, if any
	Name     string // the unresolved name
	Message  string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("fragmodel: unresolved reference")
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	if e.Parent != "" {
		b.WriteString(" on ")
		b.WriteString(e.Parent)
	}
	if e.Fragment != "" {
		b.WriteString(" in fragment ")
		b.WriteString(e.Fragment)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnresolvedReferenceError.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// NewUnresolvedReferenceError creates a new UnresolvedReferenceError.
func NewUnresolvedReferenceError(fragment, parent, name, message string) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{Fragment: fragment, Parent: parent, Name: name, Message: message}
}

// InvalidIdentifierError represents a name that cannot be used as an output identifier.
type InvalidIdentifierError struct {
	Name      string
	Sanitized string
}

// Error implements the error interface.
func (e *InvalidIdentifierError) Error() string {
	if e.Sanitized != "" {
		return fmt.Sprintf("fragmodel: invalid identifier %q (using %q)", e.Name, e.Sanitized)
	}
	return fmt.Sprintf("fragmodel: invalid identifier %q", e.Name)
}

// Is reports whether the target matches the sentinel error for InvalidIdentifierError.
func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// NewInvalidIdentifierError creates a new InvalidIdentifierError.
func NewInvalidIdentifierError(name, sanitized string) *InvalidIdentifierError {
	return &InvalidIdentifierError{Name: name, Sanitized: sanitized}
}

// GenerationError represents a failure emitting a single model or field.
type GenerationError struct {
	Fragment string
	Model    string
	Field    string
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("fragmodel: generation failed")
	if e.Fragment != "" {
		b.WriteString(" in fragment ")
		b.WriteString(e.Fragment)
	}
	if e.Model != "" {
		b.WriteString(" model ")
		b.WriteString(e.Model)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(fragment, model, field string, cause error) *GenerationError {
	return &GenerationError{Fragment: fragment, Model: model, Field: field, Cause: cause}
}

// KindOf returns the diagnostic kind of err, or 0 if err is not a diagnostic.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrSyntax):
		return KindSyntax
	case errors.Is(err, ErrUnresolvedReference):
		return KindUnresolvedReference
	case errors.Is(err, ErrInvalidIdentifier):
		return KindInvalidIdentifier
	case errors.Is(err, ErrGenerationFailed):
		return KindGeneration
	default:
		return 0
	}
}

// IsSyntaxError reports whether the error is a SyntaxError.
func IsSyntaxError(err error) bool {
	var e *SyntaxError
	return errors.As(err, &e)
}

// IsUnresolvedReference reports whether the error is an UnresolvedReferenceError.
func IsUnresolvedReference(err error) bool {
	var e *UnresolvedReferenceError
	return errors.As(err, &e)
}

// IsInvalidIdentifier reports whether the error is an InvalidIdentifierError.
func IsInvalidIdentifier(err error) bool {
	var e *InvalidIdentifierError
	return errors.As(err, &e)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
