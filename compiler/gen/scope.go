package gen

import (
	"slices"
	"strings"

	"github.com/syssam/fragmodel/compiler/fragment"
)

// RootScope is the scope of models declared at the top level of a file.
const RootScope = ""

// commonNames are the field names the Mixed policy always flattens.
var commonNames = []string{
	"author", "user", "profile", "owner", "creator",
	"content", "image", "media", "node", "pageInfo", "metadata",
}

// Scope tracks the model names emitted by one generation pass and where each
// one was placed. A name registered once is never emitted again.
//
// A Scope is owned by a single pass and is not safe for concurrent use.
type Scope struct {
	order      []string
	scopes     map[string]string
	children   map[string][]string
	signatures map[string]string
}

// NewScope returns an empty scope registry.
func NewScope() *Scope {
	s := &Scope{}
	s.Clear()
	return s
}

// IsRegistered reports whether name was registered in this pass.
func (s *Scope) IsRegistered(name string) bool {
	_, ok := s.scopes[name]
	return ok
}

// Register records name as placed in scope.
func (s *Scope) Register(name, scope string) {
	if !s.IsRegistered(name) {
		s.order = append(s.order, name)
	}
	s.scopes[name] = scope
}

// ScopeOf returns the scope name was registered in.
func (s *Scope) ScopeOf(name string) (string, bool) {
	scope, ok := s.scopes[name]
	return scope, ok
}

// RegisterChild records name as a child of scope.
func (s *Scope) RegisterChild(scope, name string) {
	if !slices.Contains(s.children[scope], name) {
		s.children[scope] = append(s.children[scope], name)
	}
}

// Children returns the names registered under scope, in order.
func (s *Scope) Children(scope string) []string {
	return s.children[scope]
}

// SetSignature records the shape of the selection that produced name.
func (s *Scope) SetSignature(name, sig string) {
	s.signatures[name] = sig
}

// Signature returns the recorded selection shape of name.
func (s *Scope) Signature(name string) string {
	return s.signatures[name]
}

// Names returns every registered name in registration order.
func (s *Scope) Names() []string {
	return s.order
}

// Clear resets the registry for a new pass.
func (s *Scope) Clear() {
	s.order = nil
	s.scopes = make(map[string]string)
	s.children = make(map[string][]string)
	s.signatures = make(map[string]string)
}

// flatten reports whether the model of field, at the given nesting depth,
// is placed at the top level rather than under its parent.
func (c *Config) flatten(field string, depth int) bool {
	if c.MaxNestedDepth > 0 && depth > c.MaxNestedDepth {
		return true
	}
	switch c.Nesting {
	case Flattened:
		return true
	case Mixed:
		return slices.Contains(commonNames, field)
	default:
		return false
	}
}

// signature returns a canonical description of a selection set. Two
// selections with the same signature produce identical models.
func signature(sels []*fragment.Selection, spreads []string) string {
	type frame struct {
		sel *fragment.Selection
		lit string
	}
	var (
		b     strings.Builder
		stack []frame
	)
	open := func(sels []*fragment.Selection, spreads []string) {
		b.WriteByte('{')
		stack = append(stack, frame{lit: "} "})
		for i := len(spreads) - 1; i >= 0; i-- {
			stack = append(stack, frame{lit: "..." + spreads[i] + " "})
		}
		for i := len(sels) - 1; i >= 0; i-- {
			stack = append(stack, frame{sel: sels[i]})
		}
	}
	open(sels, spreads)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.sel == nil {
			b.WriteString(f.lit)
			continue
		}
		s := f.sel
		if s.IsInline() {
			b.WriteString("...on ")
			b.WriteString(s.TypeCondition)
		} else {
			b.WriteString(s.Name)
			if t := s.EffectiveType(); t != nil {
				b.WriteByte(':')
				b.WriteString(t.String())
			}
			if s.Deprecated {
				b.WriteByte('@')
			}
		}
		if s.HasSelections() {
			open(s.Selections, s.Spreads)
			continue
		}
		b.WriteByte(' ')
	}
	return b.String()
}
