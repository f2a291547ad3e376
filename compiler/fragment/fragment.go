// Package fragment holds the fragment model and the parser for fragment
// documents (`fragment Name on Type { ... }`).
package fragment

import (
	"slices"

	"github.com/syssam/fragmodel/compiler/schema"
)

// Fragment is a named selection declared against one schema type.
type Fragment struct {
	Name          string
	TypeCondition string
	Selections    []*Selection
	// Spreads lists the fragments spread directly in the top-level selection set.
	Spreads []string
	Offset  int
}

// Selection is a field selection or an inline fragment.
//
// The parser fills in the structure; the resolver sets Type and backfills
// deprecation; the generator only reads it.
type Selection struct {
	// Name is the field name. Empty for inline fragments.
	Name string
	// Type is the resolved type, nil until resolved.
	Type schema.Type
	// Annotation is an explicit `name: Type` annotation, used when no
	// schema is available.
	Annotation schema.Type
	// Selections is the nested selection set, in source order.
	Selections []*Selection
	// Spreads lists fragments spread directly in the nested selection set.
	Spreads []string
	// TypeCondition is the narrowing type of an inline fragment.
	TypeCondition string

	Deprecated        bool
	DeprecationReason *string
	Offset            int
}

// IsInline reports whether s is an inline fragment (`... on Type { }`).
func (s *Selection) IsInline() bool { return s.TypeCondition != "" }

// HasSelections reports whether s has a nested selection set or spreads.
func (s *Selection) HasSelections() bool {
	return len(s.Selections) > 0 || len(s.Spreads) > 0
}

// EffectiveType returns the resolved type, falling back to the explicit annotation.
func (s *Selection) EffectiveType() schema.Type {
	if s.Type != nil {
		return s.Type
	}
	return s.Annotation
}

// Walk calls fn for every selection in the tree rooted at sels, depth-first
// in source order, using an explicit stack. Returning false from fn skips the
// children of that selection.
func Walk(sels []*Selection, fn func(*Selection) bool) {
	stack := make([]*Selection, 0, len(sels))
	for i := len(sels) - 1; i >= 0; i-- {
		stack = append(stack, sels[i])
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(s) {
			continue
		}
		for i := len(s.Selections) - 1; i >= 0; i-- {
			stack = append(stack, s.Selections[i])
		}
	}
}

// Set is an ordered collection of fragments addressable by name.
type Set struct {
	list   []*Fragment
	byName map[string]*Fragment
}

// NewSet returns a set over frags. Later fragments replace earlier ones with
// the same name but keep the earlier position.
func NewSet(frags ...*Fragment) *Set {
	s := &Set{byName: make(map[string]*Fragment, len(frags))}
	for _, f := range frags {
		s.Add(f)
	}
	return s
}

// Add adds or replaces f.
func (s *Set) Add(f *Fragment) {
	if f == nil {
		return
	}
	if _, ok := s.byName[f.Name]; ok {
		i := slices.IndexFunc(s.list, func(g *Fragment) bool { return g.Name == f.Name })
		s.list[i] = f
	} else {
		s.list = append(s.list, f)
	}
	s.byName[f.Name] = f
}

// Get returns the named fragment.
func (s *Set) Get(name string) (*Fragment, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.byName[name]
	return f, ok
}

// List returns the fragments in insertion order.
func (s *Set) List() []*Fragment {
	if s == nil {
		return nil
	}
	return s.list
}

// Len returns the number of fragments.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.list)
}
