// Package resolve annotates parsed fragments with types from a schema.
package resolve

import (
	"errors"
	"fmt"

	"github.com/syssam/fragmodel/compiler/diag"
	"github.com/syssam/fragmodel/compiler/fragment"
	"github.com/syssam/fragmodel/compiler/schema"
)

// TypenameField is the meta field every composite type answers.
const TypenameField = "__typename"

// Option configures Enhance.
type Option func(*resolver)

// WithReporter reports unresolved references to r.
func WithReporter(r *diag.Reporter) Option {
	return func(rs *resolver) {
		rs.reporter = r
	}
}

type resolver struct {
	schema   *schema.Schema
	reporter *diag.Reporter
	errs     []error
}

// item is a pending selection and the type it is selected on.
type item struct {
	sel    *fragment.Selection
	parent string
}

// Enhance resolves the selections of every fragment declared on a type known
// to s, in place. Each resolved selection receives its own copy of the schema
// type. Deprecation set by the parser is kept; otherwise it is taken from the
// schema.
//
// Selections that cannot be resolved are left untyped and reported as
// diag.UnresolvedReferenceError; the returned error joins them.
func Enhance(frags []*fragment.Fragment, s *schema.Schema, opts ...Option) error {
	if s == nil {
		return nil
	}
	r := &resolver{schema: s}
	for _, opt := range opts {
		opt(r)
	}
	for _, f := range frags {
		if f == nil {
			continue
		}
		if !s.HasType(f.TypeCondition) {
			r.reporter.Logger().Debug("fragment type not in schema, skipping resolution",
				"fragment", f.Name, "type", f.TypeCondition)
			continue
		}
		r.fragment(f)
	}
	return errors.Join(r.errs...)
}

// fragment resolves one fragment with an explicit worklist so deeply nested
// selections do not grow the call stack.
func (r *resolver) fragment(f *fragment.Fragment) {
	stack := push(nil, f.Selections, f.TypeCondition)
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sel := it.sel
		if sel.IsInline() {
			if !r.canNarrow(it.parent, sel.TypeCondition) {
				r.report(diag.NewUnresolvedReferenceError(f.Name, it.parent, sel.TypeCondition,
					fmt.Sprintf("%s is not a possible type of %s", sel.TypeCondition, it.parent)))
				continue
			}
			stack = push(stack, sel.Selections, sel.TypeCondition)
			continue
		}
		if sel.Name == TypenameField {
			sel.Type = &schema.Named{Name: "String", NonNull: true}
			continue
		}
		def := r.schema.Field(it.parent, sel.Name)
		if def == nil {
			r.report(diag.NewUnresolvedReferenceError(f.Name, it.parent, sel.Name,
				fmt.Sprintf("no field %q on %s", sel.Name, it.parent)))
			continue
		}
		sel.Type = def.Type.Copy()
		if !sel.Deprecated && def.Deprecated {
			sel.Deprecated = true
			if def.DeprecationReason != nil {
				reason := *def.DeprecationReason
				sel.DeprecationReason = &reason
			}
		}
		stack = push(stack, sel.Selections, def.Type.Innermost())
	}
}

// canNarrow reports whether an inline fragment on cond is valid under parent.
func (r *resolver) canNarrow(parent, cond string) bool {
	if parent == cond {
		return true
	}
	switch r.schema.KindOf(parent) {
	case schema.KindInterface:
		return r.schema.Implements(cond, parent)
	case schema.KindUnion:
		return r.schema.IsMember(parent, cond)
	default:
		return false
	}
}

func (r *resolver) report(err error) {
	r.errs = append(r.errs, err)
	r.reporter.Report(err)
}

// push appends sels in reverse so they pop in source order.
func push(stack []item, sels []*fragment.Selection, parent string) []item {
	for i := len(sels) - 1; i >= 0; i-- {
		stack = append(stack, item{sel: sels[i], parent: parent})
	}
	return stack
}
