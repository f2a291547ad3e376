package schema

import "strings"

// Type is a GraphQL type reference. It is either a *Named or a *List; no
// other implementations exist.
type Type interface {
	// Nullable reports whether the outermost type accepts null.
	Nullable() bool
	// Copy returns a deep copy of the type.
	Copy() Type
	// Innermost returns the name of the named type with all list wrappers stripped.
	Innermost() string
	// String returns the SDL form of the type, e.g. "[String!]!".
	String() string

	isType()
}

// Named is a reference to a named type, e.g. "String" or "Post!".
type Named struct {
	Name    string
	NonNull bool
}

// List is a list type wrapping an element type, e.g. "[Post!]".
type List struct {
	Elem    Type
	NonNull bool
}

var (
	_ Type = (*Named)(nil)
	_ Type = (*List)(nil)
)

func (*Named) isType() {}
func (*List) isType()  {}

// Nullable implements Type.
func (t *Named) Nullable() bool { return !t.NonNull }

// Nullable implements Type.
func (t *List) Nullable() bool { return !t.NonNull }

// Copy implements Type.
func (t *Named) Copy() Type {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Copy implements Type.
func (t *List) Copy() Type {
	if t == nil {
		return nil
	}
	c := &List{NonNull: t.NonNull}
	if t.Elem != nil {
		c.Elem = t.Elem.Copy()
	}
	return c
}

// Innermost implements Type.
func (t *Named) Innermost() string { return t.Name }

// Innermost implements Type.
func (t *List) Innermost() string {
	if t.Elem == nil {
		return ""
	}
	return t.Elem.Innermost()
}

// String implements Type.
func (t *Named) String() string {
	if t.NonNull {
		return t.Name + "!"
	}
	return t.Name
}

// String implements Type.
func (t *List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	if t.Elem != nil {
		b.WriteString(t.Elem.String())
	}
	b.WriteByte(']')
	if t.NonNull {
		b.WriteByte('!')
	}
	return b.String()
}

// IsList reports whether t is a list type.
func IsList(t Type) bool {
	_, ok := t.(*List)
	return ok
}

// CopyType returns a deep copy of t, tolerating nil.
func CopyType(t Type) Type {
	if t == nil {
		return nil
	}
	return t.Copy()
}
