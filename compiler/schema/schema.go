// Package schema holds the GraphQL schema model and the SDL parser that
// builds it.
package schema

import (
	"maps"
	"slices"
)

// Kind classifies a named schema type.
type Kind uint8

// Schema type kinds.
const (
	KindUnknown Kind = iota
	KindObject
	KindInterface
	KindUnion
	KindEnum
	KindScalar
	KindInput
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "type"
	case KindInterface:
		return "interface"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindScalar:
		return "scalar"
	case KindInput:
		return "input"
	default:
		return "unknown"
	}
}

// BuiltinScalars are the scalars every schema defines implicitly.
var BuiltinScalars = []string{"String", "Int", "Float", "Boolean", "ID"}

// Schema is a parsed GraphQL schema. Each kind lives in its own namespace;
// a later definition replaces an earlier one of the same kind and name.
type Schema struct {
	Objects    map[string]*ObjectType
	Interfaces map[string]*InterfaceType
	Unions     map[string]*UnionType
	Enums      map[string]*EnumType
	Scalars    map[string]*ScalarType
	Inputs     map[string]*InputType

	// Root operation type names. Empty when not declared.
	Query        string
	Mutation     string
	Subscription string
}

// New returns an empty schema.
func New() *Schema {
	return &Schema{
		Objects:    make(map[string]*ObjectType),
		Interfaces: make(map[string]*InterfaceType),
		Unions:     make(map[string]*UnionType),
		Enums:      make(map[string]*EnumType),
		Scalars:    make(map[string]*ScalarType),
		Inputs:     make(map[string]*InputType),
	}
}

// ObjectType is a `type` definition.
type ObjectType struct {
	Name        string
	Description string
	Implements  []string
	Fields      []*FieldDef
}

// InterfaceType is an `interface` definition.
type InterfaceType struct {
	Name        string
	Description string
	Implements  []string
	Fields      []*FieldDef
}

// UnionType is a `union` definition.
type UnionType struct {
	Name        string
	Description string
	Members     []string
}

// EnumType is an `enum` definition.
type EnumType struct {
	Name        string
	Description string
	Values      []*EnumValue
}

// EnumValue is a single enum value.
type EnumValue struct {
	Name              string
	Description       string
	Deprecated        bool
	DeprecationReason *string
}

// ScalarType is a `scalar` definition.
type ScalarType struct {
	Name        string
	Description string
}

// InputType is an `input` definition.
type InputType struct {
	Name        string
	Description string
	Fields      []*FieldDef
}

// FieldDef is a field of an object, interface or input type.
type FieldDef struct {
	Name              string
	Description       string
	Type              Type
	Arguments         []*ArgumentDef
	Deprecated        bool
	DeprecationReason *string
}

// ArgumentDef is a field argument. Default holds the raw default literal.
type ArgumentDef struct {
	Name    string
	Type    Type
	Default *string
}

// KindOf returns the kind of the named type, or KindUnknown.
// Built-in scalars are reported as KindScalar.
func (s *Schema) KindOf(name string) Kind {
	switch {
	case s.Objects[name] != nil:
		return KindObject
	case s.Interfaces[name] != nil:
		return KindInterface
	case s.Unions[name] != nil:
		return KindUnion
	case s.Enums[name] != nil:
		return KindEnum
	case s.Inputs[name] != nil:
		return KindInput
	case s.Scalars[name] != nil, slices.Contains(BuiltinScalars, name):
		return KindScalar
	default:
		return KindUnknown
	}
}

// HasType reports whether the schema defines the named type.
func (s *Schema) HasType(name string) bool {
	return s.KindOf(name) != KindUnknown
}

// IsComposite reports whether the named type has a selection set.
func (s *Schema) IsComposite(name string) bool {
	switch s.KindOf(name) {
	case KindObject, KindInterface, KindUnion:
		return true
	default:
		return false
	}
}

// Field returns the field definition named field on the named type, looking
// at objects, interfaces and inputs. It returns nil when either is unknown.
func (s *Schema) Field(typeName, field string) *FieldDef {
	var fields []*FieldDef
	switch {
	case s.Objects[typeName] != nil:
		fields = s.Objects[typeName].Fields
	case s.Interfaces[typeName] != nil:
		fields = s.Interfaces[typeName].Fields
	case s.Inputs[typeName] != nil:
		fields = s.Inputs[typeName].Fields
	}
	for _, f := range fields {
		if f.Name == field {
			return f
		}
	}
	return nil
}

// Implements reports whether the object (or interface) typeName declares iface.
func (s *Schema) Implements(typeName, iface string) bool {
	if o := s.Objects[typeName]; o != nil {
		return slices.Contains(o.Implements, iface)
	}
	if i := s.Interfaces[typeName]; i != nil {
		return slices.Contains(i.Implements, iface)
	}
	return false
}

// IsMember reports whether typeName is a member of the named union.
func (s *Schema) IsMember(union, typeName string) bool {
	u := s.Unions[union]
	return u != nil && slices.Contains(u.Members, typeName)
}

// Description returns the description of the named type, if any.
func (s *Schema) Description(name string) string {
	switch {
	case s.Objects[name] != nil:
		return s.Objects[name].Description
	case s.Interfaces[name] != nil:
		return s.Interfaces[name].Description
	case s.Unions[name] != nil:
		return s.Unions[name].Description
	case s.Enums[name] != nil:
		return s.Enums[name].Description
	case s.Scalars[name] != nil:
		return s.Scalars[name].Description
	case s.Inputs[name] != nil:
		return s.Inputs[name].Description
	}
	return ""
}

// Merge copies every definition of other into s. Definitions in other win.
func (s *Schema) Merge(other *Schema) {
	if other == nil {
		return
	}
	maps.Copy(s.Objects, other.Objects)
	maps.Copy(s.Interfaces, other.Interfaces)
	maps.Copy(s.Unions, other.Unions)
	maps.Copy(s.Enums, other.Enums)
	maps.Copy(s.Scalars, other.Scalars)
	maps.Copy(s.Inputs, other.Inputs)
	if other.Query != "" {
		s.Query = other.Query
	}
	if other.Mutation != "" {
		s.Mutation = other.Mutation
	}
	if other.Subscription != "" {
		s.Subscription = other.Subscription
	}
}
