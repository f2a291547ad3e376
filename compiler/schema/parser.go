package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/fragmodel/compiler/diag"
	"github.com/syssam/fragmodel/compiler/lexer"
)

// Definition keywords recognised at the top level of a schema document.
const (
	kwSchema    = "schema"
	kwType      = "type"
	kwInterface = "interface"
	kwUnion     = "union"
	kwEnum      = "enum"
	kwInput     = "input"
	kwScalar    = "scalar"
	kwExtend    = "extend"
	kwDirective = "directive"
)

var keywords = []string{kwSchema, kwType, kwInterface, kwUnion, kwEnum, kwInput, kwScalar, kwExtend, kwDirective}

// IsKeyword reports whether tok starts a top-level schema definition.
func IsKeyword(tok lexer.Token) bool {
	return tok.Kind == lexer.Identifier && slices.Contains(keywords, tok.Value)
}

// ParseOption configures Parse.
type ParseOption func(*parser)

// WithReporter reports syntax errors to r in addition to returning them.
func WithReporter(r *diag.Reporter) ParseOption {
	return func(p *parser) {
		p.reporter = r
	}
}

// Into parses into an existing schema instead of a new one. Definitions of
// the parsed document replace existing ones; `extend` merges into them.
func Into(s *Schema) ParseOption {
	return func(p *parser) {
		if s != nil {
			p.schema = s
		}
	}
}

type parser struct {
	s        *lexer.Stream
	schema   *Schema
	reporter *diag.Reporter
	errs     []error
}

// Parse parses a schema document. A malformed definition is reported and
// skipped; parsing resumes at the next top-level definition. The returned
// schema is never nil and the error, if any, joins every syntax error.
func Parse(text string, opts ...ParseOption) (*Schema, error) {
	p := &parser{s: lexer.NewStream(text)}
	for _, opt := range opts {
		opt(p)
	}
	if p.schema == nil {
		p.schema = New()
	}
	p.parseDocument()
	return p.schema, errors.Join(p.errs...)
}

// ParseAll parses several documents into one schema, in order.
func ParseAll(docs []string, opts ...ParseOption) (*Schema, error) {
	s := New()
	opts = append(opts[:len(opts):len(opts)], Into(s))
	var errs []error
	for _, doc := range docs {
		if _, err := Parse(doc, opts...); err != nil {
			errs = append(errs, err)
		}
	}
	return s, errors.Join(errs...)
}

// MustParse is like Parse but panics on syntax errors.
func MustParse(text string) *Schema {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

func (p *parser) parseDocument() {
	for !p.s.EOF() {
		desc := p.description()
		if p.s.EOF() {
			return
		}
		start := p.s.Index()
		label := p.label()
		if f := p.s.Catch(func() { p.parseDefinition(desc) }); f != nil {
			err := diag.NewSyntaxError(label, f.Pos, f.Message)
			p.errs = append(p.errs, err)
			p.reporter.Report(err)
			from := start + 1
			if p.s.Token(start).IsName(kwExtend) {
				from++
			}
			p.s.Recover(from, IsKeyword)
		}
	}
}

// label describes the definition starting at the cursor, e.g. "type Post".
func (p *parser) label() string {
	kw, name := p.s.Peek(), p.s.PeekAt(1)
	if kw.IsName(kwExtend) {
		kw, name = p.s.PeekAt(1), p.s.PeekAt(2)
	}
	if name.Kind == lexer.Identifier && IsKeyword(kw) {
		return kw.Value + " " + name.Value
	}
	return kw.Value
}

func (p *parser) parseDefinition(desc string) {
	tok := p.s.Next()
	if tok.Kind != lexer.Identifier {
		p.s.Seek(p.s.Index() - 1)
		p.s.Failf("unexpected %q", tok.String())
	}
	switch tok.Value {
	case kwSchema:
		p.parseSchemaDefinition()
	case kwType:
		o := p.parseObject(desc)
		p.schema.Objects[o.Name] = o
	case kwInterface:
		i := p.parseInterface(desc)
		p.schema.Interfaces[i.Name] = i
	case kwUnion:
		u := p.parseUnion(desc)
		p.schema.Unions[u.Name] = u
	case kwEnum:
		e := p.parseEnum(desc)
		p.schema.Enums[e.Name] = e
	case kwInput:
		in := p.parseInput(desc)
		p.schema.Inputs[in.Name] = in
	case kwScalar:
		name := p.s.ExpectName()
		p.skipDirectives()
		p.schema.Scalars[name] = &ScalarType{Name: name, Description: desc}
	case kwExtend:
		p.parseExtension()
	case kwDirective:
		p.skipDirectiveDefinition()
	default:
		p.s.Seek(p.s.Index() - 1)
		p.s.Failf("unexpected %q, expecting a definition keyword", tok.Value)
	}
}

// schema @dir { query: Query mutation: Mutation subscription: Subscription }
func (p *parser) parseSchemaDefinition() {
	p.skipDirectives()
	p.s.Expect(lexer.BraceL)
	for !p.s.Accept(lexer.BraceR) {
		op := p.s.ExpectName()
		p.s.Expect(lexer.Colon)
		name := p.s.ExpectName()
		switch op {
		case "query":
			p.schema.Query = name
		case "mutation":
			p.schema.Mutation = name
		case "subscription":
			p.schema.Subscription = name
		default:
			p.s.Failf("unknown root operation %q", op)
		}
	}
}

func (p *parser) parseObject(desc string) *ObjectType {
	o := &ObjectType{Name: p.s.ExpectName(), Description: desc}
	o.Implements = p.parseImplements()
	p.skipDirectives()
	o.Fields = p.parseFieldsBlock()
	return o
}

func (p *parser) parseInterface(desc string) *InterfaceType {
	i := &InterfaceType{Name: p.s.ExpectName(), Description: desc}
	i.Implements = p.parseImplements()
	p.skipDirectives()
	i.Fields = p.parseFieldsBlock()
	return i
}

func (p *parser) parseInput(desc string) *InputType {
	in := &InputType{Name: p.s.ExpectName(), Description: desc}
	p.skipDirectives()
	in.Fields = p.parseFieldsBlock()
	return in
}

// union SearchResult @dir = | Post | Comment
func (p *parser) parseUnion(desc string) *UnionType {
	u := &UnionType{Name: p.s.ExpectName(), Description: desc}
	p.skipDirectives()
	if p.s.Accept(lexer.Equals) {
		u.Members = p.parseMembers()
	}
	return u
}

func (p *parser) parseMembers() []string {
	var members []string
	p.s.Accept(lexer.Pipe)
	members = append(members, p.s.ExpectName())
	for p.s.Accept(lexer.Pipe) {
		members = append(members, p.s.ExpectName())
	}
	return members
}

func (p *parser) parseEnum(desc string) *EnumType {
	e := &EnumType{Name: p.s.ExpectName(), Description: desc}
	p.skipDirectives()
	e.Values = p.parseEnumValues()
	return e
}

func (p *parser) parseEnumValues() []*EnumValue {
	if !p.s.Accept(lexer.BraceL) {
		return nil
	}
	var values []*EnumValue
	for !p.s.Accept(lexer.BraceR) {
		v := &EnumValue{Description: p.description()}
		v.Name = p.s.ExpectName()
		v.Deprecated, v.DeprecationReason = ReadDirectives(p.s)
		values = append(values, v)
	}
	return values
}

// parseExtension merges `extend <kind> Name ...` into the existing definition,
// creating it when it does not exist yet.
func (p *parser) parseExtension() {
	kw := p.s.Next()
	switch {
	case kw.IsName(kwType):
		ext := p.parseObject("")
		if o := p.schema.Objects[ext.Name]; o != nil {
			o.Implements = appendUnique(o.Implements, ext.Implements...)
			o.Fields = mergeFields(o.Fields, ext.Fields)
			return
		}
		p.schema.Objects[ext.Name] = ext
	case kw.IsName(kwInterface):
		ext := p.parseInterface("")
		if i := p.schema.Interfaces[ext.Name]; i != nil {
			i.Implements = appendUnique(i.Implements, ext.Implements...)
			i.Fields = mergeFields(i.Fields, ext.Fields)
			return
		}
		p.schema.Interfaces[ext.Name] = ext
	case kw.IsName(kwInput):
		ext := p.parseInput("")
		if in := p.schema.Inputs[ext.Name]; in != nil {
			in.Fields = mergeFields(in.Fields, ext.Fields)
			return
		}
		p.schema.Inputs[ext.Name] = ext
	case kw.IsName(kwUnion):
		ext := p.parseUnion("")
		if u := p.schema.Unions[ext.Name]; u != nil {
			u.Members = appendUnique(u.Members, ext.Members...)
			return
		}
		p.schema.Unions[ext.Name] = ext
	case kw.IsName(kwEnum):
		ext := p.parseEnum("")
		if e := p.schema.Enums[ext.Name]; e != nil {
			e.Values = append(e.Values, ext.Values...)
			return
		}
		p.schema.Enums[ext.Name] = ext
	case kw.IsName(kwScalar):
		name := p.s.ExpectName()
		p.skipDirectives()
		if p.schema.Scalars[name] == nil {
			p.schema.Scalars[name] = &ScalarType{Name: name}
		}
	case kw.IsName(kwSchema):
		p.parseSchemaDefinition()
	default:
		p.s.Seek(p.s.Index() - 1)
		p.s.Failf("cannot extend %q", kw.Value)
	}
}

// directive @name(args) repeatable on LOCATION | LOCATION
func (p *parser) skipDirectiveDefinition() {
	p.s.Expect(lexer.At)
	p.s.ExpectName()
	p.s.SkipBalanced()
	if p.s.Peek().IsName("repeatable") {
		p.s.Next()
	}
	p.s.ExpectKeyword("on")
	p.parseMembers()
}

// parseImplements reads `implements A & B`, also accepting the legacy
// comma/space separated form.
func (p *parser) parseImplements() []string {
	if !p.s.Peek().IsName("implements") {
		return nil
	}
	p.s.Next()
	var names []string
	for {
		p.s.Accept(lexer.Amp)
		t := p.s.Peek()
		if t.Kind != lexer.Identifier || (IsKeyword(t) && lexer.StartsLine(p.s.Text(), t.Offset)) {
			break
		}
		names = append(names, p.s.Next().Value)
	}
	if len(names) == 0 {
		p.s.Failf("expected interface name after implements")
	}
	return names
}

func (p *parser) parseFieldsBlock() []*FieldDef {
	if !p.s.Accept(lexer.BraceL) {
		return nil
	}
	var fields []*FieldDef
	for !p.s.Accept(lexer.BraceR) {
		if p.s.EOF() {
			p.s.Failf("unterminated field list")
		}
		fields = append(fields, p.parseField())
	}
	return fields
}

// "description" name(args): Type @deprecated(reason: "...")
func (p *parser) parseField() *FieldDef {
	f := &FieldDef{Description: p.description()}
	f.Name = p.s.ExpectName()
	f.Arguments = p.parseArguments()
	p.s.Expect(lexer.Colon)
	f.Type = ReadType(p.s)
	if p.s.Accept(lexer.Equals) {
		// Input fields may carry a default value; it has no effect on models.
		p.readValue()
	}
	f.Deprecated, f.DeprecationReason = ReadDirectives(p.s)
	return f
}

func (p *parser) parseArguments() []*ArgumentDef {
	if !p.s.Accept(lexer.ParenL) {
		return nil
	}
	var args []*ArgumentDef
	for !p.s.Accept(lexer.ParenR) {
		if p.s.EOF() {
			p.s.Failf("unterminated argument list")
		}
		p.description()
		a := &ArgumentDef{Name: p.s.ExpectName()}
		p.s.Expect(lexer.Colon)
		a.Type = ReadType(p.s)
		if p.s.Accept(lexer.Equals) {
			v := p.readValue()
			a.Default = &v
		}
		p.skipDirectives()
		args = append(args, a)
	}
	return args
}

// readValue consumes one value literal and returns its raw source text.
func (p *parser) readValue() string {
	start := p.s.Index()
	if !p.s.SkipBalanced() {
		t := p.s.Next()
		if t.Kind != lexer.Identifier && t.Kind != lexer.StringLiteral {
			p.s.Seek(start)
			p.s.Failf("expected value, found %q", t.String())
		}
	}
	return p.s.Raw(start, p.s.Index())
}

func (p *parser) skipDirectives() {
	for p.s.Accept(lexer.At) {
		p.s.ExpectName()
		p.s.SkipBalanced()
	}
}

// description consumes an optional leading description string.
func (p *parser) description() string {
	if t := p.s.Peek(); t.Kind == lexer.StringLiteral {
		p.s.Next()
		return t.Value
	}
	return ""
}

// ReadType reads a type reference such as `[Post!]!`. Wrappers bind from
// the inside out: the trailing `!` applies to the list, the inner `!` to the
// element.
func ReadType(s *lexer.Stream) Type {
	var t Type
	if s.Accept(lexer.BracketL) {
		elem := ReadType(s)
		s.Expect(lexer.BracketR)
		t = &List{Elem: elem}
	} else {
		t = &Named{Name: s.ExpectName()}
	}
	if s.Accept(lexer.Bang) {
		switch t := t.(type) {
		case *Named:
			t.NonNull = true
		case *List:
			t.NonNull = true
		}
	}
	return t
}

// ParseType parses a standalone type reference.
func ParseType(text string) (Type, error) {
	s := lexer.NewStream(text)
	var t Type
	if f := s.Catch(func() { t = ReadType(s) }); f != nil {
		return nil, diag.NewSyntaxError("type reference", f.Pos, f.Message)
	}
	if !s.EOF() {
		return nil, diag.NewSyntaxError("type reference", s.Pos(), fmt.Sprintf("unexpected %q", s.Peek().String()))
	}
	return t, nil
}

// ReadDirectives consumes a run of directives and reports whether one of
// them is @deprecated. A bare @deprecated yields a nil reason; other
// directives are skipped without effect.
func ReadDirectives(s *lexer.Stream) (deprecated bool, reason *string) {
	for s.Accept(lexer.At) {
		name := s.ExpectName()
		if name != "deprecated" {
			s.SkipBalanced()
			continue
		}
		deprecated = true
		if !s.Peek().IsPunct(lexer.ParenL) {
			continue
		}
		end, ok := s.MatchBrace(s.Index())
		if !ok {
			s.Failf("unbalanced %q", lexer.ParenL)
		}
		s.Next()
		for s.Index() < end {
			arg := s.ExpectName()
			s.Expect(lexer.Colon)
			if t := s.Peek(); arg == "reason" && t.Kind == lexer.StringLiteral {
				r := t.Value
				reason = &r
				s.Next()
				continue
			}
			if !s.SkipBalanced() {
				s.Next()
			}
		}
		s.Seek(end + 1)
	}
	return deprecated, reason
}

func appendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		if !slices.Contains(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// mergeFields appends ext to fields, replacing fields with the same name.
func mergeFields(fields, ext []*FieldDef) []*FieldDef {
	for _, f := range ext {
		i := slices.IndexFunc(fields, func(g *FieldDef) bool { return g.Name == f.Name })
		if i >= 0 {
			fields[i] = f
			continue
		}
		fields = append(fields, f)
	}
	return fields
}
