package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"slices"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/fragmodel/compiler/diag"
	"github.com/syssam/fragmodel/compiler/fragment"
	"github.com/syssam/fragmodel/compiler/schema"
)

// Generator renders the Go models of fragments with Jennifer. One file is
// produced per fragment; every call runs a fresh pass with its own Scope, so
// a Generator may be shared by concurrent goroutines.
type Generator struct {
	cfg      *Config
	schema   *schema.Schema
	reporter *diag.Reporter
}

// NewGenerator creates a generator for the given config. A nil config uses
// the defaults.
//
// Example:
//
//	g := gen.NewGenerator(cfg).
//		WithSchema(s).
//		WithReporter(r)
//	src, err := g.Generate(frag, fragments)
func NewGenerator(cfg *Config) *Generator {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return &Generator{cfg: cfg}
}

// WithSchema sets the schema used for descriptions, enums and Validate.
func (g *Generator) WithSchema(s *schema.Schema) *Generator {
	g.schema = s
	return g
}

// WithReporter sets the diagnostics reporter.
func (g *Generator) WithReporter(r *diag.Reporter) *Generator {
	g.reporter = r
	return g
}

// Config returns the generator config.
func (g *Generator) Config() *Config {
	return g.cfg
}

// Output is the result of generating one fragment.
type Output struct {
	// Fragment is the fragment name.
	Fragment string
	// Model is the name of the root model.
	Model string
	// Filename is the suggested file name, relative to the target.
	Filename string
	// File is the rendered Go file.
	File *jen.File
	// Models lists every model declared in File, in declaration order.
	Models []string
	// Flattened lists the models declared in the root scope.
	Flattened []string
	// Diagnostics holds what was reported while generating.
	Diagnostics []error
}

// Build generates the models of frag. all holds every known fragment and is
// used to resolve spreads; it may be nil.
func (g *Generator) Build(frag *fragment.Fragment, all *fragment.Set) (*Output, error) {
	if frag == nil {
		return nil, errors.New("fragmodel: nil fragment")
	}
	p := g.newPass(frag, all)
	p.run()
	return &Output{
		Fragment:    frag.Name,
		Model:       p.root,
		Filename:    snake(p.root) + ".go",
		File:        p.file,
		Models:      slices.Clone(p.emitted),
		Flattened:   slices.Clone(p.scope.Children(RootScope)),
		Diagnostics: p.diags,
	}, nil
}

// File generates the models of frag as a Jennifer file.
func (g *Generator) File(frag *fragment.Fragment, all *fragment.Set) (*jen.File, error) {
	out, err := g.Build(frag, all)
	if err != nil {
		return nil, err
	}
	return out.File, nil
}

// Generate generates the models of frag as formatted Go source.
func (g *Generator) Generate(frag *fragment.Fragment, all *fragment.Set) (string, error) {
	f, err := g.File(frag, all)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", diag.NewGenerationError(frag.Name, "", "", err)
	}
	return buf.String(), nil
}

// model is a pending struct declaration on the worklist.
type model struct {
	name      string
	parent    string // parent model, empty for the root
	field     string // selected field that produced the model
	graphType string // schema type the selections apply to
	narrowing string // type condition of a narrowing model
	sels      []*fragment.Selection
	spreads   []string
	depth     int
}

// member is one generated struct field.
type member struct {
	goName    string
	name      string // schema field name
	typ       jen.Code
	optional  bool
	nilable   bool
	required  bool // non-null in the schema
	composite bool
	listDepth int
	doc       []string
	getter    string
}

// accessor is an inline fragment accessor on an owner model.
type accessor struct {
	typeCond string
	field    string
	method   string
	model    string
}

// pass is one generation run over one fragment.
type pass struct {
	*Generator
	frag    *fragment.Fragment
	all     *fragment.Set
	scope   *Scope
	file    *jen.File
	root    string
	work    []*model
	emitted []string
	diags   []error

	narrowed map[string]*model // by type condition
	reported map[string]bool   // missing spreads
}

func (g *Generator) newPass(frag *fragment.Fragment, all *fragment.Set) *pass {
	f := jen.NewFile(g.cfg.Namespace)
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	return &pass{
		Generator: g,
		frag:      frag,
		all:       all,
		scope:     NewScope(),
		file:      f,
		narrowed:  make(map[string]*model),
		reported:  make(map[string]bool),
	}
}

func (p *pass) report(err error) {
	p.diags = append(p.diags, err)
	p.reporter.Report(err)
}

// run drains the worklist. Models are declared in depth-first order:
// a model is followed by the models of its fields, in field order.
func (p *pass) run() {
	root, ok := typeName(p.frag.Name)
	if !ok {
		p.report(diag.NewInvalidIdentifierError(p.frag.Name, root))
	}
	p.root = root
	p.scope.Register(root, RootScope)
	p.scope.RegisterChild(RootScope, root)
	p.scope.SetSignature(root, signature(p.frag.Selections, p.frag.Spreads))
	p.work = append(p.work, &model{
		name:      root,
		graphType: p.frag.TypeCondition,
		sels:      p.frag.Selections,
		spreads:   p.frag.Spreads,
	})
	p.cfg.Log().Debug("generating fragment", "fragment", p.frag.Name, "model", root)
	for len(p.work) > 0 {
		m := p.work[len(p.work)-1]
		p.work = p.work[:len(p.work)-1]
		children, err := p.guard(func() ([]*model, error) { return p.emit(m) })
		if err != nil {
			p.report(diag.NewGenerationError(p.frag.Name, m.name, "", err))
			p.file.Comment(fmt.Sprintf("generation failed: %s: %v", m.name, err))
			p.file.Line()
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			p.work = append(p.work, children[i])
		}
	}
}

// guard runs fn, turning a panic into an error.
func (p *pass) guard(fn func() ([]*model, error)) (children []*model, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// emit declares the struct of m and its methods, and returns the models its
// fields need that were not declared yet.
func (p *pass) emit(m *model) ([]*model, error) {
	var (
		fields    []jen.Code
		members   []*member
		accessors []*accessor
		embedded  []string
		children  []*model
		taken     = make(map[string]bool)
	)
	if p.cfg.ValidateNonNull {
		taken["Validate"] = true
	}
	for _, name := range m.spreads {
		embed, ok := p.spread(m, name)
		if !ok {
			fields = append(fields, jen.Comment("unresolved fragment spread: "+name))
			continue
		}
		taken[embed] = true
		embedded = append(embedded, embed)
		fields = append(fields, jen.Id(embed))
	}
	// Method names are reserved before fields are named.
	methods := make(map[string]string)
	for _, sel := range m.sels {
		if sel.IsInline() && methods[sel.TypeCondition] == "" {
			methods[sel.TypeCondition] = unique(taken, "On"+fieldName(sel.TypeCondition))
		}
	}
	for _, sel := range m.sels {
		if sel.IsInline() {
			if slices.ContainsFunc(accessors, func(a *accessor) bool { return a.typeCond == sel.TypeCondition }) {
				continue
			}
			nm, created := p.narrowing(sel.TypeCondition)
			if created != nil {
				children = append(children, created)
			}
			a := &accessor{
				typeCond: sel.TypeCondition,
				field:    unique(taken, "As"+fieldName(sel.TypeCondition)),
				method:   methods[sel.TypeCondition],
				model:    nm,
			}
			accessors = append(accessors, a)
			fields = append(fields, jen.Id(a.field).Op("*").Id(nm).Tag(map[string]string{
				"graphql": "... on " + sel.TypeCondition,
				"json":    "-",
			}))
			continue
		}
		var (
			mb    *member
			child *model
		)
		_, err := p.guard(func() ([]*model, error) {
			var err error
			mb, child, err = p.member(m, sel)
			return nil, err
		})
		if err != nil {
			p.report(diag.NewGenerationError(p.frag.Name, m.name, sel.Name, err))
			fields = append(fields, jen.Comment(fmt.Sprintf("generation failed: %s: %v", sel.Name, err)))
			continue
		}
		mb.goName = unique(taken, mb.goName)
		if child != nil {
			children = append(children, child)
		}
		members = append(members, mb)
		for _, line := range mb.doc {
			fields = append(fields, comment(line))
		}
		tag := mb.name
		if mb.optional {
			tag += ",omitempty"
		}
		fields = append(fields, jen.Id(mb.goName).Add(mb.typ).Tag(map[string]string{
			"json":    tag,
			"graphql": mb.name,
		}))
	}

	if p.cfg.InitOnlyProperties {
		for _, mb := range members {
			mb.getter = unique(taken, "Get"+mb.goName)
		}
	}

	for _, line := range p.modelDoc(m) {
		p.file.Add(comment(line))
	}
	p.file.Type().Id(m.name).Struct(fields...)
	p.file.Line()
	p.emitted = append(p.emitted, m.name)

	r := receiver(m.name)
	for _, a := range accessors {
		p.file.Commentf("%s returns the %s fields, or nil when the value is of another type.", a.method, a.typeCond)
		p.file.Func().Params(jen.Id(r).Op("*").Id(m.name)).Id(a.method).Params().Op("*").Id(a.model).Block(
			jen.If(jen.Id(r).Op("==").Nil()).Block(jen.Return(jen.Nil())),
			jen.Return(jen.Id(r).Dot(a.field)),
		)
		p.file.Line()
	}
	if p.cfg.InitOnlyProperties {
		for _, mb := range members {
			p.getter(m.name, r, mb)
		}
	}
	if p.cfg.ValidateNonNull {
		p.validate(m.name, r, members, accessors, embedded)
	}
	return children, nil
}

// member builds the struct field of one selected field, and the model its
// selection set needs, if any.
func (p *pass) member(m *model, sel *fragment.Selection) (*member, *model, error) {
	t := sel.EffectiveType()
	mb := &member{
		goName:    fieldName(sel.Name),
		name:      sel.Name,
		composite: sel.HasSelections(),
		required:  t != nil && !t.Nullable(),
		listDepth: listDepth(t),
	}
	mb.doc = p.fieldDoc(m, sel)

	var (
		leaf  jen.Code
		child *model
	)
	if mb.composite {
		name, created := p.place(m, sel)
		leaf, child = jen.Id(name), created
	} else if t != nil {
		code, err := p.scalar(t.Innermost())
		if err != nil {
			return nil, nil, err
		}
		leaf = code
	}
	mb.typ, mb.nilable = p.goType(t, leaf, mb.composite)
	mb.optional = t == nil || t.Nullable() || mb.composite
	return mb, child, nil
}

// goType wraps leaf according to t and reports whether the result can be
// nil. Nullable values become pointers unless ValueSemantics is set; a
// model-typed field is a pointer even when non-null. Without any type
// information a scalar field is emitted as any.
func (p *pass) goType(t schema.Type, leaf jen.Code, composite bool) (*jen.Statement, bool) {
	if leaf == nil {
		return jen.Any(), true
	}
	depth := listDepth(t)
	inner := innermost(t)
	nullable := inner == nil || inner.Nullable()
	pointer := !p.cfg.ValueSemantics && (nullable || composite && depth == 0)
	elem := jen.Add(leaf)
	if pointer {
		elem = jen.Op("*").Add(leaf)
	}
	if depth == 0 {
		return elem, pointer
	}
	s := jen.Index()
	for i := 1; i < depth; i++ {
		s.Index()
	}
	return s.Add(elem), true
}

// place returns the model name of a composite field. A new model is returned
// when the name was not declared before in this pass.
func (p *pass) place(m *model, sel *fragment.Selection) (string, *model) {
	t := sel.EffectiveType()
	base := modelName(sel.Name, schema.IsList(t))
	depth := m.depth + 1
	flat := p.cfg.flatten(sel.Name, depth)
	sig := signature(sel.Selections, sel.Spreads)

	candidates := []string{m.name + base}
	if flat {
		candidates = []string{base, m.name + base}
	}
	scope := m.name
	if flat {
		scope = RootScope
	}
	name, fresh := p.claim(candidates, sig)
	if !fresh {
		return name, nil
	}
	p.scope.Register(name, scope)
	p.scope.RegisterChild(scope, name)
	p.scope.SetSignature(name, sig)
	graphType := ""
	if t != nil {
		graphType = t.Innermost()
	}
	return name, &model{
		name:      name,
		parent:    m.name,
		field:     sel.Name,
		graphType: graphType,
		sels:      sel.Selections,
		spreads:   sel.Spreads,
		depth:     depth,
	}
}

// claim picks the first candidate that is free, or registered with the same
// signature. It falls back to numeric suffixes on the last candidate.
func (p *pass) claim(candidates []string, sig string) (string, bool) {
	try := func(name string) (bool, bool) {
		if !p.scope.IsRegistered(name) {
			return true, true
		}
		return p.scope.Signature(name) == sig, false
	}
	for _, c := range candidates {
		if ok, fresh := try(c); ok {
			return c, fresh
		}
	}
	last := candidates[len(candidates)-1]
	for i := 2; ; i++ {
		c := last + strconv.Itoa(i)
		if ok, fresh := try(c); ok {
			return c, fresh
		}
	}
}

// narrowing returns the model of a type condition. All inline fragments on
// the same type share one model holding the union of their fields.
func (p *pass) narrowing(typeCond string) (string, *model) {
	if m, ok := p.narrowed[typeCond]; ok {
		return m.name, nil
	}
	var (
		sels    []*fragment.Selection
		spreads []string
	)
	fragment.Walk(p.frag.Selections, func(s *fragment.Selection) bool {
		if s.IsInline() && s.TypeCondition == typeCond {
			sels = mergeSelections(sels, s.Selections)
			spreads = appendUnique(spreads, s.Spreads...)
		}
		return true
	})
	sig := "on " + typeCond + signature(sels, spreads)
	name, _ := p.claim([]string{p.root + "On" + fieldName(typeCond)}, sig)
	p.scope.Register(name, RootScope)
	p.scope.RegisterChild(RootScope, name)
	p.scope.SetSignature(name, sig)
	m := &model{
		name:      name,
		parent:    p.root,
		graphType: typeCond,
		narrowing: typeCond,
		sels:      sels,
		spreads:   spreads,
		depth:     1,
	}
	p.narrowed[typeCond] = m
	return name, m
}

// spread returns the embedded type of a fragment spread.
func (p *pass) spread(m *model, name string) (string, bool) {
	if _, ok := p.all.Get(name); !ok {
		if !p.reported[name] {
			p.reported[name] = true
			p.report(diag.NewUnresolvedReferenceError(p.frag.Name, m.name, name, "fragment is not defined"))
		}
		return "", false
	}
	embed, _ := typeName(name)
	if embed == m.name {
		p.report(diag.NewGenerationError(p.frag.Name, m.name, "..."+name, errors.New("model cannot embed itself")))
		return "", false
	}
	return embed, true
}

// scalar maps a leaf schema type to Go.
func (p *pass) scalar(name string) (jen.Code, error) {
	if goType, ok := p.cfg.Scalars[name]; ok {
		return qualified(goType)
	}
	switch name {
	case "String", "ID":
		return jen.String(), nil
	case "Int":
		return jen.Int(), nil
	case "Float":
		return jen.Float64(), nil
	case "Boolean":
		return jen.Bool(), nil
	case "DateTime", "Date", "Time", "Timestamp":
		return jen.Qual("time", "Time"), nil
	}
	if p.schema != nil && p.schema.Enums[name] != nil || isEnumLike(name) {
		return jen.String(), nil
	}
	return qualified(name)
}

// isEnumLike reports whether name is all upper-case without underscores.
func isEnumLike(name string) bool {
	return name != "" && !strings.Contains(name, "_") &&
		strings.ToUpper(name) == name && strings.ToLower(name) != name
}

// splitQualified splits "import/path.Name" into its import path and name.
func splitQualified(goType string) (string, string, error) {
	s := strings.TrimSpace(goType)
	path, name := "", s
	if dot := strings.LastIndexByte(s, '.'); dot > strings.LastIndexByte(s, '/') {
		path, name = s[:dot], s[dot+1:]
		if path == "" {
			return "", "", fmt.Errorf("%q has an empty import path", goType)
		}
	}
	if !token.IsIdentifier(name) {
		return "", "", fmt.Errorf("%q is not a Go type name", goType)
	}
	return path, name, nil
}

func qualified(goType string) (jen.Code, error) {
	path, name, err := splitQualified(goType)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return jen.Id(name), nil
	}
	return jen.Qual(path, name), nil
}

// modelDoc returns the doc comment lines of m.
func (p *pass) modelDoc(m *model) []string {
	if !p.cfg.DocComments {
		return nil
	}
	var doc []string
	switch {
	case m.parent == "":
		doc = append(doc, fmt.Sprintf("%s is generated from fragment %s on %s.", m.name, p.frag.Name, m.graphType))
	case m.narrowing != "":
		doc = append(doc, fmt.Sprintf("%s holds the fields selected on %s in fragment %s.", m.name, m.narrowing, p.frag.Name))
	default:
		doc = append(doc, fmt.Sprintf("%s is the %s selection of %s.", m.name, m.field, m.parent))
	}
	if p.cfg.FieldDescriptions && p.schema != nil {
		if desc := strings.TrimSpace(p.schema.Description(m.graphType)); desc != "" {
			doc = append(doc, "")
			doc = append(doc, strings.Split(desc, "\n")...)
		}
	}
	return doc
}

// fieldDoc returns the doc comment lines of a field.
func (p *pass) fieldDoc(m *model, sel *fragment.Selection) []string {
	var doc []string
	if p.cfg.DocComments && p.cfg.FieldDescriptions && p.schema != nil && m.graphType != "" {
		if def := p.schema.Field(m.graphType, sel.Name); def != nil && strings.TrimSpace(def.Description) != "" {
			doc = append(doc, strings.Split(strings.TrimSpace(def.Description), "\n")...)
		}
	}
	if sel.Deprecated {
		if len(doc) > 0 {
			doc = append(doc, "")
		}
		reason := "no longer supported."
		if sel.DeprecationReason != nil && *sel.DeprecationReason != "" {
			reason = *sel.DeprecationReason
		}
		doc = append(doc, "Deprecated: "+reason)
	}
	return doc
}

// getter declares a nil-safe accessor for mb.
func (p *pass) getter(model, r string, mb *member) {
	p.file.Commentf("%s returns the value of %s, or its zero value on a nil receiver.", mb.getter, mb.goName)
	p.file.Func().Params(jen.Id(r).Op("*").Id(model)).Id(mb.getter).Params().Params(jen.Id("v").Add(mb.typ)).Block(
		jen.If(jen.Id(r).Op("==").Nil()).Block(jen.Return()),
		jen.Return(jen.Id(r).Dot(mb.goName)),
	)
	p.file.Line()
}

// validate declares a Validate method reporting the first non-null field
// that is missing, descending into nested models.
func (p *pass) validate(model, r string, members []*member, accessors []*accessor, embedded []string) {
	body := []jen.Code{
		jen.If(jen.Id(r).Op("==").Nil()).Block(jen.Return(jen.Nil())),
	}
	for _, name := range embedded {
		body = append(body, jen.If(jen.Err().Op(":=").Id(r).Dot(name).Dot("Validate").Call(), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Err()),
		))
	}
	for _, mb := range members {
		field := jen.Id(r).Dot(mb.goName)
		if mb.required && mb.nilable {
			body = append(body, jen.If(jen.Id(r).Dot(mb.goName).Op("==").Nil()).Block(
				jen.Return(jen.Qual("errors", "New").Call(jen.Lit(fmt.Sprintf("%s.%s: non-null field is missing", model, mb.name)))),
			))
		}
		switch {
		case !mb.composite:
		case mb.listDepth == 0:
			body = append(body, jen.If(jen.Err().Op(":=").Add(field).Dot("Validate").Call(), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			))
		case mb.listDepth == 1:
			body = append(body, jen.For(jen.List(jen.Id("_"), jen.Id("v")).Op(":=").Range().Id(r).Dot(mb.goName)).Block(
				jen.If(jen.Err().Op(":=").Id("v").Dot("Validate").Call(), jen.Err().Op("!=").Nil()).Block(
					jen.Return(jen.Err()),
				),
			))
		}
	}
	for _, a := range accessors {
		body = append(body, jen.If(jen.Err().Op(":=").Id(r).Dot(a.field).Dot("Validate").Call(), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Err()),
		))
	}
	body = append(body, jen.Return(jen.Nil()))
	p.file.Comment("Validate reports the first non-null field that is missing.")
	p.file.Func().Params(jen.Id(r).Op("*").Id(model)).Id("Validate").Params().Error().Block(body...)
	p.file.Line()
}

// mergeSelections appends src to dst. A field already present in dst is
// merged with the new occurrence instead of repeated.
func mergeSelections(dst, src []*fragment.Selection) []*fragment.Selection {
	for _, s := range src {
		i := -1
		if !s.IsInline() {
			i = slices.IndexFunc(dst, func(d *fragment.Selection) bool { return !d.IsInline() && d.Name == s.Name })
		}
		if i < 0 {
			dst = append(dst, s)
			continue
		}
		if !s.HasSelections() {
			continue
		}
		merged := *dst[i]
		merged.Selections = mergeSelections(slices.Clone(dst[i].Selections), s.Selections)
		merged.Spreads = appendUnique(slices.Clone(dst[i].Spreads), s.Spreads...)
		dst[i] = &merged
	}
	return dst
}

func appendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		if !slices.Contains(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// unique returns name, or name with a numeric suffix when taken.
func unique(taken map[string]bool, name string) string {
	id := name
	for i := 2; taken[id]; i++ {
		id = name + strconv.Itoa(i)
	}
	taken[id] = true
	return id
}

// comment renders one line of a comment block.
func comment(line string) *jen.Statement {
	if line == "" {
		return jen.Comment("//")
	}
	return jen.Comment(line)
}

// innermost returns the named type inside every list wrapper of t.
func innermost(t schema.Type) schema.Type {
	for {
		l, ok := t.(*schema.List)
		if !ok {
			return t
		}
		t = l.Elem
	}
}

func listDepth(t schema.Type) int {
	n := 0
	for {
		l, ok := t.(*schema.List)
		if !ok {
			return n
		}
		n++
		t = l.Elem
	}
}
