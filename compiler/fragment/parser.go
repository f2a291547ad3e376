package fragment

import (
	"errors"
	"slices"

	"github.com/syssam/fragmodel/compiler/diag"
	"github.com/syssam/fragmodel/compiler/lexer"
	"github.com/syssam/fragmodel/compiler/schema"
)

const (
	kwFragment = "fragment"
	kwOn       = "on"
)

// ParseOption configures Parse.
type ParseOption func(*parser)

// WithReporter reports syntax errors to r in addition to returning them.
func WithReporter(r *diag.Reporter) ParseOption {
	return func(p *parser) {
		p.reporter = r
	}
}

type parser struct {
	s        *lexer.Stream
	reporter *diag.Reporter
	errs     []error
}

// Parse parses every fragment definition in text. A syntax error aborts only
// the offending fragment; parsing resumes at the next `fragment` keyword.
func Parse(text string, opts ...ParseOption) ([]*Fragment, error) {
	p := &parser{s: lexer.NewStream(text)}
	for _, opt := range opts {
		opt(p)
	}
	var frags []*Fragment
	for !p.s.EOF() {
		start := p.s.Index()
		label := p.label()
		var f *Fragment
		if fail := p.s.Catch(func() { f = p.parseFragment() }); fail != nil {
			p.fail(diag.NewSyntaxError(label, fail.Pos, fail.Message))
			p.s.Recover(start+1, isFragmentKeyword)
			continue
		}
		frags = append(frags, f)
	}
	return frags, errors.Join(p.errs...)
}

// MustParse is like Parse but panics on syntax errors.
func MustParse(text string) []*Fragment {
	frags, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return frags
}

func isFragmentKeyword(t lexer.Token) bool {
	return t.IsName(kwFragment)
}

func (p *parser) fail(err error) {
	p.errs = append(p.errs, err)
	p.reporter.Report(err)
}

func (p *parser) label() string {
	if kw, name := p.s.Peek(), p.s.PeekAt(1); kw.IsName(kwFragment) && name.Kind == lexer.Identifier {
		return kwFragment + " " + name.Value
	}
	return p.s.Peek().String()
}

// fragment Name on Type @directives { selections }
func (p *parser) parseFragment() *Fragment {
	offset := p.s.Peek().Offset
	p.s.ExpectKeyword(kwFragment)
	if p.s.Peek().IsName(kwOn) {
		p.s.Failf("fragment name must not be %q", kwOn)
	}
	f := &Fragment{Name: p.s.ExpectName(), Offset: offset}
	p.s.ExpectKeyword(kwOn)
	f.TypeCondition = p.s.ExpectName()
	schema.ReadDirectives(p.s)
	f.Selections, f.Spreads = p.parseSelectionSet(p.s)
	return f
}

// parseSelectionSet locates the selection set opening at the cursor by
// balanced-brace scanning and parses its contents as a sub-stream.
func (p *parser) parseSelectionSet(s *lexer.Stream) ([]*Selection, []string) {
	open := s.Index()
	if !s.Peek().IsPunct(lexer.BraceL) {
		s.Failf("expected selection set")
	}
	end, ok := s.MatchBrace(open)
	if !ok {
		s.Failf("unbalanced %q", lexer.BraceL)
	}
	sels, spreads := p.parseSelections(s.Sub(open+1, end))
	s.Seek(end + 1)
	return sels, spreads
}

func (p *parser) parseSelections(s *lexer.Stream) ([]*Selection, []string) {
	var (
		sels    []*Selection
		spreads []string
	)
	for !s.EOF() {
		t := s.Peek()
		switch {
		case t.IsPunct(lexer.Spread):
			s.Next()
			switch next := s.Peek(); {
			case next.IsName(kwOn) && s.PeekAt(1).Kind == lexer.Identifier:
				s.Next()
				sel := &Selection{TypeCondition: s.ExpectName(), Offset: t.Offset}
				sel.Deprecated, sel.DeprecationReason = schema.ReadDirectives(s)
				sel.Selections, sel.Spreads = p.parseSelectionSet(s)
				sels = append(sels, sel)
			case next.Kind == lexer.Identifier:
				name := s.Next().Value
				schema.ReadDirectives(s)
				if !slices.Contains(spreads, name) {
					spreads = append(spreads, name)
				}
			default:
				// `... @include(if: $x) { }` without a type condition belongs
				// to the enclosing selection set.
				schema.ReadDirectives(s)
				inner, innerSpreads := p.parseSelectionSet(s)
				sels = append(sels, inner...)
				for _, name := range innerSpreads {
					if !slices.Contains(spreads, name) {
						spreads = append(spreads, name)
					}
				}
			}
		case t.Kind == lexer.Identifier:
			sels = append(sels, p.parseField(s))
		default:
			s.Failf("unexpected %q in selection set", t.String())
		}
	}
	return sels, spreads
}

// name: Type (args) @deprecated { selections }
func (p *parser) parseField(s *lexer.Stream) *Selection {
	sel := &Selection{Offset: s.Peek().Offset, Name: s.ExpectName()}
	if s.Accept(lexer.Colon) {
		sel.Annotation = schema.ReadType(s)
	}
	if s.Peek().IsPunct(lexer.ParenL) {
		s.SkipBalanced()
	}
	sel.Deprecated, sel.DeprecationReason = schema.ReadDirectives(s)
	if s.Peek().IsPunct(lexer.BraceL) {
		sel.Selections, sel.Spreads = p.parseSelectionSet(s)
	}
	return sel
}
