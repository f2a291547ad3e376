package lexer

import (
	"fmt"
	"strings"

	"github.com/syssam/fragmodel/compiler/diag"
)

// Failure is a syntax failure raised while reading a Stream.
type Failure struct {
	Pos     diag.Pos
	Message string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Pos, f.Message)
}

// Stream is a cursor over the non-comment tokens of a document. Read errors
// panic with a *Failure and are turned back into values by Catch, so the
// recursive-descent readers stay free of error plumbing.
type Stream struct {
	text string
	toks []Token
	pos  int
	end  int
}

// NewStream tokenizes text and returns a stream over its non-comment tokens.
func NewStream(text string) *Stream {
	all := Tokenize(text)
	toks := make([]Token, 0, len(all))
	for _, t := range all {
		if t.Kind != Comment {
			toks = append(toks, t)
		}
	}
	return &Stream{text: text, toks: toks, end: len(toks)}
}

// Sub returns a stream over the tokens in [from, to) sharing the same source.
func (s *Stream) Sub(from, to int) *Stream {
	return &Stream{text: s.text, toks: s.toks, pos: from, end: to}
}

// Text returns the source text.
func (s *Stream) Text() string { return s.text }

// Index returns the index of the next token.
func (s *Stream) Index() int { return s.pos }

// Seek moves the cursor to index i.
func (s *Stream) Seek(i int) { s.pos = min(max(i, 0), s.end) }

// EOF reports whether the stream is exhausted.
func (s *Stream) EOF() bool { return s.pos >= s.end }

// Peek returns the next token without consuming it. At the end of the
// stream it returns the zero Token.
func (s *Stream) Peek() Token { return s.PeekAt(0) }

// PeekAt returns the token n positions ahead.
func (s *Stream) PeekAt(n int) Token {
	if i := s.pos + n; i >= 0 && i < s.end {
		return s.toks[i]
	}
	return Token{Offset: s.endOffset()}
}

// Token returns the token at absolute index i.
func (s *Stream) Token(i int) Token {
	if i >= 0 && i < len(s.toks) {
		return s.toks[i]
	}
	return Token{Offset: len(s.text)}
}

// Next consumes and returns the next token.
func (s *Stream) Next() Token {
	t := s.Peek()
	if !s.EOF() {
		s.pos++
	}
	return t
}

// Accept consumes the next token if it is the given punctuator.
func (s *Stream) Accept(punct string) bool {
	if s.Peek().IsPunct(punct) {
		s.pos++
		return true
	}
	return false
}

// Expect consumes the given punctuator or fails.
func (s *Stream) Expect(punct string) Token {
	t := s.Peek()
	if !t.IsPunct(punct) {
		s.Failf("expected %q, found %s", punct, describe(t))
	}
	s.pos++
	return t
}

// ExpectName consumes an identifier and returns its value, or fails.
func (s *Stream) ExpectName() string {
	t := s.Peek()
	if t.Kind != Identifier {
		s.Failf("expected name, found %s", describe(t))
	}
	s.pos++
	return t.Value
}

// ExpectKeyword consumes the given keyword or fails.
func (s *Stream) ExpectKeyword(kw string) {
	t := s.Peek()
	if !t.IsName(kw) {
		s.Failf("expected %q, found %s", kw, describe(t))
	}
	s.pos++
}

// MatchBrace returns the index of the token closing the bracket at index i,
// counting only the bracket pair opened there. It returns false when the
// bracket is never closed within the stream.
func (s *Stream) MatchBrace(i int) (int, bool) {
	if i < s.pos || i >= s.end || s.toks[i].Kind != Punctuation {
		return 0, false
	}
	open := s.toks[i].Value
	var closer string
	switch open {
	case BraceL:
		closer = BraceR
	case ParenL:
		closer = ParenR
	case BracketL:
		closer = BracketR
	default:
		return 0, false
	}
	depth := 0
	for j := i; j < s.end; j++ {
		switch t := s.toks[j]; {
		case t.IsPunct(open):
			depth++
		case t.IsPunct(closer):
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

// SkipBalanced skips a balanced bracketed group if the next token opens one.
func (s *Stream) SkipBalanced() bool {
	t := s.Peek()
	if !t.IsPunct(ParenL) && !t.IsPunct(BracketL) && !t.IsPunct(BraceL) {
		return false
	}
	end, ok := s.MatchBrace(s.pos)
	if !ok {
		s.Failf("unbalanced %q", t.Value)
	}
	s.pos = end + 1
	return true
}

// Raw returns the source text spanned by the tokens in [from, to).
func (s *Stream) Raw(from, to int) string {
	if from >= to || from < 0 || to > len(s.toks) {
		return ""
	}
	return s.text[s.toks[from].Offset:End(s.text, s.toks[to-1])]
}

// Recover moves the cursor to the first token at or after index from that
// starts a new definition: isStart must hold and the token must either sit
// outside every brace opened since from, or begin an unindented line.
func (s *Stream) Recover(from int, isStart func(Token) bool) {
	depth := 0
	for i := max(from, 0); i < s.end; i++ {
		t := s.toks[i]
		if isStart(t) && (depth <= 0 || StartsLine(s.text, t.Offset)) {
			s.pos = i
			return
		}
		switch {
		case t.IsPunct(BraceL):
			depth++
		case t.IsPunct(BraceR):
			depth--
		}
	}
	s.pos = s.end
}

// Pos returns the position of the next token.
func (s *Stream) Pos() diag.Pos {
	return Position(s.text, s.Peek().Offset)
}

// Failf raises a *Failure at the next token.
func (s *Stream) Failf(format string, args ...any) {
	panic(&Failure{Pos: s.Pos(), Message: fmt.Sprintf(format, args...)})
}

// Catch runs fn and returns the *Failure it raised, if any. Other panics
// are propagated.
func (s *Stream) Catch(fn func()) (failure *Failure) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Failure)
			if !ok {
				panic(r)
			}
			failure = f
		}
	}()
	fn()
	return nil
}

func (s *Stream) endOffset() int {
	if s.end > 0 && s.end < len(s.toks) {
		return s.toks[s.end].Offset
	}
	return len(s.text)
}

// End returns the byte offset just past tok in text.
func End(text string, tok Token) int {
	n := tok.Offset + len(tok.Value)
	switch tok.Kind {
	case StringLiteral:
		if strings.HasPrefix(text[tok.Offset:], `"""`) {
			n += 6
		} else {
			n += 2
		}
	case Comment:
		n++
	}
	return min(n, len(text))
}

func describe(t Token) string {
	if t.Kind == 0 {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.String())
}
