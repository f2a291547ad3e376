// Package lexer turns GraphQL schema and fragment documents into a flat
// token stream shared by the schema and fragment parsers.
package lexer

import (
	"fmt"
	"strings"

	"github.com/syssam/fragmodel/compiler/diag"
)

// Kind is the kind of a token.
type Kind uint8

// Token kinds.
const (
	Identifier Kind = iota + 1
	Punctuation
	StringLiteral
	Comment
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Identifier:
		return "Identifier"
	case Punctuation:
		return "Punctuation"
	case StringLiteral:
		return "StringLiteral"
	case Comment:
		return "Comment"
	default:
		return "Invalid"
	}
}

// Punctuators.
const (
	BraceL   = "{"
	BraceR   = "}"
	ParenL   = "("
	ParenR   = ")"
	BracketL = "["
	BracketR = "]"
	Colon    = ":"
	Bang     = "!"
	Equals   = "="
	Pipe     = "|"
	Amp      = "&"
	At       = "@"
	Spread   = "..."
)

// Token is a single lexical token. Offset is the byte offset of the first
// character of the token (including the opening quote or '#').
type Token struct {
	Kind   Kind
	Value  string
	Offset int
}

// Is reports whether the token has the given kind and value.
func (t Token) Is(kind Kind, value string) bool {
	return t.Kind == kind && t.Value == value
}

// IsPunct reports whether the token is the given punctuator.
func (t Token) IsPunct(value string) bool {
	return t.Is(Punctuation, value)
}

// IsName reports whether the token is the given identifier.
func (t Token) IsName(value string) bool {
	return t.Is(Identifier, value)
}

// String implements fmt.Stringer.
func (t Token) String() string {
	switch t.Kind {
	case StringLiteral:
		return fmt.Sprintf("%q", t.Value)
	case Comment:
		return "#" + t.Value
	default:
		return t.Value
	}
}

// Tokenize splits text into tokens. It never fails: whitespace and commas are
// insignificant, and any character that cannot start a token is skipped.
func Tokenize(text string) []Token {
	var (
		toks []Token
		n    = len(text)
	)
	for i := 0; i < n; {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == '\f':
			i++
		case c == '#':
			end := strings.IndexAny(text[i:], "\r\n")
			if end < 0 {
				end = n - i
			}
			toks = append(toks, Token{Kind: Comment, Value: text[i+1 : i+end], Offset: i})
			i += end
		case c == '"':
			tok, next := scanString(text, i)
			toks = append(toks, tok)
			i = next
		case c == '.':
			if strings.HasPrefix(text[i:], Spread) {
				toks = append(toks, Token{Kind: Punctuation, Value: Spread, Offset: i})
				i += len(Spread)
				continue
			}
			// A lone '.' is not a token.
			i++
		case strings.IndexByte("{}()[]:!=|&@", c) >= 0:
			toks = append(toks, Token{Kind: Punctuation, Value: text[i : i+1], Offset: i})
			i++
		case isNameStart(c):
			j := i + 1
			for j < n && isNameContinue(text[j]) {
				j++
			}
			toks = append(toks, Token{Kind: Identifier, Value: text[i:j], Offset: i})
			i = j
		case isDigit(c) || (c == '-' && i+1 < n && isDigit(text[i+1])):
			j := i + 1
			for j < n && isNumberContinue(text[j]) {
				j++
			}
			toks = append(toks, Token{Kind: Identifier, Value: text[i:j], Offset: i})
			i = j
		default:
			// Unknown characters ($, ;, non-ASCII, ...) are skipped.
			i++
		}
	}
	return toks
}

// scanString scans a string starting at the opening quote at text[i].
// Block strings ("""...""") are returned without their triple quotes.
func scanString(text string, i int) (Token, int) {
	if strings.HasPrefix(text[i:], `"""`) {
		body := text[i+3:]
		end := strings.Index(body, `"""`)
		if end < 0 {
			return Token{Kind: StringLiteral, Value: body, Offset: i}, len(text)
		}
		return Token{Kind: StringLiteral, Value: body[:end], Offset: i}, i + 3 + end + 3
	}
	j := i + 1
	for j < len(text) {
		switch text[j] {
		case '\\':
			j += 2
			continue
		case '"':
			return Token{Kind: StringLiteral, Value: text[i+1 : j], Offset: i}, j + 1
		case '\n':
			// Strings never span lines; treat the line end as the closing quote.
			return Token{Kind: StringLiteral, Value: text[i+1 : j], Offset: i}, j
		}
		j++
	}
	if j > len(text) {
		j = len(text)
	}
	return Token{Kind: StringLiteral, Value: text[i+1 : j], Offset: i}, len(text)
}

// Position converts a byte offset in text to a 1-based line and column.
func Position(text string, offset int) diag.Pos {
	if offset < 0 || offset > len(text) {
		return diag.Pos{}
	}
	line := 1 + strings.Count(text[:offset], "\n")
	col := offset + 1
	if nl := strings.LastIndexByte(text[:offset], '\n'); nl >= 0 {
		col = offset - nl
	}
	return diag.Pos{Line: line, Column: col}
}

// StartsLine reports whether the token at offset is the first non-blank
// character of an unindented line.
func StartsLine(text string, offset int) bool {
	return offset == 0 || (offset <= len(text) && text[offset-1] == '\n')
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameContinue(c byte) bool {
	return isNameStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumberContinue(c byte) bool {
	return isDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}
