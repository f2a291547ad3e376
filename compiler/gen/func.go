package gen

import (
	"go/token"
	"strings"
	"sync"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	acronymsMu sync.RWMutex
	acronyms   = make(map[string]struct{})
	rules      = ruleset()
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	// Add common initialisms from golint and more.
	for _, w := range []string{
		"ACL", "API", "ASCII", "AWS", "CPU", "CSS", "DNS", "EOF", "GB", "GUID",
		"HCL", "HTML", "HTTP", "HTTPS", "ID", "IP", "JSON", "KB", "LHS", "MAC",
		"MB", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "SSO",
		"TCP", "TLS", "TTL", "UDP", "UI", "UID", "URI", "URL", "UTF8", "UUID",
		"VM", "XML", "XMPP", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// AddAcronym adds a new acronym to the naming rules. Words matching it are
// upper-cased as a whole when building Go identifiers.
func AddAcronym(word string) {
	word = strings.ToUpper(word)
	acronymsMu.Lock()
	defer acronymsMu.Unlock()
	acronyms[word] = struct{}{}
	rules.AddAcronym(word)
}

func isAcronym(word string) bool {
	acronymsMu.RLock()
	defer acronymsMu.RUnlock()
	_, ok := acronyms[word]
	return ok
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

// words splits s into lower-case words at separators and case changes.
func words(s string) []string {
	return strings.FieldsFunc(snake(s), isSeparator)
}

func pascalWords(words []string) string {
	// Casers are stateful and must not be shared between goroutines.
	title := cases.Title(language.Und)
	var b strings.Builder
	for _, w := range words {
		if upper := strings.ToUpper(w); isAcronym(upper) {
			b.WriteString(upper)
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

// pascal converts the given name into a PascalCase Go identifier.
//
//	user_info => UserInfo
//	avatarUrl => AvatarURL
func pascal(s string) string {
	return pascalWords(words(s))
}

// camel converts the given name into a camelCase.
//
//	user_info  => userInfo
//	full_name  => fullName
//	user_id    => userID
func camel(s string) string {
	w := words(s)
	if len(w) == 0 {
		return ""
	}
	return strings.ToLower(w[0]) + pascalWords(w[1:])
}

// snake converts the given struct or field name into a snake_case.
//
//	Username => username
//	FullName => full_name
//	HTTPCode => http_code
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// An inner upper-case letter starts a word after a lower-case letter
		// ("PostCard", "PostV") or before one at the end of an initialism
		// ("HTTPHeaders").
		if i > 0 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				i < len(s)-1 && j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// receiver returns the receiver name of the given type.
//
//	[]T       => t
//	[1]T      => t
//	User      => u
//	UserQuery => uq
func receiver(s string) string {
	// Trim invalid tokens for identifier prefix.
	s = strings.Trim(s, "[]*&0123456789")
	parts := words(s)
	if len(parts) == 0 {
		return "m"
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte(p[0])
	}
	name := strings.ToLower(b.String())
	if token.Lookup(name).IsKeyword() {
		name = "_" + name
	}
	return name
}

// modelName returns the model name derived from a field name. List fields
// use the singular of their last word.
//
//	author   => Author
//	comments => Comment
//	pageInfo => PageInfo
func modelName(field string, list bool) string {
	w := words(field)
	if len(w) == 0 {
		return "Field"
	}
	if list {
		if one := rules.Singularize(w[len(w)-1]); one != "" {
			w[len(w)-1] = one
		}
	}
	return pascalWords(w)
}

// isGraphQLName reports whether s matches /[_A-Za-z][_0-9A-Za-z]*/.
func isGraphQLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// typeName returns the exported Go identifier for a fragment name. A valid
// name without underscores keeps its casing. The second result is false when
// name is not a valid name and was sanitized.
func typeName(name string) (string, bool) {
	if isGraphQLName(name) && !strings.Contains(name, "_") {
		return strings.ToUpper(name[:1]) + name[1:], true
	}
	return identifier(name), isGraphQLName(name)
}

// fieldName returns the exported Go field name for a selected field.
func fieldName(name string) string {
	return identifier(name)
}

// identifier pascal-cases name, replacing characters that cannot appear in
// a Go identifier.
func identifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '_', r == '-', r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := pascal(b.String())
	switch {
	case id == "":
		return "Fragment"
	case !unicode.IsLetter(rune(id[0])):
		return "Fragment" + id
	}
	return id
}
