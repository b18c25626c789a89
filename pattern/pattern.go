// Package pattern implements the glob and regexp matching used by the macro
// language. Compiled expressions are cached by source text.
package pattern

import (
	"regexp"
	"strings"
	"sync"
)

// Cache holds compiled regular expressions keyed by source
type Cache struct {
	mu sync.Mutex
	re map[string]*regexp.Regexp
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{re: make(map[string]*regexp.Regexp)}
}

// Compile returns the cached compiled form of expr
func (c *Cache) Compile(expr string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.re[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	c.re[expr] = re
	return re, nil
}

// Len returns the number of cached expressions
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.re)
}

var shared = NewCache()

// Regexp compiles expr through the shared cache
func Regexp(expr string) (*regexp.Regexp, error) {
	return shared.Compile(expr)
}

// Glob reports whether s matches the glob pat, ignoring case.
// '*' matches any run, '?' any one character, [set] a character class,
// and '\' quotes the next character.
func Glob(pat, s string) bool {
	re, err := shared.Compile(GlobToRegexp(pat))
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// GlobToRegexp translates a glob into an anchored, case-insensitive regexp
func GlobToRegexp(pat string) string {
	var b strings.Builder
	b.WriteString("(?is)^")
	for i := 0; i < len(pat); i++ {
		c := pat[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i+1 < len(pat) {
				i++
				b.WriteString(regexp.QuoteMeta(pat[i : i+1]))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			end := strings.IndexByte(pat[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pat[i+1 : i+1+end]
			if strings.HasPrefix(class, "^") || strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return b.String()
}

// Match is the result of a successful regexp match against Subject
type Match struct {
	Subject string
	Loc     []int // submatch index pairs, -1 for unmatched groups
}

// Group returns the text of subexpression n, or "" if absent
func (m *Match) Group(n int) string {
	if m == nil || 2*n+1 >= len(m.Loc) || m.Loc[2*n] < 0 {
		return ""
	}
	return m.Subject[m.Loc[2*n]:m.Loc[2*n+1]]
}

// Left returns the text before the match
func (m *Match) Left() string {
	if m == nil {
		return ""
	}
	return m.Subject[:m.Loc[0]]
}

// Right returns the text after the match
func (m *Match) Right() string {
	if m == nil {
		return ""
	}
	return m.Subject[m.Loc[1]:]
}

// Find matches expr against s. A nil Match with a nil error means no match.
func Find(expr, s string) (*Match, error) {
	re, err := shared.Compile(expr)
	if err != nil {
		return nil, err
	}
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil, nil
	}
	return &Match{Subject: s, Loc: loc}, nil
}
