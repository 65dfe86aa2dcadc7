// Package pattern compiles a resource specification into a Matcher.
//
// A specification is one resource name, several names joined by "|", or a
// regular expression. Names without any special character are matched by
// substring so the common case never touches the regexp engine.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	skerrors "github.com/jmurray2011/skein/internal/errors"
)

// Matcher tests a candidate string against a compiled resource pattern.
// Implementations are immutable and safe for concurrent use.
type Matcher interface {
	Matches(candidate string) bool
	String() string
}

// specialTokens mark a specification as a regular expression.
var specialTokens = []string{"|", ".*", "[", "]", "?"}

// IsLiteral reports whether spec would be matched by plain substring.
func IsLiteral(spec string) bool {
	for _, tok := range specialTokens {
		if strings.Contains(spec, tok) {
			return false
		}
	}
	return true
}

// Compile builds a Matcher for spec. A spec that fails to compile returns a
// ConfigurationError.
func Compile(spec string) (Matcher, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, skerrors.Configuration(spec, fmt.Errorf("resource pattern must not be empty"))
	}

	if IsLiteral(spec) {
		return literalMatcher{needle: spec}, nil
	}

	re, err := regexp.Compile(spec)
	if err != nil {
		return nil, skerrors.InvalidPatternError(spec, err)
	}
	return regexMatcher{re: re}, nil
}

// MustCompile is like Compile but panics on error. For tests and constants.
func MustCompile(spec string) Matcher {
	m, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return m
}

type literalMatcher struct {
	needle string
}

func (m literalMatcher) Matches(candidate string) bool {
	return strings.Contains(candidate, m.needle)
}

func (m literalMatcher) String() string { return m.needle }

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) Matches(candidate string) bool {
	return m.re.MatchString(candidate)
}

func (m regexMatcher) String() string { return m.re.String() }

// Resources splits spec at its top-level alternations into component
// resource names for display and per-resource counting. A "|" inside a
// group, a character class or after a backslash does not split. Empty
// alternatives are dropped; duplicates keep their first position.
func Resources(spec string) []string {
	parts := splitTopLevel(spec)
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func splitTopLevel(spec string) []string {
	var parts []string
	depth, start := 0, 0
	inClass := false
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		switch {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
			// "]" first in a class is a literal.
			if i+1 < len(spec) && spec[i+1] == '^' {
				i++
			}
			if i+1 < len(spec) && spec[i+1] == ']' {
				i++
			}
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == '|' && depth == 0:
			parts = append(parts, spec[start:i])
			start = i + 1
		}
	}
	return append(parts, spec[start:])
}
