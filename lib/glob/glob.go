package glob

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher is a compiled glob pattern. A Matcher always matches against the
// full input string; partial matches never count.
type Matcher struct {
	pattern string
	re      *regexp.Regexp
}

// Compile translates a glob pattern into a Matcher. The pattern syntax is
// deliberately small:
//
//	*  matches zero or more characters
//	?  matches exactly one character
//	\x matches the literal character x (use \*, \? and \\ for literals)
//
// Every other character matches itself. The resulting matcher is anchored at
// both ends. A trailing unescaped backslash is an error.
func Compile(pattern string) (*Matcher, error) {
	// (?s) lets the wildcard classes cross newlines; keys are arbitrary
	// strings and a newline is no different from any other character
	var sb strings.Builder
	sb.WriteString(`(?s)\A`)

	escaped := false
	for _, r := range pattern {
		if escaped {
			sb.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		return nil, fmt.Errorf("glob: trailing backslash in pattern %q", pattern)
	}
	sb.WriteString(`\z`)

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, fmt.Errorf("glob: cannot compile pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, re: re}, nil
}

// Match reports whether s matches the compiled pattern in full.
func (m *Matcher) Match(s string) bool {
	return m.re.MatchString(s)
}

// Pattern returns the original glob pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Escape quotes the glob metacharacters in s so the result matches s
// literally. This is how literal key fragments are embedded into patterns.
func Escape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
