package glob

import "testing"

func TestCompileMatch(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"item?", "item1", true},
		{"item?", "item2", true},
		{"item?", "item10", false},
		{"item?", "item", false},
		{"user_*", "user_1", true},
		{"user_*", "user_", true},
		{"user_*", "admin_1", false},
		{"a*c", "abc", true},
		{"a*c", "ac", true},
		{"a*c", "abcd", false},
		{"plain", "plain", true},
		{"plain", "plainer", false},
		// regex metacharacters in the pattern must match literally
		{"a.b", "a.b", true},
		{"a.b", "axb", false},
		{"[ab]", "[ab]", true},
		{"[ab]", "a", false},
		// escaped wildcards match literally
		{`literal\*`, "literal*", true},
		{`literal\*`, "literalX", false},
		{`who\?`, "who?", true},
		{`who\?`, "whoa", false},
		{`back\\slash`, `back\slash`, true},
		// wildcards cross newlines; a newline is an ordinary character
		{"*", "line1\nline2", true},
		{"line1*", "line1\nline2", true},
		{"line?line", "line\nline", true},
		{"line1\nline2", "line1\nline2", true},
	}

	for _, tc := range cases {
		m, err := Compile(tc.pattern)
		if err != nil {
			t.Fatalf("Compile(%q) failed: %v", tc.pattern, err)
		}
		if got := m.Match(tc.input); got != tc.want {
			t.Errorf("Compile(%q).Match(%q) = %v, want %v", tc.pattern, tc.input, got, tc.want)
		}
	}
}

func TestCompileTrailingBackslash(t *testing.T) {
	if _, err := Compile(`oops\`); err == nil {
		t.Errorf("expected error for trailing backslash")
	}
}

func TestEscape(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a*b", `a\*b`},
		{"a?b", `a\?b`},
		{`a\b`, `a\\b`},
		{"*?", `\*\?`},
	}

	for _, tc := range cases {
		if got := Escape(tc.in); got != tc.want {
			t.Errorf("Escape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// an escaped string must match itself and nothing else
	m, err := Compile(Escape("item*"))
	if err != nil {
		t.Fatalf("Compile(Escape) failed: %v", err)
	}
	if !m.Match("item*") {
		t.Errorf("escaped pattern should match the literal input")
	}
	if m.Match("items") {
		t.Errorf("escaped pattern should not act as a wildcard")
	}
}
