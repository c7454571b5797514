package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func mustParse(t *testing.T, input string) *Node {
	t.Helper()
	node, err := Parse(input)
	be.Err(t, err, nil)
	return node
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		actual  string
	}{
		{"x", "x"},
		{`"s"`, `"s"`},
		{"42", "42"},
		{"...", "(anything (at all))"},
		{"(a b c)", "(a b c)"},
		{"(a ...)", "(a)"},
		{"(a ...)", "(a b c)"},
		{"(... c)", "(a b c)"},
		{"(a ... c)", "(a b c)"},
		{"(a ... b ... d)", "(a x b y z d)"},
		{"(f (g ...) ...)", "(f (g 1 2) (h))"},
		{"(nil ...)", "(nil)"},
	}

	for _, test := range tests {
		t.Run(test.pattern+" "+test.actual, func(t *testing.T) {
			err := Match(mustParse(t, test.pattern), mustParse(t, test.actual))
			be.Err(t, err, nil)
		})
	}
}

func TestMatchMismatch(t *testing.T) {
	tests := []struct {
		pattern string
		actual  string
		message string
	}{
		{"x", "y", "at root: expected x, got y"},
		{`"x"`, "x", `at root: expected "x", got x`},
		{"1", `"1"`, `at root: expected 1, got "1"`},
		{"(a b)", "(a c)", "at root[1]: expected b, got c"},
		{"(a (b c))", "(a (b d))", "at root[1][1]: expected c, got d"},
		{"(a b)", "(a b c)", "at root: expected (a b), got (a b c)"},
		{"(a ... z)", "(a b c d)", "at root: expected (a ... z), got (a b c d)"},
		{"(a)", "a", "at root: expected (a), got a"},
	}

	for _, test := range tests {
		t.Run(test.pattern+" "+test.actual, func(t *testing.T) {
			err := Match(mustParse(t, test.pattern), mustParse(t, test.actual))
			be.True(t, err != nil)
			be.Equal(t, err.Error(), test.message)
		})
	}
}
