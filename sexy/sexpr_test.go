package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []string{"hello", "test_var", "func-name", "x", "$f", "i64.add", "+", "<="}

	for _, test := range tests {
		result, err := Parse(test)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, test)
		be.Equal(t, result.String(), test)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`"hello world"`, "hello world", `"hello world"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"test\\backslash"`, `test\backslash`, `"test\\backslash"`},
		{`"line\n"`, "line\n", `"line\n"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseInteger(t *testing.T) {
	tests := []string{"42", "0", "-123", "+456"}

	for _, test := range tests {
		result, err := Parse(test)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeInteger)
		be.Equal(t, result.Text, test)
		be.Equal(t, result.String(), test)
	}
}

func TestParseEllipsis(t *testing.T) {
	result, err := Parse("...")
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeEllipsis)
	be.Equal(t, result.String(), "...")
}

func TestParseList(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"()", "()"},
		{"(hello)", "(hello)"},
		{"(1 2 3)", "(1 2 3)"},
		{`(binary "+" 1 2)`, `(binary "+" 1 2)`},
		{"(nested (list here))", "(nested (list here))"},
		{"( spaced\n\t( out ) )", "(spaced (out))"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeList)
		be.Equal(t, result.String(), test.expected)
	}
}

func TestParseComplexExamples(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"binary expression",
			`(binary "+"
 (ident "x")
 (binary "*"
  (ident "yyy")
  (integer 2)))`,
			`(binary "+" (ident "x") (binary "*" (ident "yyy") (integer 2)))`,
		},
		{
			"function",
			`(func (ident "f")
 (params (param (ident "a") (ident "Integer64")))
 (ident "Integer64")
 (block ...))`,
			`(func (ident "f") (params (param (ident "a") (ident "Integer64"))) (ident "Integer64") (block ...))`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Parse(test.input)
			be.Err(t, err, nil)
			be.Equal(t, result.String(), test.expected)
		})
	}
}

func TestParseComments(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"; comment\nhello", "hello"},
		{"hello ; trailing comment", "hello"},
		{"; AST for expression\n(binary \"+\" 1 2)", `(binary "+" 1 2)`},
		{"(test ; inline comment\n world)", "(test world)"},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)
		be.Equal(t, result.String(), test.expected)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single dot", ".", "unexpected character '.'"},
		{"at sign", "@", "unexpected character '@'"},
		{"percent", "%", "unexpected character '%'"},
		{"brackets", "[1 2]", "unexpected character '['"},
		{"dot within list", "(1 2 3 . 4)", "unexpected character '.'"},
		{"unterminated string", `"abc`, "unterminated string"},
		{"unclosed list", "(hello", "expected ')' but got EOF"},
		{"stray paren", ")", "unexpected token: ')'"},
		{"trailing symbol", "hello world", "expected EOF but got symbol"},
		{"trailing list", "(test) more", "expected EOF but got symbol"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Parse(test.input)
			be.Err(t, err, test.expected)
			be.True(t, result == nil)
		})
	}
}

func TestInvalidEscape(t *testing.T) {
	_, err := Parse(`"invalid \escape"`)
	be.Err(t, err, "invalid string")
}

func TestNodeHelpers(t *testing.T) {
	symbol := NewSymbol("test")
	be.True(t, symbol.IsAtom())
	be.True(t, NewString("hello").IsAtom())
	be.True(t, NewInteger("42").IsAtom())
	be.True(t, NewEllipsis().IsAtom())

	list := NewList(symbol, NewInteger("1"))
	be.True(t, !list.IsAtom())
	be.Equal(t, list.Head(), "test")
	be.Equal(t, list.String(), "(test 1)")

	be.Equal(t, NewList().Head(), "")
	be.Equal(t, NewList(NewString("s")).Head(), "")
	be.Equal(t, symbol.Head(), "")
}
