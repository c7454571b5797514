package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType represents the type of input code fence in a test
type InputType string

const (
	InputTypeKirazExpr    InputType = "kiraz-expr"
	InputTypeKirazProgram InputType = "kiraz-program"
)

// AssertionType represents the type of assertion code fence in a test
type AssertionType string

const (
	// AssertionTypeAST holds a Sexy pattern matched against the parsed tree.
	AssertionTypeAST AssertionType = "ast"
	// AssertionTypeCompileError holds a substring of the expected error.
	AssertionTypeCompileError AssertionType = "compile-error"
	// AssertionTypeWAT holds lines that must each appear in the output.
	AssertionTypeWAT AssertionType = "wat"
)

// fileFence introduces an extra module file: ```kiraz-file lib/math.ki
const fileFence = "kiraz-file"

// Assertion represents a single assertion in a test
type Assertion struct {
	Type       AssertionType
	Content    string // raw fence content
	ParsedSexy *Node  // AssertionTypeAST only
	Line       int
}

// TestCase represents a complete test case extracted from Markdown
type TestCase struct {
	Name       string            // heading text after "Test: "
	Input      string            // the input fence content
	InputType  InputType         // kiraz-expr or kiraz-program
	Files      map[string]string // path -> source of kiraz-file fences
	Assertions []Assertion
}

// ExtractTestCases parses a Markdown document and extracts all test cases
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)

	doc := md.Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			headingText := extractTextFromNode(n, source)
			if !strings.HasPrefix(headingText, "Test: ") {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validateTestCase(current); err != nil {
					return ast.WalkStop, err
				}
				testCases = append(testCases, *current)
			}
			current = &TestCase{
				Name:  strings.TrimPrefix(headingText, "Test: "),
				Files: map[string]string{},
			}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			content := extractCodeBlockContent(n, source)
			lineNum := getLineNumber(n, source)

			if language == "" {
				// Plain code blocks are prose.
				return ast.WalkContinue, nil
			}
			if !isKnownFence(language) {
				if current == nil {
					return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' found outside of test case", lineNum, language)
				}
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", lineNum, language, current.Name)
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
			}
			if err := current.addFence(n, language, content, lineNum, source); err != nil {
				return ast.WalkStop, err
			}
		}

		return ast.WalkContinue, nil
	})

	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validateTestCase(current); err != nil {
			return nil, err
		}
		testCases = append(testCases, *current)
	}

	return testCases, nil
}

func (tc *TestCase) addFence(n *ast.FencedCodeBlock, language, content string, lineNum int, source []byte) error {
	switch {
	case isInputFence(language):
		if tc.Input != "" {
			return fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, tc.Name)
		}
		tc.Input = strings.TrimRight(content, "\n")
		tc.InputType = InputType(language)

	case language == fileFence:
		path := fencePath(n, source)
		if path == "" {
			return fmt.Errorf("line %d: %s fence needs a path in test '%s'", lineNum, fileFence, tc.Name)
		}
		if _, dup := tc.Files[path]; dup {
			return fmt.Errorf("line %d: file '%s' defined twice in test '%s'", lineNum, path, tc.Name)
		}
		tc.Files[path] = content

	default:
		assertion := Assertion{
			Type:    AssertionType(language),
			Content: strings.TrimRight(content, "\n"),
			Line:    lineNum,
		}
		if assertion.Type == AssertionTypeAST {
			parsed, err := Parse(assertion.Content)
			if err != nil {
				return fmt.Errorf("line %d: failed to parse Sexy assertion in test '%s': %w", lineNum, tc.Name, err)
			}
			assertion.ParsedSexy = parsed
		}
		tc.Assertions = append(tc.Assertions, assertion)
	}
	return nil
}

// fencePath returns the word following the language in a fence info string.
func fencePath(n *ast.FencedCodeBlock, source []byte) string {
	if n.Info == nil {
		return ""
	}
	fields := strings.Fields(string(n.Info.Segment.Value(source)))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if text, ok := n.(*ast.Text); ok {
				buf.Write(text.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})

	return buf.String()
}

// extractCodeBlockContent extracts the content from a fenced code block
func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}

	return buf.String()
}

func isInputFence(language string) bool {
	return language == string(InputTypeKirazExpr) || language == string(InputTypeKirazProgram)
}

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertionTypeAST, AssertionTypeCompileError, AssertionTypeWAT:
		return true
	}
	return false
}

func isKnownFence(language string) bool {
	return isInputFence(language) || isAssertionFence(language) || language == fileFence
}

// validateTestCase ensures a test case has both input and at least one assertion
func validateTestCase(testCase *TestCase) error {
	if testCase.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", testCase.Name)
	}
	if len(testCase.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", testCase.Name)
	}
	return nil
}

// getLineNumber calculates the line number of a given AST node
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	startPos := node.Lines().At(0).Start
	return bytes.Count(source[:min(startPos, len(source))], []byte("\n")) + 1
}
