package main

import (
	"fmt"
	"strings"
)

// SemanticError is the sentinel returned by every resolver and generator
// operation that fails. The first one produced aborts the whole walk.
type SemanticError struct {
	Message string
	Line    int
	Col     int
}

func (e *SemanticError) Error() string {
	return e.Message
}

// errorf builds a SemanticError positioned at n.
func (n *ASTNode) errorf(format string, args ...any) error {
	return &SemanticError{
		Message: fmt.Sprintf(format, args...),
		Line:    n.Line,
		Col:     n.Col,
	}
}

// CompileError is a single positioned parse error.
type CompileError struct {
	Message string
	Line    int
	Col     int
}

// ErrorList collects parse errors.
type ErrorList struct {
	errors []CompileError
}

func (el *ErrorList) Add(line, col int, format string, args ...any) {
	el.errors = append(el.errors, CompileError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Col:     col,
	})
}

func (el *ErrorList) HasErrors() bool {
	return len(el.errors) > 0
}

func (el *ErrorList) Count() int {
	return len(el.errors)
}

// First returns the earliest recorded error.
func (el *ErrorList) First() CompileError {
	return el.errors[0]
}

func (el *ErrorList) String() string {
	var lines []string
	for _, e := range el.errors {
		lines = append(lines, fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Message))
	}
	return strings.Join(lines, "\n")
}
