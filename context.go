package main

import (
	_ "embed"
)

//go:embed stdlib/io.ki
var ioSource string

// CompileContext is the state shared by one compilation and every module
// it imports: the io module cache, file module caches and import cycle
// tracking.
type CompileContext struct {
	cfg *Config

	ioModule *ASTNode
	ioErr    error
	ioParses int

	modules map[string]*ASTNode // resolved path -> module
	loading map[string]bool     // resolved path -> import in progress
	parses  map[string]int      // resolved path -> parse count
}

func NewCompileContext(cfg *Config) *CompileContext {
	return &CompileContext{
		cfg:     cfg.withDefaults(),
		modules: make(map[string]*ASTNode),
		loading: make(map[string]bool),
		parses:  make(map[string]int),
	}
}

func (c *CompileContext) Config() *Config {
	return c.cfg
}

// ModuleIO returns the resolved io module, parsing and resolving it on
// first use.
func (c *CompileContext) ModuleIO() (*ASTNode, error) {
	if c.ioModule != nil || c.ioErr != nil {
		return c.ioModule, c.ioErr
	}
	c.ioParses++
	c.cfg.debugf("loading module io")
	module, err := c.parseModule(ioSource)
	if err == nil {
		err = NewResolver(c, ".").ResolveModule(module)
	}
	if err != nil {
		c.ioErr = err
		return nil, err
	}
	c.ioModule = module
	return module, nil
}

// IOParseCount returns how many times the io source has been parsed.
func (c *CompileContext) IOParseCount() int {
	return c.ioParses
}

// ParseCount returns how many times the module at path has been parsed.
func (c *CompileContext) ParseCount(path string) int {
	return c.parses[path]
}

// parseModule parses source text into a module tree.
func (c *CompileContext) parseModule(source string) (*ASTNode, error) {
	l := NewLexer([]byte(source))
	module := ParseProgram(l)
	if l.Errors.HasErrors() {
		first := l.Errors.First()
		return nil, &SemanticError{Message: first.Message, Line: first.Line, Col: first.Col}
	}
	return module, nil
}
