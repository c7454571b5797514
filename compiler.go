package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
)

// Status is the result of a compilation.
type Status int

const (
	StatusOK              Status = 0
	StatusSemanticError   Status = 1
	StatusGenerationError Status = 2
)

// Compiler drives parse, resolve and generate for one module at a time.
// Compilers share nothing, so independent ones may run concurrently.
type Compiler struct {
	cfg *Config
	ctx *CompileContext

	wasm   *WasmContext
	module *ASTNode
	err    string
}

func NewCompiler(cfg *Config) *Compiler {
	ctx := NewCompileContext(cfg)
	return &Compiler{cfg: ctx.Config(), ctx: ctx}
}

// Context returns the compilation context shared with imported modules.
func (c *Compiler) Context() *CompileContext {
	return c.ctx
}

// Err returns the message of the last failed compilation.
func (c *Compiler) Err() string {
	return c.err
}

// Memory returns the static arena of the last compilation.
func (c *Compiler) Memory() []byte {
	if c.wasm == nil {
		return nil
	}
	return c.wasm.Memory()
}

// Module returns the tree of the last compilation.
func (c *Compiler) Module() *ASTNode {
	return c.module
}

// CompileString compiles source text and writes WAT to out. Imports are
// searched in the current directory, then in the module paths.
func (c *Compiler) CompileString(src string, out io.Writer) Status {
	return c.compile(src, ".", out)
}

// CheckString parses and resolves source text without generating code.
func (c *Compiler) CheckString(src string) Status {
	return c.compile(src, ".", nil)
}

// CheckFile parses and resolves the module at file without generating code.
func (c *Compiler) CheckFile(file string) Status {
	return c.CompileFile(file, nil)
}

// CompileFile compiles the module at file and writes WAT to out. A nil out
// stops after resolution.
func (c *Compiler) CompileFile(file string, out io.Writer) Status {
	c.reset()
	data, err := fs.ReadFile(c.cfg.FS, file)
	if err != nil {
		c.cfg.Logger.Printf("read %s: %v", file, err)
		return c.fail(StatusSemanticError, "Error at 0:0: Unable to open file '%s'", file)
	}
	src, err := decodeSource(data)
	if err != nil {
		c.cfg.Logger.Printf("decode %s: %v", file, err)
		return c.fail(StatusSemanticError, "Error at 0:0: Unable to open file '%s'", file)
	}
	done := c.ctx.beginLoad(file)
	defer done()
	return c.compile(src, path.Dir(file), out)
}

func (c *Compiler) reset() {
	c.wasm = nil
	c.module = nil
	c.err = ""
}

func (c *Compiler) fail(status Status, format string, args ...any) Status {
	c.err = fmt.Sprintf(format, args...)
	return status
}

func (c *Compiler) compile(src string, dir string, out io.Writer) Status {
	c.reset()

	c.cfg.debugf("parse")
	l := NewLexer([]byte(src))
	module := ParseProgram(l)
	if l.Errors.HasErrors() {
		first := l.Errors.First()
		return c.fail(StatusSemanticError, "Error at %d:%d: %s", first.Line, first.Col, first.Message)
	}
	c.module = module

	c.cfg.debugf("resolve")
	if err := NewResolver(c.ctx, dir).ResolveModule(module); err != nil {
		var semErr *SemanticError
		if errors.As(err, &semErr) {
			return c.fail(StatusSemanticError, "Error at %d:%d: %s", semErr.Line, semErr.Col, semErr.Message)
		}
		return c.fail(StatusSemanticError, "Error at 0:0: %s", err)
	}

	if out == nil {
		return StatusOK
	}

	c.cfg.debugf("generate")
	c.wasm = NewWasmContext()
	if err := NewGenerator(c.wasm).GenerateModule(module); err != nil {
		var semErr *SemanticError
		if errors.As(err, &semErr) {
			return c.fail(StatusGenerationError, "WAT Generation Error: %s", semErr.Message)
		}
		return c.fail(StatusGenerationError, "WAT Generation Error: %s", err)
	}

	if _, err := out.Write(c.wasm.Body().Bytes()); err != nil {
		return c.fail(StatusGenerationError, "WAT Generation Error: %s", err)
	}
	c.cfg.debugf("generated %d byte(s) of static memory", len(c.wasm.Memory()))
	return StatusOK
}
