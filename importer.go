package main

import (
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// importModule resolves an import statement and splices the imported
// module's declarations into the current scope.
func (r *Resolver) importModule(n *ASTNode, st *SymbolTable) error {
	name := n.Name()
	if st.IsBuiltin(name) {
		return n.errorf("Identifier '%s' is a built-in type and cannot be used as an identifier", name)
	}

	var module *ASTNode
	if name == "io" {
		m, err := r.ctx.ModuleIO()
		if err != nil || m == nil {
			if err != nil {
				r.ctx.cfg.Logger.Printf("module io: %v", err)
			}
			return n.errorf("Precompiled module 'io' is unavailable")
		}
		module = m
	} else {
		m, err := r.loadModule(n, name)
		if err != nil {
			return err
		}
		module = m
	}

	n.Decl = module
	if err := splice(n, module, st); err != nil {
		r.ctx.cfg.Logger.Printf("import %s: %v", name, err)
		return err
	}
	return nil
}

// splice binds every top-level declaration of module in the current scope.
// Re-importing is a no-op; a name bound to some other declaration is an
// error.
func splice(n *ASTNode, module *ASTNode, st *SymbolTable) error {
	for _, decl := range module.Statements() {
		switch decl.Kind {
		case NodeFunc, NodeClass, NodeLet:
		default:
			continue
		}
		name := decl.Name()
		if existing := st.LookupInCurrentScope(name); existing != nil {
			if existing == decl {
				continue
			}
			return n.errorf("Identifier '%s' is already in symtab", name)
		}
		st.AddSymbol(name, decl)
	}
	return nil
}

// loadModule finds, parses and resolves the file module name, reusing a
// previously loaded copy.
func (r *Resolver) loadModule(n *ASTNode, name string) (*ASTNode, error) {
	ctx := r.ctx
	file, ok := r.findModule(name)
	if !ok {
		return nil, n.errorf("Module '%s' not found", name)
	}
	if module, ok := ctx.modules[file]; ok {
		return module, nil
	}
	if ctx.loading[file] {
		return nil, n.errorf("Circular import of module '%s'", name)
	}

	data, err := fs.ReadFile(ctx.cfg.FS, file)
	if err != nil {
		ctx.cfg.Logger.Printf("read %s: %v", file, err)
		return nil, n.errorf("Unable to open file '%s'", file)
	}
	source, err := decodeSource(data)
	if err != nil {
		ctx.cfg.Logger.Printf("decode %s: %v", file, err)
		return nil, n.errorf("Unable to open file '%s'", file)
	}

	ctx.cfg.debugf("loading module %s from %s", name, file)
	ctx.parses[file]++
	module, err := ctx.parseModule(source)
	if err != nil {
		ctx.cfg.Logger.Printf("parse %s: %v", file, err)
		return nil, n.errorf("Failed to parse module '%s'", name)
	}

	done := ctx.beginLoad(file)
	err = NewResolver(ctx, path.Dir(file)).ResolveModule(module)
	done()
	if err != nil {
		return nil, err
	}
	ctx.modules[file] = module
	return module, nil
}

// findModule returns the path of <name>.ki in the importing module's
// directory or in one of the configured module paths.
func (r *Resolver) findModule(name string) (string, bool) {
	dirs := append([]string{r.dir}, r.ctx.cfg.ModulePaths...)
	for _, dir := range dirs {
		file := path.Join(dir, name+".ki")
		if info, err := fs.Stat(r.ctx.cfg.FS, file); err == nil && !info.IsDir() {
			return file, true
		}
	}
	return "", false
}

// beginLoad marks file as being imported until the returned func is called.
func (c *CompileContext) beginLoad(file string) func() {
	c.loading[file] = true
	return func() { delete(c.loading, file) }
}

// decodeSource converts module bytes to UTF-8 text. A UTF-8 or UTF-16 byte
// order mark selects the encoding; without one the bytes must be UTF-8.
func decodeSource(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("decode module source: %w", err)
	}
	return string(out), nil
}
