package main

import (
	"fmt"
	"io"
)

// ScopeKind is the kind of region a scope belongs to.
type ScopeKind string

const (
	ScopeModule   ScopeKind = "Module"
	ScopeClass    ScopeKind = "Class"
	ScopeFunction ScopeKind = "Function"
)

// Scope maps names to their declaration nodes. Names keep insertion order.
type Scope struct {
	Kind ScopeKind
	// Stmt is the class or function owning the scope, nil for a module.
	Stmt *ASTNode

	symbols map[string]*ASTNode
	names   []string
}

func newScope(kind ScopeKind, stmt *ASTNode) *Scope {
	return &Scope{Kind: kind, Stmt: stmt, symbols: make(map[string]*ASTNode)}
}

// Lookup returns the declaration bound to name in this scope, or nil.
func (s *Scope) Lookup(name string) *ASTNode {
	return s.symbols[name]
}

// Names returns the bound names in insertion order.
func (s *Scope) Names() []string {
	return s.names
}

func (s *Scope) set(name string, decl *ASTNode) {
	if _, ok := s.symbols[name]; !ok {
		s.names = append(s.names, name)
	}
	s.symbols[name] = decl
}

// clone copies the current mapping into a fresh scope of the given kind.
func (s *Scope) clone(kind ScopeKind, stmt *ASTNode) *Scope {
	c := &Scope{
		Kind:    kind,
		Stmt:    stmt,
		symbols: make(map[string]*ASTNode, len(s.symbols)),
		names:   make([]string, len(s.names)),
	}
	copy(c.names, s.names)
	for k, v := range s.symbols {
		c.symbols[k] = v
	}
	return c
}

// SymbolTable is a stack of scopes. The bottom scope is never popped.
type SymbolTable struct {
	scopes []*Scope
}

// NewSymbolTable returns a table holding a single scope of the given kind.
func NewSymbolTable(kind ScopeKind) *SymbolTable {
	return &SymbolTable{scopes: []*Scope{newScope(kind, nil)}}
}

// CurrentScope returns the innermost scope.
func (st *SymbolTable) CurrentScope() *Scope {
	return st.scopes[len(st.scopes)-1]
}

// Lookup searches from the innermost scope outwards.
func (st *SymbolTable) Lookup(name string) *ASTNode {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if decl := st.scopes[i].Lookup(name); decl != nil {
			return decl
		}
	}
	return nil
}

// LookupInCurrentScope searches only the innermost scope.
func (st *SymbolTable) LookupInCurrentScope(name string) *ASTNode {
	return st.CurrentScope().Lookup(name)
}

// GetSymbol is LookupInCurrentScope; it reports whether the name was bound.
func (st *SymbolTable) GetSymbol(name string) (*ASTNode, bool) {
	decl := st.CurrentScope().Lookup(name)
	return decl, decl != nil
}

// AddSymbol binds name in the innermost scope. Callers check uniqueness.
func (st *SymbolTable) AddSymbol(name string, decl *ASTNode) *ASTNode {
	if name == "" {
		panic("AddSymbol: empty name")
	}
	st.CurrentScope().set(name, decl)
	return decl
}

// IsBuiltin reports whether name is reserved.
func (st *SymbolTable) IsBuiltin(name string) bool {
	return builtinNames[name]
}

func (st *SymbolTable) ScopeType() ScopeKind {
	return st.CurrentScope().Kind
}

func (st *SymbolTable) ScopeStmt() *ASTNode {
	return st.CurrentScope().Stmt
}

// Depth returns the number of scopes on the stack.
func (st *SymbolTable) Depth() int {
	return len(st.scopes)
}

// ScopeRef pops the scope it was returned for. Exit may be called more
// than once.
type ScopeRef struct {
	st    *SymbolTable
	depth int
}

// EnterScope pushes a scope initialised with a copy of the current mapping.
//
//	defer st.EnterScope(ScopeFunction, fn).Exit()
func (st *SymbolTable) EnterScope(kind ScopeKind, stmt *ASTNode) *ScopeRef {
	st.scopes = append(st.scopes, st.CurrentScope().clone(kind, stmt))
	return &ScopeRef{st: st, depth: len(st.scopes)}
}

func (r *ScopeRef) Exit() {
	if r.st == nil {
		return
	}
	if len(r.st.scopes) >= r.depth && r.depth > 1 {
		r.st.scopes = r.st.scopes[:r.depth-1]
	}
	r.st = nil
}

// Print dumps every scope for debugging.
func (st *SymbolTable) Print(w io.Writer) {
	fmt.Fprintln(w, "===== Symbol Table =====")
	for i, scope := range st.scopes {
		fmt.Fprintf(w, "Scope %d: %s\n", i, scope.Kind)
		for _, name := range scope.names {
			fmt.Fprintf(w, "  %s -> %s\n", name, describeDecl(scope.symbols[name]))
		}
	}
	fmt.Fprintln(w, "========================")
}

func describeDecl(n *ASTNode) string {
	if n == nil {
		return "nil"
	}
	switch n.Kind {
	case NodeClass:
		if parent := n.ParentName(); parent != "" {
			return "class " + n.Name() + " : " + parent
		}
		return "class " + n.Name()
	case NodeFunc:
		return "func " + n.Name()
	case NodeLet:
		return "let " + n.Name() + " : " + TypeToString(n.TypeAST)
	case NodeParam:
		return "param " + n.Name() + " : " + TypeToString(n.TypeAST)
	case NodeModule:
		return "module"
	}
	return string(n.Kind)
}
