package main

import (
	"unicode"
	"unicode/utf8"
)

// Resolver performs name resolution and type checking over a module tree.
// Every operation returns the first error it meets; callers propagate it
// unchanged.
type Resolver struct {
	ctx *CompileContext
	// dir is the directory of the module being resolved, searched first
	// by imports.
	dir string
}

func NewResolver(ctx *CompileContext, dir string) *Resolver {
	return &Resolver{ctx: ctx, dir: dir}
}

// ResolveModule resolves a module root in a fresh module-scoped table.
func (r *Resolver) ResolveModule(module *ASTNode) error {
	st := NewSymbolTable(ScopeModule)
	return r.ComputeType(module, st)
}

// drive runs the three-step protocol over a statement list. Functions,
// classes and imports are forward-declared up front so siblings can refer
// to each other in any order.
func (r *Resolver) drive(stmts []*ASTNode, st *SymbolTable, own *SymbolTable) error {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case NodeFunc, NodeClass, NodeImport:
			if err := r.Forward(stmt, st); err != nil {
				return err
			}
		}
	}
	for _, stmt := range stmts {
		if err := r.Forward(stmt, st); err != nil {
			return err
		}
		if err := r.Ordered(stmt, own); err != nil {
			return err
		}
		if err := r.ComputeType(stmt, st); err != nil {
			return err
		}
	}
	return nil
}

// ===== FORWARD DECLARATION =====

// Forward registers n's name in the lexically enclosing scope.
func (r *Resolver) Forward(n *ASTNode, st *SymbolTable) error {
	switch n.Kind {
	case NodeImport:
		if n.state == resolved {
			return nil
		}
		if st.ScopeType() != ScopeModule {
			return n.errorf("Misplaced import statement")
		}
		if err := r.importModule(n, st); err != nil {
			return err
		}
		n.state = resolved
		return nil

	case NodeFunc:
		name := n.Name()
		if st.LookupInCurrentScope(name) == n {
			return nil // hoisted
		}
		if err := r.checkNewName(n, st); err != nil {
			return err
		}
		st.AddSymbol(name, n)
		n.Scope = st.CurrentScope()
		n.Symtab = NewSymbolTable(ScopeFunction)
		n.TypeAST = TypeFunction
		return nil

	case NodeClass:
		name := n.Name()
		if st.LookupInCurrentScope(name) == n {
			return nil // hoisted
		}
		if err := r.checkNewName(n, st); err != nil {
			return err
		}
		if startsWith(name, unicode.IsLower) {
			return n.errorf("Class name '%s' can not start with an lowercase letter", name)
		}
		st.AddSymbol(name, n)
		n.Scope = st.CurrentScope()
		n.Symtab = NewSymbolTable(ScopeClass)
		n.TypeAST = &TypeNode{Kind: TypeClass, String: name, Class: n}
		return nil

	case NodeLet:
		name := n.Name()
		if err := r.checkNewName(n, st); err != nil {
			return err
		}
		if startsWith(name, unicode.IsUpper) {
			return n.errorf("Variable name '%s' can not start with an uppercase letter", name)
		}
		st.AddSymbol(name, n)
		n.Scope = st.CurrentScope()
		return nil

	case NodeIf, NodeWhile:
		cond := n.Children[0]
		if err := r.computeExpr(cond, st); err != nil {
			return err
		}
		if cond.TypeAST != TypeBoolean {
			if n.Kind == NodeIf {
				return n.errorf("If only accepts tests of type 'Boolean'")
			}
			return n.errorf("While only accepts tests of type 'Boolean'")
		}
		return nil
	}
	return nil
}

// checkNewName rejects reserved names and names already visible.
func (r *Resolver) checkNewName(n *ASTNode, st *SymbolTable) error {
	name := n.Name()
	if st.IsBuiltin(name) {
		return n.errorf("Identifier '%s' is a built-in type and cannot be used as an identifier", name)
	}
	if st.Lookup(name) != nil {
		return n.errorf("Identifier '%s' is already in symtab", name)
	}
	return nil
}

func startsWith(name string, pred func(rune) bool) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && pred(r)
}

// ===== ORDERED DECLARATION =====

// Ordered registers n in its container's private member table.
func (r *Resolver) Ordered(n *ASTNode, own *SymbolTable) error {
	switch n.Kind {
	case NodeLet, NodeFunc, NodeClass:
		if own == nil {
			return nil
		}
		name := n.Name()
		if existing := own.LookupInCurrentScope(name); existing != nil && existing != n {
			return n.errorf("Identifier '%s' is already in symtab", name)
		}
		own.AddSymbol(name, n)
	}
	return nil
}

// ===== TYPE COMPUTATION =====

// ComputeType validates a statement and records its type.
func (r *Resolver) ComputeType(n *ASTNode, st *SymbolTable) error {
	switch n.Kind {
	case NodeModule:
		n.Symtab = NewSymbolTable(ScopeModule)
		n.Scope = st.CurrentScope()
		err := r.drive(n.Children, st, n.Symtab)
		if err == nil {
			n.state = resolved
		}
		return err
	case NodeImport, NodeParam, NodeParams:
		return nil
	case NodeClass:
		return r.resolveClass(n, st)
	case NodeFunc:
		return r.resolveFunc(n, st)
	case NodeLet:
		return r.resolveLet(n, st)
	case NodeAssign:
		return r.resolveAssign(n, st)
	case NodeIf:
		return r.resolveIf(n, st)
	case NodeWhile:
		return r.resolveWhile(n, st)
	case NodeReturn:
		return r.resolveReturn(n, st)
	case NodeBlock:
		return r.drive(n.Children, st, r.functionTable(st))
	default:
		return r.computeExpr(n, st)
	}
}

func (r *Resolver) resolveClass(n *ASTNode, st *SymbolTable) error {
	var parent *ASTNode
	if parentName := n.ParentName(); parentName != "" {
		if parentName == n.Name() {
			return n.errorf("Class '%s' can not inherit from itself", parentName)
		}
		parent = st.Lookup(parentName)
		if parent == nil {
			return n.errorf("Parent class '%s' is not defined", parentName)
		}
		if parent.Kind != NodeClass {
			return n.errorf("'%s' is not a valid class", parentName)
		}
		if parent.state != resolved {
			return n.errorf("Parent class '%s' is not defined", parentName)
		}
		ident := n.Children[1]
		ident.Decl = parent
		ident.TypeAST = parent.TypeAST
	}

	n.state = resolving
	defer st.EnterScope(ScopeClass, n).Exit()

	// Inherited members are visible in the body and can not be redeclared.
	if parent != nil {
		inherited := parent.Symtab.CurrentScope()
		for _, name := range inherited.Names() {
			st.AddSymbol(name, inherited.Lookup(name))
		}
	}

	if err := r.drive(n.Statements(), st, n.Symtab); err != nil {
		return err
	}
	n.state = resolved
	return nil
}

// signature resolves parameter and return types of fn in the scope fn was
// declared in. It runs once per function.
func (r *Resolver) signature(fn *ASTNode) error {
	params := fn.child(1)
	if params == nil || params.state == resolved {
		return nil
	}
	scope := fn.Scope
	for _, p := range fn.Params() {
		t := lookupType(p.TypeName(), scope)
		if t == nil {
			return p.errorf("Identifier '%s' in type of argument '%s' in function '%s' is not found", p.TypeName(), p.Name(), fn.Name())
		}
		p.TypeAST = t
	}
	if rt := fn.child(2); rt != nil {
		t := lookupType(rt.String, scope)
		if t == nil {
			return rt.errorf("Return type '%s' of function '%s' is not found", rt.String, fn.Name())
		}
		rt.TypeAST = t
	}
	params.state = resolved
	return nil
}

// returnType is the declared return type of fn, Void when omitted.
func returnType(fn *ASTNode) *TypeNode {
	if rt := fn.child(2); rt != nil && rt.TypeAST != nil {
		return rt.TypeAST
	}
	return TypeVoid
}

// lookupType resolves a type annotation: a built-in type or a class
// visible from scope.
func lookupType(name string, scope *Scope) *TypeNode {
	if t := GetBuiltinType(name); t != nil {
		return t
	}
	if scope == nil {
		return nil
	}
	if decl := scope.Lookup(name); decl != nil && decl.Kind == NodeClass {
		return decl.TypeAST
	}
	return nil
}

func (r *Resolver) resolveFunc(n *ASTNode, st *SymbolTable) error {
	if err := r.signature(n); err != nil {
		return err
	}

	n.state = resolving
	defer st.EnterScope(ScopeFunction, n).Exit()

	for _, p := range n.Params() {
		name := p.Name()
		if st.IsBuiltin(name) {
			return p.errorf("Identifier '%s' is a built-in type and cannot be used as an identifier", name)
		}
		if name == n.Name() || n.Symtab.LookupInCurrentScope(name) != nil {
			return p.errorf("Identifier '%s' in argument list of function '%s' is already in symtab", name, n.Name())
		}
		n.Symtab.AddSymbol(name, p)
		st.AddSymbol(name, p)
		p.Scope = st.CurrentScope()
		p.state = resolved
	}

	if err := r.drive(n.Statements(), st, n.Symtab); err != nil {
		return err
	}
	n.state = resolved
	return nil
}

func (r *Resolver) resolveLet(n *ASTNode, st *SymbolTable) error {
	name := n.Name()
	var declared *TypeNode
	if typeName := n.TypeName(); typeName != "" {
		declared = lookupType(typeName, st.CurrentScope())
		if declared == nil {
			return n.child(1).errorf("Type '%s' is not found", typeName)
		}
		n.child(1).TypeAST = declared
	}

	n.state = resolving
	if value := n.child(2); value != nil {
		if err := r.computeExpr(value, st); err != nil {
			return err
		}
		if value.TypeAST == TypeVoid {
			return value.errorf("Cannot initialize '%s' with a value of type 'Void'", name)
		}
		if declared == nil {
			declared = value.TypeAST
		} else if !TypesEqual(declared, value.TypeAST) {
			return value.errorf("Cannot initialize '%s' of type '%s' with a value of type '%s'",
				name, TypeToString(declared), TypeToString(value.TypeAST))
		}
	}
	if declared == nil {
		return n.errorf("Variable '%s' needs a type or an initial value", name)
	}
	n.TypeAST = declared
	n.state = resolved
	return nil
}

func (r *Resolver) resolveAssign(n *ASTNode, st *SymbolTable) error {
	target, value := n.Children[0], n.Children[1]
	switch target.Kind {
	case NodeIdent:
		if st.IsBuiltin(target.String) {
			return target.errorf("Overriding builtin '%s' is not allowed", target.String)
		}
		if err := r.computeExpr(target, st); err != nil {
			return err
		}
	case NodeDot:
		if err := r.computeExpr(target, st); err != nil {
			return err
		}
	default:
		return target.errorf("Left-hand side of assignment must be an identifier")
	}
	if decl := target.Decl; decl.Kind != NodeLet && decl.Kind != NodeParam {
		return target.errorf("Can not assign to '%s'", exprName(target))
	}

	if err := r.computeExpr(value, st); err != nil {
		return err
	}
	if !TypesEqual(target.TypeAST, value.TypeAST) {
		return value.errorf("Cannot assign a value of type '%s' to '%s' of type '%s'",
			TypeToString(value.TypeAST), exprName(target), TypeToString(target.TypeAST))
	}
	n.TypeAST = TypeVoid
	return nil
}

// functionTable returns the private table of the innermost function.
func (r *Resolver) functionTable(st *SymbolTable) *SymbolTable {
	if fn := st.ScopeStmt(); fn != nil {
		return fn.Symtab
	}
	return nil
}

func (r *Resolver) resolveIf(n *ASTNode, st *SymbolTable) error {
	if st.ScopeType() != ScopeFunction {
		return n.errorf("Misplaced if statement")
	}
	if n.Children[0].TypeAST == nil {
		if err := r.Forward(n, st); err != nil {
			return err
		}
	}
	own := r.functionTable(st)
	if err := r.drive(n.Children[1].Children, st, own); err != nil {
		return err
	}
	if els := n.child(2); els != nil {
		if err := r.drive(els.Children, st, own); err != nil {
			return err
		}
	}
	n.TypeAST = TypeVoid
	return nil
}

func (r *Resolver) resolveWhile(n *ASTNode, st *SymbolTable) error {
	if st.ScopeType() != ScopeFunction {
		return n.errorf("Misplaced while statement")
	}
	if n.Children[0].TypeAST == nil {
		if err := r.Forward(n, st); err != nil {
			return err
		}
	}
	if err := r.drive(n.Children[1].Children, st, r.functionTable(st)); err != nil {
		return err
	}
	n.TypeAST = TypeVoid
	return nil
}

func (r *Resolver) resolveReturn(n *ASTNode, st *SymbolTable) error {
	if st.ScopeType() != ScopeFunction {
		return n.errorf("Misplaced return statement")
	}
	fn := st.ScopeStmt()
	got := TypeVoid
	if value := n.child(0); value != nil {
		if err := r.computeExpr(value, st); err != nil {
			return err
		}
		got = value.TypeAST
	}
	want := returnType(fn)
	if !TypesEqual(want, got) {
		return n.errorf("Return value of type '%s' does not match return type '%s' of function '%s'",
			TypeToString(got), TypeToString(want), fn.Name())
	}
	n.TypeAST = got
	return nil
}

// ===== EXPRESSIONS =====

// computeExpr resolves names in an expression and records its type.
func (r *Resolver) computeExpr(n *ASTNode, st *SymbolTable) error {
	switch n.Kind {
	case NodeInteger:
		n.TypeAST = TypeInteger64
	case NodeString:
		n.TypeAST = TypeString
	case NodeBoolean:
		n.TypeAST = TypeBoolean
	case NodeIdent:
		return r.resolveIdent(n, st)
	case NodeUnary:
		return r.resolveUnary(n, st)
	case NodeBinary:
		return r.resolveBinary(n, st)
	case NodeCall:
		return r.resolveCall(n, st)
	case NodeDot:
		return r.resolveDot(n, st)
	default:
		return n.errorf("Unexpected %s in expression", n.Kind)
	}
	return nil
}

func (r *Resolver) resolveIdent(n *ASTNode, st *SymbolTable) error {
	name := n.String
	if st.IsBuiltin(name) {
		return n.errorf("Identifier '%s' is a built-in type and cannot be used as an identifier", name)
	}
	decl := st.Lookup(name)
	if decl == nil {
		return n.errorf("Identifier '%s' is not found", name)
	}
	if (decl.Kind == NodeLet || decl.Kind == NodeParam) && decl.state != resolved {
		return n.errorf("Identifier '%s' is used before its initialization", name)
	}
	n.Decl = decl
	n.TypeAST = declType(decl)
	return nil
}

// declType is the value type of a name bound to decl.
func declType(decl *ASTNode) *TypeNode {
	switch decl.Kind {
	case NodeFunc:
		return TypeFunction
	default:
		return decl.TypeAST
	}
}

func (r *Resolver) resolveUnary(n *ASTNode, st *SymbolTable) error {
	operand := n.Children[0]
	if err := r.computeExpr(operand, st); err != nil {
		return err
	}
	switch {
	case n.Op == "-" && operand.TypeAST == TypeInteger64:
		n.TypeAST = TypeInteger64
	case n.Op == "not" && operand.TypeAST == TypeBoolean:
		n.TypeAST = TypeBoolean
	default:
		return n.errorf("Operator '%s' is not defined for type '%s'", n.Op, TypeToString(operand.TypeAST))
	}
	return nil
}

func (r *Resolver) resolveBinary(n *ASTNode, st *SymbolTable) error {
	left, right := n.Children[0], n.Children[1]
	if err := r.computeExpr(left, st); err != nil {
		return err
	}
	if err := r.computeExpr(right, st); err != nil {
		return err
	}
	lt, rt := left.TypeAST, right.TypeAST
	same := TypesEqual(lt, rt)

	var result *TypeNode
	switch n.Op {
	case "+":
		if same && (lt == TypeInteger64 || lt == TypeString) {
			result = lt
		}
	case "-", "*", "/":
		if same && lt == TypeInteger64 {
			result = TypeInteger64
		}
	case "==", "!=":
		if same && lt != TypeVoid && lt != TypeFunction {
			result = TypeBoolean
		}
	case "<", ">", "<=", ">=":
		if same && lt == TypeInteger64 {
			result = TypeBoolean
		}
	case "and", "or":
		if same && lt == TypeBoolean {
			result = TypeBoolean
		}
	}
	if result == nil {
		return n.errorf("Operator '%s' is not defined for types '%s' and '%s'", n.Op, TypeToString(lt), TypeToString(rt))
	}
	n.TypeAST = result
	return nil
}

func (r *Resolver) resolveCall(n *ASTNode, st *SymbolTable) error {
	callee := n.Children[0]
	args := n.Children[1:]
	switch callee.Kind {
	case NodeIdent, NodeDot:
		if err := r.computeExpr(callee, st); err != nil {
			return err
		}
	default:
		return callee.errorf("Expression is not callable")
	}

	for _, arg := range args {
		if err := r.computeExpr(arg, st); err != nil {
			return err
		}
	}

	decl := callee.Decl
	switch decl.Kind {
	case NodeClass:
		if len(args) > 0 {
			return n.errorf("Class '%s' does not take arguments", decl.Name())
		}
		n.TypeAST = decl.TypeAST
		return nil
	case NodeFunc:
		if err := r.signature(decl); err != nil {
			return err
		}
	default:
		return callee.errorf("'%s' is not a function", exprName(callee))
	}

	params := decl.Params()
	if len(args) != len(params) {
		return n.errorf("Function '%s' expects %d argument(s) but got %d", decl.Name(), len(params), len(args))
	}
	for i, arg := range args {
		if !TypesEqual(params[i].TypeAST, arg.TypeAST) {
			return arg.errorf("Argument '%s' of function '%s' expects type '%s' but got '%s'",
				params[i].Name(), decl.Name(), TypeToString(params[i].TypeAST), TypeToString(arg.TypeAST))
		}
	}
	n.TypeAST = returnType(decl)
	return nil
}

// resolveDot resolves left.right against the class of left, falling back
// to the direct parent class.
func (r *Resolver) resolveDot(n *ASTNode, st *SymbolTable) error {
	left, right := n.Children[0], n.Children[1]
	if left == nil || left.Kind != NodeIdent {
		return n.errorf("Left-hand side of dot expression must be an identifier")
	}
	decl := st.Lookup(left.String)
	if decl == nil {
		return left.errorf("Object '%s' is not defined", left.String)
	}
	if (decl.Kind == NodeLet || decl.Kind == NodeParam) && decl.state != resolved {
		return left.errorf("Identifier '%s' is used before its initialization", left.String)
	}
	left.Decl = decl
	left.TypeAST = declType(decl)

	var class *ASTNode
	switch decl.Kind {
	case NodeClass:
		class = decl
	case NodeLet, NodeParam:
		if t := decl.TypeAST; t != nil && t.Kind == TypeClass {
			class = t.Class
		}
	}
	if class == nil {
		return left.errorf("'%s' is not a class instance", left.String)
	}

	if right == nil || right.Kind != NodeIdent {
		return n.errorf("Right-hand side of dot expression must be an identifier")
	}
	if st.IsBuiltin(right.String) {
		return right.errorf("Identifier '%s' has no subsymbol '%s'", left.String, right.String)
	}

	member := class.Symtab.LookupInCurrentScope(right.String)
	if member == nil {
		if parent := parentClass(class); parent != nil {
			member = parent.Symtab.LookupInCurrentScope(right.String)
		}
	}
	if member == nil {
		return n.errorf("Identifier '%s.%s' is not found", left.String, right.String)
	}

	right.Decl = member
	right.TypeAST = declType(member)
	n.Decl = member
	n.TypeAST = right.TypeAST
	return nil
}

// parentClass returns the resolved parent declaration of class, or nil.
func parentClass(class *ASTNode) *ASTNode {
	if p := class.child(1); p != nil {
		return p.Decl
	}
	return nil
}

// exprName spells an identifier or dot expression for messages.
func exprName(n *ASTNode) string {
	switch n.Kind {
	case NodeIdent:
		return n.String
	case NodeDot:
		return exprName(n.Children[0]) + "." + exprName(n.Children[1])
	}
	return string(n.Kind)
}
