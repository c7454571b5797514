package main

import (
	"fmt"
	"strings"
)

// Generator lowers a resolved module into WAT. Every value is an i64:
// booleans are 0 or 1 and strings are offsets into the static arena.
type Generator struct {
	w *WasmContext

	// funcs maps every callable function to its WAT symbol.
	funcs map[*ASTNode]string
	// globals holds the module-level lets of the module being generated.
	globals map[*ASTNode]bool
	// imported holds the modules whose functions are already declared.
	imported map[*ASTNode]bool
}

func NewGenerator(w *WasmContext) *Generator {
	return &Generator{
		w:        w,
		funcs:    make(map[*ASTNode]string),
		globals:  make(map[*ASTNode]bool),
		imported: make(map[*ASTNode]bool),
	}
}

const errInstances = "WAT generation for class instances is not supported"

// GenerateModule writes the whole module into the outermost frame.
func (g *Generator) GenerateModule(module *ASTNode) error {
	if module == nil || module.Kind != NodeModule {
		return fmt.Errorf("expected a module")
	}
	stmts := module.Statements()
	g.collect(stmts)

	w := g.w
	w.Line(0, "(module")

	for _, stmt := range stmts {
		if stmt.Kind == NodeImport {
			g.imports(stmt)
		}
	}

	var init []*ASTNode
	for _, stmt := range stmts {
		if stmt.Kind != NodeLet {
			continue
		}
		v, ok := g.constValue(stmt.child(2))
		if !ok {
			init = append(init, stmt)
		}
		w.Line(1, "(global $%s (mut i64) (i64.const %d))", stmt.Name(), v)
	}

	for _, stmt := range stmts {
		switch stmt.Kind {
		case NodeImport, NodeLet:
		case NodeFunc:
			if err := g.function(stmt); err != nil {
				return err
			}
			w.Line(1, "(export \"%s\" (func $%s))", stmt.Name(), g.funcs[stmt])
		case NodeClass:
			if err := g.class(stmt); err != nil {
				return err
			}
		default:
			init = append(init, stmt)
		}
	}

	if err := g.initFunction(init); err != nil {
		return err
	}
	w.Line(0, ")")
	return nil
}

// collect assigns symbols to every function reachable from the module's
// top level before any body is generated.
func (g *Generator) collect(stmts []*ASTNode) {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case NodeImport:
			if stmt.Decl == nil {
				continue
			}
			for _, fn := range stmt.Decl.Statements() {
				if fn.Kind == NodeFunc {
					g.funcs[fn] = fn.Name()
				}
			}
		case NodeFunc:
			g.funcs[stmt] = stmt.Name()
		case NodeClass:
			g.collectClass(stmt, stmt.Name())
		case NodeLet:
			g.globals[stmt] = true
		}
	}
}

func (g *Generator) collectClass(class *ASTNode, prefix string) {
	for _, member := range class.Statements() {
		switch member.Kind {
		case NodeFunc:
			g.funcs[member] = prefix + "." + member.Name()
		case NodeClass:
			g.collectClass(member, prefix+"."+member.Name())
		}
	}
}

// imports declares the functions of an imported module as host imports.
func (g *Generator) imports(n *ASTNode) {
	if n.Decl == nil || g.imported[n.Decl] {
		return
	}
	g.imported[n.Decl] = true
	for _, fn := range n.Decl.Statements() {
		if fn.Kind != NodeFunc {
			continue
		}
		var sig strings.Builder
		for range fn.Params() {
			sig.WriteString(" (param i64)")
		}
		if returnType(fn) != TypeVoid {
			sig.WriteString(" (result i64)")
		}
		g.w.Line(1, "(import \"%s\" \"%s\" (func $%s%s))", n.Name(), fn.Name(), g.funcs[fn], sig.String())
	}
}

// constValue returns the value of a literal initialiser. A missing
// initialiser is the constant 0.
func (g *Generator) constValue(n *ASTNode) (int64, bool) {
	if n == nil {
		return 0, true
	}
	switch n.Kind {
	case NodeInteger:
		return n.Integer, true
	case NodeBoolean:
		if n.Boolean {
			return 1, true
		}
		return 0, true
	case NodeString:
		offset, _ := g.w.AddString(n.String)
		return int64(offset), true
	case NodeUnary:
		if n.Op == "-" && n.Children[0].Kind == NodeInteger {
			return -n.Children[0].Integer, true
		}
	}
	return 0, false
}

func (g *Generator) function(fn *ASTNode) error {
	w := g.w
	w.Line(1, "(func $%s", g.funcs[fn])
	for _, p := range fn.Params() {
		w.Line(2, "(param $%s i64)", p.Name())
	}
	if returnType(fn) != TypeVoid {
		w.Line(2, "(result i64)")
	}
	w.Push()
	body := fn.Statements()
	if err := g.statements(body, 1); err != nil {
		return err
	}
	if returnType(fn) != TypeVoid && !endsWithReturn(body) {
		if !alwaysReturns(body) {
			return fn.errorf("Function '%s' must end with a return statement", fn.Name())
		}
		// Both branches of the final if return; the fallthrough is dead.
		w.Line(1, "(unreachable)")
	}
	if err := w.Pop(); err != nil {
		return err
	}
	w.Line(1, ")")
	return nil
}

func endsWithReturn(stmts []*ASTNode) bool {
	return len(stmts) > 0 && stmts[len(stmts)-1].Kind == NodeReturn
}

// alwaysReturns reports whether every path through stmts ends in a return.
func alwaysReturns(stmts []*ASTNode) bool {
	if endsWithReturn(stmts) {
		return true
	}
	if len(stmts) == 0 {
		return false
	}
	last := stmts[len(stmts)-1]
	if last.Kind != NodeIf {
		return false
	}
	els := last.child(2)
	return els != nil && alwaysReturns(last.Children[1].Children) && alwaysReturns(els.Children)
}

func (g *Generator) class(class *ASTNode) error {
	for _, member := range class.Statements() {
		switch member.Kind {
		case NodeFunc:
			if err := g.function(member); err != nil {
				return err
			}
		case NodeClass:
			if err := g.class(member); err != nil {
				return err
			}
		case NodeLet:
			// Fields only exist on instances.
		default:
			return member.errorf("Unsupported statement in class '%s'", class.Name())
		}
	}
	return nil
}

// initFunction runs module-level statements from a start function.
func (g *Generator) initFunction(stmts []*ASTNode) error {
	if len(stmts) == 0 {
		return nil
	}
	w := g.w
	w.Line(1, "(func $.init")
	w.Push()
	for _, stmt := range stmts {
		if stmt.Kind == NodeLet {
			value, err := g.expr(stmt.Children[2])
			if err != nil {
				return err
			}
			w.Line(1, "(global.set $%s %s)", stmt.Name(), value)
			continue
		}
		if err := g.statement(stmt, 1); err != nil {
			return err
		}
	}
	if err := w.Pop(); err != nil {
		return err
	}
	w.Line(1, ")")
	w.Line(1, "(start $.init)")
	return nil
}

// ===== STATEMENTS =====

func (g *Generator) statements(stmts []*ASTNode, depth int) error {
	for _, stmt := range stmts {
		if err := g.statement(stmt, depth); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) statement(n *ASTNode, depth int) error {
	w := g.w
	switch n.Kind {
	case NodeLet:
		w.Local(n.Name())
		if value := n.child(2); value != nil {
			v, err := g.expr(value)
			if err != nil {
				return err
			}
			w.Line(depth, "(local.set $%s %s)", n.Name(), v)
		}

	case NodeAssign:
		target := n.Children[0]
		v, err := g.expr(n.Children[1])
		if err != nil {
			return err
		}
		if target.Kind != NodeIdent {
			return target.errorf(errInstances)
		}
		op, err := g.variable(target, "set")
		if err != nil {
			return err
		}
		w.Line(depth, "(%s %s)", op, v)

	case NodeIf:
		cond, err := g.expr(n.Children[0])
		if err != nil {
			return err
		}
		w.Line(depth, "(if (i32.wrap_i64 %s)", cond)
		w.Line(depth+1, "(then")
		if err := g.statements(n.Children[1].Children, depth+2); err != nil {
			return err
		}
		w.Line(depth+1, ")")
		if els := n.child(2); els != nil {
			w.Line(depth+1, "(else")
			if err := g.statements(els.Children, depth+2); err != nil {
				return err
			}
			w.Line(depth+1, ")")
		}
		w.Line(depth, ")")

	case NodeWhile:
		cond, err := g.expr(n.Children[0])
		if err != nil {
			return err
		}
		label := w.NextLabel()
		w.Line(depth, "(block $while_end_%d", label)
		w.Line(depth+1, "(loop $while_%d", label)
		w.Line(depth+2, "(br_if $while_end_%d (i32.eqz (i32.wrap_i64 %s)))", label, cond)
		if err := g.statements(n.Children[1].Children, depth+2); err != nil {
			return err
		}
		w.Line(depth+2, "(br $while_%d)", label)
		w.Line(depth+1, ")")
		w.Line(depth, ")")

	case NodeReturn:
		if value := n.child(0); value != nil {
			v, err := g.expr(value)
			if err != nil {
				return err
			}
			w.Line(depth, "(return %s)", v)
		} else {
			w.Line(depth, "(return)")
		}

	case NodeFunc:
		return n.errorf("WAT generation for nested function '%s' is not supported", n.Name())

	case NodeClass:
		return n.errorf("WAT generation for nested class '%s' is not supported", n.Name())

	case NodeImport:
		return n.errorf("Misplaced import statement")

	default:
		v, err := g.expr(n)
		if err != nil {
			return err
		}
		if n.TypeAST == TypeVoid {
			w.Line(depth, "%s", v)
		} else {
			w.Line(depth, "(drop %s)", v)
		}
	}
	return nil
}

// variable returns the get or set instruction for a named variable.
func (g *Generator) variable(n *ASTNode, access string) (string, error) {
	decl := n.Decl
	if decl == nil {
		return "", n.errorf("Identifier '%s' was not resolved", n.String)
	}
	switch decl.Kind {
	case NodeParam:
		return fmt.Sprintf("local.%s $%s", access, decl.Name()), nil
	case NodeLet:
		switch decl.Scope.Kind {
		case ScopeFunction:
			return fmt.Sprintf("local.%s $%s", access, decl.Name()), nil
		case ScopeModule:
			if !g.globals[decl] {
				return "", n.errorf("WAT generation for imported variable '%s' is not supported", decl.Name())
			}
			return fmt.Sprintf("global.%s $%s", access, decl.Name()), nil
		}
		return "", n.errorf(errInstances)
	case NodeClass:
		return "", n.errorf(errInstances)
	}
	return "", n.errorf("WAT generation for function values is not supported")
}

// ===== EXPRESSIONS =====

var binaryOps = map[string]string{
	"+":   "i64.add",
	"-":   "i64.sub",
	"*":   "i64.mul",
	"/":   "i64.div_s",
	"and": "i64.and",
	"or":  "i64.or",
}

var compareOps = map[string]string{
	"==": "i64.eq",
	"!=": "i64.ne",
	"<":  "i64.lt_s",
	">":  "i64.gt_s",
	"<=": "i64.le_s",
	">=": "i64.ge_s",
}

// expr returns the folded form of an expression.
func (g *Generator) expr(n *ASTNode) (string, error) {
	switch n.Kind {
	case NodeInteger:
		return fmt.Sprintf("(i64.const %d)", n.Integer), nil

	case NodeBoolean:
		if n.Boolean {
			return "(i64.const 1)", nil
		}
		return "(i64.const 0)", nil

	case NodeString:
		offset, _ := g.w.AddString(n.String)
		return fmt.Sprintf("(i64.const %d)", offset), nil

	case NodeIdent:
		op, err := g.variable(n, "get")
		if err != nil {
			return "", err
		}
		return "(" + op + ")", nil

	case NodeUnary:
		operand, err := g.expr(n.Children[0])
		if err != nil {
			return "", err
		}
		if n.Op == "not" {
			return fmt.Sprintf("(i64.extend_i32_u (i64.eqz %s))", operand), nil
		}
		return fmt.Sprintf("(i64.sub (i64.const 0) %s)", operand), nil

	case NodeBinary:
		left, err := g.expr(n.Children[0])
		if err != nil {
			return "", err
		}
		right, err := g.expr(n.Children[1])
		if err != nil {
			return "", err
		}
		if op, ok := compareOps[n.Op]; ok {
			return fmt.Sprintf("(i64.extend_i32_u (%s %s %s))", op, left, right), nil
		}
		if n.Op == "+" && n.Children[0].TypeAST == TypeString {
			return "", n.errorf("WAT generation for string concatenation is not supported")
		}
		op, ok := binaryOps[n.Op]
		if !ok {
			return "", n.errorf("Unknown operator '%s'", n.Op)
		}
		return fmt.Sprintf("(%s %s %s)", op, left, right), nil

	case NodeCall:
		return g.call(n)

	case NodeDot:
		return "", n.errorf(errInstances)
	}
	return "", n.errorf("Unexpected %s in expression", n.Kind)
}

func (g *Generator) call(n *ASTNode) (string, error) {
	callee := n.Children[0]
	decl := callee.Decl
	if decl == nil {
		return "", callee.errorf("Call target was not resolved")
	}
	if decl.Kind != NodeFunc {
		return "", n.errorf(errInstances)
	}
	symbol, ok := g.funcs[decl]
	if !ok {
		return "", n.errorf("Function '%s' is not available in this module", exprName(callee))
	}
	var b strings.Builder
	b.WriteString("(call $")
	b.WriteString(symbol)
	for _, arg := range n.Children[1:] {
		v, err := g.expr(arg)
		if err != nil {
			return "", err
		}
		b.WriteString(" ")
		b.WriteString(v)
	}
	b.WriteString(")")
	return b.String(), nil
}
