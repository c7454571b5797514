// Semantic analysis tests
//
// Error messages for individual rules live in test/semantics_test.md;
// these tests check what a successful resolution records in the tree.

package main

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/nalgeon/be"
)

func resolveSource(t *testing.T, src string) (*ASTNode, error) {
	t.Helper()
	module := parseProgram(t, src)
	ctx := NewCompileContext(&Config{FS: fstest.MapFS{}})
	return module, NewResolver(ctx, ".").ResolveModule(module)
}

func mustResolve(t *testing.T, src string) *ASTNode {
	t.Helper()
	module, err := resolveSource(t, src)
	if err != nil {
		t.Fatalf("resolve %q: %v", src, err)
	}
	return module
}

func resolveError(t *testing.T, src string) *SemanticError {
	t.Helper()
	_, err := resolveSource(t, src)
	var semErr *SemanticError
	if !errors.As(err, &semErr) {
		t.Fatalf("resolve %q: expected a semantic error, got %v", src, err)
	}
	return semErr
}

// =============================================================================
// DECLARATIONS
// =============================================================================

func TestDuplicateDeclarations(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dup  string
	}{
		{"module lets", "let x = 1; let x = 2;", "x"},
		{"let after func", "func f() { } let f = 1;", "f"},
		{"class after let", "let a = 1; class A { } class A { }", "A"},
		{"local shadows global", "let x = 1; func f() { let x = 2; }", "x"},
		{"local shadows param", "func f(a: Integer64) { let a = 2; }", "a"},
		{"let in if shadows local", "func f() { let x = 1; if true { let x = 2; } }", "x"},
		{"class member twice", "class A { let x = 1; func x() { } }", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := resolveError(t, tt.src)
			be.Equal(t, err.Message, "Identifier '"+tt.dup+"' is already in symtab")
		})
	}
}

func TestFreshScopesAllowReuse(t *testing.T) {
	// Sibling functions and classes each get their own scope.
	mustResolve(t, `
func f() { let x = 1; }
func g() { let x = true; }
class A { let y = 1; }
class B { let y = 2; }
`)
}

func TestNamingConventions(t *testing.T) {
	tests := []struct {
		src     string
		message string
	}{
		{"class point { }", "Class name 'point' can not start with an lowercase letter"},
		{"let Count = 1;", "Variable name 'Count' can not start with an uppercase letter"},
		{"func f() { let Y = 1; }", "Variable name 'Y' can not start with an uppercase letter"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			be.Equal(t, resolveError(t, tt.src).Message, tt.message)
		})
	}

	mustResolve(t, "class Point { } let count = 1; let _x = 2; class _Hidden { }")
}

func TestHoisting(t *testing.T) {
	module := mustResolve(t, `
func isEven(n: Integer64) : Boolean {
    if n == 0 { return true; }
    return isOdd(n - 1);
}
func isOdd(n: Integer64) : Boolean {
    if n == 0 { return false; }
    return isEven(n - 1);
}
func make() : Shape { return Shape(); }
class Shape { }
`)
	be.Equal(t, len(module.Symtab.CurrentScope().Names()), 4)
}

func TestLetsAreNotHoisted(t *testing.T) {
	err := resolveError(t, "let y = x; let x = 1;")
	be.Equal(t, err.Message, "Identifier 'x' is not found")
	be.Equal(t, [2]int{err.Line, err.Col}, [2]int{1, 9})
}

func TestPrivateTables(t *testing.T) {
	module := mustResolve(t, `
class A {
    let x = 1;
    func m(p: Integer64) { let local = p; }
}
`)
	class := module.Children[0]
	be.Equal(t, class.Symtab.CurrentScope().Names(), []string{"x", "m"})

	method := class.Statements()[1]
	be.Equal(t, method.Symtab.CurrentScope().Names(), []string{"p", "local"})
	be.Equal(t, module.Symtab.CurrentScope().Names(), []string{"A"})
}

// =============================================================================
// TYPES
// =============================================================================

func TestExpressionTypes(t *testing.T) {
	tests := []struct {
		expr     string
		expected *TypeNode
	}{
		{"1", TypeInteger64},
		{`"s"`, TypeString},
		{"true", TypeBoolean},
		{"1 + 2 * 3", TypeInteger64},
		{`"a" + "b"`, TypeString},
		{"1 < 2", TypeBoolean},
		{`"a" == "b"`, TypeBoolean},
		{"true != false", TypeBoolean},
		{"and(true, or(false, not(true)))", TypeBoolean},
		{"-(1 - 2)", TypeInteger64},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			module := mustResolve(t, "let v = "+tt.expr+";")
			let := module.Children[0]
			be.Equal(t, let.TypeAST, tt.expected)
			be.Equal(t, let.Children[2].TypeAST, tt.expected)
		})
	}
}

func TestConditionTypes(t *testing.T) {
	accepted := []string{"true", "false", "1 < 2", "and(true, false)", "not(b)", "b"}
	for _, cond := range accepted {
		t.Run(cond, func(t *testing.T) {
			mustResolve(t, "func f(b: Boolean) { if "+cond+" { } while "+cond+" { } }")
		})
	}

	rejected := []struct {
		cond string
		kind string
	}{
		{"1", "While"},
		{`"s"`, "While"},
		{"1 + 2", "While"},
	}
	for _, tt := range rejected {
		t.Run(tt.cond, func(t *testing.T) {
			err := resolveError(t, "func f() { while "+tt.cond+" { } }")
			be.Equal(t, err.Message, tt.kind+" only accepts tests of type 'Boolean'")
		})
	}
}

func TestWhileAtModuleLevel(t *testing.T) {
	err := resolveError(t, "while 1 { }")
	be.Equal(t, err.Message, "While only accepts tests of type 'Boolean'")
	be.Equal(t, [2]int{err.Line, err.Col}, [2]int{1, 1})
}

func TestReturnPlacement(t *testing.T) {
	mustResolve(t, "func f() : Integer64 { return 1; }")
	mustResolve(t, "func f() : Boolean { while true { if false { return true; } } return false; }")
	mustResolve(t, "func f() { return; }")
	mustResolve(t, "class A { func m() : String { return \"m\"; } }")

	for _, src := range []string{"return 1;", "return;", "class A { return 1; }"} {
		be.Equal(t, resolveError(t, src).Message, "Misplaced return statement")
	}
}

func TestAnnotationsNameClasses(t *testing.T) {
	module := mustResolve(t, `
class Point { }
func origin(p: Point) : Point { let q: Point = p; return q; }
`)
	class := module.Children[0]
	fn := module.Children[1]
	be.Equal(t, fn.Params()[0].TypeAST, class.TypeAST)
	be.Equal(t, returnType(fn), class.TypeAST)
	be.Equal(t, fn.Statements()[0].TypeAST, class.TypeAST)
	be.Equal(t, class.TypeAST.Class, class)
}

func TestClassTypesAreDistinct(t *testing.T) {
	err := resolveError(t, "class A { } class B { } let b: B = A();")
	be.Equal(t, err.Message, "Cannot initialize 'b' of type 'B' with a value of type 'A'")
}

func TestReturnTypeDefaultsToVoid(t *testing.T) {
	module := mustResolve(t, "func f() { }")
	be.Equal(t, returnType(module.Children[0]), TypeVoid)
}

func TestIdentifiersPointAtDeclarations(t *testing.T) {
	module := mustResolve(t, "let x = 1; func f(a: Integer64) : Integer64 { return a + x; }")
	x := module.Children[0]
	fn := module.Children[1]
	sum := fn.Statements()[0].Children[0]
	be.Equal(t, sum.Children[0].Decl, fn.Params()[0])
	be.Equal(t, sum.Children[1].Decl, x)
	be.Equal(t, x.Scope.Kind, ScopeModule)
	be.Equal(t, fn.Params()[0].Scope.Kind, ScopeFunction)
}

// =============================================================================
// CLASSES
// =============================================================================

func TestDotAccessOnOwnMember(t *testing.T) {
	module := mustResolve(t, `
class A { let x = 1; func m() : Boolean { return true; } }
let a: A;
let v = a.x;
let w = A.m();
`)
	be.Equal(t, module.Children[2].TypeAST, TypeInteger64)
	be.Equal(t, module.Children[3].TypeAST, TypeBoolean)
}

func TestDotAccessThroughParent(t *testing.T) {
	module := mustResolve(t, `
class A { let x = 1; }
class B : A { let y = true; }
let b: B;
let v = b.x;
let w = b.y;
`)
	a := module.Children[0]
	dot := module.Children[3].Children[2]
	be.Equal(t, dot.Decl, a.Statements()[0])
	be.Equal(t, dot.TypeAST, TypeInteger64)
	be.Equal(t, module.Children[4].TypeAST, TypeBoolean)
}

func TestDotAccessOnParameter(t *testing.T) {
	mustResolve(t, `
class A { let x = 1; }
func get(a: A) : Integer64 { return a.x; }
`)
}

func TestDotAccessMissingMember(t *testing.T) {
	err := resolveError(t, `
class A { let x = 1; }
class B : A { }
let b: B;
let v = b.z;
`)
	be.Equal(t, err.Message, "Identifier 'b.z' is not found")
}

func TestParentLookupIsSingleLevel(t *testing.T) {
	err := resolveError(t, `
class A { let x = 1; }
class B : A { }
class C : B { }
let c: C;
let v = c.x;
`)
	be.Equal(t, err.Message, "Identifier 'c.x' is not found")
}

func TestInheritedMembersVisibleInBody(t *testing.T) {
	mustResolve(t, `
class A { let x = 1; }
class B : A { func get() : Integer64 { return x; } }
`)
}

func TestParentRecorded(t *testing.T) {
	module := mustResolve(t, "class A { } class B : A { }")
	a, b := module.Children[0], module.Children[1]
	be.Equal(t, parentClass(b), a)
	be.True(t, parentClass(a) == nil)
}

func TestMemberAssignment(t *testing.T) {
	mustResolve(t, `
class A { let x = 1; }
func f(a: A) { a.x = 2; }
`)
	err := resolveError(t, `
class A { let x = 1; }
func f(a: A) { a.x = true; }
`)
	be.Equal(t, err.Message, "Cannot assign a value of type 'Boolean' to 'a.x' of type 'Integer64'")
}

// =============================================================================
// ERRORS
// =============================================================================

func TestFirstErrorWins(t *testing.T) {
	err := resolveError(t, "let a = b;\nlet c = d;")
	be.Equal(t, err.Message, "Identifier 'b' is not found")
	be.Equal(t, err.Line, 1)
}

func TestErrorPositions(t *testing.T) {
	err := resolveError(t, "func f() {\n    return 1;\n}")
	be.Equal(t, err.Message, "Return value of type 'Integer64' does not match return type 'Void' of function 'f'")
	be.Equal(t, [2]int{err.Line, err.Col}, [2]int{2, 5})
}

func TestUnknownExpressionKind(t *testing.T) {
	st := NewSymbolTable(ScopeFunction)
	r := NewResolver(NewCompileContext(nil), ".")
	err := r.computeExpr(&ASTNode{Kind: NodeBlock, Line: 3, Col: 4}, st)
	be.Err(t, err, "Unexpected NodeBlock in expression")
}
