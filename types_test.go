package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestGetBuiltinType(t *testing.T) {
	tests := []struct {
		name     string
		expected *TypeNode
	}{
		{"Boolean", TypeBoolean},
		{"Integer64", TypeInteger64},
		{"String", TypeString},
		{"Void", TypeVoid},
		{"and", nil},
		{"Function", nil},
		{"Foo", nil},
		{"integer64", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, GetBuiltinType(tt.name), tt.expected)
		})
	}
}

func TestBuiltinTypesAreInterned(t *testing.T) {
	be.True(t, GetBuiltinType("Integer64") == GetBuiltinType("Integer64"))
	be.True(t, TypesEqual(GetBuiltinType("Boolean"), TypeBoolean))
}

func TestTypesEqual(t *testing.T) {
	classA := &TypeNode{Kind: TypeClass, String: "A"}
	otherA := &TypeNode{Kind: TypeClass, String: "A"}

	tests := []struct {
		name     string
		a, b     *TypeNode
		expected bool
	}{
		{"same builtin", TypeInteger64, TypeInteger64, true},
		{"different builtins", TypeInteger64, TypeBoolean, false},
		{"same class", classA, classA, true},
		{"same name different class", classA, otherA, false},
		{"builtin and class", TypeString, classA, false},
		{"nil and type", nil, TypeVoid, false},
		{"both nil", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be.Equal(t, TypesEqual(tt.a, tt.b), tt.expected)
		})
	}
}

func TestTypeToString(t *testing.T) {
	be.Equal(t, TypeToString(TypeInteger64), "Integer64")
	be.Equal(t, TypeToString(TypeFunction), "Function")
	be.Equal(t, TypeToString(&TypeNode{Kind: TypeClass, String: "Point"}), "Point")
	be.Equal(t, TypeToString(nil), "<unknown>")
}

func TestLogicalOperatorFactories(t *testing.T) {
	a := &ASTNode{Kind: NodeIdent, String: "a"}
	b := &ASTNode{Kind: NodeIdent, String: "b"}

	be.Equal(t, ToSExpr(AndFunction(a, b)), `(binary "and" (ident "a") (ident "b"))`)
	be.Equal(t, ToSExpr(OrFunction(a, b)), `(binary "or" (ident "a") (ident "b"))`)
	be.Equal(t, ToSExpr(NotFunction(a)), `(unary "not" (ident "a"))`)

	be.True(t, isLogicalOperator("and"))
	be.True(t, isLogicalOperator("not"))
	be.True(t, !isLogicalOperator("xor"))
}
