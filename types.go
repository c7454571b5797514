package main

// TypeKind distinguishes built-in types from class types.
type TypeKind string

const (
	TypeBuiltin TypeKind = "TypeBuiltin"
	TypeClass   TypeKind = "TypeClass"
)

// TypeNode is a resolved type. Built-in types are interned singletons and
// every class declaration owns exactly one TypeNode, so types compare by
// pointer.
type TypeNode struct {
	Kind TypeKind

	// Type name: "Integer64", "Boolean", or the class name.
	String string

	// TypeClass: the class declaration.
	Class *ASTNode
}

var (
	TypeBoolean   = &TypeNode{Kind: TypeBuiltin, String: "Boolean"}
	TypeInteger64 = &TypeNode{Kind: TypeBuiltin, String: "Integer64"}
	TypeString    = &TypeNode{Kind: TypeBuiltin, String: "String"}
	TypeVoid      = &TypeNode{Kind: TypeBuiltin, String: "Void"}
	// TypeFunction is the type of a function name used as a value.
	TypeFunction = &TypeNode{Kind: TypeBuiltin, String: "Function"}
)

// builtinNames are reserved: they can never be declared by user code.
var builtinNames = map[string]bool{
	"and":       true,
	"or":        true,
	"not":       true,
	"Boolean":   true,
	"Integer64": true,
	"Void":      true,
	"String":    true,
}

// GetBuiltinType returns the interned type for a built-in type name usable
// in annotations, or nil.
func GetBuiltinType(name string) *TypeNode {
	switch name {
	case "Boolean":
		return TypeBoolean
	case "Integer64":
		return TypeInteger64
	case "Void":
		return TypeVoid
	case "String":
		return TypeString
	}
	return nil
}

// TypesEqual reports whether two resolved types are the same type.
func TypesEqual(a, b *TypeNode) bool {
	return a != nil && a == b
}

// TypeToString returns the source spelling of a type.
func TypeToString(t *TypeNode) string {
	if t == nil {
		return "<unknown>"
	}
	return t.String
}

// isLogicalOperator reports whether name is one of the call-form logical
// operators.
func isLogicalOperator(name string) bool {
	return name == "and" || name == "or" || name == "not"
}

// AndFunction builds the node for and(left, right).
func AndFunction(left, right *ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeBinary, Op: "and", Children: []*ASTNode{left, right}}
}

// OrFunction builds the node for or(left, right).
func OrFunction(left, right *ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeBinary, Op: "or", Children: []*ASTNode{left, right}}
}

// NotFunction builds the node for not(operand).
func NotFunction(operand *ASTNode) *ASTNode {
	return &ASTNode{Kind: NodeUnary, Op: "not", Children: []*ASTNode{operand}}
}
