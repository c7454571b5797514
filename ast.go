package main

import (
	"strconv"
	"strings"
)

// NodeKind represents different types of AST nodes
type NodeKind string

// Children layout per kind is positional. A nil child marks an absent
// optional part (parent class, type annotation, else branch, ...).
const (
	// NodeModule: Children = top-level statements
	NodeModule NodeKind = "NodeModule"
	// NodeImport: Children[0] = module name (NodeIdent)
	NodeImport NodeKind = "NodeImport"
	// NodeClass: [name, parent|nil, body (NodeBlock)]
	NodeClass NodeKind = "NodeClass"
	// NodeFunc: [name, params (NodeParams), return type|nil, body (NodeBlock)]
	NodeFunc NodeKind = "NodeFunc"
	// NodeParams: Children = NodeParam
	NodeParams NodeKind = "NodeParams"
	// NodeParam: [name, type]
	NodeParam NodeKind = "NodeParam"
	// NodeLet: [name, type|nil, value|nil]
	NodeLet NodeKind = "NodeLet"
	// NodeAssign: [target, value]
	NodeAssign NodeKind = "NodeAssign"
	// NodeIf: [condition, then (NodeBlock), else (NodeBlock)|nil]
	NodeIf NodeKind = "NodeIf"
	// NodeWhile: [condition, body (NodeBlock)]
	NodeWhile NodeKind = "NodeWhile"
	// NodeReturn: [value] or no children
	NodeReturn NodeKind = "NodeReturn"
	// NodeBlock: Children = statements
	NodeBlock NodeKind = "NodeBlock"
	// NodeCall: [callee, args...]
	NodeCall NodeKind = "NodeCall"
	// NodeDot: [left, right (NodeIdent)]
	NodeDot     NodeKind = "NodeDot"
	NodeIdent   NodeKind = "NodeIdent"
	NodeInteger NodeKind = "NodeInteger"
	NodeString  NodeKind = "NodeString"
	NodeBoolean NodeKind = "NodeBoolean"
	// NodeUnary: Op is "-" or "not"; [operand]
	NodeUnary NodeKind = "NodeUnary"
	// NodeBinary: Op is an arithmetic, comparison or logical operator; [left, right]
	NodeBinary NodeKind = "NodeBinary"
)

// ASTNode represents a node in the Abstract Syntax Tree
type ASTNode struct {
	Kind NodeKind
	// NodeIdent, NodeString:
	String string
	// NodeInteger:
	Integer int64
	// NodeBoolean:
	Boolean bool
	// NodeUnary, NodeBinary:
	Op       string
	Children []*ASTNode

	Line int
	Col  int

	// Written during resolution.
	TypeAST *TypeNode
	Scope   *Scope
	Symtab  *SymbolTable
	// NodeIdent, NodeDot: the declaration the name resolved to.
	Decl *ASTNode

	state resolveState
}

type resolveState int

const (
	unresolved resolveState = iota
	resolving
	resolved
)

// Name returns the identifier naming a declaration node, or "" when the
// node is not a declaration.
func (n *ASTNode) Name() string {
	switch n.Kind {
	case NodeImport, NodeClass, NodeFunc, NodeParam, NodeLet:
		if len(n.Children) > 0 && n.Children[0] != nil && n.Children[0].Kind == NodeIdent {
			return n.Children[0].String
		}
	}
	return ""
}

// child returns Children[i] or nil when out of range.
func (n *ASTNode) child(i int) *ASTNode {
	if i < len(n.Children) {
		return n.Children[i]
	}
	return nil
}

// Statements returns the statement list of a module or block.
func (n *ASTNode) Statements() []*ASTNode {
	switch n.Kind {
	case NodeModule, NodeBlock:
		return n.Children
	case NodeClass:
		if body := n.child(2); body != nil {
			return body.Children
		}
	case NodeFunc:
		if body := n.child(3); body != nil {
			return body.Children
		}
	}
	return nil
}

// Params returns the formal parameters of a function.
func (n *ASTNode) Params() []*ASTNode {
	if n.Kind != NodeFunc {
		return nil
	}
	if params := n.child(1); params != nil {
		return params.Children
	}
	return nil
}

// ReturnTypeName returns the return type annotation of a function, or "".
func (n *ASTNode) ReturnTypeName() string {
	if n.Kind == NodeFunc {
		if rt := n.child(2); rt != nil {
			return rt.String
		}
	}
	return ""
}

// ParentName returns the parent class identifier of a class, or "".
func (n *ASTNode) ParentName() string {
	if n.Kind == NodeClass {
		if p := n.child(1); p != nil {
			return p.String
		}
	}
	return ""
}

// TypeName returns the type annotation of a let or parameter, or "".
func (n *ASTNode) TypeName() string {
	switch n.Kind {
	case NodeLet, NodeParam:
		if t := n.child(1); t != nil {
			return t.String
		}
	}
	return ""
}

// ToSExpr converts an AST node to s-expression string representation
func ToSExpr(node *ASTNode) string {
	if node == nil {
		return "nil"
	}
	switch node.Kind {
	case NodeIdent:
		return "(ident " + strconv.Quote(node.String) + ")"
	case NodeString:
		return "(string " + strconv.Quote(node.String) + ")"
	case NodeInteger:
		return "(integer " + strconv.FormatInt(node.Integer, 10) + ")"
	case NodeBoolean:
		return "(boolean " + strconv.FormatBool(node.Boolean) + ")"
	case NodeBinary:
		return "(binary " + strconv.Quote(node.Op) + " " + ToSExpr(node.Children[0]) + " " + ToSExpr(node.Children[1]) + ")"
	case NodeUnary:
		return "(unary " + strconv.Quote(node.Op) + " " + ToSExpr(node.Children[0]) + ")"
	case NodeModule:
		return listSExpr("module", node.Children)
	case NodeBlock:
		return listSExpr("block", node.Children)
	case NodeParams:
		return listSExpr("params", node.Children)
	case NodeImport:
		return listSExpr("import", node.Children)
	case NodeClass:
		return listSExpr("class", node.Children)
	case NodeFunc:
		return listSExpr("func", node.Children)
	case NodeParam:
		return listSExpr("param", node.Children)
	case NodeLet:
		return listSExpr("let", node.Children)
	case NodeAssign:
		return listSExpr("assign", node.Children)
	case NodeIf:
		return listSExpr("if", node.Children)
	case NodeWhile:
		return listSExpr("while", node.Children)
	case NodeReturn:
		return listSExpr("return", node.Children)
	case NodeCall:
		return listSExpr("call", node.Children)
	case NodeDot:
		return listSExpr("dot", node.Children)
	default:
		return ""
	}
}

func listSExpr(head string, children []*ASTNode) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(head)
	for _, child := range children {
		b.WriteString(" ")
		b.WriteString(ToSExpr(child))
	}
	b.WriteString(")")
	return b.String()
}
