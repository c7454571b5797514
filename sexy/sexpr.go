package sexy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeEllipsis
	NodeList
)

// Node represents any Sexy datum
type Node struct {
	Type NodeType

	// NodeSymbol, NodeString, NodeInteger
	Text string

	// NodeList
	Items []*Node
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		return strconv.Quote(n.Text)
	case NodeEllipsis:
		return "..."
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewEllipsis() *Node {
	return &Node{Type: NodeEllipsis}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type != NodeList
}

// Head returns the leading symbol of a list, or "".
func (n *Node) Head() string {
	if n.Type == NodeList && len(n.Items) > 0 && n.Items[0].Type == NodeSymbol {
		return n.Items[0].Text
	}
	return ""
}

type parser struct {
	lexer        *lexer
	currentToken token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()

	result, err := p.parseDatum()
	if len(p.lexer.errors) > 0 {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, fmt.Errorf("expected EOF but got %s", p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.lexer.nextToken()
}

func (p *parser) parseDatum() (*Node, error) {
	tok := p.currentToken
	switch tok.Type {
	case tokenSymbol:
		p.nextToken()
		return NewSymbol(tok.Value), nil
	case tokenString:
		p.nextToken()
		return NewString(tok.Value), nil
	case tokenInteger:
		p.nextToken()
		return NewInteger(tok.Value), nil
	case tokenEllipsis:
		p.nextToken()
		return NewEllipsis(), nil
	case tokenLParen:
		return p.parseList()
	default:
		return nil, fmt.Errorf("unexpected token: %s", tok.Type)
	}
}

func (p *parser) parseList() (*Node, error) {
	items := []*Node{}
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		item, err := p.parseDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, fmt.Errorf("expected ')' but got %s", p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	return NewList(items...), nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenEllipsis
	tokenLParen
	tokenRParen
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenEllipsis:
		return "ellipsis"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
}

type lexer struct {
	input  string
	pos    int
	errors []string
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) errorf(format string, args ...any) token {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
	l.pos = len(l.input)
	return token{Type: tokenEOF}
}

func (l *lexer) nextToken() token {
	for {
		for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
			l.pos++
		}

		c := l.peek(0)
		switch {
		case l.pos >= len(l.input):
			return token{Type: tokenEOF}
		case c == ';':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
			continue
		case c == '(':
			l.pos++
			return token{Type: tokenLParen, Value: "("}
		case c == ')':
			l.pos++
			return token{Type: tokenRParen, Value: ")"}
		case c == '"':
			return l.readString()
		case c == '.':
			if l.peek(1) == '.' && l.peek(2) == '.' {
				l.pos += 3
				return token{Type: tokenEllipsis, Value: "..."}
			}
			return l.errorf("unexpected character '.'")
		case isDigit(c) || ((c == '-' || c == '+') && isDigit(l.peek(1))):
			start := l.pos
			l.pos++
			for isDigit(l.peek(0)) {
				l.pos++
			}
			return token{Type: tokenInteger, Value: l.input[start:l.pos]}
		case isSymbolChar(c):
			start := l.pos
			for l.pos < len(l.input) && isSymbolChar(l.input[l.pos]) {
				l.pos++
			}
			return token{Type: tokenSymbol, Value: l.input[start:l.pos]}
		default:
			return l.errorf("unexpected character '%c'", c)
		}
	}
}

// readString reads a Go-syntax quoted string.
func (l *lexer) readString() token {
	start := l.pos
	l.pos++ // skip opening quote
	for {
		c := l.peek(0)
		if l.pos >= len(l.input) || c == '\n' {
			return l.errorf("unterminated string")
		}
		l.pos++
		if c == '\\' {
			l.pos++
			continue
		}
		if c == '"' {
			break
		}
	}
	value, err := strconv.Unquote(l.input[start:l.pos])
	if err != nil {
		return l.errorf("invalid string %s: %v", l.input[start:l.pos], err)
	}
	return token{Type: tokenString, Value: value}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isSymbolChar(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || isDigit(c) ||
		c == '-' || c == '_' || c == '+' || c == '*' || c == '/' || c == '=' ||
		c == '<' || c == '>' || c == '!' || c == '$' || c == '.'
}
