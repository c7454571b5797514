package main

import (
	"math"
	"strconv"
	"strings"
)

// TokenType is the type of token (identifier, operator, literal, etc.).
type TokenType string

// Definition of token types
const (
	// Special tokens
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // main, foo, _bar
	INT    = "INT"    // 12345, 0x1F
	STRING = "STRING" // "text"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"

	LT     = "<"
	GT     = ">"
	EQ     = "=="
	NOT_EQ = "!="
	LE     = "<="
	GE     = ">="

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"
	DOT       = "."

	IMPORT = "IMPORT"
	FUNC   = "FUNC"
	CLASS  = "CLASS"
	LET    = "LET"
	IF     = "IF"
	ELSE   = "ELSE"
	WHILE  = "WHILE"
	RETURN = "RETURN"
	TRUE   = "TRUE"
	FALSE  = "FALSE"
)

var keywords = map[string]TokenType{
	"import": IMPORT,
	"func":   FUNC,
	"class":  CLASS,
	"let":    LET,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"return": RETURN,
	"true":   TRUE,
	"false":  FALSE,
}

// Lexer turns kiraz source into tokens. The input must end with a 0 byte;
// NewLexer appends one when missing.
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int

	CurrTokenType TokenType
	CurrLiteral   string
	CurrIntValue  int64 // only meaningful when CurrTokenType == INT
	CurrLine      int
	CurrCol       int

	// CurrIntNeedsMinus marks the literal 2^63, which is only valid
	// directly after a unary minus. CurrIntValue then holds math.MinInt64.
	CurrIntNeedsMinus bool

	Errors *ErrorList
}

func NewLexer(input []byte) *Lexer {
	if len(input) == 0 || input[len(input)-1] != 0 {
		input = append(append([]byte(nil), input...), 0)
	}
	return &Lexer{
		input:  input,
		line:   1,
		col:    1,
		Errors: &ErrorList{},
	}
}

func (l *Lexer) advance(n int) {
	for i := 0; i < n; i++ {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) set(tt TokenType, lit string) {
	l.CurrTokenType = tt
	l.CurrLiteral = lit
	l.advance(len(lit))
}

// NextToken scans the next token and stores it in the lexer.
// Call repeatedly until CurrTokenType == EOF.
func (l *Lexer) NextToken() {
	l.skipWhitespace()

	c := l.input[l.pos]
	l.CurrIntValue = 0
	l.CurrIntNeedsMinus = false
	l.CurrLine = l.line
	l.CurrCol = l.col

	if c == '=' {
		if l.input[l.pos+1] == '=' {
			l.set(EQ, "==")
		} else {
			l.set(ASSIGN, "=")
		}

	} else if c == '!' {
		if l.input[l.pos+1] == '=' {
			l.set(NOT_EQ, "!=")
		} else {
			l.Errors.Add(l.line, l.col, "unexpected character '!'")
			l.set(ILLEGAL, "!")
		}

	} else if c == '<' {
		if l.input[l.pos+1] == '=' {
			l.set(LE, "<=")
		} else {
			l.set(LT, "<")
		}

	} else if c == '>' {
		if l.input[l.pos+1] == '=' {
			l.set(GE, ">=")
		} else {
			l.set(GT, ">")
		}

	} else if c == '/' {
		nxt := l.input[l.pos+1]
		if nxt == '/' {
			l.skipLineComment()
			l.NextToken()
			return
		} else if nxt == '*' {
			l.skipBlockComment()
			l.NextToken()
			return
		}
		l.set(SLASH, "/")

	} else if c == '+' {
		l.set(PLUS, "+")
	} else if c == '-' {
		l.set(MINUS, "-")
	} else if c == '*' {
		l.set(ASTERISK, "*")
	} else if c == ',' {
		l.set(COMMA, ",")
	} else if c == ';' {
		l.set(SEMICOLON, ";")
	} else if c == ':' {
		l.set(COLON, ":")
	} else if c == '(' {
		l.set(LPAREN, "(")
	} else if c == ')' {
		l.set(RPAREN, ")")
	} else if c == '{' {
		l.set(LBRACE, "{")
	} else if c == '}' {
		l.set(RBRACE, "}")
	} else if c == '.' {
		l.set(DOT, ".")

	} else if c == '"' {
		l.CurrTokenType = STRING
		l.CurrLiteral = l.readString()

	} else if c == 0 {
		l.CurrTokenType = EOF
		l.CurrLiteral = ""

	} else if isLetter(c) {
		lit := l.readIdentifier()
		if kw, ok := keywords[lit]; ok {
			l.CurrTokenType = kw
		} else {
			l.CurrTokenType = IDENT
		}
		l.CurrLiteral = lit

	} else if isDigit(c) {
		l.CurrTokenType = INT
		l.CurrLiteral, l.CurrIntValue = l.readNumber()

	} else {
		l.Errors.Add(l.line, l.col, "unexpected character '%c'", c)
		l.set(ILLEGAL, string(l.input[l.pos:l.pos+1]))
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		c := l.input[l.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		l.advance(1)
	}
}

func (l *Lexer) skipLineComment() {
	for l.input[l.pos] != '\n' && l.input[l.pos] != 0 {
		l.advance(1)
	}
}

func (l *Lexer) skipBlockComment() {
	line, col := l.line, l.col
	l.advance(2) // skip /*
	for l.input[l.pos] != 0 && !(l.input[l.pos] == '*' && l.input[l.pos+1] == '/') {
		l.advance(1)
	}
	if l.input[l.pos] == 0 {
		l.Errors.Add(line, col, "unterminated block comment")
		return
	}
	l.advance(2) // skip */
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.input[l.pos]) || isDigit(l.input[l.pos]) {
		l.advance(1)
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readNumber() (string, int64) {
	start := l.pos
	line, col := l.line, l.col
	base := 10
	digits := start
	if l.input[l.pos] == '0' && (l.input[l.pos+1] == 'x' || l.input[l.pos+1] == 'X') {
		base = 16
		l.advance(2)
		digits = l.pos
		for isHexDigit(l.input[l.pos]) {
			l.advance(1)
		}
	} else {
		for isDigit(l.input[l.pos]) {
			l.advance(1)
		}
	}
	lit := string(l.input[start:l.pos])
	val, err := strconv.ParseInt(string(l.input[digits:l.pos]), base, 64)
	if err != nil {
		if u, uerr := strconv.ParseUint(string(l.input[digits:l.pos]), base, 64); uerr == nil && u == 1<<63 {
			l.CurrIntNeedsMinus = true
			return lit, math.MinInt64
		}
		l.Errors.Add(line, col, "invalid integer literal '%s'", lit)
		return lit, 0
	}
	return lit, val
}

func (l *Lexer) readString() string {
	line, col := l.line, l.col
	l.advance(1) // skip opening "
	var b strings.Builder
	for l.input[l.pos] != '"' {
		c := l.input[l.pos]
		if c == 0 || c == '\n' {
			l.Errors.Add(line, col, "unterminated string literal")
			return b.String()
		}
		if c == '\\' {
			switch l.input[l.pos+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'v':
				b.WriteByte('\v')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				b.WriteByte('\\')
				l.advance(1)
				continue
			}
			l.advance(2)
			continue
		}
		b.WriteByte(c)
		l.advance(1)
	}
	l.advance(1) // skip closing "
	return b.String()
}

// PeekToken returns the next token type without advancing the lexer.
func (l *Lexer) PeekToken() TokenType {
	saved := *l
	errCount := l.Errors.Count()
	l.NextToken()
	next := l.CurrTokenType
	*l = saved
	l.Errors.errors = l.Errors.errors[:errCount]
	return next
}

// SkipToken advances past the current token, recording an error when it
// doesn't match the expected type.
func (l *Lexer) SkipToken(expected TokenType) bool {
	if l.CurrTokenType != expected {
		l.Errors.Add(l.CurrLine, l.CurrCol, "expected %s but got %s", describeToken(expected), l.describeCurrent())
		return false
	}
	l.NextToken()
	return true
}

func (l *Lexer) describeCurrent() string {
	switch l.CurrTokenType {
	case EOF:
		return "end of input"
	case IDENT, INT:
		return "'" + l.CurrLiteral + "'"
	case STRING:
		return "string literal"
	}
	return describeToken(l.CurrTokenType)
}

func describeToken(tt TokenType) string {
	for lit, kw := range keywords {
		if kw == tt {
			return "'" + lit + "'"
		}
	}
	switch tt {
	case IDENT:
		return "identifier"
	case INT:
		return "integer literal"
	case STRING:
		return "string literal"
	case EOF:
		return "end of input"
	}
	return "'" + string(tt) + "'"
}
