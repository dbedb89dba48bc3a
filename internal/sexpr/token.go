package sexpr

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Delimiters
	LPAREN // (
	RPAREN // )

	// Atoms
	SYMBOL     // switch, Integer, ==, :exhaustive, #3, Color.RED
	INT_LIT    // 123, -1
	STRING_LIT // "hello"
)

var tokenNames = map[TokenType]string{
	ILLEGAL:    "ILLEGAL",
	EOF:        "EOF",
	LPAREN:     "(",
	RPAREN:     ")",
	SYMBOL:     "SYMBOL",
	INT_LIT:    "INT",
	STRING_LIT: "STRING",
}

// String returns the string representation of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Literal, t.Line, t.Column)
}
