package sexpr

import "strconv"

// Lexer scans tree notation and produces tokens
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
}

// NewLexer creates a new Lexer instance
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII code for NUL
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing the position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipWhitespace skips whitespace and `;` comments
func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '\n':
			l.line++
			l.column = 0
			l.readChar()
		case ';':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readAtom reads a symbol or number: everything up to a delimiter
func (l *Lexer) readAtom() string {
	position := l.position
	for !isDelimiter(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a quoted string literal and returns its value
func (l *Lexer) readString() (string, bool) {
	position := l.position
	for {
		l.readChar()
		if l.ch == 0 || l.ch == '\n' {
			return "", false
		}
		if l.ch == '\\' {
			l.readChar()
			continue
		}
		if l.ch == '"' {
			break
		}
	}
	value, err := strconv.Unquote(l.input[position : l.position+1])
	if err != nil {
		return "", false
	}
	return value, true
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	tok := Token{Line: l.line, Column: l.column}

	switch l.ch {
	case '(':
		tok.Type, tok.Literal = LPAREN, "("
	case ')':
		tok.Type, tok.Literal = RPAREN, ")"
	case '"':
		str, ok := l.readString()
		if !ok {
			tok.Type, tok.Literal = ILLEGAL, "unterminated string"
		} else {
			tok.Type, tok.Literal = STRING_LIT, str
		}
	case 0:
		tok.Type = EOF
		return tok
	default:
		atom := l.readAtom()
		tok.Literal = atom
		tok.Type = SYMBOL
		if isNumber(atom) {
			tok.Type = INT_LIT
		}
		return tok // readAtom already advanced
	}

	l.readChar()
	return tok
}

// Tokenize returns all tokens from the input
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens
}

// Helper functions

func isDelimiter(ch byte) bool {
	switch ch {
	case 0, ' ', '\t', '\r', '\n', '(', ')', '"', ';':
		return true
	}
	return false
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isNumber reports whether an atom is a decimal integer, optionally negative
func isNumber(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
