package sexpr

import (
	"strconv"

	"github.com/lhaig/matchlower/internal/ast"
	"github.com/lhaig/matchlower/internal/diagnostic"
)

// FormKind classifies a Form
type FormKind int

const (
	ListForm FormKind = iota
	SymbolForm
	IntForm
	StringForm
)

// Form is one parsed s-expression
type Form struct {
	Kind  FormKind
	Text  string // symbol name or string value
	Int   int64
	Items []*Form
	Pos   ast.Pos
}

// IsSymbol reports whether f is the symbol name
func (f *Form) IsSymbol(name string) bool {
	return f != nil && f.Kind == SymbolForm && f.Text == name
}

// Head returns the leading symbol of a list form, or ""
func (f *Form) Head() string {
	if f == nil || f.Kind != ListForm || len(f.Items) == 0 || f.Items[0].Kind != SymbolForm {
		return ""
	}
	return f.Items[0].Text
}

// parser builds forms from tokens
type parser struct {
	tokens []Token
	pos    int
	diags  *diagnostic.Diagnostics
}

// current returns the current token
func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token and returns the consumed token
func (p *parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// ParseForms reads every top-level form of src
func ParseForms(src string, diags *diagnostic.Diagnostics) []*Form {
	p := &parser{tokens: NewLexer(src).Tokenize(), diags: diags}
	var forms []*Form
	for p.current().Type != EOF {
		if p.current().Type == RPAREN {
			tok := p.advance()
			p.diags.Errorf(tok.Line, tok.Column, "unexpected )")
			continue
		}
		if f := p.parseForm(); f != nil {
			forms = append(forms, f)
		}
	}
	return forms
}

func (p *parser) parseForm() *Form {
	tok := p.advance()
	pos := ast.Pos{Line: tok.Line, Column: tok.Column}
	switch tok.Type {
	case LPAREN:
		list := &Form{Kind: ListForm, Pos: pos}
		for {
			switch p.current().Type {
			case RPAREN:
				p.advance()
				return list
			case EOF:
				p.diags.Errorf(tok.Line, tok.Column, "unclosed (")
				return list
			}
			if item := p.parseForm(); item != nil {
				list.Items = append(list.Items, item)
			}
		}
	case SYMBOL:
		return &Form{Kind: SymbolForm, Text: tok.Literal, Pos: pos}
	case INT_LIT:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.diags.Errorf(tok.Line, tok.Column, "integer %s out of range", tok.Literal)
		}
		return &Form{Kind: IntForm, Int: n, Text: tok.Literal, Pos: pos}
	case STRING_LIT:
		return &Form{Kind: StringForm, Text: tok.Literal, Pos: pos}
	default:
		p.diags.Errorf(tok.Line, tok.Column, "unexpected %s", tok.Literal)
		return nil
	}
}
