// Package expr implements the expression language embedded in templates.
//
// # Grammar
//
//	expr     → primary [operator expr]
//	primary  → "(" expr ")"
//	         | ("not" | "-") expr
//	         | "true" | "false" | "null"
//	         | string | number
//	         | identifier ("." identifier)*
//
// There is no precedence table. After a primary, a binary operator takes
// the entire remainder of the expression as its right operand, so every
// chain groups to the right with uniform precedence:
//
//	2 * 3 + 4      → 2 * (3 + 4) = 14
//	a and b or c   → a and (b or c)
//	not a and b    → not (a and b)
//
// Use parentheses when conventional grouping is wanted.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

const expectedPrimary = "opening parenthesis, unary operator, identifier or literal"

// Parser is a recursive descent parser over expression tokens.
type Parser struct {
	tokens []token.Token
	pos    int
}

// NewParser creates a parser over tokens. The slice must end with EOF.
func NewParser(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses a complete expression. base is the source position
// of the first byte of input.
func Parse(input string, base token.Position) (Node, error) {
	tokens, err := NewLexer(input, base).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseExpression()
}

// MustParse is like Parse but panics on error. Intended for tests and
// static expressions.
func MustParse(input string) Node {
	n, err := Parse(input, token.Position{})
	if err != nil {
		panic(err)
	}
	return n
}

// ParseExpression parses one expression and requires that all tokens are
// consumed.
func (p *Parser) ParseExpression() (Node, error) {
	if tok := p.current(); tok.Kind == token.EOF {
		return nil, &core.SyntaxError{
			Pos:      tok.Pos,
			Token:    tok,
			Expected: expectedPrimary,
			Message:  ErrEmptyExpression,
		}
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.accept(token.EOF); err != nil {
		return nil, err
	}
	return n, nil
}

// ---------- Token Helpers ----------

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		var pos token.Position
		if len(p.tokens) > 0 {
			pos = p.tokens[len(p.tokens)-1].Pos
		}
		return token.Token{Kind: token.EOF, Pos: pos}
	}
	return p.tokens[p.pos]
}

func (p *Parser) check(kind token.Kind) bool {
	return p.current().Kind == kind
}

// accept consumes the current token if it has the expected kind.
func (p *Parser) accept(kind token.Kind) (token.Token, error) {
	tok := p.current()
	if tok.Kind != kind {
		return tok, p.unexpected(tok, kind.String())
	}
	p.pos++
	return tok, nil
}

func (p *Parser) unexpected(tok token.Token, expected string) *core.SyntaxError {
	return &core.SyntaxError{
		Pos:      tok.Pos,
		Token:    tok,
		Expected: expected,
		Message:  fmt.Sprintf(ErrUnexpectedToken, tok.Kind, tok.Preview(10), expected),
	}
}

// ---------- Grammar ----------

func (p *Parser) parseExpr() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if !p.check(token.Operator) {
		return left, nil
	}
	op, _ := p.accept(token.Operator)
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Binary{Left: left, Op: op.Text, Right: right, pos: op.Pos}, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()
	switch {
	case tok.Kind == token.Open:
		return p.parseParenthesis()
	case tok.Kind == token.UnaryOperator, tok.Kind == token.Operator && tok.Text == "-":
		return p.parseUnary()
	case tok.Kind == token.Atom:
		return p.parseAtom()
	case tok.Kind == token.String:
		return p.parseString()
	case tok.Kind == token.Number:
		return p.parseNumber()
	case tok.Kind == token.Identifier:
		p.pos++
		return newVariable(tok), nil
	}
	return nil, p.unexpected(tok, expectedPrimary)
}

func (p *Parser) parseParenthesis() (Node, error) {
	if _, err := p.accept(token.Open); err != nil {
		return nil, err
	}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.accept(token.Close); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseUnary() (Node, error) {
	op := p.current()
	p.pos++
	operand, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Unary{Op: op.Text, Operand: operand, pos: op.Pos}, nil
}

func (p *Parser) parseAtom() (Node, error) {
	tok, err := p.accept(token.Atom)
	if err != nil {
		return nil, err
	}
	var v core.Value
	switch tok.Text {
	case "true":
		v = core.True
	case "false":
		v = core.False
	case "null":
		v = core.Null
	default:
		return nil, &core.SyntaxError{Pos: tok.Pos, Token: tok, Message: fmt.Sprintf(ErrInvalidAtom, tok.Text)}
	}
	return &Literal{Value: v, pos: tok.Pos}, nil
}

func (p *Parser) parseString() (Node, error) {
	tok, err := p.accept(token.String)
	if err != nil {
		return nil, err
	}
	return &Literal{Value: core.StringValue(Unquote(tok.Text)), pos: tok.Pos}, nil
}

func (p *Parser) parseNumber() (Node, error) {
	tok, err := p.accept(token.Number)
	if err != nil {
		return nil, err
	}

	if strings.Contains(tok.Text, ".") {
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &core.SyntaxError{Pos: tok.Pos, Token: tok, Message: fmt.Sprintf(ErrInvalidNumber, tok.Text)}
		}
		return &Literal{Value: core.FloatValue(f), pos: tok.Pos}, nil
	}

	i, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return nil, &core.SyntaxError{Pos: tok.Pos, Token: tok, Message: fmt.Sprintf(ErrInvalidNumber, tok.Text)}
	}
	return &Literal{Value: core.IntValue(i), pos: tok.Pos}, nil
}

// Unquote strips the surrounding quotes of a string token and resolves the
// escapes \" \n \r \t \v \f and \\. Unknown escapes are kept verbatim.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'f':
			b.WriteByte('\f')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
