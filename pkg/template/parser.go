package template

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/expr"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// parser is a recursive descent parser over one template's structural
// tokens. It borrows the session's registry for its whole lifetime.
type parser struct {
	name     string
	tokens   []token.Token
	pos      int
	registry *Registry
	blocks   []*BlockNode // enclosing blocks, innermost last
	session  *session
	deps     []string
}

// ---------- Token Helpers ----------

func (p *parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		var pos token.Position
		if len(p.tokens) > 0 {
			pos = p.tokens[len(p.tokens)-1].Pos
		}
		return token.Token{Kind: token.EOF, Pos: pos}
	}
	return p.tokens[p.pos]
}

func (p *parser) check(kinds ...token.Kind) bool {
	cur := p.current().Kind
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

// accept consumes the current token if it has the expected kind.
func (p *parser) accept(kind token.Kind) (token.Token, error) {
	tok := p.current()
	if tok.Kind != kind {
		return tok, unexpected(tok, kind.String())
	}
	p.pos++
	return tok, nil
}

func unexpected(tok token.Token, expected string) *core.SyntaxError {
	return &core.SyntaxError{
		Pos:      tok.Pos,
		Token:    tok,
		Expected: expected,
		Message:  fmt.Sprintf(ErrUnexpectedToken, tok.Kind, tok.Preview(10), expected),
	}
}

// header returns the payload of a statement token following its keyword,
// and the payload's position.
func header(tok token.Token) (string, token.Position) {
	_, i, _ := keywordOf(tok.Text)
	for i < len(tok.Text) && unicode.IsSpace(rune(tok.Text[i])) {
		i++
	}
	return tok.Text[i:], tok.Pos.Advance(tok.Text[:i])
}

// ---------- Grammar ----------

// parseTemplate parses a whole template and returns its root nodes.
func (p *parser) parseTemplate() ([]Node, error) {
	if p.check(token.Extends) {
		return p.parseExtends()
	}

	nodes, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if _, err := p.accept(token.EOF); err != nil {
		return nil, err
	}
	return nodes, nil
}

// parseList parses statements until EOF or one of the stop kinds. The stop
// token is not consumed.
func (p *parser) parseList(stop ...token.Kind) ([]Node, error) {
	var nodes []Node
	for !p.check(token.EOF) && !p.check(stop...) {
		n, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (p *parser) parseStatement() (Node, error) {
	tok := p.current()
	switch tok.Kind {
	case token.Text:
		p.pos++
		return &TextNode{nodeBase: nodeBase{tok.Pos}, Text: tok.Text}, nil
	case token.Output:
		p.pos++
		e, err := expr.Parse(tok.Text, tok.Pos)
		if err != nil {
			return nil, err
		}
		return &OutputNode{nodeBase: nodeBase{tok.Pos}, Expr: e}, nil
	case token.If:
		return p.parseIf()
	case token.For:
		return p.parseFor()
	case token.Block:
		return p.parseBlock()
	case token.Include:
		return p.parseInclude()
	case token.Parent:
		return p.parseParent()
	case token.Extends:
		return nil, &core.SyntaxError{Pos: tok.Pos, Token: tok, Expected: expectedStatement, Message: ErrExtendsNotFirst}
	}
	return nil, unexpected(tok, expectedStatement)
}

// parseExtends compiles the parent into the shared registry, then parses the
// rest of this template only for the block overrides it registers.
func (p *parser) parseExtends() ([]Node, error) {
	tok, err := p.accept(token.Extends)
	if err != nil {
		return nil, err
	}
	parent, err := templateName(tok, "extends")
	if err != nil {
		return nil, err
	}
	if parent == p.name {
		return nil, &core.ContextError{
			Kind:    core.ErrSelfExtends,
			Path:    parent,
			Message: fmt.Sprintf(msgSelfExtends, parent),
			Pos:     tok.Pos,
		}
	}

	root, deps, err := p.session.extend(parent, p.registry, tok.Pos)
	if err != nil {
		return nil, wrapLoad(tok, "extends", parent, err)
	}
	p.deps = append(p.deps, parent)
	p.deps = append(p.deps, deps...)

	if _, err := p.parseList(); err != nil {
		return nil, err
	}
	if _, err := p.accept(token.EOF); err != nil {
		return nil, err
	}
	return root, nil
}

// parseIf parses an if statement including its elif chain and the closing
// end.
func (p *parser) parseIf() (Node, error) {
	tok, err := p.accept(token.If)
	if err != nil {
		return nil, err
	}
	n, err := p.parseConditional(tok)
	if err != nil {
		return nil, err
	}
	if _, err := p.accept(token.End); err != nil {
		return nil, err
	}
	return n, nil
}

// parseConditional parses the condition and branches following an if or
// elif token. An elif becomes a nested IfNode in the false branch. The
// closing end is left for the outermost if.
func (p *parser) parseConditional(tok token.Token) (*IfNode, error) {
	payload, pos := header(tok)
	cond, err := expr.Parse(payload, pos)
	if err != nil {
		return nil, err
	}

	n := &IfNode{nodeBase: nodeBase{tok.Pos}, Cond: cond}
	n.Then, err = p.parseList(token.Elif, token.Else, token.End)
	if err != nil {
		return nil, err
	}

	switch p.current().Kind {
	case token.Elif:
		elif, _ := p.accept(token.Elif)
		nested, err := p.parseConditional(elif)
		if err != nil {
			return nil, err
		}
		n.Else = []Node{nested}
	case token.Else:
		p.pos++
		n.Else, err = p.parseList(token.End)
		if err != nil {
			return nil, err
		}
	case token.End:
	default:
		return nil, unexpected(p.current(), expectedBranchStop)
	}
	return n, nil
}

// parseFor parses "for name in collection". The header must contain the
// in keyword exactly once, preceded by a plain identifier.
func (p *parser) parseFor() (Node, error) {
	tok, err := p.accept(token.For)
	if err != nil {
		return nil, err
	}
	payload, pos := header(tok)

	malformed := &core.SyntaxError{
		Pos:      tok.Pos,
		Token:    tok,
		Expected: "for variable in collection",
		Message:  fmt.Sprintf(ErrMalformedFor, tok.Text),
	}

	toks, err := expr.NewLexer(payload, pos).Tokenize()
	if err != nil {
		return nil, err
	}
	split := -1
	for i, t := range toks {
		if t.Kind != token.Operator || t.Text != "in" {
			continue
		}
		if split >= 0 {
			return nil, malformed
		}
		split = i
	}
	if split != 1 || toks[0].Kind != token.Identifier || strings.Contains(toks[0].Text, ".") {
		return nil, malformed
	}

	collection, err := expr.NewParser(toks[split+1:]).ParseExpression()
	if err != nil {
		return nil, err
	}

	body, err := p.parseList(token.End)
	if err != nil {
		return nil, err
	}
	if _, err := p.accept(token.End); err != nil {
		return nil, err
	}

	return &ForNode{
		nodeBase:   nodeBase{tok.Pos},
		Var:        toks[0].Text,
		Collection: collection,
		Body:       body,
	}, nil
}

// parseBlock registers the block before parsing its body, so that parent
// statements inside resolve against an already linked chain.
func (p *parser) parseBlock() (Node, error) {
	tok, err := p.accept(token.Block)
	if err != nil {
		return nil, err
	}
	name, _ := header(tok)
	if !isBlockName(name) {
		return nil, &core.SyntaxError{
			Pos:      tok.Pos,
			Token:    tok,
			Expected: "block name",
			Message:  fmt.Sprintf(ErrMalformedBlock, tok.Text),
		}
	}

	n := &BlockNode{nodeBase: nodeBase{tok.Pos}, Name: name}
	p.registry.Register(n)

	p.blocks = append(p.blocks, n)
	n.Body, err = p.parseList(token.End)
	p.blocks = p.blocks[:len(p.blocks)-1]
	if err != nil {
		return nil, err
	}

	if _, err := p.accept(token.End); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseInclude() (Node, error) {
	tok, err := p.accept(token.Include)
	if err != nil {
		return nil, err
	}
	name, err := templateName(tok, "include")
	if err != nil {
		return nil, err
	}

	t, err := p.session.include(name, tok.Pos)
	if err != nil {
		return nil, wrapLoad(tok, "include", name, err)
	}
	p.deps = append(p.deps, name)
	p.deps = append(p.deps, t.deps...)

	return &IncludeNode{nodeBase: nodeBase{tok.Pos}, Name: name, Template: t}, nil
}

func (p *parser) parseParent() (Node, error) {
	tok, err := p.accept(token.Parent)
	if err != nil {
		return nil, err
	}
	if len(p.blocks) == 0 {
		return nil, &core.ContextError{
			Kind:    core.ErrParentOutsideBlock,
			Path:    "parent",
			Message: msgParentOutside,
			Pos:     tok.Pos,
		}
	}
	return &ParentNode{nodeBase: nodeBase{tok.Pos}, Block: p.blocks[len(p.blocks)-1]}, nil
}

// templateName extracts the single string literal of an extends or include
// header.
func templateName(tok token.Token, statement string) (string, error) {
	payload, pos := header(tok)
	malformed := &core.SyntaxError{
		Pos:      tok.Pos,
		Token:    tok,
		Expected: "string literal",
		Message:  fmt.Sprintf(ErrTemplateName, statement, tok.Text),
	}

	n, err := expr.Parse(payload, pos)
	if err != nil {
		return "", malformed
	}
	lit, ok := n.(*expr.Literal)
	if !ok {
		return "", malformed
	}
	s, ok := lit.Value.(core.StringValue)
	if !ok || s == "" {
		return "", malformed
	}
	return string(s), nil
}

// wrapLoad adds the statement position to errors raised by the source
// provider. Compile errors of the loaded template already carry their own
// positions and are returned as is.
func wrapLoad(tok token.Token, statement, name string, err error) error {
	var se *core.SyntaxError
	var ce *core.ContextError
	if errors.As(err, &se) || errors.As(err, &ce) {
		return err
	}
	return fmt.Errorf("%s: %s %q: %w", tok.Pos, statement, name, err)
}

// isBlockName reports whether s is a single word of letters, digits, '_',
// '-' or '.'.
func isBlockName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
