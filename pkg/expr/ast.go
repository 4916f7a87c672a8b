package expr

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// Node is an expression AST node. The set of implementations is closed:
// *Literal, *Variable, *Unary and *Binary.
type Node interface {
	// Evaluate computes the node's value against ctx.
	Evaluate(ctx core.Context) (core.Value, error)
	// Pos returns the source position of the node.
	Pos() token.Position
	// String renders the node with explicit grouping.
	String() string
	exprNode()
}

// Literal is a constant: atom, string or number.
type Literal struct {
	Value core.Value
	pos   token.Position
}

// Variable is a possibly dotted variable path such as user.address.city.
type Variable struct {
	Path     string
	Segments []string
	pos      token.Position
}

// Unary is "not" or prefix "-" applied to an operand.
type Unary struct {
	Op      string
	Operand Node
	pos     token.Position
}

// Binary is a binary operation. Pos is the operator's position.
type Binary struct {
	Left  Node
	Op    string
	Right Node
	pos   token.Position
}

func (*Literal) exprNode()  {}
func (*Variable) exprNode() {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}

func (n *Literal) Pos() token.Position  { return n.pos }
func (n *Variable) Pos() token.Position { return n.pos }
func (n *Unary) Pos() token.Position    { return n.pos }
func (n *Binary) Pos() token.Position   { return n.pos }

func newVariable(tok token.Token) *Variable {
	return &Variable{Path: tok.Text, Segments: strings.Split(tok.Text, "."), pos: tok.Pos}
}

// ---------- String ----------

func (n *Literal) String() string {
	switch v := n.Value.(type) {
	case core.NullValue:
		return "null"
	case core.StringValue:
		return strconv.Quote(string(v))
	case core.FloatValue:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	default:
		return v.String()
	}
}

func (n *Variable) String() string { return n.Path }

func (n *Unary) String() string {
	if n.Op == "-" {
		return "(-" + n.Operand.String() + ")"
	}
	return "(" + n.Op + " " + n.Operand.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

// ---------- Evaluate ----------

func (n *Literal) Evaluate(core.Context) (core.Value, error) {
	return n.Value, nil
}

func (n *Variable) Evaluate(ctx core.Context) (core.Value, error) {
	v, err := resolve(ctx, n.Segments)
	if err != nil {
		return nil, core.WithPosition(err, n.pos)
	}
	return v, nil
}

func (n *Unary) Evaluate(ctx core.Context) (core.Value, error) {
	v, err := n.Operand.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if n.Op == "not" {
		return core.BoolValue(!v.Truth()), nil
	}
	v, err = core.Negate(v)
	if err != nil {
		return nil, core.WithPosition(err, n.pos)
	}
	return v, nil
}

func (n *Binary) Evaluate(ctx core.Context) (core.Value, error) {
	left, err := n.Left.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	// and/or short-circuit before the right operand is evaluated
	switch n.Op {
	case "and":
		if !left.Truth() {
			return core.False, nil
		}
		return n.truthOfRight(ctx)
	case "or":
		if left.Truth() {
			return core.True, nil
		}
		return n.truthOfRight(ctx)
	}

	right, err := n.Right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	v, err := apply(n.Op, left, right)
	if err != nil {
		return nil, core.WithPosition(err, n.pos)
	}
	return v, nil
}

func (n *Binary) truthOfRight(ctx core.Context) (core.Value, error) {
	right, err := n.Right.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return core.BoolValue(right.Truth()), nil
}

func apply(op string, left, right core.Value) (core.Value, error) {
	switch op {
	case "+", "-", "*", "/", "%":
		return core.Arith(op, left, right)
	case "==":
		return core.BoolValue(core.Equal(left, right)), nil
	case "!=":
		return core.BoolValue(!core.Equal(left, right)), nil
	case "in":
		ok, err := core.Contains(right, left)
		if err != nil {
			return nil, err
		}
		return core.BoolValue(ok), nil
	}

	c, err := core.Compare(op, left, right)
	if err != nil {
		return nil, err
	}
	switch op {
	case "<":
		return core.BoolValue(c < 0), nil
	case "<=":
		return core.BoolValue(c <= 0), nil
	case ">":
		return core.BoolValue(c > 0), nil
	case ">=":
		return core.BoolValue(c >= 0), nil
	}
	return nil, core.NewContextError(core.ErrUnsupportedType, op, "unknown operator '%s'", op)
}

// Walk calls fn for n and every node below it, depth first. Returning false
// from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch x := n.(type) {
	case *Unary:
		Walk(x.Operand, fn)
	case *Binary:
		Walk(x.Left, fn)
		Walk(x.Right, fn)
	}
}

// Variables returns the distinct variable paths referenced by n, in order of
// first appearance.
func Variables(n Node) []string {
	var out []string
	seen := make(map[string]bool)
	Walk(n, func(n Node) bool {
		if v, ok := n.(*Variable); ok && !seen[v.Path] {
			seen[v.Path] = true
			out = append(out, v.Path)
		}
		return true
	})
	return out
}
