// Package template compiles and renders leaptmpl templates.
//
// A template is literal text interleaved with three kinds of tags:
//
//	{% stmt %}     control statements: if, elif, else, for, block,
//	               extends, include, parent and end (endif, endfor,
//	               endblock are accepted as aliases of end)
//	{{ expr }}     output of an expression, see package expr
//	{# comment #}  dropped
//
// Compilation runs the structural tokenizer and parser. Templates named by
// extends and include are loaded through a Source and compiled as part of
// the same call. The resulting Template is immutable and may be rendered
// concurrently.
//
// # Inheritance
//
// A template whose first statement is {% extends "base" %} publishes the
// AST of base as its own. Its block definitions override same-named blocks
// of base; everything else in it is discarded. Inside an overriding block,
// {% parent %} renders the overridden block's own body.
package template

import (
	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/expr"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// Node is the interface for all statement AST nodes. The set of
// implementations is closed: *TextNode, *OutputNode, *IfNode, *ForNode,
// *BlockNode, *IncludeNode and *ParentNode.
type Node interface {
	Pos() token.Position
	render(r *renderer, ctx core.Context) error
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos token.Position
}

func (n *nodeBase) Pos() token.Position { return n.pos }

// TextNode is literal text, passed through unchanged.
type TextNode struct {
	nodeBase
	Text string
}

// OutputNode writes the value of a {{ expr }} tag.
type OutputNode struct {
	nodeBase
	Expr expr.Node
}

// IfNode is a conditional. An elif chain is a nested IfNode as the only
// node of Else.
type IfNode struct {
	nodeBase
	Cond expr.Node
	Then []Node
	Else []Node
}

// ForNode renders Body once per element of Collection with Var bound to
// the element.
type ForNode struct {
	nodeBase
	Var        string
	Collection expr.Node
	Body       []Node
}

// BlockNode is a named, overridable section.
type BlockNode struct {
	nodeBase
	Name string
	Body []Node
	id   int // record in the owning template's Registry
}

// ID returns the block's record id in its template's registry.
func (n *BlockNode) ID() int { return n.id }

// IncludeNode splices another, independently compiled template.
type IncludeNode struct {
	nodeBase
	Name     string
	Template *Template
}

// ParentNode renders the body of the block overridden by its enclosing
// block.
type ParentNode struct {
	nodeBase
	Block *BlockNode // innermost enclosing block
}
