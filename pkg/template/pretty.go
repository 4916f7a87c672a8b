package template

import (
	"fmt"
	"strings"
)

// Walk calls fn for every node of nodes and their descendants, depth
// first. Returning false from fn skips the node's children. Included
// templates are not entered.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		switch x := n.(type) {
		case *IfNode:
			Walk(x.Then, fn)
			Walk(x.Else, fn)
		case *ForNode:
			Walk(x.Body, fn)
		case *BlockNode:
			Walk(x.Body, fn)
		}
	}
}

// Pretty returns an indented dump of the template's AST. Blocks overridden
// further down the extends chain list their overrides.
func Pretty(t *Template) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Template %q\n", t.name)
	if len(t.deps) > 0 {
		fmt.Fprintf(&b, "  deps: %s\n", strings.Join(t.deps, ", "))
	}
	pp := &printer{b: &b, t: t}
	pp.list(t.root, 1)
	return b.String()
}

type printer struct {
	b *strings.Builder
	t *Template
}

func (pp *printer) line(depth int, format string, args ...any) {
	pp.b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(pp.b, format, args...)
	pp.b.WriteByte('\n')
}

func (pp *printer) list(nodes []Node, depth int) {
	for _, n := range nodes {
		pp.node(n, depth)
	}
}

func (pp *printer) node(n Node, depth int) {
	switch x := n.(type) {
	case *TextNode:
		pp.line(depth, "Text %q", x.Text)
	case *OutputNode:
		pp.line(depth, "Output %s", x.Expr)
	case *IfNode:
		pp.line(depth, "If %s", x.Cond)
		pp.list(x.Then, depth+1)
		if len(x.Else) > 0 {
			pp.line(depth, "Else")
			pp.list(x.Else, depth+1)
		}
	case *ForNode:
		pp.line(depth, "For %s in %s", x.Var, x.Collection)
		pp.list(x.Body, depth+1)
	case *BlockNode:
		pp.line(depth, "Block %s #%d", x.Name, x.id)
		pp.list(x.Body, depth+1)
		for _, o := range pp.t.BlockChain(x.Name) {
			if o.id > x.id {
				pp.line(depth+1, "Override #%d (%s)", o.id, o.pos)
				pp.list(o.Body, depth+2)
			}
		}
	case *IncludeNode:
		pp.line(depth, "Include %q", x.Name)
	case *ParentNode:
		pp.line(depth, "Parent of %s #%d", x.Block.Name, x.Block.id)
	default:
		pp.line(depth, "%T", n)
	}
}
