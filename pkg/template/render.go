package template

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

// renderer holds the state of one render call: the registry of the
// template being rendered and the output buffer.
type renderer struct {
	registry *Registry
	out      *strings.Builder
}

func (r *renderer) renderList(nodes []Node, ctx core.Context) error {
	for _, n := range nodes {
		if err := n.render(r, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (n *TextNode) render(r *renderer, _ core.Context) error {
	r.out.WriteString(n.Text)
	return nil
}

func (n *OutputNode) render(r *renderer, ctx core.Context) error {
	v, err := n.Expr.Evaluate(ctx)
	if err != nil {
		return core.WithPosition(err, n.pos)
	}
	r.out.WriteString(v.String())
	return nil
}

func (n *IfNode) render(r *renderer, ctx core.Context) error {
	cond, err := n.Cond.Evaluate(ctx)
	if err != nil {
		return core.WithPosition(err, n.pos)
	}
	if cond.Truth() {
		return r.renderList(n.Then, ctx)
	}
	return r.renderList(n.Else, ctx)
}

// render evaluates the body once per element against a private copy of ctx,
// so the loop variable never reaches the caller.
func (n *ForNode) render(r *renderer, ctx core.Context) error {
	coll, err := n.Collection.Evaluate(ctx)
	if err != nil {
		return core.WithPosition(err, n.pos)
	}
	items, err := core.Iterate(coll)
	if err != nil {
		return core.WithPosition(err, n.pos)
	}

	scope := ctx.Clone()
	for _, item := range items {
		scope[n.Var] = item
		if err := r.renderList(n.Body, scope); err != nil {
			return err
		}
	}
	return nil
}

// render redirects to the most-derived override of the block.
func (n *BlockNode) render(r *renderer, ctx core.Context) error {
	target := r.registry.Block(r.registry.MostDerived(n.id))
	return r.renderList(target.Body, ctx)
}

// renderDirect renders the block's own body, bypassing overrides.
func (n *BlockNode) renderDirect(r *renderer, ctx core.Context) error {
	return r.renderList(n.Body, ctx)
}

func (n *IncludeNode) render(r *renderer, ctx core.Context) error {
	sub := &renderer{registry: n.Template.registry, out: r.out}
	return sub.renderList(n.Template.root, ctx)
}

func (n *ParentNode) render(r *renderer, ctx core.Context) error {
	id, ok := r.registry.Parent(n.Block.id)
	if !ok {
		return &core.ContextError{
			Kind:    core.ErrParentWithoutParent,
			Path:    n.Block.Name,
			Message: fmt.Sprintf(msgParentNoParent, n.Block.Name),
			Pos:     n.pos,
		}
	}
	return r.registry.Block(id).renderDirect(r, ctx)
}
