package template

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

// Template is a compiled template. It is immutable after compilation and
// safe for concurrent Render calls.
type Template struct {
	name     string
	root     []Node
	registry *Registry
	deps     []string
}

// Name returns the identifier the template was compiled from.
func (t *Template) Name() string { return t.name }

// Root returns the nodes rendered for this template. For a template that
// extends another, these are the nodes of the most-base template.
func (t *Template) Root() []Node { return t.root }

// Dependencies returns every template pulled in through extends or include,
// transitively, in order of first use.
func (t *Template) Dependencies() []string { return slices.Clone(t.deps) }

// DependsOn reports whether name is one of the template's dependencies.
func (t *Template) DependsOn(name string) bool { return slices.Contains(t.deps, name) }

// Blocks returns the names of all blocks defined across the extends chain.
func (t *Template) Blocks() []string { return t.registry.Names() }

// BlockChain returns the definitions of a block, most-base first.
func (t *Template) BlockChain(name string) []*BlockNode { return t.registry.Chain(name) }

// Render renders the template against ctx. On error no partial output is
// returned.
func (t *Template) Render(ctx core.Context) (string, error) {
	var b strings.Builder
	r := &renderer{registry: t.registry, out: &b}
	if err := r.renderList(t.root, ctx); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Execute renders the template and writes the result to w. Nothing is
// written if rendering fails.
func (t *Template) Execute(w io.Writer, ctx core.Context) error {
	out, err := t.Render(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// Compile compiles name from src without caching.
func Compile(ctx context.Context, src Source, name string) (*Template, error) {
	return NewEngine(src, WithCache(false)).Compile(ctx, name)
}

// CompileString compiles text as a template called name. Templates it
// extends or includes are looked up in deps, which may be nil.
func CompileString(name, text string, deps Source) (*Template, error) {
	src := Overlay(MapSource{name: text}, deps)
	return Compile(context.Background(), src, name)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
