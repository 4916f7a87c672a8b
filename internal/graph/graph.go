// Package graph builds the dependency graph between templates: an edge runs
// from a template to every template pulling it in through extends or include.
// It answers which templates must be re-rendered when one changes.
package graph

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/leapstack-labs/leaptmpl/pkg/template"
)

// Graph is a directed graph of template names.
type Graph struct {
	deps       map[string][]string // template -> templates it depends on
	dependents map[string][]string // template -> templates depending on it
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// Build compiles every named template with e and records its dependencies.
// Templates that fail to compile stay in the graph without edges; their
// errors are returned keyed by name.
func Build(ctx context.Context, e *template.Engine, names []string) (*Graph, map[string]error) {
	g := New()
	failed := make(map[string]error)
	for _, name := range names {
		t, err := e.Compile(ctx, name)
		if err != nil {
			g.Add(name)
			failed[name] = err
			continue
		}
		g.Add(name, t.Dependencies()...)
	}
	return g, failed
}

// Add records name and the templates it depends on. Adding a name again
// extends its dependency list.
func (g *Graph) Add(name string, deps ...string) {
	g.node(name)
	for _, dep := range deps {
		if dep == name {
			continue
		}
		g.node(dep)
		if !slices.Contains(g.deps[name], dep) {
			g.deps[name] = append(g.deps[name], dep)
			g.dependents[dep] = append(g.dependents[dep], name)
		}
	}
}

func (g *Graph) node(name string) {
	if _, ok := g.deps[name]; !ok {
		g.deps[name] = []string{}
		g.dependents[name] = []string{}
	}
}

// Has reports whether name is in the graph.
func (g *Graph) Has(name string) bool {
	_, ok := g.deps[name]
	return ok
}

// Names returns every template name, sorted.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.deps))
	for name := range g.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of templates.
func (g *Graph) Len() int { return len(g.deps) }

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, deps := range g.deps {
		n += len(deps)
	}
	return n
}

// Dependencies returns the direct dependencies of name, sorted.
func (g *Graph) Dependencies(name string) []string {
	return sorted(g.deps[name])
}

// Dependents returns the templates depending directly on name, sorted.
func (g *Graph) Dependents(name string) []string {
	return sorted(g.dependents[name])
}

// Cycle returns a dependency cycle as a path whose first and last names
// match, or nil.
func (g *Graph) Cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.deps))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = active
		stack = append(stack, name)
		for _, dep := range g.Dependencies(name) {
			switch state[dep] {
			case active:
				i := slices.Index(stack, dep)
				return append(slices.Clone(stack[i:]), dep)
			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range g.Names() {
		if state[name] == unvisited {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Levels groups templates so that every template sits one level above its
// deepest dependency. Level 0 holds templates depending on nothing.
func (g *Graph) Levels() ([][]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, fmt.Errorf("dependency cycle: %v", cycle)
	}

	level := make(map[string]int, len(g.deps))
	var depth func(name string) int
	depth = func(name string) int {
		if l, ok := level[name]; ok {
			return l
		}
		l := 0
		for _, dep := range g.deps[name] {
			l = max(l, depth(dep)+1)
		}
		level[name] = l
		return l
	}

	var levels [][]string
	for _, name := range g.Names() {
		l := depth(name)
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], name)
	}
	return levels, nil
}

// Affected returns the changed templates that are in the graph together
// with everything depending on them, transitively, sorted.
func (g *Graph) Affected(changed ...string) []string {
	seen := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		for _, d := range g.dependents[name] {
			mark(d)
		}
	}
	for _, name := range changed {
		if g.Has(name) {
			mark(name)
		}
	}
	return keys(seen)
}

// Upstream returns every template name depends on, transitively, sorted.
func (g *Graph) Upstream(name string) []string {
	seen := make(map[string]bool)
	var mark func(n string)
	mark = func(n string) {
		for _, dep := range g.deps[n] {
			if !seen[dep] {
				seen[dep] = true
				mark(dep)
			}
		}
	}
	mark(name)
	return keys(seen)
}

// Roots returns the templates nothing else depends on, sorted. These are
// the pages a site build renders.
func (g *Graph) Roots() []string {
	var roots []string
	for _, name := range g.Names() {
		if len(g.dependents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

func sorted(names []string) []string {
	out := slices.Clone(names)
	sort.Strings(out)
	return out
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
