package template

import "sort"

// none marks an absent parent or child link.
const none = -1

// blockRecord is one registered block definition. parent and child are
// record ids, not ownership edges.
type blockRecord struct {
	node   *BlockNode
	parent int
	child  int
}

// Registry tracks, for one compile session, the definitions of every block
// name across an extends chain. Same-named definitions form a chain from
// the most-base to the most-derived, linked through record ids.
type Registry struct {
	records []blockRecord
	latest  map[string]int // block name to its most recently registered id
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{latest: make(map[string]int)}
}

// Register records n and links it as the child of the previous definition
// of the same name.
func (r *Registry) Register(n *BlockNode) int {
	id := len(r.records)
	rec := blockRecord{node: n, parent: none, child: none}
	if prev, ok := r.latest[n.Name]; ok {
		rec.parent = prev
		r.records[prev].child = id
	}
	r.records = append(r.records, rec)
	r.latest[n.Name] = id
	n.id = id
	return id
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int { return len(r.records) }

// Block returns the node registered under id.
func (r *Registry) Block(id int) *BlockNode {
	return r.records[id].node
}

// Parent returns the id of the definition id overrides.
func (r *Registry) Parent(id int) (int, bool) {
	p := r.records[id].parent
	return p, p != none
}

// Child returns the id of the definition overriding id.
func (r *Registry) Child(id int) (int, bool) {
	c := r.records[id].child
	return c, c != none
}

// MostDerived follows child links from id to the end of the chain.
func (r *Registry) MostDerived(id int) int {
	for {
		c, ok := r.Child(id)
		if !ok {
			return id
		}
		id = c
	}
}

// Chain returns every definition of name, most-base first.
func (r *Registry) Chain(name string) []*BlockNode {
	id, ok := r.latest[name]
	if !ok {
		return nil
	}
	for {
		p, ok := r.Parent(id)
		if !ok {
			break
		}
		id = p
	}

	var out []*BlockNode
	for {
		out = append(out, r.records[id].node)
		c, ok := r.Child(id)
		if !ok {
			return out
		}
		id = c
	}
}

// Names returns the registered block names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.latest))
	for name := range r.latest {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
