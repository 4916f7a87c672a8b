package template

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/token"
)

// Engine compiles templates from a Source and caches the results.
//
// Concurrent Compile calls for the same name share one compilation.
// Included templates are cached too; extended templates are always
// compiled into the extending template's own registry.
type Engine struct {
	source Source
	logger *slog.Logger
	cache  bool

	mu        sync.RWMutex
	templates map[string]*Template
	group     singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCache enables or disables the template cache. It is enabled by
// default.
func WithCache(enabled bool) Option {
	return func(e *Engine) { e.cache = enabled }
}

// NewEngine creates an engine loading templates from src.
func NewEngine(src Source, opts ...Option) *Engine {
	e := &Engine{
		source:    src,
		logger:    slog.New(slog.DiscardHandler),
		cache:     true,
		templates: make(map[string]*Template),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Source returns the engine's source provider.
func (e *Engine) Source() Source { return e.source }

// Compile returns the compiled template for name.
func (e *Engine) Compile(ctx context.Context, name string) (*Template, error) {
	if t, ok := e.cached(name); ok {
		e.logger.Debug("template cache hit", "name", name)
		return t, nil
	}

	v, err, _ := e.group.Do(name, func() (any, error) {
		if t, ok := e.cached(name); ok {
			return t, nil
		}
		e.logger.Debug("compiling template", "name", name)
		s := &session{ctx: ctx, engine: e}
		t, err := s.compile(name)
		if err != nil {
			return nil, err
		}
		e.store(t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Template), nil
}

// Render compiles name and renders it against data.
func (e *Engine) Render(ctx context.Context, name string, data core.Context) (string, error) {
	t, err := e.Compile(ctx, name)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

// Invalidate evicts name and every cached template depending on it. It
// returns the number of evicted templates.
func (e *Engine) Invalidate(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for key, t := range e.templates {
		if key == name || t.DependsOn(name) {
			delete(e.templates, key)
			n++
		}
	}
	e.logger.Debug("template invalidated", "name", name, "evicted", n)
	return n
}

// Reset empties the cache.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.templates)
}

// Cached returns the names of all cached templates in sorted order.
func (e *Engine) Cached() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (e *Engine) cached(name string) (*Template, bool) {
	if !e.cache {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[name]
	return t, ok
}

func (e *Engine) store(t *Template) {
	if !e.cache {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.name] = t
}

// session is one top-level compile call. It tracks the templates currently
// being compiled so that extends and include cycles are rejected.
type session struct {
	ctx    context.Context
	engine *Engine
	stack  []string
}

// enter pushes name, failing if it is already being compiled.
func (s *session) enter(name string, pos token.Position) error {
	if slices.Contains(s.stack, name) {
		chain := strings.Join(append(slices.Clone(s.stack), name), " -> ")
		return &core.ContextError{
			Kind:    core.ErrCycle,
			Path:    name,
			Message: fmt.Sprintf(msgCycle, chain),
			Pos:     pos,
		}
	}
	s.stack = append(s.stack, name)
	return nil
}

func (s *session) leave() {
	s.stack = s.stack[:len(s.stack)-1]
}

// parse loads name and parses it into reg.
func (s *session) parse(name string, reg *Registry) ([]Node, []string, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, nil, err
	}
	text, err := s.engine.source.Load(s.ctx, name)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := Tokenize(name, text)
	if err != nil {
		return nil, nil, err
	}

	p := &parser{name: name, tokens: tokens, registry: reg, session: s}
	root, err := p.parseTemplate()
	if err != nil {
		return nil, nil, err
	}
	return root, p.deps, nil
}

// compile builds a standalone template with its own registry.
func (s *session) compile(name string) (*Template, error) {
	if err := s.enter(name, token.Position{}); err != nil {
		return nil, err
	}
	defer s.leave()

	reg := NewRegistry()
	root, deps, err := s.parse(name, reg)
	if err != nil {
		return nil, err
	}
	return &Template{name: name, root: root, registry: reg, deps: dedupe(deps)}, nil
}

// extend parses the parent of an extends chain into the child's registry.
func (s *session) extend(name string, reg *Registry, pos token.Position) ([]Node, []string, error) {
	if err := s.enter(name, pos); err != nil {
		return nil, nil, err
	}
	defer s.leave()
	return s.parse(name, reg)
}

// include returns the independently compiled template for name, from the
// engine cache when possible.
func (s *session) include(name string, pos token.Position) (*Template, error) {
	if err := s.enter(name, pos); err != nil {
		return nil, err
	}
	s.leave()

	if t, ok := s.engine.cached(name); ok {
		return t, nil
	}

	s.engine.logger.Debug("compiling included template", "name", name)
	t, err := s.compile(name)
	if err != nil {
		return nil, err
	}
	s.engine.store(t)
	return t, nil
}
