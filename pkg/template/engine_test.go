package template

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptmpl/internal/testutil"
	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

// countingSource counts Load calls per template name.
type countingSource struct {
	mu    sync.Mutex
	src   MapSource
	loads map[string]int
}

func newCountingSource(src MapSource) *countingSource {
	return &countingSource{src: src, loads: make(map[string]int)}
}

func (c *countingSource) Load(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	c.loads[name]++
	c.mu.Unlock()
	return c.src.Load(ctx, name)
}

func (c *countingSource) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads[name]
}

func TestEngine_Caches(t *testing.T) {
	src := newCountingSource(MapSource{
		"page":   `{% include "header" %}body`,
		"header": "head ",
	})
	e := NewEngine(src, WithLogger(testutil.NewTestLogger(t)))
	ctx := context.Background()

	first, err := e.Compile(ctx, "page")
	require.NoError(t, err)
	second, err := e.Compile(ctx, "page")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.count("page"))
	assert.Equal(t, 1, src.count("header"))
	assert.Equal(t, []string{"header", "page"}, e.Cached())

	// The included template is served from the cache.
	header, err := e.Compile(ctx, "header")
	require.NoError(t, err)
	assert.Equal(t, 1, src.count("header"))
	assert.Same(t, header, first.Root()[0].(*IncludeNode).Template)
}

func TestEngine_WithoutCache(t *testing.T) {
	src := newCountingSource(MapSource{"page": "x"})
	e := NewEngine(src, WithCache(false))

	for range 3 {
		_, err := e.Compile(context.Background(), "page")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.count("page"))
	assert.Empty(t, e.Cached())
}

func TestEngine_ExtendsAlwaysFresh(t *testing.T) {
	src := newCountingSource(MapSource{
		"base": "{% block a %}base{% end %}",
		"one":  `{% extends "base" %}{% block a %}one{% end %}`,
		"two":  `{% extends "base" %}{% block a %}two{% end %}`,
	})
	e := NewEngine(src)
	ctx := context.Background()

	out, err := e.Render(ctx, "one", core.Context{})
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	out, err = e.Render(ctx, "two", core.Context{})
	require.NoError(t, err)
	assert.Equal(t, "two", out)

	out, err = e.Render(ctx, "base", core.Context{})
	require.NoError(t, err)
	assert.Equal(t, "base", out)

	assert.Equal(t, 3, src.count("base"))
}

func TestEngine_Invalidate(t *testing.T) {
	src := MapSource{
		"base":   "{% block a %}{% end %}",
		"child":  `{% extends "base" %}`,
		"page":   `{% include "child" %}`,
		"other":  "other",
		"header": "h",
	}
	e := NewEngine(src)
	ctx := context.Background()
	for _, name := range []string{"child", "page", "other", "header"} {
		_, err := e.Compile(ctx, name)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"child", "header", "other", "page"}, e.Cached())

	assert.Equal(t, 2, e.Invalidate("base"))
	assert.Equal(t, []string{"header", "other"}, e.Cached())

	assert.Equal(t, 1, e.Invalidate("other"))
	assert.Equal(t, 0, e.Invalidate("missing"))

	e.Reset()
	assert.Empty(t, e.Cached())
}

func TestEngine_ConcurrentCompile(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	src := SourceFunc(func(ctx context.Context, name string) (string, error) {
		loads.Add(1)
		<-release
		return "shared", nil
	})
	e := NewEngine(src)

	var wg sync.WaitGroup
	results := make([]*Template, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tmpl, err := e.Compile(context.Background(), "page")
			assert.NoError(t, err)
			results[i] = tmpl
		}()
	}

	require.Eventually(t, func() bool { return loads.Load() > 0 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, int32(1), loads.Load())
}

func TestEngine_ErrorsNotCached(t *testing.T) {
	src := MapSource{"page": "{{ 1 + }}"}
	e := NewEngine(src)

	_, err := e.Compile(context.Background(), "page")
	require.Error(t, err)
	assert.Empty(t, e.Cached())

	src["page"] = "fixed"
	tmpl, err := e.Compile(context.Background(), "page")
	require.NoError(t, err)
	assert.Equal(t, "page", tmpl.Name())
}

func TestEngine_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(MapSource{"page": "x"}).Compile(ctx, "page")
	assert.True(t, errors.Is(err, context.Canceled))
}
