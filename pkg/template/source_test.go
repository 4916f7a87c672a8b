package template

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

func TestMapSource(t *testing.T) {
	src := MapSource{"b": "B", "a": "A"}

	text, err := src.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", text)

	_, err = src.Load(context.Background(), "c")
	require.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "c", nf.Name)

	names, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestFSSource(t *testing.T) {
	fsys := fstest.MapFS{
		"base.tmpl":         {Data: []byte("{% block a %}A{% end %}")},
		"pages/home.tmpl":   {Data: []byte(`{% extends "base" %}{% block a %}home{% end %}`)},
		"pages/raw.txt":     {Data: []byte("raw")},
		".hidden/skip.tmpl": {Data: []byte("skip")},
		"partials/nav.tmpl": {Data: []byte("nav")},
	}
	src := NewFSSource(fsys, ".tmpl")
	ctx := context.Background()

	text, err := src.Load(ctx, "pages/home")
	require.NoError(t, err)
	assert.Contains(t, text, "extends")

	text, err = src.Load(ctx, "pages/raw.txt")
	require.NoError(t, err)
	assert.Equal(t, "raw", text)

	_, err = src.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = src.Load(ctx, "../escape")
	assert.ErrorIs(t, err, fs.ErrInvalid)

	names, err := src.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "pages/home", "partials/nav"}, names)

	out := renderFromSource(t, src, "pages/home")
	assert.Equal(t, "home", out)
}

func TestFSSource_Path(t *testing.T) {
	src := NewFSSource(nil, ".tmpl")
	assert.Equal(t, "a/b.tmpl", src.Path("/a/b"))
	assert.Equal(t, "a/b.html", src.Path("a/b.html"))
	assert.Equal(t, "a.tmpl", src.Path("x/../a"))
}

func TestOverlay(t *testing.T) {
	boom := errors.New("boom")
	src := Overlay(
		MapSource{"a": "first"},
		nil,
		SourceFunc(func(_ context.Context, name string) (string, error) {
			if name == "err" {
				return "", boom
			}
			return "", &NotFoundError{Name: name}
		}),
		MapSource{"a": "shadowed", "b": "second"},
	)
	ctx := context.Background()

	text, err := src.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	text, err = src.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "second", text)

	_, err = src.Load(ctx, "err")
	assert.ErrorIs(t, err, boom)

	_, err = src.Load(ctx, "none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompileString_Deps(t *testing.T) {
	tmpl, err := CompileString("page", `{% include "nav" %}!`, MapSource{"nav": "NAV"})
	require.NoError(t, err)

	out, err := tmpl.Render(core.Context{})
	require.NoError(t, err)
	assert.Equal(t, "NAV!", out)
}

func renderFromSource(t *testing.T, src Source, name string) string {
	t.Helper()
	tmpl, err := Compile(context.Background(), src, name)
	require.NoError(t, err)
	out, err := tmpl.Render(core.Context{})
	require.NoError(t, err)
	return out
}
