package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaptmpl/pkg/template"
)

// site builds:
//
//	base <- page <- home
//	nav  <- page
//	nav  <- about
func site() *Graph {
	g := New()
	g.Add("base")
	g.Add("nav")
	g.Add("page", "base", "nav")
	g.Add("home", "page")
	g.Add("about", "nav")
	return g
}

func TestGraph_Add(t *testing.T) {
	g := site()

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, []string{"base", "nav"}, g.Dependencies("page"))
	assert.Equal(t, []string{"about", "page"}, g.Dependents("nav"))

	// Duplicates and self edges are ignored.
	g.Add("page", "base", "page")
	assert.Equal(t, 4, g.EdgeCount())

	// Dependencies become nodes.
	g.Add("x", "y")
	assert.True(t, g.Has("y"))
	assert.Empty(t, g.Dependencies("y"))
}

func TestGraph_Levels(t *testing.T) {
	levels, err := site().Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"base", "nav"},
		{"about", "page"},
		{"home"},
	}, levels)

	empty, err := New().Levels()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGraph_Cycle(t *testing.T) {
	assert.Nil(t, site().Cycle())

	g := New()
	g.Add("a", "b")
	g.Add("b", "c")
	g.Add("c", "a")
	assert.Equal(t, []string{"a", "b", "c", "a"}, g.Cycle())

	_, err := g.Levels()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestGraph_Affected(t *testing.T) {
	g := site()

	tests := []struct {
		name     string
		changed  []string
		expected []string
	}{
		{"leaf", []string{"home"}, []string{"home"}},
		{"shared partial", []string{"nav"}, []string{"about", "home", "nav", "page"}},
		{"base", []string{"base"}, []string{"base", "home", "page"}},
		{"several", []string{"base", "about"}, []string{"about", "base", "home", "page"}},
		{"unknown", []string{"missing"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, g.Affected(tt.changed...))
		})
	}
}

func TestGraph_UpstreamAndRoots(t *testing.T) {
	g := site()

	assert.Equal(t, []string{"base", "nav", "page"}, g.Upstream("home"))
	assert.Empty(t, g.Upstream("base"))
	assert.Equal(t, []string{"about", "home"}, g.Roots())
}

func TestBuild(t *testing.T) {
	src := template.MapSource{
		"base":   `<{% block body %}{% end %}>`,
		"nav":    `nav`,
		"page":   `{% extends "base" %}{% block body %}{% include "nav" %}{% end %}`,
		"broken": `{% if x %}`,
	}
	e := template.NewEngine(src)

	g, failed := Build(context.Background(), e, []string{"base", "broken", "nav", "page"})

	require.Len(t, failed, 1)
	assert.Error(t, failed["broken"])
	assert.True(t, g.Has("broken"))
	assert.Equal(t, []string{"base", "nav"}, g.Dependencies("page"))
	assert.Equal(t, []string{"base", "nav", "page"}, g.Affected("nav", "base"))
}
