package graph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sectrean/dicore/internal/graph"
)

func Test_Graph_DetectCycles(t *testing.T) {
	tests := []struct {
		name  string
		edges map[string][]string
		order []string
		want  [][]string
	}{
		{
			name:  "no cycles",
			order: []string{"a", "b", "c"},
			edges: map[string][]string{"b": {"a"}, "c": {"b", "a"}},
			want:  nil,
		},
		{
			name:  "two node cycle",
			order: []string{"a", "b"},
			edges: map[string][]string{"a": {"b"}, "b": {"a"}},
			want:  [][]string{{"a", "b", "a"}},
		},
		{
			name:  "self reference",
			order: []string{"a"},
			edges: map[string][]string{"a": {"a"}},
			want:  [][]string{{"a", "a"}},
		},
		{
			name:  "cycle below entry point",
			order: []string{"root", "a", "b", "c"},
			edges: map[string][]string{"root": {"a"}, "a": {"b"}, "b": {"c"}, "c": {"a"}},
			want:  [][]string{{"a", "b", "c", "a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New[string]()
			for _, n := range tt.order {
				g.SetDependencies(n, tt.edges[n])
			}

			assert.Equal(t, tt.want, g.DetectCycles())
		})
	}
}

func Test_Graph_Depth(t *testing.T) {
	g := graph.New[string]()
	g.SetDependencies("a", nil)
	g.SetDependencies("b", []string{"a"})
	g.SetDependencies("c", []string{"b", "a"})
	g.SetDependencies("self", []string{"self"})
	g.SetDependencies("x", []string{"y"})
	g.SetDependencies("y", []string{"x"})

	assert.Equal(t, 0, g.Depth("a"))
	assert.Equal(t, 1, g.Depth("b"))
	assert.Equal(t, 2, g.Depth("c"))
	assert.Equal(t, 0, g.Depth("unknown"))
	assert.Equal(t, 1, g.Depth("self"))
	assert.Equal(t, 2, g.Depth("x"))
}

func Test_Graph_Depth_SharedDependencies(t *testing.T) {
	// Layers of two nodes where each node depends on both nodes of the next layer.
	// Every chain is walked once, otherwise this takes exponential time.
	const layers = 26

	g := graph.New[int]()
	for l := range layers {
		var deps []int
		if l < layers-1 {
			deps = []int{2 * (l + 1), 2*(l+1) + 1}
		}
		g.SetDependencies(2*l, deps)
		g.SetDependencies(2*l+1, deps)
	}

	done := make(chan int, 1)
	go func() { done <- g.Depth(0) }()

	select {
	case got := <-done:
		assert.Equal(t, layers-1, got)
	case <-time.After(5 * time.Second):
		t.Fatal("depth of a layered graph did not finish")
	}

	analysis := g.Analyze()
	assert.Equal(t, layers-1, analysis.Depths[1])
	assert.Equal(t, 0, analysis.Depths[2*layers-1])
	assert.Equal(t, []int{2 * (layers - 1), 2*layers - 1}, analysis.Roots)
}

func Test_Graph_Depth_ReachesCycle(t *testing.T) {
	g := graph.New[string]()
	g.SetDependencies("top", []string{"a", "x"})
	g.SetDependencies("a", []string{"x"})
	g.SetDependencies("x", []string{"y"})
	g.SetDependencies("y", []string{"x"})

	assert.Equal(t, 4, g.Depth("top"))
	assert.Equal(t, 3, g.Depth("a"))

	depths := g.Analyze().Depths
	assert.Equal(t, 4, depths["top"])
	assert.Equal(t, 3, depths["a"])
	assert.Equal(t, 2, depths["x"])
	assert.Equal(t, 2, depths["y"])
}

func Test_Graph_Roots(t *testing.T) {
	g := graph.New[string]()
	g.SetDependencies("c", []string{"b"})
	g.SetDependencies("a", nil)
	g.AddDependency("b", "a")
	g.SetDependencies("d", nil)

	assert.Equal(t, []string{"a", "d"}, g.Roots())
	assert.Equal(t, []string{"c", "a", "b", "d"}, g.Nodes())
	assert.Equal(t, 4, g.Len())
}

func Test_Graph_SetDependencies(t *testing.T) {
	t.Run("replaces edges", func(t *testing.T) {
		g := graph.New[string]()
		g.SetDependencies("a", []string{"b", "c"})
		g.SetDependencies("a", []string{"d"})

		assert.Equal(t, []string{"d"}, g.Dependencies("a"))
		assert.Equal(t, 1, g.Len())
	})

	t.Run("removes duplicate edges", func(t *testing.T) {
		g := graph.New[string]()
		g.SetDependencies("a", []string{"b", "b", "c"})
		g.AddDependency("a", "c")

		assert.Equal(t, []string{"b", "c"}, g.Dependencies("a"))
	})
}

func Test_Graph_CreationPath(t *testing.T) {
	g := graph.New[string]()
	g.SetDependencies("logger", nil)
	g.SetDependencies("db", []string{"logger"})
	g.SetDependencies("cache", []string{"logger"})
	g.SetDependencies("service", []string{"db", "cache", "logger"})

	assert.Equal(t, []string{"logger", "db", "cache", "service"}, g.CreationPath("service"))
	assert.Equal(t, []string{"logger"}, g.CreationPath("logger"))
	assert.Equal(t, []string{"unknown"}, g.CreationPath("unknown"))

	t.Run("cycle", func(t *testing.T) {
		g := graph.New[string]()
		g.SetDependencies("a", []string{"b"})
		g.SetDependencies("b", []string{"a"})

		assert.Equal(t, []string{"b", "a"}, g.CreationPath("a"))
	})
}

func Test_Graph_Analyze(t *testing.T) {
	g := graph.New[string]()
	g.SetDependencies("a", nil)
	g.SetDependencies("b", []string{"a", "c"})
	g.SetDependencies("c", []string{"b"})

	got := g.Analyze()
	assert.Equal(t, graph.Analysis[string]{
		Cycles:        [][]string{{"b", "c", "b"}},
		Depths:        map[string]int{"a": 0, "b": 2, "c": 2},
		Roots:         []string{"a"},
		TotalServices: 3,
	}, got)

	g.Clear()
	assert.Equal(t, 0, g.Len())
	assert.False(t, g.Has("a"))
}
