package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Reverse(t *testing.T) {
	g := New(3)
	g.AddEdge(0, 1)
	g.AddEdge(0, 2)
	g.AddEdge(1, 1)
	assert.Equal(t, "[3]{(1)(0->1)(0->2)}", g.DebugString())

	r := g.Reverse()
	assert.Equal(t, []int{0}, r.Nexts(1))
	assert.Equal(t, []int{0}, r.Nexts(2))
	assert.Equal(t, []int{1, 2}, r.Prevs(0))
	assert.False(t, r.IsSelfLoop(1), "self loops are not reversed")
	assert.Equal(t, []int{1, 2}, r.Roots())
}

func Test_IsIsolated(t *testing.T) {
	g := New(2)
	assert.True(t, g.IsIsolated(0))
	g.AddEdge(0, 0)
	assert.True(t, g.IsIsolated(0))
	g.AddEdge(0, 1)
	assert.False(t, g.IsIsolated(0))
	assert.False(t, g.IsIsolated(1))
}
