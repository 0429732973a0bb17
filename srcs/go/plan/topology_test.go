package plan

import (
	"fmt"
	"testing"

	"github.com/lsds/kungfu-graph/srcs/go/plan/graph"
	"github.com/stretchr/testify/assert"
)

type edge struct {
	from int
	to   int
}

func isValidGraph(g *graph.Graph) bool {
	k := len(g.Nodes)
	m := make(map[edge]int)
	for i := 0; i < k; i++ {
		if g.Nodes[i].Rank != i {
			return false
		}
		for _, j := range g.Nodes[i].Nexts {
			e := edge{i, j}
			if m[e]++; m[e] > 1 {
				return false
			}
		}
	}
	var n int
	for i := 0; i < k; i++ {
		for _, j := range g.Nodes[i].Prevs {
			n++
			if m[edge{j, i}] != 1 {
				return false
			}
		}
	}
	return n == len(m)
}

func isValidTreeWithRoot(g *graph.Graph, root int) bool {
	if !isValidGraph(g) {
		return false
	}
	k := len(g.Nodes)
	p := make(map[int]int)
	for i := 0; i < k; i++ {
		if g.Nodes[i].SelfLoop {
			return false
		}
		for _, j := range g.Nodes[i].Nexts {
			if _, ok := p[j]; ok {
				return false
			}
			p[j] = i
		}
	}
	if len(p) != k-1 {
		return false
	}
	if _, ok := p[root]; ok {
		return false
	}
	return true
}

func Test_rootedTrees(t *testing.T) {
	for k := 1; k <= 9; k++ {
		for r := 0; r < k; r++ {
			name := fmt.Sprintf("k=%d,r=%d", k, r)
			assert.True(t, isValidTreeWithRoot(GenStarBcastGraph(k, r), r), "star %s", name)
			assert.True(t, isValidTreeWithRoot(GenBinaryTreeWithRoot(k, r), r), "binary tree %s", name)
		}
	}
	assert.Equal(t, GenBinaryTree(7).DebugString(), GenBinaryTreeWithRoot(7, 0).DebugString())
}

func Test_reduceGraph(t *testing.T) {
	b := GenBinaryTreeWithRoot(5, 2)
	g := GenDefaultReduceGraph(b)
	for i := 0; i < 5; i++ {
		assert.True(t, g.IsSelfLoop(i))
		assert.ElementsMatch(t, b.Prevs(i), g.Nexts(i))
		assert.ElementsMatch(t, b.Nexts(i), g.Prevs(i))
	}
}

func Test_circularGraphPair(t *testing.T) {
	for k := 1; k <= 5; k++ {
		for r := 0; r < k; r++ {
			rg, bg := GenCircularGraphPair(k, r)
			assert.True(t, isValidTreeWithRoot(bg, r), "bcast k=%d r=%d", k, r)
			assert.Empty(t, rg.Nexts(r), "ring must end at %d", r)
			for i := 0; i < k; i++ {
				assert.True(t, rg.IsSelfLoop(i))
			}
		}
	}
}
