package plan

import "github.com/lsds/kungfu-graph/srcs/go/plan/graph"

// GenDefaultReduceGraph turns a broadcast graph into the matching reduce graph:
// every edge is reversed and every vertex reduces its own data.
func GenDefaultReduceGraph(g *graph.Graph) *graph.Graph {
	g0 := g.Reverse()
	k := len(g.Nodes)
	for i := 0; i < k; i++ {
		g0.AddEdge(i, i)
	}
	return g0
}

func GenBinaryTree(k int) *graph.Graph {
	return GenBinaryTreeWithRoot(k, 0)
}

// GenBinaryTreeWithRoot generates a complete binary tree of k vertices, where
// position p of the heap layout is held by vertex (p + r) % k.
func GenBinaryTreeWithRoot(k, r int) *graph.Graph {
	g := graph.New(k)
	idx := func(p int) int { return (p + r) % k }
	for i := 0; i < k; i++ {
		if j := i*2 + 1; j < k {
			g.AddEdge(idx(i), idx(j))
		}
		if j := i*2 + 2; j < k {
			g.AddEdge(idx(i), idx(j))
		}
	}
	return g
}

// GenStarBcastGraph generates a star shape graph with k vertices and centered at vertice r (0 <= r < k)
func GenStarBcastGraph(k, r int) *graph.Graph {
	g := graph.New(k)
	for i := 0; i < k; i++ {
		if i != r {
			g.AddEdge(r, i)
		}
	}
	return g
}

// GenCircularGraphPair returns the (reduce, broadcast) graphs of a ring that ends at r.
func GenCircularGraphPair(k, r int) (*graph.Graph, *graph.Graph) {
	g := graph.New(k)
	for i := 0; i < k; i++ {
		g.AddEdge(i, i)
	}
	b := graph.New(k)
	for i := 1; i < k; i++ {
		g.AddEdge((r+i)%k, (r+i+1)%k)
		b.AddEdge((r+i-1)%k, (r+i)%k)
	}
	return g, b
}
