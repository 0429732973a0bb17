// Package graph describes the communication pattern of one collective step:
// a directed graph over the ranks 0..n-1 of a group.
package graph

import (
	"fmt"
	"strings"
)

// Node is a vertex of a Graph. SelfLoop means the rank contributes its own data.
type Node struct {
	Rank     int
	SelfLoop bool
	Prevs    []int
	Nexts    []int
}

type Graph struct {
	Nodes []Node
}

func New(n int) *Graph {
	g := &Graph{Nodes: make([]Node, n)}
	for i := range g.Nodes {
		g.Nodes[i].Rank = i
	}
	return g
}

// AddEdge adds i -> j, or marks a self loop when i == j.
func (g *Graph) AddEdge(i, j int) {
	if i == j {
		g.Nodes[i].SelfLoop = true
		return
	}
	g.Nodes[i].Nexts = append(g.Nodes[i].Nexts, j)
	g.Nodes[j].Prevs = append(g.Nodes[j].Prevs, i)
}

func (g *Graph) Len() int { return len(g.Nodes) }

func (g *Graph) IsSelfLoop(i int) bool { return g.Nodes[i].SelfLoop }

// IsIsolated reports whether i neither sends nor receives. Self loops are ignored.
func (g *Graph) IsIsolated(i int) bool {
	return len(g.Nodes[i].Prevs) == 0 && len(g.Nodes[i].Nexts) == 0
}

func (g *Graph) Prevs(i int) []int { return g.Nodes[i].Prevs }

func (g *Graph) Nexts(i int) []int { return g.Nodes[i].Nexts }

// Roots returns the vertices without predecessors.
func (g *Graph) Roots() []int {
	var rs []int
	for i := range g.Nodes {
		if len(g.Nodes[i].Prevs) == 0 {
			rs = append(rs, i)
		}
	}
	return rs
}

// Reverse returns g with every edge reversed. Self loops are dropped.
func (g *Graph) Reverse() *Graph {
	r := New(g.Len())
	for i := range g.Nodes {
		for _, j := range g.Nodes[i].Nexts {
			r.AddEdge(j, i)
		}
	}
	return r
}

// DebugString lists self loops first, then edges in vertex order.
func (g *Graph) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]{", g.Len())
	for i := range g.Nodes {
		if g.IsSelfLoop(i) {
			fmt.Fprintf(&b, "(%d)", i)
		}
	}
	for i := range g.Nodes {
		for _, j := range g.Nodes[i].Nexts {
			fmt.Fprintf(&b, "(%d->%d)", i, j)
		}
	}
	b.WriteString("}")
	return b.String()
}
