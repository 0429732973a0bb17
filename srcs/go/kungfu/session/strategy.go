package session

import (
	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/plan/graph"
)

// strategy is a pair of graphs; a nil graph is skipped.
type strategy struct {
	reduceGraph *graph.Graph
	bcastGraph  *graph.Graph
}

func (s strategy) graphs() []*graph.Graph {
	var gs []*graph.Graph
	for _, g := range []*graph.Graph{s.reduceGraph, s.bcastGraph} {
		if g != nil {
			gs = append(gs, g)
		}
	}
	return gs
}

type strategyList []strategy

func (sl strategyList) choose(i int) strategy {
	return sl[i%len(sl)]
}

func simpleSingleGraphStrategy(bcastGraph *graph.Graph) strategy {
	return strategy{
		reduceGraph: plan.GenDefaultReduceGraph(bcastGraph),
		bcastGraph:  bcastGraph,
	}
}

func genRootedStrategy(k, root int, s kb.Strategy) strategy {
	switch s {
	case kb.Star:
		return simpleSingleGraphStrategy(plan.GenStarBcastGraph(k, root))
	case kb.Ring:
		reduceGraph, bcastGraph := plan.GenCircularGraphPair(k, root)
		return strategy{reduceGraph: reduceGraph, bcastGraph: bcastGraph}
	default:
		return simpleSingleGraphStrategy(plan.GenBinaryTreeWithRoot(k, root))
	}
}

// genStrategyList returns the strategies used by AllReduce, chunks are assigned round robin.
func genStrategyList(k int, s kb.Strategy) strategyList {
	if s == kb.Ring {
		var sl strategyList
		for r := 0; r < k; r++ {
			sl = append(sl, genRootedStrategy(k, r, s))
		}
		return sl
	}
	return strategyList{genRootedStrategy(k, 0, s)}
}

func (sess *Session) rootedStrategy(root int) strategy {
	if s, ok := sess.rooted[root]; ok {
		return s
	}
	s := genRootedStrategy(len(sess.peers), root, sess.strategy)
	sess.rooted[root] = s
	return s
}
