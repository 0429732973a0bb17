package execution

import (
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"golang.org/x/sync/errgroup"
)

type PeerFunc func(plan.PeerID) error

// Par runs f for a list of Peers in parallel and returns the first error.
func (f PeerFunc) Par(ps plan.PeerList) error {
	return Par(ps, f)
}

func (f PeerFunc) Seq(ps plan.PeerList) error {
	return Seq(ps, f)
}

// Par runs a function for a list of Peers in parallel
func Par(ps plan.PeerList, f func(plan.PeerID) error) error {
	var g errgroup.Group
	for _, p := range ps {
		p := p
		g.Go(func() error { return f(p) })
	}
	return g.Wait()
}

// Seq runs a function for a list of Peers sequentially
func Seq(ps plan.PeerList, op func(plan.PeerID) error) error {
	for _, p := range ps {
		if err := op(p); err != nil {
			return err
		}
	}
	return nil
}
