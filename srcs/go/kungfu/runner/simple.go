// Package runner implements kungfu-run: it generates the peer list and launches one process per peer.
package runner

import (
	"context"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/job"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/proc"
	"github.com/lsds/kungfu-graph/srcs/go/runner/local"
	"github.com/lsds/kungfu-graph/srcs/go/runner/remote"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"golang.org/x/sync/errgroup"
)

// SimpleRun runs the peers of pl on selfIPv4 as child processes and the others over SSH as user.
// It fails if any peer fails.
func SimpleRun(ctx context.Context, selfIPv4 uint32, pl plan.PeerList, j job.Job, user string, verboseLog bool) error {
	var localProcs, remoteProcs []proc.Proc
	for _, h := range pl.Hosts() {
		if h == selfIPv4 {
			localProcs = j.CreateProcs(pl, h)
		} else {
			remoteProcs = append(remoteProcs, j.CreateProcs(pl, h)...)
		}
	}
	log.Infof("will parallel run %d instances of %s with %q, %d of them remotely", len(pl), j.Prog, j.Args, len(remoteProcs))
	g, ctx := errgroup.WithContext(ctx)
	if len(localProcs) > 0 {
		g.Go(func() error {
			d, err := utils.Measure(func() error { return local.RunAll(ctx, localProcs, verboseLog) })
			log.Infof("all %d/%d local peers finished, took %s", len(localProcs), len(pl), d)
			return err
		})
	}
	if len(remoteProcs) > 0 {
		g.Go(func() error {
			d, err := utils.Measure(func() error {
				_, err := remote.RunAll(ctx, user, remoteProcs, verboseLog)
				return err
			})
			log.Infof("all %d/%d remote peers finished, took %s", len(remoteProcs), len(pl), d)
			return err
		})
	}
	return g.Wait()
}
