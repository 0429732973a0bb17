// Package job turns a launch request into the processes of every peer.
package job

import (
	"fmt"
	"os"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/env"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/proc"
)

type Job struct {
	StartTime time.Time
	Strategy  base.Strategy
	HostList  plan.HostList
	PortRange plan.PortRange
	Prog      string
	Args      []string
	LogDir    string
}

// NewProc returns the process of peer in the group pl.
func (j Job) NewProc(peer plan.PeerID, pl plan.PeerList) proc.Proc {
	envs := proc.Merge(getConfigEnvs(), env.Envs(peer, pl, j.Strategy))
	envs.AddIfMissing(env.JobStartTimestampEnvKey, fmt.Sprint(j.StartTime.Unix()))
	pubAddr := plan.FormatIPv4(peer.IPv4)
	if h, ok := j.HostList.Lookup(peer.IPv4); ok {
		pubAddr = h.PublicAddr
	}
	return proc.Proc{
		Name:     fmt.Sprintf("%s.%d", plan.FormatIPv4(peer.IPv4), peer.Port),
		Prog:     j.Prog,
		Args:     j.Args,
		Envs:     envs,
		Hostname: pubAddr,
		LogDir:   j.LogDir,
	}
}

// CreateProcs returns the processes of every peer of pl on host.
func (j Job) CreateProcs(pl plan.PeerList, host uint32) []proc.Proc {
	var ps []proc.Proc
	for _, self := range pl.On(host) {
		ps = append(ps, j.NewProc(self, pl))
	}
	return ps
}

// CreateAllProcs returns the processes of every peer of pl, grouped by host.
func (j Job) CreateAllProcs(pl plan.PeerList) map[uint32][]proc.Proc {
	m := make(map[uint32][]proc.Proc)
	for _, h := range pl.Hosts() {
		m[h] = j.CreateProcs(pl, h)
	}
	return m
}

func getConfigEnvs() proc.Envs {
	envs := make(proc.Envs)
	for _, k := range config.ConfigEnvKeys {
		if val := os.Getenv(k); len(val) > 0 {
			envs[k] = val
		}
	}
	return envs
}

func (j Job) DebugString() string {
	return fmt.Sprintf("job{prog=%s, args=%q}", j.Prog, j.Args)
}
