package job

import (
	"testing"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/env"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateProcs(t *testing.T) {
	t.Setenv(config.LogLevelEnvKey, "DEBUG")
	hl, err := plan.ParseHostList("127.0.0.1:2,192.168.1.2:2:node2")
	require.NoError(t, err)
	pl, err := hl.GenPeerList(3, plan.DefaultPortRange)
	require.NoError(t, err)
	j := Job{
		StartTime: time.Unix(100, 0),
		Strategy:  base.Ring,
		HostList:  hl,
		PortRange: plan.DefaultPortRange,
		Prog:      "kungfu-graph-run",
		Args:      []string{"-graph", "g.yaml"},
	}
	all := j.CreateAllProcs(pl)
	require.Len(t, all, 2)
	local := all[plan.MustParseIPv4("127.0.0.1")]
	require.Len(t, local, 2)
	remote := all[plan.MustParseIPv4("192.168.1.2")]
	require.Len(t, remote, 1)

	p := remote[0]
	assert.Equal(t, "192.168.1.2.10000", p.Name)
	assert.Equal(t, "node2", p.Hostname)
	assert.Equal(t, "192.168.1.2:10000", p.Envs[env.SelfSpecEnvKey])
	assert.Equal(t, pl.String(), p.Envs[env.PeerListEnvKey])
	assert.Equal(t, "RING", p.Envs[env.AllReduceStrategyEnvKey])
	assert.Equal(t, "100", p.Envs[env.JobStartTimestampEnvKey])
	assert.Equal(t, "DEBUG", p.Envs[config.LogLevelEnvKey])
	assert.Equal(t, []string{"-graph", "g.yaml"}, p.Args)
	assert.Equal(t, "127.0.0.1", local[1].Hostname)
}
