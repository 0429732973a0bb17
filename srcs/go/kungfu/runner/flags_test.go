package runner

import (
	"testing"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_flag(t *testing.T) {
	var f FlagSet
	fs := pflag.NewFlagSet("kungfu-run", pflag.ContinueOnError)
	f.Register(fs)
	args := []string{
		`-np`, `3`,
		`-H`, `127.0.0.1:2,192.168.1.2:2:node2`,
		`--port-range`, `8080-8088`,
		`--strategy`, `RING`,
		`-u`, `kungfu`,
		`prog`, `-x`,
	}
	require.NoError(t, fs.Parse(utils.NormalizeArgs(fs, args)))
	require.NoError(t, f.SetProg(fs.Args()))

	assert.Equal(t, 3, f.ClusterSize)
	assert.Equal(t, plan.PortRange{Begin: 8080, End: 8088}, f.PortRange)
	assert.Equal(t, base.Ring, f.Strategy)
	assert.Equal(t, "kungfu", f.User)
	require.Len(t, f.HostList, 2)
	assert.Equal(t, "node2", f.HostList[1].PublicAddr)
	assert.Equal(t, "prog", f.Prog)
	assert.Equal(t, []string{"-x"}, f.Args)
	self, err := f.SelfIPv4()
	require.NoError(t, err)
	assert.Equal(t, plan.MustParseIPv4("127.0.0.1"), self)

	assert.Error(t, f.SetProg(nil))
}

func Test_NormalizeArgs(t *testing.T) {
	var f FlagSet
	fs := pflag.NewFlagSet("kungfu-run", pflag.ContinueOnError)
	f.Register(fs)
	got := utils.NormalizeArgs(fs, []string{`-np`, `2`, `-v`, `-H`, `127.0.0.1:2`, `-port-range=1-2`, `prog`, `-np`, `5`})
	assert.Equal(t, []string{`--np`, `2`, `-v`, `-H`, `127.0.0.1:2`, `--port-range=1-2`, `prog`, `-np`, `5`}, got)
}
