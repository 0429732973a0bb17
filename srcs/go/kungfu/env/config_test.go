package env

import (
	"os"
	"testing"

	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseConfigFromEnv(t *testing.T) {
	t.Setenv(SelfSpecEnvKey, "127.0.0.1:10001")
	t.Setenv(PeerListEnvKey, "127.0.0.1:10000,127.0.0.1:10001")
	t.Setenv(AllReduceStrategyEnvKey, "RING")

	cfg, err := ParseConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:10001", cfg.Self.String())
	assert.Len(t, cfg.InitPeers, 2)
	assert.Equal(t, kb.Ring, cfg.Strategy)
	assert.Equal(t, "1/2", cfg.Rank())

	envs := Envs(cfg.Self, cfg.InitPeers, cfg.Strategy)
	assert.Equal(t, "127.0.0.1:10000,127.0.0.1:10001", envs[PeerListEnvKey])
	assert.Equal(t, "RING", envs[AllReduceStrategyEnvKey])

	t.Setenv(SelfSpecEnvKey, "127.0.0.1:10002")
	_, err = ParseConfigFromEnv()
	assert.Error(t, err)

	t.Setenv(SelfSpecEnvKey, "127.0.0.1:10001")
	t.Setenv(AllReduceStrategyEnvKey, "NOPE")
	_, err = ParseConfigFromEnv()
	assert.Error(t, err)
}

func Test_NoSession(t *testing.T) {
	t.Setenv(SelfSpecEnvKey, "")
	os.Unsetenv(SelfSpecEnvKey)
	_, err := ParseConfigFromEnv()
	assert.True(t, errors.Is(err, ErrNoSession))
}

func Test_SingleMachineEnv(t *testing.T) {
	cfg, err := SingleMachineEnv(2, 4)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:10002", cfg.Self.String())
	assert.Len(t, cfg.InitPeers, 4)
	assert.Equal(t, kb.DefaultStrategy, cfg.Strategy)

	_, err = SingleMachineEnv(4, 4)
	assert.Error(t, err)
}
