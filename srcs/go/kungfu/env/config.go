package env

import (
	"os"
	"strconv"

	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/pkg/errors"
)

type Config struct {
	Self      plan.PeerID
	InitPeers plan.PeerList
	Strategy  kb.Strategy
}

// ErrNoSession is returned when the process was not launched as part of a multi-process session.
var ErrNoSession = errors.New("not launched under a multi-process session")

var errSelfNotInPeers = errors.New("self not in peer list")

func ParseConfigFromEnv() (*Config, error) {
	if _, ok := os.LookupEnv(SelfSpecEnvKey); !ok {
		return nil, errors.Wrapf(ErrNoSession, "%s not set", SelfSpecEnvKey)
	}
	self, err := getSelfFromEnv()
	if err != nil {
		return nil, err
	}
	initPeers, err := getInitPeersFromEnv()
	if err != nil {
		return nil, err
	}
	if !initPeers.Contains(*self) {
		return nil, errors.Wrapf(errSelfNotInPeers, "%s not in %s", self, initPeers)
	}
	strategy, err := kb.ParseStrategy(os.Getenv(AllReduceStrategyEnvKey))
	if err != nil {
		return nil, err
	}
	return &Config{
		Self:      *self,
		InitPeers: initPeers,
		Strategy:  strategy,
	}, nil
}

// SingleMachineEnv returns the config of the given rank among size peers on localhost.
func SingleMachineEnv(rank, size int) (*Config, error) {
	if rank < 0 || rank >= size {
		return nil, errors.Errorf("invalid rank %d for size %d", rank, size)
	}
	hl := plan.HostList{{
		IPv4:       plan.DefaultHostSpec.IPv4,
		Slots:      size,
		PublicAddr: plan.DefaultHostSpec.PublicAddr,
	}}
	pl, err := hl.GenPeerList(size, plan.DefaultPortRange)
	if err != nil {
		return nil, err
	}
	return &Config{
		Self:      pl[rank],
		InitPeers: pl,
		Strategy:  kb.DefaultStrategy,
	}, nil
}

// Envs returns the bootstrap variables of the peer self.
func Envs(self plan.PeerID, pl plan.PeerList, strategy kb.Strategy) map[string]string {
	return map[string]string{
		SelfSpecEnvKey:          self.String(),
		PeerListEnvKey:          pl.String(),
		AllReduceStrategyEnvKey: strategy.String(),
	}
}

func getSelfFromEnv() (*plan.PeerID, error) {
	val, ok := os.LookupEnv(SelfSpecEnvKey)
	if !ok {
		return nil, errors.Wrapf(ErrNoSession, "%s not set", SelfSpecEnvKey)
	}
	return plan.ParsePeerID(val)
}

func getInitPeersFromEnv() (plan.PeerList, error) {
	val, ok := os.LookupEnv(PeerListEnvKey)
	if !ok {
		return nil, errors.Wrapf(ErrNoSession, "%s not set", PeerListEnvKey)
	}
	return plan.ParsePeerList(val)
}

// Rank returns the rank of self in the peer list, formatted for logs.
func (c Config) Rank() string {
	r, _ := c.InitPeers.Rank(c.Self)
	return strconv.Itoa(r) + "/" + strconv.Itoa(len(c.InitPeers))
}
