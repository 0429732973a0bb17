package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type FlagSet struct {
	ClusterSize int
	HostList    plan.HostList
	PortRange   plan.PortRange
	Strategy    base.Strategy
	User        string
	Self        string

	Timeout    time.Duration
	VerboseLog bool
	Logfile    string
	LogDir     string

	Prog string
	Args []string
}

// Register binds the flags of kungfu-run to flag.
func (f *FlagSet) Register(flag *pflag.FlagSet) {
	flag.SetInterspersed(false)
	flag.IntVar(&f.ClusterSize, "np", 1, "number of peers")

	f.HostList = plan.DefaultHostList
	flag.VarP(&f.HostList, "hosts", "H", "comma separated list of <internal IP>:<nslots>[:<public addr>]")

	f.PortRange = plan.DefaultPortRange
	flag.Var(&f.PortRange, "port-range", "port range for the peers")

	f.Strategy = base.DefaultStrategy
	flag.Var(&f.Strategy, "strategy", fmt.Sprintf("collective strategy, options are: %s", strings.Join(base.StrategyNames(), " | ")))

	flag.StringVarP(&f.User, "user", "u", "", "user name for ssh")
	flag.StringVar(&f.Self, "self", plan.FormatIPv4(plan.DefaultHostSpec.IPv4), "internal IPv4 of this host, its peers are started locally")
	flag.DurationVar(&f.Timeout, "timeout", 0, "timeout")
	flag.BoolVarP(&f.VerboseLog, "verbose", "v", true, "show task log")
	flag.StringVar(&f.Logfile, "logfile", "", "path to log file")
	flag.StringVar(&f.LogDir, "logdir", "", "path to log dir")
}

var errMissingProgramName = errors.New("missing program name")

// SetProg takes the program and its arguments from the positional arguments.
func (f *FlagSet) SetProg(args []string) error {
	if len(args) < 1 {
		return errMissingProgramName
	}
	f.Prog = args[0]
	f.Args = args[1:]
	return nil
}

// SelfIPv4 returns the parsed -self.
func (f *FlagSet) SelfIPv4() (uint32, error) {
	return plan.ParseIPv4(f.Self)
}
