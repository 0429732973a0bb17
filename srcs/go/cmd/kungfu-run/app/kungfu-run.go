// Package app is the kungfu-run command.
package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/job"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/runner"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewCommand returns the kungfu-run command.
func NewCommand() *cobra.Command {
	var f runner.FlagSet
	cmd := &cobra.Command{
		Use:   "kungfu-run [flags] prog [args...]",
		Short: "Launch one process per peer with the bootstrap environment of a group",
		// -np and -port-range are single dash long flags, parsed by run.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			if err := fs.Parse(utils.NormalizeArgs(fs, args)); err != nil {
				if errors.Is(err, pflag.ErrHelp) {
					return cmd.Help()
				}
				return err
			}
			if err := f.SetProg(fs.Args()); err != nil {
				return err
			}
			return run(&f)
		},
	}
	f.Register(cmd.Flags())
	return cmd
}

func run(f *runner.FlagSet) error {
	if logfile := f.Logfile; len(logfile) > 0 {
		if len(f.LogDir) > 0 {
			logfile = filepath.Join(f.LogDir, logfile)
		}
		if err := os.MkdirAll(filepath.Dir(logfile), os.ModePerm); err != nil {
			log.Warnf("failed to create log dir: %v", err)
		}
		lf, err := os.Create(logfile)
		if err != nil {
			return err
		}
		defer lf.Close()
		log.SetOutput(lf)
	}
	t0 := time.Now()
	defer func() { log.Debugf("kungfu-run finished, took %s", time.Since(t0)) }()
	selfIPv4, err := f.SelfIPv4()
	if err != nil {
		return errors.Wrap(err, "-self")
	}
	if _, ok := f.HostList.Lookup(selfIPv4); !ok {
		log.Warnf("%s is not in %s, all peers will be started over ssh", f.Self, f.HostList)
	}
	peers, err := f.HostList.GenPeerList(f.ClusterSize, f.PortRange)
	if err != nil {
		return errors.Wrap(err, "failed to create peers")
	}
	j := job.Job{
		StartTime: t0,
		Strategy:  f.Strategy,
		HostList:  f.HostList,
		PortRange: f.PortRange,
		Prog:      f.Prog,
		Args:      f.Args,
		LogDir:    f.LogDir,
	}
	log.Debugf("%s on %s", j.DebugString(), peers)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trap(cancel)
	if f.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	return runner.SimpleRun(ctx, selfIPv4, peers, j, f.User, f.VerboseLog)
}

func trap(cancel context.CancelFunc) {
	utils.Trap(func(sig os.Signal) {
		log.Warnf("%s trapped", sig)
		cancel()
	})
}

// Main runs kungfu-run with args and exits non-zero on failure.
func Main(args []string) {
	cmd := NewCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		log.Exitf("kungfu-run: %v", err)
	}
}
