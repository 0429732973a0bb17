// Package app is the kungfu-graph-run command: it runs a graph in a process launched by kungfu-run.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lsds/kungfu-graph/srcs/go/graph"
	"github.com/lsds/kungfu-graph/srcs/go/graph/collective"
	_ "github.com/lsds/kungfu-graph/srcs/go/graph/ops"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/env"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/peer"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	graphFile string
	sets      []string
	prints    []string
	rankValue []string
}

// NewCommand returns the kungfu-graph-run command writing printed blobs to stdout.
func NewCommand(stdout io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "kungfu-graph-run -graph file.yaml",
		Short: "Run a graph of operators as one process of a group",
		// flags are single dash long flags, parsed by RunE.
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
			if fs.NArg() > 0 {
				return errors.Errorf("unexpected arguments %q", fs.Args())
			}
			if len(o.graphFile) == 0 {
				return errMissingGraph
			}
			return run(cmd.Context(), &o, stdout)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&o.graphFile, "graph", "", "path to the YAML graph description")
	flags.StringArrayVar(&o.sets, "set", nil, "override an argument, as <op>.<arg>=<value>")
	flags.StringArrayVar(&o.prints, "print", nil, "blob to print after the run")
	flags.StringArrayVar(&o.rankValue, "rank-value", nil, "set the value argument of the operator to the rank")
	return cmd
}

var errMissingGraph = errors.New("-graph is required")

var errInvalidSet = errors.New("invalid -set, want <op>.<arg>=<value>")

// parseSet parses <op>.<arg>=<value>. The value is an int, a float or a string.
func parseSet(s string) (string, *graph.Argument, error) {
	lhs, val, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, errors.Wrapf(errInvalidSet, "%q", s)
	}
	i := strings.LastIndex(lhs, ".")
	if i <= 0 || i == len(lhs)-1 {
		return "", nil, errors.Wrapf(errInvalidSet, "%q", s)
	}
	op, name := lhs[:i], lhs[i+1:]
	if n, err := strconv.ParseInt(val, 10, 64); err == nil {
		return op, graph.IntArg(name, int(n)), nil
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return op, graph.FloatArg(name, f), nil
	}
	return op, graph.StringArg(name, val), nil
}

var errNoOperator = errors.New("no such operator")

func setArg(def *graph.NetDef, op string, a *graph.Argument) error {
	o := def.Find(op)
	if o == nil {
		return errors.Wrapf(errNoOperator, "%q", op)
	}
	o.SetArg(a)
	return nil
}

func configure(def *graph.NetDef, o *options, rank int) error {
	for _, s := range o.sets {
		op, a, err := parseSet(s)
		if err != nil {
			return err
		}
		if err := setArg(def, op, a); err != nil {
			return err
		}
	}
	for _, op := range o.rankValue {
		if err := setArg(def, op, graph.FloatArg("value", float64(rank))); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, o *options, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	utils.Trap(func(sig os.Signal) {
		log.Warnf("%s trapped", sig)
		cancel()
	})
	cfg, err := env.ParseConfigFromEnv()
	if err != nil {
		return err
	}
	rank, _ := cfg.InitPeers.Rank(cfg.Self)
	def, err := graph.LoadNetDef(o.graphFile)
	if err != nil {
		return err
	}
	if err := configure(def, o, rank); err != nil {
		return err
	}
	p, err := peer.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	ws := graph.NewWorkspace()
	defer ws.Close()
	collective.BindFactory(ws, collective.NewPeerFactory(p))
	net, err := graph.NewNet(def, ws)
	if err != nil {
		return err
	}
	d, err := utils.Measure(func() error { return net.Run(ctx) })
	if err != nil {
		return err
	}
	log.Infof("net %q finished at rank %s, took %s", net.Name(), cfg.Rank(), d)
	for _, name := range o.prints {
		x, err := ws.Tensor(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %s\n", name, x)
	}
	return nil
}

// Main runs kungfu-graph-run with args and exits non-zero on failure.
func Main(args []string) {
	cmd := NewCommand(os.Stdout)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		log.Exitf("kungfu-graph-run: %v", err)
	}
}
