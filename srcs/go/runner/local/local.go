// Package local runs the worker processes of this host.
package local

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/iostream"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/proc"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	name       string
	logDir     string
	verboseLog bool
}

func (r *Runner) SetName(name string) {
	r.name = name
}

func (r *Runner) SetVerbose(verbose bool) {
	r.verboseLog = verbose
}

func (r *Runner) SetLogDir(dir string) {
	r.logDir = dir
}

// Run starts cmd and waits for it and its output streams.
func (r Runner) Run(cmd *exec.Cmd) error {
	var wg sync.WaitGroup
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	wg.Add(2)
	go func() { r.streamPipe("stdout", stdout); wg.Done() }()
	go func() { r.streamPipe("stderr", stderr); wg.Done() }()
	if err := cmd.Start(); err != nil {
		return err
	}
	wg.Wait() // before cmd.Wait()
	return cmd.Wait()
}

func (r Runner) streamPipe(name string, in io.Reader) {
	var ws []io.Writer
	if r.verboseLog {
		ws = append(ws, iostream.PrefixWriter{Prefix: r.name + "::" + name, W: os.Stderr})
	}
	if len(r.logDir) > 0 {
		filename := strings.ReplaceAll(r.name, "/", "-") + "." + name + ".log"
		f := iostream.NewLazyFile(filepath.Join(r.logDir, filename))
		defer f.Close()
		ws = append(ws, f)
	}
	if err := iostream.Tee(in, ws...); err != nil {
		log.Warnf("%s::%s: %v", r.name, name, err)
	}
}

// RunAll runs ps concurrently. The first failure kills the others.
func RunAll(ctx context.Context, ps []proc.Proc, verboseLog bool) error {
	g, ctx := errgroup.WithContext(ctx)
	errs := make([]error, len(ps))
	for i, p := range ps {
		i, p := i, p
		g.Go(func() error {
			r := &Runner{name: p.Name, logDir: p.LogDir, verboseLog: verboseLog}
			t0 := time.Now()
			if err := r.Run(p.Cmd(ctx)); err != nil {
				log.Errorf("#<%s> exited with error: %v, took %s", p.Name, err, time.Since(t0))
				errs[i] = err
				return err
			}
			log.Infof("#<%s> finished successfully, took %s", p.Name, time.Since(t0))
			return nil
		})
	}
	g.Wait()
	return utils.MergeErrors(errs, "run local peers")
}
