// Package remote runs worker processes on other hosts over SSH.
package remote

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/iostream"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/proc"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/lsds/kungfu-graph/srcs/go/utils/ssh"
	"golang.org/x/sync/errgroup"
)

// Outputs stores the last lines of stdout and stderr of a process.
type Outputs struct {
	Stdout []string
	Stderr []string
}

func (r *Outputs) SaveTo(prefix string) error {
	var errs []error
	if r.Stdout != nil {
		errs = append(errs, os.WriteFile(prefix+".stdout.log", []byte(strings.Join(r.Stdout, "\n")), 0666))
	}
	if r.Stderr != nil {
		errs = append(errs, os.WriteFile(prefix+".stderr.log", []byte(strings.Join(r.Stderr, "\n")), 0666))
	}
	return utils.MergeErrors(errs, "save outputs")
}

func runOne(ctx context.Context, user string, p proc.Proc, verboseLog bool) (*Outputs, error) {
	client, err := ssh.New(ctx, ssh.Config{Host: p.Hostname, User: user})
	if err != nil {
		return &Outputs{}, err
	}
	defer client.Close()
	outWatcher := iostream.NewStreamWatcher(fmt.Sprintf("%s::stdout", p.Name), verboseLog)
	errWatcher := iostream.NewStreamWatcher(fmt.Sprintf("%s::stderr", p.Name), verboseLog)
	err = client.Watch(ctx, p.Script(), outWatcher.Watch, errWatcher.Watch)
	return &Outputs{Stdout: outWatcher.History(), Stderr: errWatcher.History()}, err
}

// RunAll runs ps on their hosts concurrently. The first failure hangs up the others.
func RunAll(ctx context.Context, user string, ps []proc.Proc, verboseLog bool) ([]*Outputs, error) {
	outputs := make([]*Outputs, len(ps))
	errs := make([]error, len(ps))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range ps {
		i, p := i, p
		g.Go(func() error {
			t0 := time.Now()
			outputs[i], errs[i] = runOne(ctx, user, p, verboseLog)
			if errs[i] != nil {
				log.Errorf("#<%s> on %s exited with error: %v, took %s", p.Name, p.Hostname, errs[i], time.Since(t0))
				return errs[i]
			}
			log.Infof("#<%s> on %s finished successfully, took %s", p.Name, p.Hostname, time.Since(t0))
			return nil
		})
	}
	g.Wait()
	for i, p := range ps {
		if len(p.LogDir) > 0 {
			if err := outputs[i].SaveTo(filepath.Join(p.LogDir, p.Name)); err != nil {
				log.Warnf("#<%s>: %v", p.Name, err)
			}
		}
	}
	return outputs, utils.MergeErrors(errs, "run remote peers")
}
