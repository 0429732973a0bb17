// Package proc describes a worker process and how to start it locally or through a shell.
package proc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type Envs map[string]string

func (e Envs) AddIfMissing(k, v string) {
	if _, ok := e[k]; !ok {
		e[k] = v
	}
}

// Merge returns the union of e and f. Values of f take precedence.
func Merge(e, f Envs) Envs {
	g := make(Envs)
	for k, v := range e {
		g[k] = v
	}
	for k, v := range f {
		g[k] = v
	}
	return g
}

func (e Envs) keys() []string {
	var ks []string
	for k := range e {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// Proc represents a worker process.
type Proc struct {
	Name     string
	Prog     string
	Args     []string
	Envs     Envs
	Hostname string // public address of the host the process runs on
	LogDir   string
}

// Cmd returns the command running p on this host. It is killed when ctx is done.
func (p Proc) Cmd(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, p.Prog, p.Args...)
	cmd.Env = updatedEnvFrom(p.Envs, os.Environ())
	return cmd
}

// Script returns the shell command running p, for remote hosts.
func (p Proc) Script() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "env")
	for _, k := range p.Envs.keys() {
		fmt.Fprintf(buf, " %s=%s", k, quote(p.Envs[k]))
	}
	fmt.Fprintf(buf, " %s", quote(p.Prog))
	for _, a := range p.Args {
		fmt.Fprintf(buf, " %s", quote(a))
	}
	return buf.String()
}

func quote(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `'\''`) + `'`
}

func parseEnv(kvs []string) Envs {
	envs := make(Envs)
	for _, kv := range kvs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envs[k] = v
		}
	}
	return envs
}

func updatedEnvFrom(newValues Envs, oldEnvs []string) []string {
	envs := Merge(parseEnv(oldEnvs), newValues)
	var kvs []string
	for _, k := range envs.keys() {
		kvs = append(kvs, k+"="+envs[k])
	}
	return kvs
}
