package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/pkg/errors"
)

var (
	ErrUnknownType    = errors.New("unknown operator type")
	ErrDanglingInput  = errors.New("input is neither produced earlier nor in workspace")
	ErrReservedOutput = errors.New("output uses a reserved name")
	ErrDuplicateGroup = errors.New("group created more than once")
	ErrNoGroup        = errors.New("group input is not a group")
	ErrNoFactory      = errors.New("no group factory bound in workspace")
	ErrAlreadyRan     = errors.New("net already ran")
)

// BuildError is returned by NewNet for the first invalid operator.
type BuildError struct {
	Index int
	Type  string
	Name  string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build operator #%d %s (%s): %v", e.Index, e.Type, e.Name, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// RunError is returned by Run for the first failing operator.
type RunError struct {
	Index int
	Type  string
	Name  string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run operator #%d %s (%s): %v", e.Index, e.Type, e.Name, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Net executes the operators of a NetDef in order over one workspace.
type Net struct {
	name string
	ws   *Workspace
	ops  []Operator
	ran  bool
}

// NewNet validates def against ws and constructs its operators.
func NewNet(def *NetDef, ws *Workspace) (*Net, error) {
	available := make(map[string]bool)
	for _, name := range ws.Names() {
		available[name] = true
	}
	groups := make(map[string]bool)
	var creator bool
	var ops []Operator
	for i, opDef := range def.Op {
		fail := func(err error) (*Net, error) {
			return nil, &BuildError{Index: i, Type: opDef.Type, Name: opDef.DisplayName(), Err: err}
		}
		ctor, ok := lookup(opDef.Type)
		if !ok {
			return fail(ErrUnknownType)
		}
		for _, in := range opDef.Input {
			if !available[in] {
				return fail(errors.Wrapf(ErrDanglingInput, "%q", in))
			}
		}
		for _, out := range opDef.Output {
			if IsReserved(out) {
				return fail(errors.Wrapf(ErrReservedOutput, "%q", out))
			}
		}
		op, err := ctor(opDef, ws)
		if err != nil {
			return fail(err)
		}
		if _, ok := op.(GroupCreator); ok {
			if creator {
				return fail(ErrDuplicateGroup)
			}
			if !ws.Has(GroupFactoryBlob) {
				return fail(ErrNoFactory)
			}
			creator = true
			if len(opDef.Output) > 0 {
				groups[opDef.Output[0]] = true
			}
		}
		if c, ok := op.(Collective); ok {
			if g := c.GroupInput(); !groups[g] && !isGroupHandle(ws, g) {
				return fail(errors.Wrapf(ErrNoGroup, "%q", g))
			}
		}
		for _, out := range opDef.Output {
			available[out] = true
			if _, ok := op.(GroupCreator); !ok {
				delete(groups, out)
			}
		}
		ops = append(ops, op)
	}
	log.Debugf("net %q built with %d operators", def.Name, len(ops))
	return &Net{name: def.Name, ws: ws, ops: ops}, nil
}

func isGroupHandle(ws *Workspace, name string) bool {
	v, ok := ws.Get(name)
	if !ok {
		return false
	}
	_, ok = v.(GroupHandle)
	return ok
}

func (n *Net) Name() string {
	return n.name
}

func (n *Net) Operators() []Operator {
	return n.ops
}

// Run executes the operators in order and stops at the first failure.
// Effects of operators that completed are kept.
func (n *Net) Run(ctx context.Context) error {
	if n.ran {
		return ErrAlreadyRan
	}
	n.ran = true
	t0 := time.Now()
	for i, op := range n.ops {
		def := op.Def()
		t1 := time.Now()
		if err := op.Run(ctx); err != nil {
			log.Errorf("net %q: operator #%d %s failed: %v", n.name, i, def.Type, err)
			return &RunError{Index: i, Type: def.Type, Name: def.DisplayName(), Err: err}
		}
		log.Debugf("net %q: operator #%d %s took %s", n.name, i, def.Type, time.Since(t1))
	}
	log.Debugf("net %q: %d operators took %s", n.name, len(n.ops), time.Since(t0))
	return nil
}
