package collective

import (
	"context"

	"github.com/lsds/kungfu-graph/srcs/go/graph"
	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/tensor"
	"github.com/pkg/errors"
)

func init() {
	for _, names := range [][2]string{
		{"CreateCommonWorld", "MPICreateCommonWorld"},
		{"Broadcast", "MPIBroadcast"},
		{"Reduce", "MPIReduce"},
		{"AllGather", "MPIAllgather"},
		{"AllReduce", "MPIAllreduce"},
	} {
		ctor := constructors[names[0]]
		graph.Register(names[0], ctor)
		graph.Register(names[1], ctor)
	}
}

var constructors = map[string]graph.Constructor{
	"CreateCommonWorld": newCreateCommonWorld,
	"Broadcast":         newBroadcast,
	"Reduce":            newReduce,
	"AllGather":         newAllGather,
	"AllReduce":         newAllReduce,
}

// CreateCommonWorld creates the group of all processes from the bound factory
// and binds it to its output.
type CreateCommonWorld struct {
	graph.Base
	*stateMachine
}

func newCreateCommonWorld(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	if err := graph.CheckArity(def, 0, 0, 1); err != nil {
		return nil, err
	}
	return &CreateCommonWorld{
		Base:         graph.NewBase(def, ws),
		stateMachine: &stateMachine{name: def.DisplayName()},
	}, nil
}

func (op *CreateCommonWorld) CreatesGroup() {}

func (op *CreateCommonWorld) Run(ctx context.Context) error {
	if err := op.start(); err != nil {
		return err
	}
	f, err := factoryFrom(op.Workspace())
	if err != nil {
		return op.finish(err)
	}
	g, err := f.CreateGroup(ctx)
	if err != nil {
		return op.finish(err)
	}
	log.Infof("group %s: rank %d of %d", g.ID(), g.Rank(), g.Size())
	op.Workspace().Set(op.Def().Output[0], g)
	return op.finish(nil)
}

// collective holds what the data collectives share: inputs [group, X], output [Y].
// Y may name X, then X is updated in place once the exchange has completed.
type collective struct {
	graph.Base
	*stateMachine
}

func newCollective(def *graph.OperatorDef, ws *graph.Workspace) (collective, error) {
	if err := graph.CheckArity(def, 2, 2, 1); err != nil {
		return collective{}, err
	}
	return collective{
		Base:         graph.NewBase(def, ws),
		stateMachine: &stateMachine{name: def.DisplayName()},
	}, nil
}

func (c *collective) GroupInput() string {
	return c.Def().Input[0]
}

func (c *collective) inplace() bool {
	return c.Def().Output[0] == c.Def().Input[1]
}

// prepare moves to WaitingForPeers and reads the group and X.
func (c *collective) prepare(ctx context.Context) (Group, *tensor.Tensor, error) {
	if err := c.start(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, c.finish(err)
	}
	ws := c.Workspace()
	g, err := groupFrom(ws, c.GroupInput())
	if err != nil {
		return nil, nil, c.finish(err)
	}
	x, err := ws.Tensor(c.Def().Input[1])
	if err != nil {
		return nil, nil, c.finish(err)
	}
	return g, x, nil
}

func (c *collective) workspace(x, y *tensor.Tensor, op kb.OP) kb.Workspace {
	return kb.Workspace{
		SendBuf:    x.Vector(),
		RecvBuf:    y.Vector(),
		OP:         op,
		OnExchange: c.exchanging,
	}
}

// commit binds y to the output, or copies it into x when in place.
func (c *collective) commit(x, y *tensor.Tensor) error {
	if c.inplace() && x.SameLayout(y) {
		if err := x.Vector().CopyFrom(y.Vector()); err != nil {
			return c.finish(err)
		}
		return c.finish(nil)
	}
	c.Workspace().Set(c.Def().Output[0], y)
	return c.finish(nil)
}

func checkRoot(g Group, root int) error {
	if root < 0 || root >= g.Size() {
		return errors.Wrapf(ErrInvalidRoot, "%d not in [0, %d)", root, g.Size())
	}
	return nil
}

func rootArg(def *graph.OperatorDef) (int, error) {
	root, err := graph.Args(def).Int("root", 0)
	if err != nil {
		return 0, err
	}
	if root < 0 {
		return 0, errors.Wrapf(ErrInvalidRoot, "%d", root)
	}
	return root, nil
}

func opArg(def *graph.OperatorDef) (kb.OP, error) {
	name, err := graph.Args(def).String("op", kb.SUM.String())
	if err != nil {
		return 0, err
	}
	op, err := kb.ParseOP(name)
	if err != nil {
		return 0, errors.Wrapf(graph.ErrInvalidArgument, "op: %v", err)
	}
	return op, nil
}

// Broadcast binds X of the root to Y of every process.
type Broadcast struct {
	collective
	root int
}

func newBroadcast(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	c, err := newCollective(def, ws)
	if err != nil {
		return nil, err
	}
	root, err := rootArg(def)
	if err != nil {
		return nil, err
	}
	return &Broadcast{collective: c, root: root}, nil
}

func (op *Broadcast) Run(ctx context.Context) error {
	g, x, err := op.prepare(ctx)
	if err != nil {
		return err
	}
	if err := checkRoot(g, op.root); err != nil {
		return op.finish(err)
	}
	y := tensor.NewLike(x)
	if err := g.Broadcast(op.workspace(x, y, kb.SUM), op.root); err != nil {
		return op.finish(err)
	}
	return op.commit(x, y)
}

// Reduce binds the reduction of X over all processes to Y of the root.
// Y of other processes holds partial results.
type Reduce struct {
	collective
	root int
	op   kb.OP
}

func newReduce(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	c, err := newCollective(def, ws)
	if err != nil {
		return nil, err
	}
	root, err := rootArg(def)
	if err != nil {
		return nil, err
	}
	op, err := opArg(def)
	if err != nil {
		return nil, err
	}
	return &Reduce{collective: c, root: root, op: op}, nil
}

func (op *Reduce) Run(ctx context.Context) error {
	g, x, err := op.prepare(ctx)
	if err != nil {
		return err
	}
	if err := checkRoot(g, op.root); err != nil {
		return op.finish(err)
	}
	y := tensor.NewLike(x)
	if err := g.Reduce(op.workspace(x, y, op.op), op.root); err != nil {
		return op.finish(err)
	}
	return op.commit(x, y)
}

// AllGather binds the concatenation of X of all processes along the first
// dimension, in rank order, to Y.
type AllGather struct {
	collective
}

func newAllGather(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	c, err := newCollective(def, ws)
	if err != nil {
		return nil, err
	}
	return &AllGather{collective: c}, nil
}

func gatheredDims(x *tensor.Tensor, size int) []int {
	dims := x.Dims()
	if len(dims) == 0 {
		return []int{size}
	}
	dims[0] *= size
	return dims
}

func (op *AllGather) Run(ctx context.Context) error {
	g, x, err := op.prepare(ctx)
	if err != nil {
		return err
	}
	y, err := tensor.New(x.DType(), gatheredDims(x, g.Size())...)
	if err != nil {
		return op.finish(err)
	}
	if err := g.AllGather(op.workspace(x, y, kb.SUM)); err != nil {
		return op.finish(err)
	}
	return op.commit(x, y)
}

// AllReduce binds the reduction of X over all processes to Y of every process.
type AllReduce struct {
	collective
	op kb.OP
}

func newAllReduce(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	c, err := newCollective(def, ws)
	if err != nil {
		return nil, err
	}
	op, err := opArg(def)
	if err != nil {
		return nil, err
	}
	return &AllReduce{collective: c, op: op}, nil
}

func (op *AllReduce) Run(ctx context.Context) error {
	g, x, err := op.prepare(ctx)
	if err != nil {
		return err
	}
	y := tensor.NewLike(x)
	if err := g.AllReduce(op.workspace(x, y, op.op)); err != nil {
		return op.finish(err)
	}
	return op.commit(x, y)
}
