// Package ops implements the local operators: ConstantFill, Copy and Sum.
package ops

import (
	"context"

	"github.com/lsds/kungfu-graph/srcs/go/graph"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/tensor"
	"github.com/pkg/errors"
)

func init() {
	graph.Register("ConstantFill", newConstantFill)
	graph.Register("Copy", newCopy)
	graph.Register("Sum", newSum)
}

// ConstantFill binds a new tensor of arg shape filled with arg value to its output.
type ConstantFill struct {
	graph.Base
	dtype base.DataType
	dims  []int
	value float64
}

func newConstantFill(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	if err := graph.CheckArity(def, 0, 0, 1); err != nil {
		return nil, err
	}
	args := graph.Args(def)
	dims, err := args.Ints("shape")
	if err != nil {
		return nil, err
	}
	if _, err := tensor.NewShape(dims...); err != nil {
		return nil, err
	}
	value, err := args.Float("value", 0)
	if err != nil {
		return nil, err
	}
	name, err := args.String("dtype", base.F32.String())
	if err != nil {
		return nil, err
	}
	dtype, err := base.ParseDataType(name)
	if err != nil {
		return nil, err
	}
	if !dtype.IsFloat() {
		return nil, errors.Wrapf(graph.ErrInvalidArgument, "dtype %s is not a floating point type", dtype)
	}
	return &ConstantFill{
		Base:  graph.NewBase(def, ws),
		dtype: dtype,
		dims:  dims,
		value: value,
	}, nil
}

func (op *ConstantFill) Run(ctx context.Context) error {
	t, err := tensor.New(op.dtype, op.dims...)
	if err != nil {
		return err
	}
	t.Fill(op.value)
	op.Workspace().Set(op.Def().Output[0], t)
	return nil
}

// Copy binds a deep copy of its input to its output.
type Copy struct {
	graph.Base
}

func newCopy(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	if err := graph.CheckArity(def, 1, 1, 1); err != nil {
		return nil, err
	}
	return &Copy{Base: graph.NewBase(def, ws)}, nil
}

func (op *Copy) Run(ctx context.Context) error {
	ws := op.Workspace()
	x, err := ws.Tensor(op.Def().Input[0])
	if err != nil {
		return err
	}
	ws.Set(op.Def().Output[0], x.Clone())
	return nil
}

// Sum binds the element-wise sum of its inputs to its output.
// The output may be one of the inputs.
type Sum struct {
	graph.Base
}

func newSum(def *graph.OperatorDef, ws *graph.Workspace) (graph.Operator, error) {
	if err := graph.CheckArity(def, 1, -1, 1); err != nil {
		return nil, err
	}
	return &Sum{Base: graph.NewBase(def, ws)}, nil
}

var errLayoutMismatch = errors.New("inputs differ in dtype or shape")

func (op *Sum) Run(ctx context.Context) error {
	ws := op.Workspace()
	var xs []*tensor.Tensor
	for _, name := range op.Def().Input {
		x, err := ws.Tensor(name)
		if err != nil {
			return err
		}
		if len(xs) > 0 && !xs[0].SameLayout(x) {
			return errors.Wrapf(errLayoutMismatch, "%s %s vs %s", name, x.Info(), xs[0].Info())
		}
		xs = append(xs, x)
	}
	y := xs[0].Clone()
	for _, x := range xs[1:] {
		base.Transform(y.Vector(), x.Vector(), base.SUM)
	}
	ws.Set(op.Def().Output[0], y)
	return nil
}
