// Package tensor provides a shaped, typed tensor over a contiguous base.Vector.
package tensor

import (
	"fmt"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/pkg/errors"
)

type Tensor struct {
	shape Shape
	data  *base.Vector
}

// New allocates a zero tensor of dtype and dims.
func New(dtype base.DataType, dims ...int) (*Tensor, error) {
	shape, err := NewShape(dims...)
	if err != nil {
		return nil, err
	}
	return &Tensor{
		shape: shape,
		data:  base.NewVector(shape.Size(), dtype),
	}, nil
}

// FromVector wraps v with shape. The size of shape must equal the count of v.
func FromVector(v *base.Vector, shape Shape) (*Tensor, error) {
	if shape.Size() != v.Count {
		return nil, errors.Wrapf(ErrInvalidShape, "%s for %d elements", shape, v.Count)
	}
	return &Tensor{shape: shape, data: v}, nil
}

// NewLike allocates a zero tensor of the same dtype and shape as t.
func NewLike(t *Tensor) *Tensor {
	return &Tensor{
		shape: t.shape,
		data:  base.NewVector(t.shape.Size(), t.data.Type),
	}
}

func (t *Tensor) Shape() Shape {
	return t.shape
}

func (t *Tensor) Dims() []int {
	return t.shape.Dims()
}

func (t *Tensor) Size() int {
	return t.data.Count
}

func (t *Tensor) Rank() int {
	return t.shape.Rank()
}

func (t *Tensor) Dim(i int) int {
	return t.shape.Dim(i)
}

func (t *Tensor) DType() base.DataType {
	return t.data.Type
}

// Vector returns the backing buffer.
func (t *Tensor) Vector() *base.Vector {
	return t.data
}

func (t *Tensor) Float64At(i int) float64 {
	return t.data.Float64At(i)
}

func (t *Tensor) SetFloat64(i int, x float64) {
	t.data.SetFloat64(i, x)
}

func (t *Tensor) Fill(x float64) {
	for i := 0; i < t.data.Count; i++ {
		t.data.SetFloat64(i, x)
	}
}

func (t *Tensor) Float32s() []float32 {
	return t.data.AsF32()
}

func (t *Tensor) Float64s() []float64 {
	return t.data.AsF64()
}

// Float64Values returns all elements converted to float64.
func (t *Tensor) Float64Values() []float64 {
	xs := make([]float64, t.data.Count)
	for i := range xs {
		xs[i] = t.data.Float64At(i)
	}
	return xs
}

// Slice returns the rows [i, j) of the leading dimension, sharing storage with t.
func (t *Tensor) Slice(i, j int) *Tensor {
	subShape := t.shape.SubShape()
	shape := Shape{dims: append([]int{j - i}, subShape.dims...)}
	m := subShape.Size()
	return &Tensor{
		shape: shape,
		data:  t.data.Slice(m*i, m*j),
	}
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{shape: t.shape, data: t.data.Clone()}
}

// SameLayout reports whether u has the dtype and shape of t.
func (t *Tensor) SameLayout(u *Tensor) bool {
	return t.data.Type == u.data.Type && t.shape.Eq(u.shape)
}

func (t *Tensor) Info() string {
	return fmt.Sprintf("%s%s", t.data.Type, t.shape)
}

func (t *Tensor) String() string {
	const limit = 8
	xs := t.Float64Values()
	if len(xs) > limit {
		return fmt.Sprintf("%s%v...", t.Info(), xs[:limit])
	}
	return fmt.Sprintf("%s%v", t.Info(), xs)
}
