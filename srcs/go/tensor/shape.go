package tensor

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

type Shape struct {
	dims []int
}

var ErrInvalidShape = errors.New("invalid shape")

// NewShape returns the shape of dims. Every dim must be positive.
func NewShape(dims ...int) (Shape, error) {
	for _, d := range dims {
		if d <= 0 {
			return Shape{}, errors.Wrapf(ErrInvalidShape, "%v", dims)
		}
	}
	return Shape{dims: append([]int(nil), dims...)}, nil
}

func (s Shape) Size() int {
	d := 1
	for _, dim := range s.dims {
		d *= dim
	}
	return d
}

func (s Shape) Rank() int {
	return len(s.dims)
}

// Dims returns a copy of the dimensions.
func (s Shape) Dims() []int {
	return append([]int(nil), s.dims...)
}

func (s Shape) Dim(i int) int {
	return s.dims[i]
}

func (s Shape) SubShape() Shape {
	return Shape{dims: s.dims[1:]}
}

func (s Shape) Eq(t Shape) bool {
	if len(s.dims) != len(t.dims) {
		return false
	}
	for i, d := range s.dims {
		if d != t.dims[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	b := &bytes.Buffer{}
	fmt.Fprintf(b, "(")
	for i, d := range s.dims {
		if i > 0 {
			fmt.Fprintf(b, ",")
		}
		fmt.Fprintf(b, "%d", d)
	}
	fmt.Fprintf(b, ")")
	return b.String()
}
