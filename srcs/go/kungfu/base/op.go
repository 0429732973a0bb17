package base

import (
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"gonum.org/v1/gonum/floats"
)

type OP uint8

const (
	SUM OP = iota
	MIN
	MAX
	PROD
)

var opNames = map[OP]string{
	SUM:  "SUM",
	MIN:  "MIN",
	MAX:  "MAX",
	PROD: "PROD",
}

func (o OP) String() string {
	return opNames[o]
}

var errInvalidOP = errors.New("invalid reduce op")

func ParseOP(name string) (OP, error) {
	for o, s := range opNames {
		if s == name {
			return o, nil
		}
	}
	return 0, errors.Wrapf(errInvalidOP, "%q", name)
}

type number interface {
	~uint8 | ~int32 | ~int64 | ~float32 | ~float64
}

func apply[T number](op OP) func(x, y T) T {
	switch op {
	case MIN:
		return func(x, y T) T { return min(x, y) }
	case MAX:
		return func(x, y T) T { return max(x, y) }
	case PROD:
		return func(x, y T) T { return x * y }
	}
	return func(x, y T) T { return x + y }
}

func transform[T number](z, x, y []T, op OP) {
	f := apply[T](op)
	for i := range z {
		z[i] = f(x[i], y[i])
	}
}

func transformF16(z, x, y []float16.Float16, op OP) {
	f := apply[float32](op)
	for i := range z {
		z[i] = float16.Fromfloat32(f(x[i].Float32(), y[i].Float32()))
	}
}

func transformF64(z, x, y []float64, op OP) {
	switch op {
	case SUM:
		floats.AddTo(z, x, y)
	case PROD:
		floats.MulTo(z, x, y)
	default:
		transform(z, x, y, op)
	}
}

// Transform performs y[i] = y[i] op x[i] for vectors y and x.
func Transform(y, x *Vector, op OP) {
	Transform2(y, x, y, op)
}

// Transform2 performs z[i] = x[i] op y[i] for vectors z and x, y.
// The three vectors must have the same Count and Type; z may alias x or y.
func Transform2(z, x, y *Vector, op OP) {
	if z.Count == 0 {
		return
	}
	switch z.Type {
	case U8:
		transform(z.AsU8(), x.AsU8(), y.AsU8(), op)
	case I32:
		transform(z.AsI32(), x.AsI32(), y.AsI32(), op)
	case I64:
		transform(z.AsI64(), x.AsI64(), y.AsI64(), op)
	case F16:
		transformF16(z.AsF16(), x.AsF16(), y.AsF16(), op)
	case F32:
		transform(z.AsF32(), x.AsF32(), y.AsF32(), op)
	case F64:
		transformF64(z.AsF64(), x.AsF64(), y.AsF64(), op)
	default:
		panic(errInvalidDataType)
	}
}
