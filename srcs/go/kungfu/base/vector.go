package base

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/x448/float16"
)

// Vector is a contiguous buffer of Count elements of Type.
type Vector struct {
	Data  []byte
	Count int
	Type  DataType
}

func NewVector(count int, dtype DataType) *Vector {
	return &Vector{
		Data:  make([]byte, count*dtype.Size()),
		Count: count,
		Type:  dtype,
	}
}

// Slice returns a new Vector that points to a subset of the original Vector.
// 0 <= begin <= end <= count
func (b *Vector) Slice(begin, end int) *Vector {
	return &Vector{
		Data:  b.Data[begin*b.Type.Size() : end*b.Type.Size()],
		Count: end - begin,
		Type:  b.Type,
	}
}

// Clone returns a deep copy of b.
func (b *Vector) Clone() *Vector {
	c := NewVector(b.Count, b.Type)
	copy(c.Data, b.Data)
	return c
}

func (b *Vector) CopyFrom(c *Vector) error {
	if b.Count != c.Count {
		return errors.Errorf("Vector::Copy error: inconsistent count: %d vs %d", b.Count, c.Count)
	}
	if b.Type != c.Type {
		return errors.Errorf("Vector::Copy error: inconsistent type: %s vs %s", b.Type, c.Type)
	}
	copy(b.Data, c.Data)
	return nil
}

// Same reports whether b and c share the same backing storage.
func (b *Vector) Same(c *Vector) bool {
	if len(b.Data) == 0 || len(c.Data) == 0 {
		return len(b.Data) == len(c.Data)
	}
	return &b.Data[0] == &c.Data[0]
}

func asSlice[T any](b *Vector, dtype DataType) []T {
	if b.Type != dtype {
		panic(errors.Errorf("vector of %s used as %s", b.Type, dtype))
	}
	if b.Count == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.Data[0])), b.Count)
}

func (b *Vector) AsU8() []uint8 {
	return asSlice[uint8](b, U8)
}

func (b *Vector) AsI32() []int32 {
	return asSlice[int32](b, I32)
}

func (b *Vector) AsI64() []int64 {
	return asSlice[int64](b, I64)
}

func (b *Vector) AsF16() []float16.Float16 {
	return asSlice[float16.Float16](b, F16)
}

func (b *Vector) AsF32() []float32 {
	return asSlice[float32](b, F32)
}

func (b *Vector) AsF64() []float64 {
	return asSlice[float64](b, F64)
}

// Float64At returns the i-th element converted to float64.
func (b *Vector) Float64At(i int) float64 {
	switch b.Type {
	case U8:
		return float64(b.AsU8()[i])
	case I32:
		return float64(b.AsI32()[i])
	case I64:
		return float64(b.AsI64()[i])
	case F16:
		return float64(b.AsF16()[i].Float32())
	case F32:
		return float64(b.AsF32()[i])
	case F64:
		return b.AsF64()[i]
	}
	panic(errInvalidDataType)
}

// SetFloat64 stores x, converted to the element type, at position i.
func (b *Vector) SetFloat64(i int, x float64) {
	switch b.Type {
	case U8:
		b.AsU8()[i] = uint8(x)
	case I32:
		b.AsI32()[i] = int32(x)
	case I64:
		b.AsI64()[i] = int64(x)
	case F16:
		b.AsF16()[i] = float16.Fromfloat32(float32(x))
	case F32:
		b.AsF32()[i] = float32(x)
	case F64:
		b.AsF64()[i] = x
	default:
		panic(errInvalidDataType)
	}
}
