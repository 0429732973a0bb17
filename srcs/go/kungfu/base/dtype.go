package base

import "github.com/pkg/errors"

type DataType uint8

const (
	U8 DataType = iota
	I32
	I64
	F16
	F32
	F64
)

var dtypeSizes = map[DataType]int{
	U8:  1,
	I32: 4,
	I64: 8,
	F16: 2,
	F32: 4,
	F64: 8,
}

var dtypeNames = map[DataType]string{
	U8:  "u8",
	I32: "i32",
	I64: "i64",
	F16: "f16",
	F32: "f32",
	F64: "f64",
}

func (t DataType) Size() int {
	return dtypeSizes[t]
}

func (t DataType) String() string {
	if name, ok := dtypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// IsFloat reports whether tensors of this type can be held by a graph workspace.
func (t DataType) IsFloat() bool {
	return t == F16 || t == F32 || t == F64
}

var errInvalidDataType = errors.New("invalid data type")

func ParseDataType(name string) (DataType, error) {
	for t, s := range dtypeNames {
		if s == name {
			return t, nil
		}
	}
	return 0, errors.Wrapf(errInvalidDataType, "%q", name)
}
