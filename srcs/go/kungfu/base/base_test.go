package base

import (
	"testing"

	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func Test_Transform(t *testing.T) {
	for _, dtype := range []DataType{U8, I32, I64, F16, F32, F64} {
		x := NewVector(4, dtype)
		y := NewVector(4, dtype)
		for i := 0; i < 4; i++ {
			x.SetFloat64(i, float64(i+1))
			y.SetFloat64(i, 2)
		}
		cases := map[OP][]float64{
			SUM:  {3, 4, 5, 6},
			MIN:  {1, 2, 2, 2},
			MAX:  {2, 2, 3, 4},
			PROD: {2, 4, 6, 8},
		}
		for op, want := range cases {
			z := NewVector(4, dtype)
			Transform2(z, x, y, op)
			for i, w := range want {
				assert.Equalf(t, w, z.Float64At(i), "%s %s at %d", dtype, op, i)
			}
		}
	}
}

func Test_Transform_inplace(t *testing.T) {
	x := NewVector(3, F32)
	y := NewVector(3, F32)
	copy(x.AsF32(), []float32{1, 2, 3})
	copy(y.AsF32(), []float32{10, 20, 30})
	Transform(y, x, SUM)
	assert.Equal(t, []float32{11, 22, 33}, y.AsF32())
}

func Test_Vector_F16(t *testing.T) {
	v := NewVector(2, F16)
	v.SetFloat64(0, 1.5)
	assert.Equal(t, float16.Fromfloat32(1.5), v.AsF16()[0])
	assert.Equal(t, 1.5, v.Float64At(0))
	assert.Len(t, v.Data, 4)
}

func Test_Vector_CopyFrom(t *testing.T) {
	a := NewVector(2, F32)
	b := NewVector(3, F32)
	assert.Error(t, a.CopyFrom(b))
	c := NewVector(2, F64)
	assert.Error(t, a.CopyFrom(c))
	d := NewVector(2, F32)
	d.AsF32()[1] = 7
	require.NoError(t, a.CopyFrom(d))
	assert.Equal(t, []float32{0, 7}, a.AsF32())
	assert.False(t, a.Same(d))
	assert.True(t, a.Same(a.Slice(0, 1)))
}

func Test_Workspace_Split(t *testing.T) {
	x := NewVector(10, F32)
	y := NewVector(10, F32)
	w := Workspace{SendBuf: x, RecvBuf: y, OP: SUM, Name: "w"}
	parts := w.Split(plan.EvenPartition, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, 4, parts[0].SendBuf.Count)
	assert.Equal(t, 3, parts[2].RecvBuf.Count)
	assert.Equal(t, "w[7:10]", parts[2].Name)
	assert.False(t, w.IsInplace())
	assert.True(t, Workspace{SendBuf: x, RecvBuf: x}.IsInplace())
}

func Test_ParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStrategy, s)
	s, err = ParseStrategy("RING")
	require.NoError(t, err)
	assert.Equal(t, Ring, s)
	_, err = ParseStrategy("MESH")
	assert.Error(t, err)
}
