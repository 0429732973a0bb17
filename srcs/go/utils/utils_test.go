package utils

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Poll_OK(t *testing.T) {
	var n int
	f := func() bool {
		n++
		return n > 3
	}
	failed, ok := Poll(context.TODO(), f)
	require.True(t, ok)
	assert.Equal(t, 3, failed)
}

func Test_Poll_Fail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.TODO())
	var n int
	f := func() bool {
		n++
		if n == 2 {
			cancel()
		}
		return n > 3
	}
	failed, ok := Poll(ctx, f)
	require.False(t, ok)
	assert.Equal(t, 2, failed)
}

func Test_MergeErrors(t *testing.T) {
	assert.NoError(t, MergeErrors([]error{nil, nil}, "par"))

	errA := errors.New("a")
	err := MergeErrors([]error{nil, errA}, "par")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errA))

	err = MergeErrors([]error{errA, errors.New("b")}, "par")
	require.Error(t, err)
	assert.Equal(t, "par failed with 2 errors (others: b): a", err.Error())
	assert.True(t, errors.Is(err, errA))
}
