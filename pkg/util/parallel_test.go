package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelVisitsEveryInput(t *testing.T) {
	var sum atomic.Int64
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), sum.Load())
}

func TestParallelJoinsAllErrors(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	var visited atomic.Int32

	err := Parallel(context.Background(), []string{"a", "b", "c"}, 0, func(_ context.Context, s string) error {
		visited.Add(1)
		switch s {
		case "a":
			return errA
		case "c":
			return errC
		}
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.Equal(t, int32(3), visited.Load())
}

func TestParallelEmpty(t *testing.T) {
	called := false
	err := Parallel(context.Background(), nil, 4, func(context.Context, int) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}
