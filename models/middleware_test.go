package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPipeline(t *testing.T) {
	t.Run("applies middleware in registration order", func(t *testing.T) {
		var order []string
		pipeline := []Middleware{
			{Name: "first", Fn: func(ctx context.Context, op *UserOperation) error {
				order = append(order, "first")
				return nil
			}},
			{Name: "second", Fn: func(ctx context.Context, op *UserOperation) error {
				order = append(order, "second")
				return nil
			}},
			{Name: "third", Fn: func(ctx context.Context, op *UserOperation) error {
				order = append(order, "third")
				return nil
			}},
		}

		err := RunPipeline(context.Background(), &UserOperation{}, pipeline)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, order)
	})

	t.Run("short-circuits on first failure", func(t *testing.T) {
		boom := fmt.Errorf("boom")
		thirdRan := false
		pipeline := []Middleware{
			{Name: "first", Fn: func(ctx context.Context, op *UserOperation) error {
				return nil
			}},
			{Name: "second", Fn: func(ctx context.Context, op *UserOperation) error {
				return boom
			}},
			{Name: "third", Fn: func(ctx context.Context, op *UserOperation) error {
				thirdRan = true
				return nil
			}},
		}

		err := RunPipeline(context.Background(), &UserOperation{}, pipeline)
		require.Error(t, err)
		assert.False(t, thirdRan)

		var mwErr *MiddlewareError
		require.True(t, errors.As(err, &mwErr))
		assert.Equal(t, "second", mwErr.Name)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "second")
	})

	t.Run("empty pipeline is a no-op", func(t *testing.T) {
		err := RunPipeline(context.Background(), &UserOperation{}, nil)
		require.NoError(t, err)
	})

	t.Run("steps see earlier mutations", func(t *testing.T) {
		op := &UserOperation{}
		pipeline := []Middleware{
			{Name: "set", Fn: func(ctx context.Context, op *UserOperation) error {
				op.CallData = []byte{0x01}
				return nil
			}},
			{Name: "check", Fn: func(ctx context.Context, op *UserOperation) error {
				if len(op.CallData) == 0 {
					return fmt.Errorf("call data not set")
				}
				return nil
			}},
		}

		require.NoError(t, RunPipeline(context.Background(), op, pipeline))
	})
}
