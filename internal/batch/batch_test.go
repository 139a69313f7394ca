package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Run(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	t.Run("OrderPreserved", func(t *testing.T) {
		p := NewProcessorWithDefaults[int, int]()
		out, err := p.Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
			time.Sleep(time.Duration(10-n) * time.Millisecond)
			return n * n, nil
		})
		require.NoError(t, err)
		require.Len(t, out, len(items))
		for i, o := range out {
			assert.Equal(t, i, o.Index)
			assert.Equal(t, items[i]*items[i], o.Value)
			assert.NoError(t, o.Err)
		}
	})

	t.Run("ConcurrencyBounded", func(t *testing.T) {
		p, err := NewProcessor[int, int](3)
		require.NoError(t, err)

		var inFlight, peak int32
		_, err = p.Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return n, nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, peak, int32(3))
	})

	t.Run("ItemErrorsDoNotStopOthers", func(t *testing.T) {
		p := NewProcessorWithDefaults[int, int]()
		out, err := p.Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
			if n%2 == 0 {
				return 0, errors.New("even")
			}
			return n, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 9, out[8].Value)
		assert.Error(t, out[1].Err)

		joined := Errors(out)
		require.Error(t, joined)
		assert.Contains(t, joined.Error(), "item 1: even")
	})

	t.Run("ProgressCallback", func(t *testing.T) {
		var seen []int
		p := NewProcessorWithDefaults[int, int]().WithProgressCallback(func(s ProgressSnapshot) {
			seen = append(seen, s.ProcessedItems)
		})
		_, err := p.Run(context.Background(), items, func(_ context.Context, n int) (int, error) {
			if n == 3 {
				return 0, errors.New("boom")
			}
			return n, nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p, err := NewProcessor[int, int](1)
		require.NoError(t, err)

		out, err := p.Run(ctx, items, func(_ context.Context, n int) (int, error) {
			if n == 2 {
				cancel()
			}
			return n, nil
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, out[0].Value)
		assert.ErrorIs(t, out[9].Err, context.Canceled)
	})

	t.Run("NilCallback", func(t *testing.T) {
		_, err := NewProcessorWithDefaults[int, int]().Run(context.Background(), items, nil)
		assert.ErrorIs(t, err, ErrNilCallback)
	})

	t.Run("InvalidConcurrency", func(t *testing.T) {
		_, err := NewProcessor[int, int](0)
		assert.ErrorIs(t, err, ErrInvalidConcurrency)
		_, err = NewProcessor[int, int](100)
		assert.ErrorIs(t, err, ErrInvalidConcurrency)
	})
}

func TestProgress(t *testing.T) {
	p := NewProgress(4)
	assert.Equal(t, 0.0, p.Snapshot().PercentComplete)

	p.Add(nil)
	s := p.Add(errors.New("x"))
	assert.Equal(t, 50.0, s.PercentComplete)
	assert.Equal(t, 1, s.FailedItems)
	assert.False(t, s.IsComplete())

	p.Add(nil)
	assert.True(t, p.Add(nil).IsComplete())
}
