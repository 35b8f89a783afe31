package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchlens/internal/pkg/async"
)

func value(v any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) { return v, nil }
}

func TestPoolExecute(t *testing.T) {
	pool := async.NewPool(2)
	boom := errors.New("boom")

	results := pool.Execute(context.Background(), []async.Task{
		{Name: "one", Execute: value(1)},
		{Name: "two", Execute: value("two")},
		{Name: "fail", Execute: func(context.Context) (any, error) { return nil, boom }},
		{Name: "panic", Execute: func(context.Context) (any, error) { panic("bad") }},
	})

	require.Len(t, results, 4)
	assert.Equal(t, 1, results["one"].Data)
	assert.Equal(t, "two", results["two"].Data)
	assert.ErrorIs(t, results["fail"].Err, boom)
	assert.ErrorContains(t, results["panic"].Err, "panicked")
}

func TestPoolIsReusable(t *testing.T) {
	pool := async.NewPool(3)
	for i := 0; i < 3; i++ {
		results := pool.Execute(context.Background(), []async.Task{{Name: "x", Execute: value(i)}})
		assert.Equal(t, i, results["x"].Data)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := async.NewPool(2)
	var inFlight, peak atomic.Int32

	task := func(context.Context) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	}

	tasks := []async.Task{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		tasks = append(tasks, async.Task{Name: name, Execute: task})
	}
	results := pool.Execute(context.Background(), tasks)

	assert.Len(t, results, 5)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolEmpty(t *testing.T) {
	results := async.NewPool(4).Execute(context.Background(), nil)
	assert.Empty(t, results)
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := async.NewPool(1).Execute(ctx, []async.Task{
		{Name: "slow", Execute: func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	})
	assert.LessOrEqual(t, len(results), 1)
}
