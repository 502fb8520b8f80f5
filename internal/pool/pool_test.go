package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hostNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("host%02d", i)
	}
	return names
}

func TestRunPhaseCollectsAllResults(t *testing.T) {
	t.Parallel()

	p := New(4)
	defer p.Close()

	var tasks []Task
	for _, host := range hostNames(20) {
		host := host
		tasks = append(tasks, Task{
			Host: host,
			Fn: func(context.Context) (any, error) {
				return host + "-value", nil
			},
		})
	}

	results := make(map[string]any)
	for res := range p.RunPhase(context.Background(), tasks) {
		require.NoError(t, res.Err)
		results[res.Host] = res.Value
	}

	require.Len(t, results, 20)
	for _, host := range hostNames(20) {
		assert.Equal(t, host+"-value", results[host])
	}
}

func TestWorkerCountBoundsConcurrency(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 3} {
		workers := workers
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()

			p := New(workers)
			defer p.Close()

			var inFlight, peak atomic.Int32
			var tasks []Task
			for _, host := range hostNames(12) {
				tasks = append(tasks, Task{
					Host: host,
					Fn: func(context.Context) (any, error) {
						current := inFlight.Add(1)
						for {
							observed := peak.Load()
							if current <= observed || peak.CompareAndSwap(observed, current) {
								break
							}
						}
						time.Sleep(10 * time.Millisecond)
						inFlight.Add(-1)
						return nil, nil
					},
				})
			}

			count := 0
			for range p.RunPhase(context.Background(), tasks) {
				count++
			}

			assert.Equal(t, 12, count)
			assert.LessOrEqual(t, peak.Load(), int32(workers))
		})
	}
}

func TestRunPhaseIsABarrier(t *testing.T) {
	t.Parallel()

	p := New(3)
	defer p.Close()

	var completed atomic.Int32
	var tasks []Task
	for _, host := range hostNames(9) {
		tasks = append(tasks, Task{
			Host: host,
			Fn: func(context.Context) (any, error) {
				time.Sleep(5 * time.Millisecond)
				completed.Add(1)
				return nil, nil
			},
		})
	}

	for range p.RunPhase(context.Background(), tasks) {
	}

	// The channel only closes once every task in the batch has reported.
	assert.Equal(t, int32(9), completed.Load())
}

func TestPanicInTaskFailsOnlyThatTask(t *testing.T) {
	t.Parallel()

	p := New(2)
	defer p.Close()

	tasks := []Task{
		{Host: "good", Fn: func(context.Context) (any, error) { return "ok", nil }},
		{Host: "bad", Fn: func(context.Context) (any, error) { panic("boom") }},
	}

	results := make(map[string]Result)
	for res := range p.RunPhase(context.Background(), tasks) {
		results[res.Host] = res
	}

	require.Len(t, results, 2)
	require.NoError(t, results["good"].Err)
	require.Error(t, results["bad"].Err)
	assert.Contains(t, results["bad"].Err.Error(), "panicked")

	// The worker that recovered the panic is still alive for the next phase.
	for res := range p.RunPhase(context.Background(), []Task{
		{Host: "again", Fn: func(context.Context) (any, error) { return nil, nil }},
	}) {
		assert.NoError(t, res.Err)
	}
}

func TestCanceledContextShortCircuitsQueuedTasks(t *testing.T) {
	t.Parallel()

	p := New(2)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	var tasks []Task
	for _, host := range hostNames(6) {
		tasks = append(tasks, Task{
			Host: host,
			Fn: func(context.Context) (any, error) {
				ran.Add(1)
				return nil, nil
			},
		})
	}

	failures := 0
	for res := range p.RunPhase(ctx, tasks) {
		if res.Err != nil {
			failures++
			assert.ErrorIs(t, res.Err, context.Canceled)
		}
	}

	assert.Equal(t, 6, failures)
	assert.Equal(t, int32(0), ran.Load())
}

func TestPoolIsReusedAcrossPhases(t *testing.T) {
	t.Parallel()

	p := New(2)
	defer p.Close()

	var mu sync.Mutex
	seen := make(map[string]int)

	for phase := 0; phase < 3; phase++ {
		var tasks []Task
		for _, host := range hostNames(5) {
			host := host
			tasks = append(tasks, Task{
				Host: host,
				Fn: func(context.Context) (any, error) {
					mu.Lock()
					seen[host]++
					mu.Unlock()
					return nil, nil
				},
			})
		}
		for res := range p.RunPhase(context.Background(), tasks) {
			require.NoError(t, res.Err)
		}
	}

	for _, host := range hostNames(5) {
		assert.Equal(t, 3, seen[host])
	}
}

func TestWorkerCountClampedToOne(t *testing.T) {
	t.Parallel()

	p := New(0)
	defer p.Close()

	require.Equal(t, 1, p.Workers())
	for res := range p.RunPhase(context.Background(), []Task{
		{Host: "only", Fn: func(context.Context) (any, error) { return nil, nil }},
	}) {
		assert.NoError(t, res.Err)
	}
}
