// Package pool provides the bounded worker pool the pipeline shares across
// both build phases. Tasks go in over a channel, results come back over a
// per-phase channel in completion order, and the phase's result channel
// closing is the barrier the pipeline waits on between phases.
package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/fabbuild/internal/ctxlog"
)

// Task is one unit of per-host work submitted to the pool.
type Task struct {
	Host string
	Fn   func(ctx context.Context) (any, error)
}

// Result is the outcome of one task. Exactly one of Value/Err is meaningful.
type Result struct {
	Host  string
	Value any
	Err   error
}

type phaseTask struct {
	ctx  context.Context
	task Task
	out  chan<- Result
	wg   *sync.WaitGroup
}

// Pool is a fixed-size worker pool. It is created once per run and reused for
// every phase; Close stops the workers once no more phases will be submitted.
type Pool struct {
	workers   int
	tasks     chan phaseTask
	closeOnce sync.Once
}

// New starts a pool with the given number of workers. Worker counts below one
// are clamped to one.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		workers: workers,
		tasks:   make(chan phaseTask),
	}
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// RunPhase submits all tasks of one phase and returns the channel their
// results arrive on, first-completed first. The channel closes once every
// task of the phase has reported, which gives callers the phase barrier:
// draining the channel to exhaustion means the whole batch is done.
//
// A canceled context does not stop tasks already picked up by a worker; tasks
// still queued complete immediately with the context error.
func (p *Pool) RunPhase(ctx context.Context, tasks []Task) <-chan Result {
	out := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))

	go func() {
		for _, t := range tasks {
			p.tasks <- phaseTask{ctx: ctx, task: t, out: out, wg: &wg}
		}
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Close stops the workers. It must not be called while a phase is running.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.tasks) })
}

// worker is the core processing loop for a single concurrent worker.
func (p *Pool) worker(id int) {
	for pt := range p.tasks {
		logger := ctxlog.FromContext(pt.ctx).With("workerID", id, "host", pt.task.Host)

		if pt.ctx.Err() != nil {
			logger.Warn("Context canceled, skipping task.")
			pt.out <- Result{Host: pt.task.Host, Err: pt.ctx.Err()}
			pt.wg.Done()
			continue
		}

		logger.Debug("Worker picked up task.")
		value, err := runTask(pt.ctx, pt.task)
		if err != nil {
			logger.Debug("Task failed.", "error", err)
		} else {
			logger.Debug("Task succeeded.")
		}

		pt.out <- Result{Host: pt.task.Host, Value: value, Err: err}
		pt.wg.Done()
	}
}

// runTask invokes the task function with panic isolation: a panicking task
// fails its own result instead of killing the worker goroutine.
func runTask(ctx context.Context, t Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task for %s panicked: %v", t.Host, r)
		}
	}()
	return t.Fn(ctx)
}
