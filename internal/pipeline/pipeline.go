// Package pipeline orchestrates a full fabric build: one fact computation,
// then two barrier-separated phases fanned out across the shared worker pool,
// with rendered configs persisted as their results arrive.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/fabbuild/internal/build"
	"github.com/vk/fabbuild/internal/ctxlog"
	"github.com/vk/fabbuild/internal/facts"
	"github.com/vk/fabbuild/internal/inventory"
	"github.com/vk/fabbuild/internal/model"
	"github.com/vk/fabbuild/internal/pool"
	"github.com/vk/fabbuild/internal/writer"
)

// Policy selects what a host failure does to the rest of the run.
type Policy string

const (
	// PolicyAbort cancels the whole run on the first failure; results not
	// yet persisted are discarded.
	PolicyAbort Policy = "abort"

	// PolicyContinue isolates failures per host: the run completes for every
	// succeeding host and reports a partial-failure summary.
	PolicyContinue Policy = "continue"
)

// ValidPolicy reports whether s names a known failure policy.
func ValidPolicy(s string) bool {
	return Policy(s) == PolicyAbort || Policy(s) == PolicyContinue
}

// Summary is the per-host outcome of a run.
type Summary struct {
	// Written maps each successfully built host to its artifact path.
	Written map[string]string

	// Failed maps each failed host to its failure.
	Failed map[string]error
}

// FailedHosts returns the failed hostnames in sorted order.
func (s *Summary) FailedHosts() []string {
	hosts := make([]string, 0, len(s.Failed))
	for host := range s.Failed {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// Pipeline wires the pool, the stage builder and the result writer together.
type Pipeline struct {
	pool    *pool.Pool
	builder *build.Builder
	writer  *writer.Writer
	policy  Policy
}

// New assembles a pipeline. The pool is owned by the caller and reused across
// both phases; the pipeline never closes it.
func New(p *pool.Pool, b *build.Builder, w *writer.Writer, policy Policy) *Pipeline {
	return &Pipeline{pool: p, builder: b, writer: w, policy: policy}
}

// Run executes the full build for a fabric. The returned summary is always
// populated; the error is non-nil when any host failed, carrying the first
// root-cause failure so the caller exits non-zero.
func (pl *Pipeline) Run(ctx context.Context, fabric *inventory.Fabric) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)
	summary := &Summary{
		Written: make(map[string]string),
		Failed:  make(map[string]error),
	}

	// Facts must be fully computed before any stage-1 task starts; every
	// task reads them concurrently and none may mutate them.
	fabricFacts, err := facts.Compute(fabric.Hosts)
	if err != nil {
		return summary, fmt.Errorf("failed to compute fabric facts: %w", err)
	}
	logger.Debug("Fabric facts computed.", "fabric", fabricFacts.FabricName())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Phase 1: structured configs for every host.
	tasks := make([]pool.Task, 0, len(fabric.Hosts))
	for _, hostname := range fabric.Hostnames() {
		vars := fabric.Hosts[hostname]
		tasks = append(tasks, pool.Task{
			Host: hostname,
			Fn: func(taskCtx context.Context) (any, error) {
				return pl.builder.StructuredConfig(taskCtx, vars, fabricFacts)
			},
		})
	}

	structured := make(map[string]*model.StructuredConfig, len(tasks))
	for res := range pl.pool.RunPhase(runCtx, tasks) {
		if res.Err != nil {
			pl.recordFailure(summary, res.Host, build.StageStructured, res.Err, cancel)
			continue
		}
		structured[res.Host] = res.Value.(*model.StructuredConfig)
	}
	logger.Debug("Structured-config phase complete.", "built", len(structured), "failed", len(summary.Failed))

	// The phase channel closing above is the barrier: no designed-config
	// task is submitted until every structured-config task has finished.
	if pl.policy == PolicyAbort && len(summary.Failed) > 0 {
		return summary, pl.runError(summary)
	}

	// Phase 2: designed configs for the phase-1 survivors, written out in
	// completion order.
	hostnames := make([]string, 0, len(structured))
	for hostname := range structured {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)

	tasks = tasks[:0]
	for _, hostname := range hostnames {
		sc := structured[hostname]
		tasks = append(tasks, pool.Task{
			Host: hostname,
			Fn: func(taskCtx context.Context) (any, error) {
				return pl.builder.DesignedConfig(taskCtx, sc)
			},
		})
	}

	for res := range pl.pool.RunPhase(runCtx, tasks) {
		if res.Err != nil {
			pl.recordFailure(summary, res.Host, build.StageDesigned, res.Err, cancel)
			continue
		}

		path, err := pl.writer.Write(res.Value.(*model.DesignedConfig))
		if err != nil {
			// Persistence failures are fatal under either policy.
			summary.Failed[res.Host] = err
			cancel()
			continue
		}
		summary.Written[res.Host] = path
		logger.Debug("Config written.", "host", res.Host, "path", path)
	}

	if len(summary.Failed) > 0 {
		return summary, pl.runError(summary)
	}
	return summary, nil
}

// recordFailure stores a host failure, wrapping unexpected errors from inside
// a worker as execution failures, and cancels the run under the abort policy.
func (pl *Pipeline) recordFailure(summary *Summary, host string, stage build.Stage, err error, cancel context.CancelFunc) {
	var failure *build.Failure
	if !errors.As(err, &failure) && !errors.Is(err, context.Canceled) {
		err = &build.Failure{Host: host, Stage: stage, Kind: build.KindExecution, Cause: err}
	}
	summary.Failed[host] = err

	if pl.policy == PolicyAbort {
		cancel()
	}
}

// runError distills a failed summary into the error returned to the caller.
// Cancellation casualties are symptoms, not causes, so the first real failure
// wins as the root cause.
func (pl *Pipeline) runError(summary *Summary) error {
	var failedHosts []string
	var rootCause error
	for _, host := range summary.FailedHosts() {
		err := summary.Failed[host]
		if errors.Is(err, context.Canceled) {
			continue
		}
		failedHosts = append(failedHosts, host)
		if rootCause == nil {
			rootCause = err
		}
	}
	if rootCause == nil {
		// Only cancellations recorded; the run was canceled from outside.
		return context.Canceled
	}
	return fmt.Errorf("build failed for %s: %w", strings.Join(failedHosts, ", "), rootCause)
}
