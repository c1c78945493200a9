// Package composer orders role pipelines by their declared dependencies and
// runs them concurrently. Each pipeline is an independent unit of work; a
// dependent pipeline stays pending until the upstream checkpoint it waits
// on is reached, and fails without executing a single action when the
// upstream pipeline fails first.
package composer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/metrics"
	"github.com/provost-dev/provost/internal/observe"
	"github.com/provost-dev/provost/internal/plan"
	"github.com/provost-dev/provost/internal/registry"
	"github.com/provost-dev/provost/internal/report"
	"github.com/provost-dev/provost/internal/workflow"
)

// ErrCyclicDependency is returned when the role dependency graph is not
// acyclic. Raised before any pipeline executes.
var ErrCyclicDependency = errors.New("cyclic role dependency")

// Composer wires the workflow engine, plan, and registry into one run.
type Composer struct {
	engine   *workflow.Engine
	plan     *plan.Plan
	registry *registry.Registry
	observer observe.Observer
}

// New returns a composer for one run.
func New(engine *workflow.Engine, p *plan.Plan, reg *registry.Registry, obs observe.Observer) *Composer {
	if obs == nil {
		obs = observe.NopObserver{}
	}
	return &Composer{engine: engine, plan: p, registry: reg, observer: obs}
}

// Order returns the declared pipeline roles in a dependency-respecting
// order, or ErrCyclicDependency. The concrete deployment is a fixed chain
// (deploy, controller, member), but nothing here assumes that.
func (c *Composer) Order() ([]inventory.Role, error) {
	indegree := make(map[inventory.Role]int, len(c.plan.Pipelines))
	var roles []inventory.Role
	for _, pl := range c.plan.Pipelines {
		indegree[pl.Role] = 0
		roles = append(roles, pl.Role)
	}
	for _, dep := range c.plan.Dependencies {
		indegree[dep.Role]++
	}

	var order []inventory.Role
	for len(order) < len(roles) {
		progressed := false
		for _, role := range roles {
			deg, pending := indegree[role]
			if !pending || deg != 0 {
				continue
			}
			order = append(order, role)
			delete(indegree, role)
			progressed = true
			for _, dep := range c.plan.Dependencies {
				if dep.DependsOn == role {
					indegree[dep.Role]--
				}
			}
		}
		if !progressed {
			var stuck []string
			for role := range indegree {
				stuck = append(stuck, string(role))
			}
			return nil, fmt.Errorf("%w: unresolvable roles %v", ErrCyclicDependency, stuck)
		}
	}

	return order, nil
}

// Run validates the dependency graph, then executes every pipeline. It
// blocks until all pipelines reach a terminal state and returns the run
// report. A cyclic graph fails before anything executes; cancellation of
// ctx aborts in-progress polls and marks outstanding pipelines failed with
// a cancelled diagnostic.
func (c *Composer) Run(ctx context.Context) (*report.RunReport, error) {
	order, err := c.Order()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	gates := newGateSet(c.plan)

	results := make(map[inventory.Role]workflow.Result, len(order))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, role := range order {
		pl, _ := c.plan.PipelineFor(role)
		wg.Add(1)
		go func(pl plan.Pipeline) {
			defer wg.Done()
			res := c.runOne(ctx, pl, gates)
			mu.Lock()
			results[pl.Role] = res
			mu.Unlock()
		}(pl)
	}
	wg.Wait()

	rep := &report.RunReport{
		Started:  started,
		Finished: time.Now(),
		Targets:  c.registry.Snapshot(),
	}
	for _, role := range order {
		rep.Pipelines = append(rep.Pipelines, results[role])
	}
	return rep, nil
}

// runOne waits for the pipeline's dependencies, executes it, and releases
// its gates for dependents.
func (c *Composer) runOne(ctx context.Context, pl plan.Pipeline, gates *gateSet) workflow.Result {
	for _, dep := range c.plan.Dependencies {
		if dep.Role != pl.Role {
			continue
		}
		switch gates.await(ctx, dep) {
		case depSatisfied:
		case depFailed:
			c.observer.Event(observe.Event{
				Type:    observe.EventPipelineSkipped,
				Role:    string(pl.Role),
				Message: "upstream pipeline " + string(dep.DependsOn) + " failed, skipping",
			})
			res := workflow.DependencyFailure(pl.Role, dep.DependsOn)
			c.recordSkipped(res)
			gates.fail(pl.Role)
			return res
		case depCancelled:
			res := workflow.CancelledBeforeStart(pl.Role)
			c.recordSkipped(res)
			gates.fail(pl.Role)
			return res
		}
	}

	targets := c.registry.ByRole(pl.Role)
	res := c.engine.RunPipeline(ctx, pl, targets, func(stage string) {
		gates.reach(plan.CheckpointName(pl.Role, stage))
	})

	if res.State == workflow.Completed {
		gates.complete(pl.Role)
	} else {
		gates.fail(pl.Role)
	}
	return res
}

// recordSkipped mirrors the engine's terminal metrics for pipelines that
// never executed.
func (c *Composer) recordSkipped(res workflow.Result) {
	metrics.PipelinesTotal.WithLabelValues(string(res.Role), string(res.State)).Inc()
}
