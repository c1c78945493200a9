package composer

import (
	"context"
	"sync"

	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/plan"
)

// gateSet holds the channels dependents block on: one per named checkpoint,
// plus completion and failure channels per role. Channels are closed
// exactly once under the mutex.
type gateSet struct {
	mu          sync.Mutex
	checkpoints map[string]chan struct{}
	completed   map[inventory.Role]chan struct{}
	failed      map[inventory.Role]chan struct{}
	closed      map[string]bool
}

func newGateSet(p *plan.Plan) *gateSet {
	g := &gateSet{
		checkpoints: make(map[string]chan struct{}),
		completed:   make(map[inventory.Role]chan struct{}),
		failed:      make(map[inventory.Role]chan struct{}),
		closed:      make(map[string]bool),
	}
	for _, pl := range p.Pipelines {
		g.completed[pl.Role] = make(chan struct{})
		g.failed[pl.Role] = make(chan struct{})
		for _, st := range pl.Stages {
			g.checkpoints[plan.CheckpointName(pl.Role, st.Name)] = make(chan struct{})
		}
	}
	return g
}

// reach releases everyone waiting on a checkpoint.
func (g *gateSet) reach(checkpoint string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ch, ok := g.checkpoints[checkpoint]; ok && !g.closed[checkpoint] {
		close(ch)
		g.closed[checkpoint] = true
	}
}

// complete releases everyone waiting on the role's full completion.
func (g *gateSet) complete(role inventory.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := "completed/" + string(role)
	if !g.closed[key] {
		close(g.completed[role])
		g.closed[key] = true
	}
}

// fail releases dependents of a role that will never produce its remaining
// checkpoints.
func (g *gateSet) fail(role inventory.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := "failed/" + string(role)
	if !g.closed[key] {
		close(g.failed[role])
		g.closed[key] = true
	}
}

type depOutcome int

const (
	depSatisfied depOutcome = iota
	depFailed
	depCancelled
)

// await blocks until the dependency's checkpoint is reached, the upstream
// role fails, or ctx is cancelled. When the upstream failure races with a
// checkpoint that was already reached, the checkpoint wins: the dependent
// got what it was waiting for.
func (g *gateSet) await(ctx context.Context, dep plan.Dependency) depOutcome {
	waitCh := g.completed[dep.DependsOn]
	if dep.Checkpoint != "" {
		waitCh = g.checkpoints[dep.Checkpoint]
	}

	select {
	case <-waitCh:
		return depSatisfied
	case <-g.failed[dep.DependsOn]:
		select {
		case <-waitCh:
			return depSatisfied
		default:
			return depFailed
		}
	case <-ctx.Done():
		return depCancelled
	}
}
