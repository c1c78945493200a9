package composer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/creds"
	"github.com/provost-dev/provost/internal/executor"
	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/observe"
	"github.com/provost-dev/provost/internal/plan"
	"github.com/provost-dev/provost/internal/poller"
	"github.com/provost-dev/provost/internal/provider"
	"github.com/provost-dev/provost/internal/registry"
	"github.com/provost-dev/provost/internal/workflow"
)

var labTargets = []inventory.Target{
	{Name: "dc1", Role: inventory.Controller, Address: "10.0.0.10", CredentialRef: "lab"},
	{Name: "member1", Role: inventory.Member, Address: "10.0.0.11", CredentialRef: "lab"},
}

// labPlan declares a two-stage controller pipeline and a member pipeline
// gated on the controller's first checkpoint.
func labPlan() *plan.Plan {
	return &plan.Plan{
		Pipelines: []plan.Pipeline{
			{Role: inventory.Controller, Stages: []plan.Stage{
				{Name: "create-domain", Actions: []action.Action{
					{Name: provider.ActionCreateDomain, Class: action.Mutating, Critical: true},
				}},
				{Name: "create-users", Actions: []action.Action{
					{Name: provider.ActionCreateUser, Class: action.Mutating},
				}},
			}},
			{Role: inventory.Member, Stages: []plan.Stage{
				{Name: "join", Actions: []action.Action{
					{Name: provider.ActionJoinDomain, Class: action.Mutating, Critical: true},
				}},
			}},
		},
		Dependencies: []plan.Dependency{
			{
				Role:       inventory.Member,
				DependsOn:  inventory.Controller,
				Checkpoint: plan.CheckpointName(inventory.Controller, "create-domain"),
			},
		},
	}
}

func newTestComposer(t *testing.T, p *plan.Plan, prov provider.Provider) *Composer {
	t.Helper()
	reg, err := registry.Load(labTargets)
	require.NoError(t, err)
	exec := executor.New(reg, creds.StaticResolver{"lab": {User: "x", Password: "y"}}, prov, observe.NopObserver{})
	poll := poller.New(exec, observe.NopObserver{})
	eng := workflow.New(exec, poll, observe.NopObserver{}, workflow.Config{
		Probe:      plan.ProbeAction(),
		Reboot:     plan.RebootAction(),
		RebootWait: workflow.Budget{MaxAttempts: 3, Delay: time.Millisecond},
		ReadyWait:  workflow.Budget{MaxAttempts: 3, Delay: time.Millisecond},
	})
	return New(eng, p, reg, observe.NopObserver{})
}

func TestOrderRespectsDependencies(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, labPlan(), &provider.MockProvider{})

	order, err := c.Order()
	require.NoError(t, err)
	assert.Equal(t, []inventory.Role{inventory.Controller, inventory.Member}, order)
}

func TestOrderRejectsCycle(t *testing.T) {
	t.Parallel()
	p := labPlan()
	p.Dependencies = append(p.Dependencies, plan.Dependency{
		Role:      inventory.Controller,
		DependsOn: inventory.Member,
	})
	prov := &provider.MockProvider{}
	c := newTestComposer(t, p, prov)

	_, err := c.Order()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicDependency)

	// Run refuses the same graph without executing anything.
	_, err = c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicDependency)
	assert.Zero(t, prov.CallCount(), "cycle detected before any action runs")
}

func TestRunAllPipelinesComplete(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, _ provider.Invocation) (provider.Result, error) {
			return provider.Result{Changed: true}, nil
		},
	}
	c := newTestComposer(t, labPlan(), prov)

	rep, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Succeeded())
	require.Len(t, rep.Pipelines, 2)

	// Report pipelines come back in dependency order.
	assert.Equal(t, inventory.Controller, rep.Pipelines[0].Role)
	assert.Equal(t, inventory.Member, rep.Pipelines[1].Role)
	assert.Equal(t, registry.StatusReady, rep.Targets["dc1"])
	assert.Equal(t, registry.StatusReady, rep.Targets["member1"])
}

func TestRunMemberWaitsForControllerCheckpoint(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var sequence []string

	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			if inv.Action.Name == provider.ActionCreateDomain {
				// Keep the controller slow so a premature member start
				// would be observed.
				time.Sleep(50 * time.Millisecond)
			}
			mu.Lock()
			sequence = append(sequence, inv.Action.Name)
			mu.Unlock()
			return provider.Result{Changed: true}, nil
		},
	}
	c := newTestComposer(t, labPlan(), prov)

	rep, err := c.Run(context.Background())
	require.NoError(t, err)
	require.True(t, rep.Succeeded())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, sequence)
	assert.Equal(t, provider.ActionCreateDomain, sequence[0],
		"member join must not precede the domain checkpoint")
}

func TestRunDependencyFailureCascades(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			if inv.Action.Name == provider.ActionCreateDomain {
				return provider.Result{}, errors.New("forest creation failed")
			}
			return provider.Result{Changed: true}, nil
		},
	}
	c := newTestComposer(t, labPlan(), prov)

	rep, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Succeeded())
	require.Len(t, rep.Pipelines, 2)

	ctrl, member := rep.Pipelines[0], rep.Pipelines[1]
	assert.Equal(t, workflow.Failed, ctrl.State)
	require.NotNil(t, ctrl.Failure)
	assert.Equal(t, workflow.FailureAction, ctrl.Failure.Kind)

	assert.Equal(t, workflow.Failed, member.State)
	require.NotNil(t, member.Failure)
	assert.Equal(t, workflow.FailureDependency, member.Failure.Kind)
	assert.Empty(t, member.Stages, "dependent never executed a stage")

	for _, call := range prov.Calls() {
		assert.NotEqual(t, provider.ActionJoinDomain, call.Action.Name,
			"no action against the dependent's targets")
	}
}

func TestRunCheckpointReleasesBeforeUpstreamFinishes(t *testing.T) {
	t.Parallel()
	// The controller fails in its second stage, after the checkpoint the
	// member waits on. The member still runs: the checkpoint wins.
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			switch inv.Action.Name {
			case provider.ActionCreateUser:
				return provider.Result{}, errors.New("directory busy")
			case provider.ActionJoinDomain:
				// Let the controller's failure land first so the member's
				// select sees both gates closed.
				time.Sleep(50 * time.Millisecond)
			}
			return provider.Result{Changed: true}, nil
		},
	}
	p := labPlan()
	// Promote create-users to critical so the failure is terminal.
	p.Pipelines[0].Stages[1].Actions[0].Critical = true
	c := newTestComposer(t, p, prov)

	rep, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Pipelines, 2)

	assert.Equal(t, workflow.Failed, rep.Pipelines[0].State)
	assert.Equal(t, workflow.Completed, rep.Pipelines[1].State,
		"checkpoint reached before the upstream failure releases the dependent")
}

func TestRunCancelledBeforeDependentStarts(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			if inv.Action.Name == provider.ActionCreateDomain {
				// Cancel while the upstream stage is still in flight; the
				// dependent observes ctx.Done long before any gate closes.
				cancel()
				time.Sleep(100 * time.Millisecond)
			}
			return provider.Result{Changed: true}, nil
		},
	}
	c := newTestComposer(t, labPlan(), prov)

	rep, err := c.Run(ctx)
	require.NoError(t, err)
	assert.False(t, rep.Succeeded())

	member := rep.Pipelines[1]
	assert.Equal(t, workflow.Failed, member.State)
	require.NotNil(t, member.Failure)
	assert.Equal(t, workflow.FailureCancelled, member.Failure.Kind)
	assert.Empty(t, member.Stages)
}
