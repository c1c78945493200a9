package workflow

import (
	"context"
	"errors"
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
)

var memberTarget = inventory.Target{
	Name:          "member1",
	Role:          inventory.Member,
	Address:       "10.0.0.11",
	CredentialRef: "lab",
}

func newTestEngine(t *testing.T, prov provider.Provider) *Engine {
	t.Helper()
	reg, err := registry.Load([]inventory.Target{memberTarget})
	require.NoError(t, err)
	exec := executor.New(reg, creds.StaticResolver{"lab": {User: "x", Password: "y"}}, prov, observe.NopObserver{})
	poll := poller.New(exec, observe.NopObserver{})
	return New(exec, poll, observe.NopObserver{}, Config{
		Probe:      plan.ProbeAction(),
		Reboot:     plan.RebootAction(),
		RebootWait: Budget{MaxAttempts: 5, Delay: time.Millisecond},
		ReadyWait:  Budget{MaxAttempts: 5, Delay: time.Millisecond},
	})
}

// criticalStage returns a single-action stage whose action halts the
// pipeline on failure.
func criticalStage(name, actionName string) plan.Stage {
	return plan.Stage{
		Name: name,
		Actions: []action.Action{
			{Name: actionName, Class: action.Mutating, Critical: true},
		},
	}
}

func TestRunPipelineCompletes(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, _ provider.Invocation) (provider.Result, error) {
			return provider.Result{Changed: true}, nil
		},
	}
	eng := newTestEngine(t, prov)

	var checkpoints []string
	res := eng.RunPipeline(context.Background(), plan.Pipeline{
		Role: inventory.Member,
		Stages: []plan.Stage{
			criticalStage("point-dns", provider.ActionSetDNS),
			criticalStage("join-domain", provider.ActionJoinDomain),
		},
	}, []inventory.Target{memberTarget}, func(stage string) {
		checkpoints = append(checkpoints, stage)
	})

	assert.Equal(t, Completed, res.State)
	assert.Nil(t, res.Failure)
	require.Len(t, res.Stages, 2)
	assert.Equal(t, []string{"point-dns", "join-domain"}, checkpoints)
	assert.False(t, res.Finished.Before(res.Started))
}

func TestRunPipelineHaltsOnCriticalFailure(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			if inv.Action.Name == provider.ActionJoinDomain {
				return provider.Result{}, errors.New("access denied")
			}
			return provider.Result{Changed: true}, nil
		},
	}
	eng := newTestEngine(t, prov)

	stages := []plan.Stage{
		criticalStage("s1", provider.ActionSetDNS),
		criticalStage("s2", provider.ActionJoinDomain),
		criticalStage("s3", provider.ActionInstallPackage),
		criticalStage("s4", provider.ActionCreateUser),
		criticalStage("s5", provider.ActionInstallFeature),
	}

	res := eng.RunPipeline(context.Background(), plan.Pipeline{Role: inventory.Member, Stages: stages},
		[]inventory.Target{memberTarget}, nil)

	assert.Equal(t, Failed, res.State)
	require.NotNil(t, res.Failure)
	assert.Equal(t, FailureAction, res.Failure.Kind)
	assert.Equal(t, "s2", res.Failure.Stage)
	assert.Contains(t, res.Failure.Diagnostic, "access denied")

	// Stages s3 through s5 never executed.
	require.Len(t, res.Stages, 2)
	for _, call := range prov.Calls() {
		assert.NotEqual(t, provider.ActionInstallPackage, call.Action.Name)
	}
}

func TestRunPipelineNonCriticalFailureContinues(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			if inv.Action.Name == provider.ActionCreateUser {
				return provider.Result{}, errors.New("user quota reached")
			}
			return provider.Result{Changed: true}, nil
		},
	}
	eng := newTestEngine(t, prov)

	res := eng.RunPipeline(context.Background(), plan.Pipeline{
		Role: inventory.Member,
		Stages: []plan.Stage{
			{
				Name: "extras",
				Actions: []action.Action{
					{Name: provider.ActionCreateUser, Class: action.Mutating},
					{Name: provider.ActionInstallPackage, Class: action.Mutating},
				},
			},
		},
	}, []inventory.Target{memberTarget}, nil)

	assert.Equal(t, Completed, res.State, "informational failure does not halt")
	require.Len(t, res.Stages, 1)
	require.Len(t, res.Stages[0].Actions, 2)
	assert.Equal(t, action.Failed, res.Stages[0].Actions[0].Outcome)
	assert.Equal(t, action.Changed, res.Stages[0].Actions[1].Outcome)
}

func TestRunPipelineUnreachableFailureKind(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, _ provider.Invocation) (provider.Result, error) {
			return provider.Result{}, provider.ErrUnreachable
		},
	}
	eng := newTestEngine(t, prov)

	res := eng.RunPipeline(context.Background(), plan.Pipeline{
		Role:   inventory.Member,
		Stages: []plan.Stage{criticalStage("s1", provider.ActionSetDNS)},
	}, []inventory.Target{memberTarget}, nil)

	assert.Equal(t, Failed, res.State)
	require.NotNil(t, res.Failure)
	assert.Equal(t, FailureUnreachable, res.Failure.Kind)
}

func TestRunPipelineRebootThenWait(t *testing.T) {
	t.Parallel()
	// The join flags a reboot; the reboot drops the connection; the first
	// two probes find the target still down; the third finds it back.
	probeCalls := 0
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			switch inv.Action.Name {
			case provider.ActionJoinDomain:
				return provider.Result{Changed: true, RebootRequired: true}, nil
			case provider.ActionReboot:
				return provider.Result{}, provider.ErrUnreachable
			case provider.ActionProbe:
				probeCalls++
				if probeCalls <= 2 {
					return provider.Result{}, provider.ErrUnreachable
				}
				return provider.Result{}, nil
			}
			return provider.Result{Changed: true}, nil
		},
	}
	eng := newTestEngine(t, prov)

	res := eng.RunPipeline(context.Background(), plan.Pipeline{
		Role: inventory.Member,
		Stages: []plan.Stage{
			{
				Name: "join-domain",
				Actions: []action.Action{
					{Name: provider.ActionJoinDomain, Class: action.Mutating, Critical: true},
				},
				Post: plan.PostRebootIfFlagged,
			},
		},
	}, []inventory.Target{memberTarget}, nil)

	assert.Equal(t, Completed, res.State)
	assert.Equal(t, 3, probeCalls, "polled until the target came back")
}

func TestRunPipelineRebootNotIssuedWithoutFlag(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, _ provider.Invocation) (provider.Result, error) {
			return provider.Result{}, nil
		},
	}
	eng := newTestEngine(t, prov)

	res := eng.RunPipeline(context.Background(), plan.Pipeline{
		Role: inventory.Member,
		Stages: []plan.Stage{
			{
				Name: "join-domain",
				Actions: []action.Action{
					{Name: provider.ActionJoinDomain, Class: action.Mutating, Critical: true},
				},
				Post: plan.PostRebootIfFlagged,
			},
		},
	}, []inventory.Target{memberTarget}, nil)

	assert.Equal(t, Completed, res.State)
	for _, call := range prov.Calls() {
		assert.NotEqual(t, provider.ActionReboot, call.Action.Name, "unchanged outcome must not reboot")
	}
}

func TestRunPipelineRebootRefusedFails(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			switch inv.Action.Name {
			case provider.ActionInstallFeature:
				return provider.Result{Changed: true, RebootRequired: true}, nil
			case provider.ActionReboot:
				return provider.Result{}, errors.New("shutdown is in progress")
			}
			return provider.Result{}, nil
		},
	}
	eng := newTestEngine(t, prov)

	res := eng.RunPipeline(context.Background(), plan.Pipeline{
		Role: inventory.Member,
		Stages: []plan.Stage{
			{
				Name: "base",
				Actions: []action.Action{
					{Name: provider.ActionInstallFeature, Class: action.Mutating, Critical: true},
				},
				Post: plan.PostRebootIfFlagged,
			},
		},
	}, []inventory.Target{memberTarget}, nil)

	assert.Equal(t, Failed, res.State)
	require.NotNil(t, res.Failure)
	assert.Equal(t, FailureAction, res.Failure.Kind)
	assert.Equal(t, provider.ActionReboot, res.Failure.Action)
}

func TestRunPipelineWaitTimedOut(t *testing.T) {
	t.Parallel()
	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			if inv.Action.Name == provider.ActionProbe {
				return provider.Result{}, provider.ErrUnreachable
			}
			return provider.Result{Changed: true}, nil
		},
	}
	eng := newTestEngine(t, prov)

	res := eng.RunPipeline(context.Background(), plan.Pipeline{
		Role: inventory.Member,
		Stages: []plan.Stage{
			{
				Name: "forest",
				Actions: []action.Action{
					{Name: provider.ActionCreateDomain, Class: action.Mutating, Critical: true},
				},
				Post: plan.PostWaitUntilReady,
			},
		},
	}, []inventory.Target{memberTarget}, nil)

	assert.Equal(t, Failed, res.State)
	require.NotNil(t, res.Failure)
	assert.Equal(t, FailureTimedOut, res.Failure.Kind)
	assert.Contains(t, res.Failure.Diagnostic, "5 attempts")
}

func TestRunPipelineCancelledMidStage(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	prov := &provider.MockProvider{
		InvokeFunc: func(_ context.Context, inv provider.Invocation) (provider.Result, error) {
			if inv.Action.Name == provider.ActionSetDNS {
				cancel()
			}
			return provider.Result{Changed: true}, nil
		},
	}
	eng := newTestEngine(t, prov)

	res := eng.RunPipeline(ctx, plan.Pipeline{
		Role: inventory.Member,
		Stages: []plan.Stage{
			criticalStage("s1", provider.ActionSetDNS),
			criticalStage("s2", provider.ActionJoinDomain),
		},
	}, []inventory.Target{memberTarget}, nil)

	assert.Equal(t, Failed, res.State)
	require.NotNil(t, res.Failure)
	assert.Equal(t, FailureCancelled, res.Failure.Kind)
	for _, call := range prov.Calls() {
		assert.NotEqual(t, provider.ActionJoinDomain, call.Action.Name, "no action after cancellation")
	}
}
