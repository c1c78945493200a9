// Package executor invokes named idempotent operations against single
// targets and classifies the outcome. It is the only place that resolves
// credentials and the only writer of target status for the targets it
// touches.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/creds"
	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/metrics"
	"github.com/provost-dev/provost/internal/observe"
	"github.com/provost-dev/provost/internal/provider"
	"github.com/provost-dev/provost/internal/registry"
)

// Executor binds the remote action provider to the target registry.
type Executor struct {
	registry *registry.Registry
	resolver creds.Resolver
	provider provider.Provider
	observer observe.Observer
}

// New returns an executor over the given collaborators.
func New(reg *registry.Registry, resolver creds.Resolver, prov provider.Provider, obs observe.Observer) *Executor {
	if obs == nil {
		obs = observe.NopObserver{}
	}
	return &Executor{
		registry: reg,
		resolver: resolver,
		provider: prov,
		observer: obs,
	}
}

// Invoke runs one action against one target and returns the structured
// result. It never returns an error: every failure mode is folded into the
// result's outcome and diagnostic so the workflow engine has a single
// control-flow currency.
//
// Status updates: unreachable targets are marked unreachable, successful
// invocations mark the target ready, and remote operation errors mark it
// failed. Credential resolution failures leave the status untouched since
// the target itself was never contacted.
func (e *Executor) Invoke(ctx context.Context, target inventory.Target, act action.Action) action.Result {
	result := action.Result{
		Target: target.Name,
		Action: act.Name,
	}

	credential, err := e.resolver.Resolve(target.CredentialRef)
	if err != nil {
		result.Outcome = action.Failed
		result.Diagnostic = fmt.Sprintf("resolving credential %q: %v", target.CredentialRef, err)
		e.record(result)
		return result
	}

	provResult, err := e.provider.Invoke(ctx, provider.Invocation{
		Target:     target,
		Credential: credential,
		Action:     act,
	})

	switch {
	case errors.Is(err, provider.ErrUnreachable):
		result.Outcome = action.Unreachable
		result.Diagnostic = err.Error()
		e.setStatus(target.Name, registry.StatusUnreachable)
	case err != nil:
		result.Outcome = action.Failed
		result.Diagnostic = err.Error()
		e.setStatus(target.Name, registry.StatusFailed)
	case provResult.Changed:
		result.Outcome = action.Changed
		result.Diagnostic = provResult.Diagnostic
		result.RebootRequired = provResult.RebootRequired
		e.setStatus(target.Name, registry.StatusReady)
	default:
		result.Outcome = action.Unchanged
		result.Diagnostic = provResult.Diagnostic
		result.RebootRequired = provResult.RebootRequired
		e.setStatus(target.Name, registry.StatusReady)
	}

	e.record(result)
	return result
}

func (e *Executor) setStatus(name string, status registry.Status) {
	if err := e.registry.UpdateStatus(name, status); err != nil {
		e.observer.Printf("status update for %s failed: %v", name, err)
	}
}

func (e *Executor) record(result action.Result) {
	metrics.ActionsTotal.WithLabelValues(result.Action, string(result.Outcome)).Inc()

	event := observe.Event{
		Target:  result.Target,
		Message: result.Diagnostic,
		Fields:  map[string]string{"action": result.Action},
	}
	switch result.Outcome {
	case action.Changed:
		event.Type = observe.EventActionApplied
	case action.Unchanged:
		event.Type = observe.EventActionUnchanged
	default:
		event.Type = observe.EventActionFailed
		event.Fields["outcome"] = string(result.Outcome)
	}
	e.observer.Event(event)
}
