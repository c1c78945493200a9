// Package provider binds the engine to a remote action provider: the
// out-of-band capability that actually executes catalog operations on a
// target. The production implementation runs actions over SSH; tests use
// the in-package mock.
package provider

import (
	"context"
	"errors"

	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/creds"
	"github.com/provost-dev/provost/internal/inventory"
)

// ErrUnreachable marks connection-level failures: the target could not be
// contacted at all. The executor maps it to the unreachable outcome, which
// the readiness poller treats as transient.
var ErrUnreachable = errors.New("target unreachable")

// Invocation carries everything a provider needs to run one action.
type Invocation struct {
	Target     inventory.Target
	Credential creds.Credential
	Action     action.Action
}

// Result is the provider-level outcome of a successful invocation.
type Result struct {
	// Changed reports whether the action applied its side effect, as
	// opposed to finding the target already in the desired state.
	Changed bool

	// RebootRequired reports whether the action left the target needing a
	// reboot before further work.
	RebootRequired bool

	// Diagnostic is free-form output from the remote operation.
	Diagnostic string
}

// Provider executes one action against one target.
//
// A returned error wrapping ErrUnreachable means the target could not be
// contacted; any other error means the remote operation itself failed.
type Provider interface {
	Invoke(ctx context.Context, inv Invocation) (Result, error)
}
