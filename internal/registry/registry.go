// Package registry holds the declared targets for a run, grouped by role,
// together with each target's last known status. It is the single shared
// mutable structure in the system: every pipeline reads connection info from
// it and the executor/poller write status updates back. Updates are
// serialized by one mutex; each target belongs to exactly one pipeline, so
// single-writer-per-target holds without any transactional machinery.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/provost-dev/provost/internal/inventory"
)

// Status is the last known state of a target.
type Status string

const (
	// StatusUnknown is the initial status at registry load.
	StatusUnknown Status = "unknown"
	// StatusUnreachable means the last contact attempt failed at the
	// connection level.
	StatusUnreachable Status = "unreachable"
	// StatusReady means the last invocation against the target succeeded.
	StatusReady Status = "ready"
	// StatusFailed means the last invocation reported a remote error.
	StatusFailed Status = "failed"
)

// Registry errors.
var (
	// ErrDuplicateTarget is returned by Register when the name is taken.
	ErrDuplicateTarget = errors.New("duplicate target")
	// ErrUnknownTarget is returned for lookups and updates on absent names.
	ErrUnknownTarget = errors.New("unknown target")
)

type entry struct {
	target inventory.Target
	status Status
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Load registers every target in declaration order. Used at start-of-run
// with the parsed inventory.
func Load(targets []inventory.Target) (*Registry, error) {
	r := New()
	for _, t := range targets {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a target with StatusUnknown. Fails with ErrDuplicateTarget
// if the name is already present.
func (r *Registry) Register(t inventory.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[t.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTarget, t.Name)
	}
	r.entries[t.Name] = &entry{target: t, status: StatusUnknown}
	r.order = append(r.order, t.Name)
	return nil
}

// ByRole returns the targets of one role in declaration order.
func (r *Registry) ByRole(role inventory.Role) []inventory.Target {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []inventory.Target
	for _, name := range r.order {
		if e := r.entries[name]; e.target.Role == role {
			out = append(out, e.target)
		}
	}
	return out
}

// UpdateStatus records a new status for a target. Fails with
// ErrUnknownTarget if the name was never registered.
func (r *Registry) UpdateStatus(name string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	e.status = status
	return nil
}

// Status returns the last known status of a target.
func (r *Registry) Status(name string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return e.status, nil
}

// Snapshot returns every target's status keyed by name. Used by the run
// report after all pipelines have terminated.
func (r *Registry) Snapshot() map[string]Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Status, len(r.entries))
	for name, e := range r.entries {
		out[name] = e.status
	}
	return out
}
