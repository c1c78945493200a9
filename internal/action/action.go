// Package action defines the operation and result types shared across the
// executor, poller, and workflow packages.
//
// An Action names one idempotent operation from the fixed remote catalog
// (install-feature, create-domain, join-domain, set-dns, ...). Invoking the
// same action twice against a target already in the desired state yields
// Unchanged, never a second application of the side effect.
package action

// Class describes whether an action mutates remote state or only queries it.
type Class string

const (
	// Mutating actions change remote target state and may require a reboot.
	Mutating Class = "mutating"
	// Query actions only inspect remote state. Readiness probes are queries.
	Query Class = "query"
)

// Action is a named idempotent operation with a parameter set.
// Actions are immutable once defined; the workflow engine never rewrites
// them between invocations.
type Action struct {
	// Name identifies the operation in the remote catalog.
	Name string `yaml:"name"`

	// Params are passed verbatim to the remote action provider.
	Params map[string]string `yaml:"params,omitempty"`

	// Class is Mutating or Query. Defaults to Mutating when loaded from a
	// plan file without an explicit class.
	Class Class `yaml:"class,omitempty"`

	// Critical marks actions whose failure halts the enclosing pipeline
	// and cascades to dependent roles. Informational actions leave it false.
	Critical bool `yaml:"critical,omitempty"`
}

// Outcome classifies the result of one action invocation.
type Outcome string

const (
	// Changed means the action applied its side effect.
	Changed Outcome = "changed"
	// Unchanged means the target was already in the desired state.
	Unchanged Outcome = "unchanged"
	// Failed means the remote operation reported an error or a precondition
	// was unmet.
	Failed Outcome = "failed"
	// Unreachable means the target could not be contacted at all. The
	// readiness poller treats this as transient.
	Unreachable Outcome = "unreachable"
)

// Result is the structured outcome of invoking one action against one target.
// Produced once per invocation and consumed by the workflow engine to decide
// control flow; not persisted beyond the run.
type Result struct {
	Target         string
	Action         string
	Outcome        Outcome
	Diagnostic     string
	RebootRequired bool
}

// Succeeded reports whether the invocation left the target in the desired
// state, i.e. the outcome is Changed or Unchanged.
func (r Result) Succeeded() bool {
	return r.Outcome == Changed || r.Outcome == Unchanged
}
