package workflow

import (
	"time"

	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/inventory"
)

// State is the lifecycle state of a role pipeline.
type State string

const (
	// Pending means the pipeline has not yet satisfied its dependency.
	Pending State = "pending"
	// Running means stages are executing.
	Running State = "running"
	// Completed means every stage finished without a critical failure.
	Completed State = "completed"
	// Failed means a critical failure halted the pipeline, an upstream
	// dependency failed, or the run was cancelled.
	Failed State = "failed"
)

// FailureKind classifies why a pipeline failed.
type FailureKind string

const (
	// FailureAction means a critical action reported a remote error.
	FailureAction FailureKind = "action-failed"
	// FailureUnreachable means a critical action could not contact its
	// target.
	FailureUnreachable FailureKind = "unreachable"
	// FailureTimedOut means a readiness wait exhausted its budget.
	FailureTimedOut FailureKind = "timed-out"
	// FailureCancelled means the run's cancellation signal fired.
	FailureCancelled FailureKind = "cancelled"
	// FailureDependency means an upstream pipeline failed before this one
	// started; none of its actions were attempted.
	FailureDependency FailureKind = "dependency-failed"
)

// Failure records the first critical failure of a pipeline.
type Failure struct {
	Kind       FailureKind
	Stage      string
	Target     string
	Action     string
	Diagnostic string
}

// StageResult collects the action results of one executed stage.
type StageResult struct {
	Name    string
	Started time.Time
	Actions []action.Result
}

// Result is the terminal record of one role pipeline.
type Result struct {
	Role     inventory.Role
	State    State
	Stages   []StageResult
	Failure  *Failure
	Started  time.Time
	Finished time.Time
}

// DependencyFailure returns a terminal Failed result for a pipeline whose
// upstream dependency failed; no actions were attempted.
func DependencyFailure(role inventory.Role, upstream inventory.Role) Result {
	now := time.Now()
	return Result{
		Role:     role,
		State:    Failed,
		Started:  now,
		Finished: now,
		Failure: &Failure{
			Kind:       FailureDependency,
			Diagnostic: "upstream pipeline " + string(upstream) + " failed",
		},
	}
}

// CancelledBeforeStart returns a terminal Failed result for a pipeline that
// never left Pending because the run was cancelled.
func CancelledBeforeStart(role inventory.Role) Result {
	now := time.Now()
	return Result{
		Role:     role,
		State:    Failed,
		Started:  now,
		Finished: now,
		Failure: &Failure{
			Kind:       FailureCancelled,
			Diagnostic: "run cancelled before pipeline started",
		},
	}
}
