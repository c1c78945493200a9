// Package report aggregates the outcome of one run across all pipelines
// and targets. A RunReport is terminal and write-once: the composer builds
// it after every pipeline has reached a terminal state.
package report

import (
	"time"

	"github.com/provost-dev/provost/internal/registry"
	"github.com/provost-dev/provost/internal/workflow"
)

// RunReport is the aggregated outcome of one invocation.
type RunReport struct {
	Started  time.Time
	Finished time.Time

	// Pipelines in dependency order, one terminal result per declared role.
	Pipelines []workflow.Result

	// Targets maps every registered target to its last known status.
	Targets map[string]registry.Status
}

// Succeeded reports whether every pipeline completed.
func (r *RunReport) Succeeded() bool {
	for _, pl := range r.Pipelines {
		if pl.State != workflow.Completed {
			return false
		}
	}
	return true
}

// FailedPipelines returns the results of pipelines that did not complete.
func (r *RunReport) FailedPipelines() []workflow.Result {
	var failed []workflow.Result
	for _, pl := range r.Pipelines {
		if pl.State != workflow.Completed {
			failed = append(failed, pl)
		}
	}
	return failed
}

// Duration is the wall-clock time of the whole run.
func (r *RunReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
