// Package poller waits for targets to answer a readiness probe. One bounded
// fixed-delay loop replaces the ad hoc reboot-wait retry patterns the rest
// of the engine would otherwise grow; readiness probes are the only thing
// the system ever retries silently.
package poller

import (
	"context"
	"strconv"
	"time"

	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/executor"
	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/metrics"
	"github.com/provost-dev/provost/internal/observe"
)

// Outcome is the terminal result of a readiness wait.
type Outcome string

const (
	// Ready means the probe succeeded within the attempt budget.
	Ready Outcome = "ready"
	// TimedOut means the budget was exhausted without a successful probe.
	// Always a critical failure for the enclosing stage.
	TimedOut Outcome = "timed-out"
	// Cancelled means the run's cancellation signal fired mid-poll.
	// Distinct from TimedOut so reports never misattribute an abort.
	Cancelled Outcome = "cancelled"
)

// Result describes how a readiness wait ended.
type Result struct {
	Outcome  Outcome
	Attempts int
	// Last is the result of the final probe invocation, zero-valued when
	// cancellation fired before any attempt completed its follow-up.
	Last action.Result
}

// Poller drives probe actions through the executor.
type Poller struct {
	exec     *executor.Executor
	observer observe.Observer
}

// New returns a poller over the given executor.
func New(exec *executor.Executor, obs observe.Observer) *Poller {
	if obs == nil {
		obs = observe.NopObserver{}
	}
	return &Poller{exec: exec, observer: obs}
}

// WaitUntilReady invokes probe against target until it succeeds, the
// attempt budget is exhausted, or ctx is cancelled. The probe is invoked at
// most maxAttempts times with delay between attempts; success on any
// attempt returns Ready immediately. Cancellation is honored within one
// delay interval.
func (p *Poller) WaitUntilReady(ctx context.Context, target inventory.Target, probe action.Action, maxAttempts int, delay time.Duration) Result {
	result := Result{Outcome: TimedOut}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			result.Outcome = Cancelled
			break
		}

		result.Attempts = attempt
		result.Last = p.exec.Invoke(ctx, target, probe)

		if result.Last.Succeeded() {
			result.Outcome = Ready
			p.observer.Event(observe.Event{
				Type:    observe.EventPollReady,
				Target:  target.Name,
				Message: "target answered readiness probe",
				Fields:  map[string]string{"attempts": strconv.Itoa(attempt)},
			})
			break
		}

		if attempt == maxAttempts {
			p.observer.Event(observe.Event{
				Type:    observe.EventPollTimedOut,
				Target:  target.Name,
				Message: result.Last.Diagnostic,
				Fields:  map[string]string{"attempts": strconv.Itoa(attempt)},
			})
			break
		}

		p.observer.Event(observe.Event{
			Type:    observe.EventPollWaiting,
			Target:  target.Name,
			Message: result.Last.Diagnostic,
			Fields: map[string]string{
				"attempt":   strconv.Itoa(attempt),
				"remaining": strconv.Itoa(maxAttempts - attempt),
			},
		})

		select {
		case <-ctx.Done():
			result.Outcome = Cancelled
		case <-time.After(delay):
			continue
		}
		break
	}

	metrics.PollAttempts.WithLabelValues(target.Name).Observe(float64(result.Attempts))
	return result
}

