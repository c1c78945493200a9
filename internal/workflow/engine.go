// Package workflow executes role pipelines: ordered stages of actions with
// reboot-then-wait handling and fail-fast semantics on critical failures.
//
// Reboot-then-poll is the single most error-prone motif in multi-stage
// remote provisioning: the endpoint becomes transiently unreachable in a
// known way. It is a first-class stage post-condition here rather than
// retry logic scattered per action.
package workflow

import (
	"context"
	"strconv"
	"time"

	"github.com/provost-dev/provost/internal/action"
	"github.com/provost-dev/provost/internal/executor"
	"github.com/provost-dev/provost/internal/inventory"
	"github.com/provost-dev/provost/internal/metrics"
	"github.com/provost-dev/provost/internal/observe"
	"github.com/provost-dev/provost/internal/plan"
	"github.com/provost-dev/provost/internal/poller"
)

// Budget bounds one readiness wait.
type Budget struct {
	MaxAttempts int
	Delay       time.Duration
}

// Config carries the engine's probe/reboot actions and wait budgets.
type Config struct {
	// Probe is the readiness probe action used by wait post-conditions.
	Probe action.Action
	// Reboot is the action issued by reboot-if-flagged.
	Reboot action.Action
	// RebootWait bounds the readiness wait after an issued reboot.
	RebootWait Budget
	// ReadyWait bounds wait-until-ready post-conditions.
	ReadyWait Budget
}

// Engine runs one role pipeline at a time. Concurrency across roles is the
// composer's concern; within a pipeline, stages and actions are strictly
// sequential because later actions depend on the state left by earlier
// ones.
type Engine struct {
	exec     *executor.Executor
	poll     *poller.Poller
	observer observe.Observer
	cfg      Config
}

// New returns a workflow engine.
func New(exec *executor.Executor, poll *poller.Poller, obs observe.Observer, cfg Config) *Engine {
	if obs == nil {
		obs = observe.NopObserver{}
	}
	return &Engine{exec: exec, poll: poll, observer: obs, cfg: cfg}
}

// RunPipeline executes every stage of pl against targets in order. The
// caller has already satisfied the pipeline's dependency; onCheckpoint is
// invoked after each completed stage so dependents gated on a checkpoint
// can be released while later stages still run. It may be nil.
//
// The first critical failure halts the pipeline; results of informational
// actions are recorded but never stop execution.
func (e *Engine) RunPipeline(ctx context.Context, pl plan.Pipeline, targets []inventory.Target, onCheckpoint func(stage string)) Result {
	obs := e.observer.WithFields(map[string]string{"role": string(pl.Role)})

	result := Result{
		Role:    pl.Role,
		State:   Running,
		Started: time.Now(),
	}
	obs.Event(observe.Event{
		Type:    observe.EventPipelineStarted,
		Role:    string(pl.Role),
		Message: "pipeline entering running state",
	})

	for _, stage := range pl.Stages {
		stageResult, failure := e.runStage(ctx, obs, pl.Role, stage, targets)
		result.Stages = append(result.Stages, stageResult)

		if failure != nil {
			result.State = Failed
			result.Failure = failure
			break
		}

		if onCheckpoint != nil {
			onCheckpoint(stage.Name)
		}
		obs.Event(observe.Event{
			Type:    observe.EventStageCompleted,
			Role:    string(pl.Role),
			Stage:   stage.Name,
			Message: "checkpoint reached",
		})
	}

	if result.State == Running {
		result.State = Completed
	}
	result.Finished = time.Now()

	e.finish(obs, &result)
	return result
}

func (e *Engine) runStage(ctx context.Context, obs observe.Observer, role inventory.Role, stage plan.Stage, targets []inventory.Target) (StageResult, *Failure) {
	stageResult := StageResult{Name: stage.Name, Started: time.Now()}
	obs.Event(observe.Event{
		Type:  observe.EventStageStarted,
		Role:  string(role),
		Stage: stage.Name,
	})

	rebootFlagged := make(map[string]bool)

	for _, act := range stage.Actions {
		for _, target := range targets {
			if err := ctx.Err(); err != nil {
				return stageResult, &Failure{
					Kind:       FailureCancelled,
					Stage:      stage.Name,
					Target:     target.Name,
					Action:     act.Name,
					Diagnostic: "run cancelled: " + err.Error(),
				}
			}

			res := e.exec.Invoke(ctx, target, act)
			stageResult.Actions = append(stageResult.Actions, res)

			if res.RebootRequired {
				rebootFlagged[target.Name] = true
			}

			if !res.Succeeded() && act.Critical {
				kind := FailureAction
				if res.Outcome == action.Unreachable {
					kind = FailureUnreachable
				}
				return stageResult, &Failure{
					Kind:       kind,
					Stage:      stage.Name,
					Target:     target.Name,
					Action:     act.Name,
					Diagnostic: res.Diagnostic,
				}
			}
		}
	}

	if failure := e.runPostCondition(ctx, obs, stage, targets, rebootFlagged, &stageResult); failure != nil {
		return stageResult, failure
	}

	return stageResult, nil
}

// runPostCondition evaluates the stage's post-condition gate. TimedOut and
// Cancelled both fail the stage, with distinct failure kinds.
func (e *Engine) runPostCondition(ctx context.Context, obs observe.Observer, stage plan.Stage, targets []inventory.Target, rebootFlagged map[string]bool, stageResult *StageResult) *Failure {
	switch stage.Post {
	case plan.PostRebootIfFlagged:
		for _, target := range targets {
			if !rebootFlagged[target.Name] {
				continue
			}

			obs.Event(observe.Event{
				Type:    observe.EventRebootIssued,
				Stage:   stage.Name,
				Target:  target.Name,
				Message: "stage flagged reboot required",
			})
			res := e.exec.Invoke(ctx, target, e.cfg.Reboot)
			stageResult.Actions = append(stageResult.Actions, res)
			if !res.Succeeded() && res.Outcome != action.Unreachable {
				// A target that drops the connection mid-reboot is expected;
				// a remote refusal to reboot is not.
				return &Failure{
					Kind:       FailureAction,
					Stage:      stage.Name,
					Target:     target.Name,
					Action:     e.cfg.Reboot.Name,
					Diagnostic: res.Diagnostic,
				}
			}

			if failure := e.waitReady(ctx, stage.Name, target, e.cfg.RebootWait); failure != nil {
				return failure
			}
		}

	case plan.PostWaitUntilReady:
		for _, target := range targets {
			if failure := e.waitReady(ctx, stage.Name, target, e.cfg.ReadyWait); failure != nil {
				return failure
			}
		}
	}

	return nil
}

func (e *Engine) waitReady(ctx context.Context, stage string, target inventory.Target, budget Budget) *Failure {
	wait := e.poll.WaitUntilReady(ctx, target, e.cfg.Probe, budget.MaxAttempts, budget.Delay)
	switch wait.Outcome {
	case poller.Ready:
		return nil
	case poller.Cancelled:
		return &Failure{
			Kind:       FailureCancelled,
			Stage:      stage,
			Target:     target.Name,
			Action:     e.cfg.Probe.Name,
			Diagnostic: "run cancelled during readiness wait",
		}
	default:
		return &Failure{
			Kind:       FailureTimedOut,
			Stage:      stage,
			Target:     target.Name,
			Action:     e.cfg.Probe.Name,
			Diagnostic: "readiness wait exhausted " + strconv.Itoa(wait.Attempts) + " attempts: " + wait.Last.Diagnostic,
		}
	}
}

func (e *Engine) finish(obs observe.Observer, result *Result) {
	metrics.PipelinesTotal.WithLabelValues(string(result.Role), string(result.State)).Inc()
	metrics.PipelineDuration.WithLabelValues(string(result.Role)).
		Observe(result.Finished.Sub(result.Started).Seconds())

	if result.State == Completed {
		obs.Event(observe.Event{
			Type:    observe.EventPipelineCompleted,
			Role:    string(result.Role),
			Message: "all stages processed",
		})
		return
	}

	event := observe.Event{
		Type: observe.EventPipelineFailed,
		Role: string(result.Role),
	}
	if f := result.Failure; f != nil {
		event.Stage = f.Stage
		event.Target = f.Target
		event.Message = f.Diagnostic
		event.Fields = map[string]string{"kind": string(f.Kind)}
	}
	obs.Event(event)
}
