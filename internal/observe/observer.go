// Package observe provides structured observability for a provisioning run.
// Pipelines, stages, actions, and readiness polls emit typed events; the
// console sink renders them as log lines. Field scoping via WithFields lets
// a pipeline attach its role to everything it emits.
package observe

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Observer is the sink for run events.
type Observer interface {
	// Printf emits an unstructured log line.
	Printf(format string, v ...interface{})

	// Event emits a structured event.
	Event(event Event)

	// WithFields returns an Observer that attaches the given fields to
	// every event it emits.
	WithFields(fields map[string]string) Observer
}

// Event is one structured run event.
type Event struct {
	Type      EventType
	Role      string
	Stage     string
	Target    string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType identifies the kind of run event.
type EventType string

const (
	// EventPipelineStarted indicates a role pipeline entered Running.
	EventPipelineStarted EventType = "pipeline.started"
	// EventPipelineCompleted indicates a role pipeline completed.
	EventPipelineCompleted EventType = "pipeline.completed"
	// EventPipelineFailed indicates a role pipeline failed.
	EventPipelineFailed EventType = "pipeline.failed"
	// EventPipelineSkipped indicates a pipeline failed without executing
	// because an upstream dependency failed.
	EventPipelineSkipped EventType = "pipeline.skipped"

	// EventStageStarted indicates a stage began executing.
	EventStageStarted EventType = "stage.started"
	// EventStageCompleted indicates a stage finished, checkpoint reached.
	EventStageCompleted EventType = "stage.completed"

	// EventActionApplied indicates an action changed remote state.
	EventActionApplied EventType = "action.applied"
	// EventActionUnchanged indicates the target was already in the
	// desired state.
	EventActionUnchanged EventType = "action.unchanged"
	// EventActionFailed indicates an action failed or the target was
	// unreachable.
	EventActionFailed EventType = "action.failed"

	// EventPollWaiting indicates a readiness probe attempt failed and the
	// poller is sleeping before the next one.
	EventPollWaiting EventType = "poll.waiting"
	// EventPollReady indicates a target answered its readiness probe.
	EventPollReady EventType = "poll.ready"
	// EventPollTimedOut indicates the poll attempt budget was exhausted.
	EventPollTimedOut EventType = "poll.timedout"

	// EventRebootIssued indicates a reboot action was dispatched after a
	// stage flagged one as required.
	EventRebootIssued EventType = "reboot.issued"
)

// ConsoleObserver renders events through the standard log package.
type ConsoleObserver struct {
	contextFields map[string]string
}

// NewConsoleObserver returns a console-backed observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{contextFields: make(map[string]string)}
}

// Printf implements Observer.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Fields == nil {
		event.Fields = make(map[string]string)
	}
	for k, v := range o.contextFields {
		if _, exists := event.Fields[k]; !exists {
			event.Fields[k] = v
		}
	}
	log.Print(formatEvent(event))
}

// WithFields implements Observer.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	merged := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ConsoleObserver{contextFields: merged}
}

func formatEvent(event Event) string {
	var parts []string
	parts = append(parts, string(event.Type))

	if event.Role != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Role))
	}
	if event.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", event.Stage))
	}
	if event.Target != "" {
		parts = append(parts, fmt.Sprintf("target=%s", event.Target))
	}
	if event.Message != "" {
		parts = append(parts, event.Message)
	}
	if len(event.Fields) > 0 {
		var fieldParts []string
		for k, v := range event.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, v))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	return strings.Join(parts, " ")
}

// NopObserver discards everything. Used in tests.
type NopObserver struct{}

// Printf implements Observer.
func (NopObserver) Printf(string, ...interface{}) {}

// Event implements Observer.
func (NopObserver) Event(Event) {}

// WithFields implements Observer.
func (n NopObserver) WithFields(map[string]string) Observer { return n }
