// Package metrics exposes Prometheus metrics for a provisioning run and an
// optional /metrics listener for long-running invocations.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActionsTotal counts action invocations by action name and outcome.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provost",
			Subsystem: "executor",
			Name:      "actions_total",
			Help:      "Total number of action invocations by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// PipelinesTotal counts role pipelines by terminal state.
	PipelinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "provost",
			Subsystem: "workflow",
			Name:      "pipelines_total",
			Help:      "Total number of role pipelines by terminal state",
		},
		[]string{"role", "state"},
	)

	// PipelineDuration observes wall-clock pipeline duration per role.
	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "provost",
			Subsystem: "workflow",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of role pipelines in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
		},
		[]string{"role"},
	)

	// PollAttempts observes how many probe attempts a readiness wait took.
	PollAttempts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "provost",
			Subsystem: "poller",
			Name:      "poll_attempts",
			Help:      "Number of probe attempts per readiness wait",
			Buckets:   prometheus.LinearBuckets(1, 5, 13), // 1 to 61 attempts
		},
		[]string{"target"},
	)
)

func init() {
	prometheus.MustRegister(
		ActionsTotal,
		PipelinesTotal,
		PipelineDuration,
		PollAttempts,
	)
}

// Serve exposes /metrics on addr until ctx is cancelled. It blocks, so run
// it in its own goroutine alongside the provisioning run.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
