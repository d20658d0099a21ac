package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultAborted  = "aborted"
	ResultDeclined = "declined"
	ResultApproved = "approved"
)

// Recorder owns the trash metrics on a private registry.
// A short-lived command cannot be scraped, so the registry is written out
// for the node_exporter textfile collector instead.
type Recorder struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	ItemsTotal         *prometheus.CounterVec
	ConfirmationsTotal *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	LastRunTimestamp   prometheus.Gauge
}

// New creates and registers all trash metrics
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		RunsTotal: NewCounterVec(
			"trash_runs_total",
			"Trash runs that reached the recycle bin call, by result.",
			[]string{"result"},
		),
		ItemsTotal: NewCounterVec(
			"trash_items_total",
			"Items handed to the recycle bin, by run result.",
			[]string{"result"},
		),
		ConfirmationsTotal: NewCounterVec(
			"trash_confirmations_total",
			"Confirmation decisions by tier and result.",
			[]string{"tier", "result"},
		),
		RunDuration: NewDurationHistogram(
			"trash_run_duration_seconds",
			"Duration of the recycle bin call in seconds, prompts excluded.",
		),
		LastRunTimestamp: NewGauge(
			"trash_last_run_timestamp_seconds",
			"Timestamp of the last trash run (Unix epoch seconds).",
		),
	}

	r.registry.MustRegister(
		r.RunsTotal,
		r.ItemsTotal,
		r.ConfirmationsTotal,
		r.RunDuration,
		r.LastRunTimestamp,
	)
	return r
}

// Registry exposes the underlying registry as a gatherer
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordConfirmation counts one confirmation decision
func (r *Recorder) RecordConfirmation(tier string, approved bool) {
	result := ResultDeclined
	if approved {
		result = ResultApproved
	}
	r.ConfirmationsTotal.WithLabelValues(tier, result).Inc()
}

// RecordRun counts a finished recycle bin call
func (r *Recorder) RecordRun(items int, succeeded, aborted bool, duration time.Duration) {
	result := ResultSuccess
	switch {
	case aborted:
		result = ResultAborted
	case !succeeded:
		result = ResultFailed
	}
	r.RunsTotal.WithLabelValues(result).Inc()
	r.ItemsTotal.WithLabelValues(result).Add(float64(items))
	r.RunDuration.Observe(duration.Seconds())
	r.LastRunTimestamp.Set(float64(time.Now().Unix()))
}

// WriteTextfile atomically writes the registry in text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

