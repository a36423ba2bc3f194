// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics registers the engine's Prometheus collectors. All
// collectors use promauto so they are live as soon as the package is
// imported; serving them is the caller's choice (see the --metrics-addr
// flag on the CLI).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StepDuration observes wall time per workflow step, labelled by the
	// step name (routing, searching, synthesizing, auditing, revising).
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "evidence_engine",
		Name:      "step_duration_seconds",
		Help:      "Wall time spent in each workflow step.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"step"})

	// SafetyIssues counts audit findings by issue type and severity.
	SafetyIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evidence_engine",
		Name:      "safety_issues_total",
		Help:      "Safety audit findings by type and severity.",
	}, []string{"type", "severity"})

	// SourceFailures counts evidence source calls that ended in error.
	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evidence_engine",
		Name:      "source_failures_total",
		Help:      "Evidence source calls that failed.",
	}, []string{"source"})

	// Runs counts completed workflow runs by terminal state.
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evidence_engine",
		Name:      "runs_total",
		Help:      "Completed workflow runs by terminal state.",
	}, []string{"state"})
)
