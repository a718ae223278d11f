// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics registers the Prometheus collectors the coordinator
// and policy engine update as runs progress.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished runs by terminal status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bcce_runs_total",
			Help: "Total workflow runs by terminal status",
		},
		[]string{"status"},
	)

	// StepsTotal counts finished steps by type and outcome.
	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bcce_steps_total",
			Help: "Total steps executed by step type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// StepDuration records wall-clock step execution time.
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bcce_step_duration_seconds",
			Help: "Step execution duration in seconds",
		},
		[]string{"type"},
	)

	// ActiveRuns gauges runs currently in a non-terminal status.
	ActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bcce_active_runs",
			Help: "Number of runs currently running or paused",
		},
	)

	// AuditEventsDropped counts audit events lost to a full buffered sink.
	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bcce_audit_events_dropped_total",
			Help: "Total audit events dropped because the sink buffer was full",
		},
	)

	// PolicyDenials counts governance denials by policy family.
	PolicyDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bcce_policy_denials_total",
			Help: "Total policy denials by policy family",
		},
		[]string{"policy"},
	)
)
