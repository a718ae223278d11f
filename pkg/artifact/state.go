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

// Package artifact owns the on-disk run layout: run state snapshots,
// append-only audit storage paths, and per-step artifact directories.
// It is the only package that writes run-state.json.
package artifact

import (
	"time"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// RunStatus is the coordinator-level state machine status.
type RunStatus string

const (
	StatusPending          RunStatus = "pending"
	StatusRunning          RunStatus = "running"
	StatusCompleted        RunStatus = "completed"
	StatusFailed           RunStatus = "failed"
	StatusPaused           RunStatus = "paused"
	StatusBlocked          RunStatus = "blocked"
	StatusPendingApproval  RunStatus = "pending_approval"
)

// StepStatus is the per-step lifecycle status.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepResult is one entry in RunState.StepResults, one per declared step.
type StepResult struct {
	StepID    string     `json:"step_id"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
	Output    string     `json:"output,omitempty"`
	Error     string     `json:"error,omitempty"`
	// Approved records an operator's approval decision for a step that
	// previously paused on PendingApproval, so a retried execution does
	// not ask again.
	Approved bool `json:"approved,omitempty"`
}

// Terminal reports whether the result will never change again this run.
func (r StepResult) Terminal() bool {
	return r.Status == StepCompleted || r.Status == StepSkipped
}

// RunState is the state-machine memento persisted as run-state.json. It
// is the single source of truth for resume.
type RunState struct {
	RunID            string              `json:"run_id"`
	Workflow         *workflow.Definition `json:"workflow"`
	CurrentStepIndex int                 `json:"current_step_index"`
	StartTime        time.Time           `json:"start_time"`
	EndTime          *time.Time          `json:"end_time,omitempty"`
	Status           RunStatus           `json:"status"`
	StepResults      []StepResult        `json:"step_results"`
}

// NextPendingIndex returns the smallest index whose result is not yet
// completed or skipped, the state-monotonicity invariant. It returns
// len(StepResults) when every step is terminal.
func (s *RunState) NextPendingIndex() int {
	for i, r := range s.StepResults {
		if !r.Terminal() {
			return i
		}
	}
	return len(s.StepResults)
}

// Result returns a pointer to the step result for stepID, or nil.
func (s *RunState) Result(stepID string) *StepResult {
	for i := range s.StepResults {
		if s.StepResults[i].StepID == stepID {
			return &s.StepResults[i]
		}
	}
	return nil
}
