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

package coordinator

import (
	"context"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/audit"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// validTransitions enumerates the legal run-level state transitions.
// It is consulted by Approve/Reject before mutating a
// run's status directly, so an operator action can never jump to a state
// drive itself would not have produced.
var validTransitions = map[artifact.RunStatus][]artifact.RunStatus{
	artifact.StatusPending: {
		artifact.StatusRunning,
		artifact.StatusBlocked,
		artifact.StatusPendingApproval,
	},
	artifact.StatusRunning: {
		artifact.StatusCompleted,
		artifact.StatusFailed,
		artifact.StatusPaused,
		artifact.StatusPendingApproval,
	},
	artifact.StatusPaused: {
		artifact.StatusRunning,
	},
	artifact.StatusPendingApproval: {
		artifact.StatusRunning, // approved
		artifact.StatusBlocked, // rejected
	},
}

// CanTransition reports whether moving a run from `from` to `to` is a
// legal edge in the state machine.
func CanTransition(from, to artifact.RunStatus) bool {
	for _, candidate := range validTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Approve moves a run out of pending_approval into running, persists the
// decision, then continues execution from wherever it paused — the
// approval-gate path of an apply-diff step or a governance
// require_approval verdict.
func (c *Coordinator) Approve(ctx context.Context, runID, actor string, def *workflow.Definition, gov workflow.GovernanceConfig) (Result, error) {
	state, err := c.Store.LoadRunState(runID)
	if err != nil {
		return Result{}, err
	}
	if !CanTransition(state.Status, artifact.StatusRunning) {
		return Result{RunID: runID, Status: state.Status}, nil
	}

	emitter, err := audit.NewEmitter(c.Store.AuditLogPath(runID), c.AuditSink)
	if err != nil {
		return Result{}, err
	}
	defer emitter.Close()
	_, _ = emitter.EmitWithActor(audit.EventApprovalDecision, map[string]any{"decision": "approved"}, actor, true)

	state.Status = artifact.StatusRunning
	if idx := state.NextPendingIndex(); idx < len(state.StepResults) {
		state.StepResults[idx].Approved = true
	}
	if err := c.Store.SaveRunState(state); err != nil {
		return Result{}, err
	}
	return c.drive(ctx, state, def, gov, emitter)
}

// Reject moves a run out of pending_approval into blocked.
func (c *Coordinator) Reject(runID, actor, reason string) (Result, error) {
	state, err := c.Store.LoadRunState(runID)
	if err != nil {
		return Result{}, err
	}
	if !CanTransition(state.Status, artifact.StatusBlocked) {
		return Result{RunID: runID, Status: state.Status}, nil
	}

	emitter, err := audit.NewEmitter(c.Store.AuditLogPath(runID), c.AuditSink)
	if err != nil {
		return Result{}, err
	}
	defer emitter.Close()
	_, _ = emitter.EmitWithActor(audit.EventApprovalDecision, map[string]any{"decision": "rejected", "reason": reason}, actor, true)

	state.Status = artifact.StatusBlocked
	end := c.Clock.Now()
	state.EndTime = &end
	if err := c.Store.SaveRunState(state); err != nil {
		return Result{}, err
	}
	return Result{RunID: runID, Status: artifact.StatusBlocked}, nil
}
