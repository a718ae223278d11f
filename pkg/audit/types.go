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

// Package audit is the single choke point every other component emits
// events through. It owns audit.log and never mutates or
// reorders an entry once appended.
package audit

import "time"

// EventType is the controlled vocabulary of audit events.
type EventType string

const (
	EventGovernanceCheck   EventType = "governance_check"
	EventPolicyViolation   EventType = "policy_violation"
	EventBudgetCheck       EventType = "budget_check"
	EventStepStart         EventType = "step_start"
	EventStepEnd           EventType = "step_end"
	EventWorkflowError     EventType = "workflow_error"
	EventApprovalRequest   EventType = "approval_request"
	EventApprovalDecision  EventType = "approval_decision"
	EventDroppedEvents     EventType = "dropped_events"
)

// Entry is one line of audit.log: a monotonically sequenced, append-only
// record.
type Entry struct {
	Sequence  uint64         `json:"sequence"`
	Timestamp time.Time      `json:"timestamp"`
	Event     EventType      `json:"event"`
	Details   map[string]any `json:"details,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Cost      *float64       `json:"cost,omitempty"`
}
