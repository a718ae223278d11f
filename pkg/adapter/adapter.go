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

// Package adapter defines the façade a caller drives instead of talking
// to pkg/coordinator directly, so a second underlying execution engine
// can be wrapped with the same governance contract later. Dependency
// direction is one-way: adapters depend on coordinator, never the
// inverse.
package adapter

import (
	"context"
	"time"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/audit"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// Adapter is the four-operation contract every engine wrapper exposes.
// Implementations must not reorder a workflow's steps or mutate its
// Definition.
type Adapter interface {
	ExecuteWithGovernance(ctx context.Context, def *workflow.Definition, gov workflow.GovernanceConfig) (GovernedResult, error)
	Validate(def *workflow.Definition) workflow.ValidationResult
	Resume(ctx context.Context, runID string, fromStep string) (GovernedResult, error)
	Abort(runID, reason string) (GovernedResult, error)
}

// GovernedResult is the uniform outcome of any governed operation,
// engine-agnostic at the top level with an engine-specific payload
// underneath.
type GovernedResult struct {
	RunID          string
	WorkflowName   string
	Status         artifact.RunStatus
	AppliedPolicies []string
	Compliant      bool
	AuditTrail     []audit.Entry
	Payload        any
	Errors         []string
	StartTime      time.Time
	EndTime        *time.Time
}

// Terminal reports whether Status will never change again without an
// explicit operator action (Approve/Reject/Resume).
func (r GovernedResult) Terminal() bool {
	switch r.Status {
	case artifact.StatusCompleted, artifact.StatusFailed, artifact.StatusBlocked:
		return true
	}
	return false
}
