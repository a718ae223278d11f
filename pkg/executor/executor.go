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

// Package executor defines the shared step-execution contract and its variant implementations (prompt, cmd, agent, apply-diff).
// Executors never propagate fatal errors across their boundary; they
// return a normalized Outcome and let the coordinator decide what to do
// with a failure.
package executor

import (
	"context"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// RunContext carries the per-run collaborators an executor needs: the
// artifact store (scoped to one run), the workflow's own env block, the
// run and step identifiers, and the governance-level command allow-list
// that supplements the workflow's own.
type RunContext struct {
	RunID              string
	Store              *artifact.Store
	Workflow           *workflow.Definition
	WorkflowDir        string
	WorkflowEnv        map[string]string
	GovernanceCmdAllow []string
	MaxRunSeconds      int
	DefaultCmdTimeout  int
	// GovernanceApprovalRequired mirrors GovernanceConfig.ApprovalRequired
	// for the current run; the apply-diff executor consults it to decide
	// whether an approve: true step must pause for approval.
	GovernanceApprovalRequired bool
	// StepApproved is true when an operator already approved this exact
	// step on a prior pause, so a retried execution proceeds instead of
	// pausing again.
	StepApproved bool
	// PrecedingStepIDs lists, in workflow order, every step declared
	// before the one being executed. Used by the apply-diff executor to
	// scan prior transcripts.
	PrecedingStepIDs []string
}

// Outcome is the normalized result every executor returns, regardless of
// step type. A non-nil Err is recorded in the step result but never
// thrown past this boundary.
type Outcome struct {
	ExitCode        int
	Output          string
	Err             error
	TimedOut        bool
	PendingApproval bool
	ArtifactsWritten []string
}

// Executor executes one step under its policy and emits artifacts
// through the RunContext's Store.
type Executor interface {
	Execute(ctx context.Context, step workflow.Step, rc RunContext) Outcome
}
