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

// Package coordinator drives the run state machine: it
// loads/validates a workflow, evaluates governance, then executes steps
// serially, persisting state before and after each transition.
package coordinator

import (
	"context"
	"path/filepath"
	"time"

	"github.com/NSvoltage/BCCE-dev-sub002/internal/metrics"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/tracing"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/audit"
	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/policy"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// Clock abstracts time.Now so run timestamps are reproducible in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config bounds coordinator-level defaults not carried by the workflow
// itself.
type Config struct {
	MaxRunSeconds     int
	DefaultCmdTimeout int
	AuditSinkCapacity int
}

// Coordinator is the reference engine adapter: it is the
// only component that advances a run's state machine.
type Coordinator struct {
	Store    *artifact.Store
	Policy   *policy.Engine
	Registry *executor.Registry
	Clock    Clock
	Config   Config

	// AuditSink is the process-wide secondary audit channel every run's
	// Emitter feeds in addition to its own audit.log. It is shared
	// across runs, not created per-run, matching the single external
	// log-shipper collaborator that drains it.
	AuditSink *audit.Sink
}

// New constructs a Coordinator with its required collaborators,
// explicitly, rather than reaching for a package-level singleton.
func New(store *artifact.Store, policyEngine *policy.Engine, registry *executor.Registry, clock Clock, cfg Config) *Coordinator {
	if clock == nil {
		clock = systemClock{}
	}
	capacity := cfg.AuditSinkCapacity
	if capacity <= 0 {
		capacity = 256
	}
	return &Coordinator{
		Store:     store,
		Policy:    policyEngine,
		Registry:  registry,
		Clock:     clock,
		Config:    cfg,
		AuditSink: audit.NewSink(capacity),
	}
}

// Result is what Run/Resume return to the adapter layer.
type Result struct {
	RunID  string
	Status artifact.RunStatus
}

// Run starts a brand-new run of def under gov.
func (c *Coordinator) Run(ctx context.Context, def *workflow.Definition, gov workflow.GovernanceConfig) (Result, error) {
	runID := artifact.GenerateRunID(c.Clock.Now())

	state, err := c.Store.CreateRun(runID, def, c.Clock.Now())
	if err != nil {
		return Result{}, err
	}

	emitter, err := audit.NewEmitter(c.Store.AuditLogPath(runID), c.AuditSink)
	if err != nil {
		return Result{}, err
	}
	defer emitter.Close()

	return c.drive(ctx, state, def, gov, emitter)
}

// Resume reloads an existing run and continues it. If fromStep is
// non-empty, current_step_index is rewound to that step first.
func (c *Coordinator) Resume(ctx context.Context, runID string, def *workflow.Definition, gov workflow.GovernanceConfig, fromStep string) (Result, error) {
	state, err := c.Store.LoadRunState(runID)
	if err != nil {
		return Result{}, err
	}

	if state.Status == artifact.StatusCompleted {
		return Result{RunID: runID, Status: artifact.StatusCompleted}, nil
	}

	if fromStep != "" {
		idx := indexOf(state, fromStep)
		if idx < 0 {
			return Result{}, &bcceerrors.NotFoundError{Resource: "step", ID: fromStep}
		}
		state.CurrentStepIndex = idx
	}

	// Any step observed running at startup is marked failed, unless the
	// step is declared idempotent, in which case it is retried from
	// scratch.
	crashed := false
	for i := range state.StepResults {
		if state.StepResults[i].Status != artifact.StepRunning {
			continue
		}
		stepDef := findStep(def, state.StepResults[i].StepID)
		if stepDef != nil && stepDef.Idempotent {
			state.StepResults[i] = artifact.StepResult{StepID: state.StepResults[i].StepID, Status: artifact.StepPending}
			_ = c.Store.DiscardPending(runID, state.StepResults[i].StepID)
		} else {
			state.StepResults[i].Status = artifact.StepFailed
			state.StepResults[i].Error = "step was running when the coordinator stopped"
			crashed = true
		}
	}
	if c.Store.IsPending(runID, currentStepID(state)) {
		_ = c.Store.DiscardPending(runID, currentStepID(state))
	}
	state.CurrentStepIndex = state.NextPendingIndex()

	emitter, err := audit.NewEmitter(c.Store.AuditLogPath(runID), c.AuditSink)
	if err != nil {
		return Result{}, err
	}
	defer emitter.Close()

	// A non-idempotent step left failed by the crash ends the run right
	// here; it is not retried, and nothing after it executes.
	if crashed {
		state.Status = artifact.StatusFailed
		return c.finish(state, emitter)
	}

	if err := c.Store.SaveRunState(state); err != nil {
		return Result{}, err
	}

	return c.drive(ctx, state, def, gov, emitter)
}

// Abort signals a running coordinator to stop. In this single-process
// reference implementation, abort is invoked cooperatively by cancelling
// the context passed to Run/Resume; this method persists the resulting
// paused state for a caller that observed the run externally.
func (c *Coordinator) Abort(runID, reason string) (Result, error) {
	state, err := c.Store.LoadRunState(runID)
	if err != nil {
		return Result{}, err
	}
	if state.Status == artifact.StatusCompleted || state.Status == artifact.StatusBlocked {
		return Result{RunID: runID, Status: state.Status}, nil
	}

	state.Status = artifact.StatusPaused
	if err := c.Store.SaveRunState(state); err != nil {
		return Result{}, err
	}

	emitter, err := audit.NewEmitter(c.Store.AuditLogPath(runID), c.AuditSink)
	if err == nil {
		_, _ = emitter.Emit(audit.EventWorkflowError, map[string]any{"reason": "aborted", "detail": reason}, true)
		emitter.Close()
	}

	return Result{RunID: runID, Status: artifact.StatusPaused}, nil
}

// drive runs the state machine from state's current status forward:
// governance evaluation (if not already past it), then serial step
// execution, persisting state before and after every step.
func (c *Coordinator) drive(ctx context.Context, state *artifact.RunState, def *workflow.Definition, gov workflow.GovernanceConfig, emitter *audit.Emitter) (Result, error) {
	ctx, runSpan := tracing.StartRun(ctx, state.RunID, def.Name)
	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()
	defer runSpan.End()

	result, err := c.driveLocked(ctx, state, def, gov, emitter)
	runSpan.SetStatus(string(result.Status), err)
	if err == nil {
		metrics.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	}
	return result, err
}

func (c *Coordinator) driveLocked(ctx context.Context, state *artifact.RunState, def *workflow.Definition, gov workflow.GovernanceConfig, emitter *audit.Emitter) (Result, error) {
	if state.Status == artifact.StatusPending {
		verdict := c.Policy.Evaluate(def, gov)
		for _, v := range verdict.Violations {
			metrics.PolicyDenials.WithLabelValues(v.PolicyName).Inc()
			_, _ = emitter.Emit(audit.EventPolicyViolation, map[string]any{
				"policy":      v.PolicyName,
				"reason_code": v.ReasonCode,
				"step_id":     v.StepID,
				"message":     v.Message,
				"verdict":     string(v.Verdict),
			}, true)
		}
		_, _ = emitter.Emit(audit.EventGovernanceCheck, map[string]any{"verdict": string(verdict.Verdict)}, true)

		switch verdict.Verdict {
		case policy.Block:
			state.Status = artifact.StatusBlocked
			return c.finish(state, emitter)
		case policy.RequireApproval:
			state.Status = artifact.StatusPendingApproval
			_, _ = emitter.Emit(audit.EventApprovalRequest, map[string]any{"run_id": state.RunID}, true)
			return c.finish(state, emitter)
		}
		state.Status = artifact.StatusRunning
		if err := c.Store.SaveRunState(state); err != nil {
			return Result{}, err
		}
	}

	if state.Status == artifact.StatusPaused {
		state.Status = artifact.StatusRunning
		if err := c.Store.SaveRunState(state); err != nil {
			return Result{}, err
		}
	}

	// pending_approval only advances through Approve, never through a
	// bare Resume call, so an operator decision is never bypassed.
	if state.Status != artifact.StatusRunning {
		return Result{RunID: state.RunID, Status: state.Status}, nil
	}

	deadline := time.Time{}
	if c.Config.MaxRunSeconds > 0 {
		deadline = state.StartTime.Add(time.Duration(c.Config.MaxRunSeconds) * time.Second)
	}

	for idx := state.NextPendingIndex(); idx < len(def.Steps); idx = state.NextPendingIndex() {
		select {
		case <-ctx.Done():
			state.Status = artifact.StatusPaused
			return c.finish(state, emitter)
		default:
		}

		if !deadline.IsZero() && c.Clock.Now().After(deadline) {
			state.StepResults[idx].Status = artifact.StepFailed
			state.StepResults[idx].Error = "run exceeded max_run_seconds"
			state.Status = artifact.StatusFailed
			return c.finish(state, emitter)
		}

		step := def.Steps[idx]
		state.CurrentStepIndex = idx
		start := c.Clock.Now()
		state.StepResults[idx].Status = artifact.StepRunning
		state.StepResults[idx].StartTime = &start
		if err := c.Store.SaveRunState(state); err != nil {
			return Result{}, err
		}
		_, _ = emitter.Emit(audit.EventStepStart, map[string]any{"step_id": step.ID, "type": string(step.Type)}, false)

		stepCtx, stepSpan := tracing.StartStep(ctx, state.RunID, step.ID, string(step.Type))

		if err := c.Store.BeginStep(state.RunID, step.ID); err != nil {
			stepSpan.End()
			return Result{}, err
		}

		exec := c.Registry.For(step.Type)
		var outcome executor.Outcome
		if exec == nil {
			outcome = executor.Outcome{ExitCode: 1, Err: workflow.ErrUnknownStepType{Type: string(step.Type)}}
		} else {
			rc := executor.RunContext{
				RunID:                      state.RunID,
				Store:                      c.Store,
				Workflow:                   def,
				WorkflowDir:                workflowDir(def),
				WorkflowEnv:                def.Env,
				GovernanceCmdAllow:         mergeAllowlists(def.CmdAllowlist, gov.CmdAllowlist),
				MaxRunSeconds:              c.Config.MaxRunSeconds,
				DefaultCmdTimeout:          c.Config.DefaultCmdTimeout,
				PrecedingStepIDs:           allStepIDsUpTo(def, idx),
				GovernanceApprovalRequired: gov.ApprovalRequired,
				StepApproved:               state.StepResults[idx].Approved,
			}
			outcome = exec.Execute(stepCtx, step, rc)
		}

		end := c.Clock.Now()
		state.StepResults[idx].EndTime = &end
		state.StepResults[idx].Output = outcome.Output
		exitCode := outcome.ExitCode
		state.StepResults[idx].ExitCode = &exitCode
		metrics.StepDuration.WithLabelValues(string(step.Type)).Observe(end.Sub(start).Seconds())

		switch {
		case outcome.PendingApproval:
			state.StepResults[idx].Status = artifact.StepPending
			state.Status = artifact.StatusPendingApproval
			metrics.StepsTotal.WithLabelValues(string(step.Type), "pending_approval").Inc()
			stepSpan.SetStatus("pending_approval", nil)
			stepSpan.End()
			_, _ = emitter.Emit(audit.EventApprovalRequest, map[string]any{"step_id": step.ID}, true)
			return c.finish(state, emitter)

		case outcome.Err != nil:
			state.StepResults[idx].Error = outcome.Err.Error()
			state.StepResults[idx].Status = artifact.StepFailed
			metrics.StepsTotal.WithLabelValues(string(step.Type), "failed").Inc()
			stepSpan.SetStatus("failed", outcome.Err)
			stepSpan.End()
			_, _ = emitter.Emit(audit.EventStepEnd, map[string]any{
				"step_id": step.ID, "status": "failed", "error": outcome.Err.Error(), "timed_out": outcome.TimedOut,
			}, true)

			if step.EffectiveOnError() == workflow.OnErrorContinue {
				state.StepResults[idx].Status = artifact.StepSkipped
				if err := c.Store.SaveRunState(state); err != nil {
					return Result{}, err
				}
				continue
			}

			state.Status = artifact.StatusFailed
			return c.finish(state, emitter)

		default:
			state.StepResults[idx].Status = artifact.StepCompleted
			metrics.StepsTotal.WithLabelValues(string(step.Type), "completed").Inc()
			stepSpan.SetStatus("completed", nil)
			stepSpan.End()
			_, _ = emitter.Emit(audit.EventStepEnd, map[string]any{"step_id": step.ID, "status": "completed"}, true)
		}

		if err := c.Store.SaveRunState(state); err != nil {
			return Result{}, err
		}
	}

	state.Status = artifact.StatusCompleted
	return c.finish(state, emitter)
}

// finish persists the terminal status and stamps EndTime when the run has
// left the running state for good.
func (c *Coordinator) finish(state *artifact.RunState, emitter *audit.Emitter) (Result, error) {
	if state.Status == artifact.StatusCompleted || state.Status == artifact.StatusFailed || state.Status == artifact.StatusBlocked {
		end := c.Clock.Now()
		state.EndTime = &end
	}
	if err := c.Store.SaveRunState(state); err != nil {
		return Result{}, err
	}
	return Result{RunID: state.RunID, Status: state.Status}, nil
}

func workflowDir(def *workflow.Definition) string {
	if def.SourcePath == "" {
		return ""
	}
	return filepath.Dir(def.SourcePath)
}

func currentStepID(state *artifact.RunState) string {
	idx := state.NextPendingIndex()
	if idx >= len(state.StepResults) {
		return ""
	}
	return state.StepResults[idx].StepID
}

func indexOf(state *artifact.RunState, stepID string) int {
	for i, r := range state.StepResults {
		if r.StepID == stepID {
			return i
		}
	}
	return -1
}

func findStep(def *workflow.Definition, stepID string) *workflow.Step {
	for i := range def.Steps {
		if def.Steps[i].ID == stepID {
			return &def.Steps[i]
		}
	}
	return nil
}

func allStepIDsUpTo(def *workflow.Definition, idx int) []string {
	var ids []string
	for i := 0; i < idx && i < len(def.Steps); i++ {
		ids = append(ids, def.Steps[i].ID)
	}
	return ids
}

// mergeAllowlists unions the workflow-level and governance-level command
// allow-lists; a cmd step's binary must appear in either to launch.
func mergeAllowlists(workflowLevel, governanceLevel []string) []string {
	seen := make(map[string]bool, len(workflowLevel)+len(governanceLevel))
	var out []string
	for _, list := range [][]string{workflowLevel, governanceLevel} {
		for _, bin := range list {
			if !seen[bin] {
				seen[bin] = true
				out = append(out, bin)
			}
		}
	}
	return out
}
