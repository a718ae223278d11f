package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/coordinator"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/policy"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

type fixedClock struct{ at time.Time }

func (f fixedClock) Now() time.Time { return f.at }

type alwaysOK struct{}

func (alwaysOK) Execute(_ context.Context, step workflow.Step, rc executor.RunContext) executor.Outcome {
	_ = rc.Store.BeginStep(rc.RunID, step.ID)
	_ = rc.Store.Finalize(rc.RunID, step.ID)
	return executor.Outcome{ExitCode: 0}
}

func newAdapter(t *testing.T) *ReferenceAdapter {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	registry := executor.NewRegistry()
	registry.Register(workflow.StepCmd, alwaysOK{})
	co := coordinator.New(store, policy.NewEngine(nil), registry, fixedClock{at: time.Unix(0, 0)}, coordinator.Config{})
	return NewReferenceAdapter(co, store, nil)
}

func TestValidateRejectsMissingName(t *testing.T) {
	a := newAdapter(t)
	def := &workflow.Definition{Version: 1, Steps: []workflow.Step{{ID: "a", Type: workflow.StepCmd, Command: "echo hi"}}}

	result := a.Validate(def)
	if result.Valid {
		t.Fatalf("expected invalid for missing name")
	}
}

func TestExecuteWithGovernanceRunsToCompletion(t *testing.T) {
	a := newAdapter(t)
	def := &workflow.Definition{
		Version: 1, Name: "demo",
		Steps: []workflow.Step{{ID: "a", Type: workflow.StepCmd, Command: "echo hi"}},
	}

	res, err := a.ExecuteWithGovernance(context.Background(), def, workflow.GovernanceConfig{})
	if err != nil {
		t.Fatalf("ExecuteWithGovernance: %v", err)
	}
	if res.Status != artifact.StatusCompleted {
		t.Fatalf("expected completed, got %s", res.Status)
	}
	if !res.Compliant {
		t.Fatalf("expected compliant result")
	}
	if len(res.AuditTrail) == 0 {
		t.Fatalf("expected a non-empty audit trail")
	}
}

func TestExecuteWithGovernanceRejectsInvalidWorkflow(t *testing.T) {
	a := newAdapter(t)
	def := &workflow.Definition{Version: 1, Steps: []workflow.Step{}}

	res, err := a.ExecuteWithGovernance(context.Background(), def, workflow.GovernanceConfig{})
	if err != nil {
		t.Fatalf("ExecuteWithGovernance: %v", err)
	}
	if res.Status != artifact.StatusBlocked {
		t.Fatalf("expected blocked on invalid workflow, got %s", res.Status)
	}
	if len(res.Errors) == 0 {
		t.Fatalf("expected validation errors surfaced")
	}
}

func TestAbortThenResume(t *testing.T) {
	a := newAdapter(t)
	def := &workflow.Definition{
		Version: 1, Name: "demo",
		Steps: []workflow.Step{{ID: "a", Type: workflow.StepCmd, Command: "echo hi"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := a.ExecuteWithGovernance(ctx, def, workflow.GovernanceConfig{})
	if err != nil {
		t.Fatalf("ExecuteWithGovernance: %v", err)
	}
	if res.Status != artifact.StatusPaused {
		t.Fatalf("expected paused on cancelled context, got %s", res.Status)
	}

	resumed, err := a.Resume(context.Background(), res.RunID, "")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed.Status != artifact.StatusCompleted {
		t.Fatalf("expected completed after resume, got %s", resumed.Status)
	}
}
