package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/policy"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// stepClock hands out strictly increasing timestamps, one tick per call,
// so max_run_seconds deadlines are exercised deterministically.
type stepClock struct {
	at   time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	now := c.at
	c.at = c.at.Add(c.step)
	return now
}

// stubExecutor returns a fixed Outcome (or one per call, cycling) and
// always finalizes the step directory so artifact bookkeeping stays
// consistent with a real executor.
type stubExecutor struct {
	outcomes []executor.Outcome
	calls    int
}

func (s *stubExecutor) Execute(_ context.Context, step workflow.Step, rc executor.RunContext) executor.Outcome {
	out := s.outcomes[s.calls%len(s.outcomes)]
	s.calls++
	_ = rc.Store.Finalize(rc.RunID, step.ID)
	return out
}

func newHarness(t *testing.T) (*artifact.Store, *executor.Registry) {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, executor.NewRegistry()
}

func twoStepWorkflow() *workflow.Definition {
	return &workflow.Definition{
		Version: 1,
		Name:    "demo",
		Steps: []workflow.Step{
			{ID: "first", Type: workflow.StepCmd, Command: "echo one"},
			{ID: "second", Type: workflow.StepCmd, Command: "echo two"},
		},
	}
}

// Scenario A: a two-step workflow with no governance policies runs to
// completion, every step recorded completed in declared order.
func TestHappyPathCompletesAllSteps(t *testing.T) {
	store, registry := newHarness(t)
	registry.Register(workflow.StepCmd, &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}})

	co := New(store, policy.NewEngine(nil), registry, &stepClock{at: time.Unix(0, 0)}, Config{})
	def := twoStepWorkflow()

	res, err := co.Run(context.Background(), def, workflow.GovernanceConfig{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != artifact.StatusCompleted {
		t.Fatalf("expected completed, got %s", res.Status)
	}

	state, err := store.LoadRunState(res.RunID)
	if err != nil {
		t.Fatalf("LoadRunState: %v", err)
	}
	for _, r := range state.StepResults {
		if r.Status != artifact.StepCompleted {
			t.Fatalf("step %s: expected completed, got %s", r.StepID, r.Status)
		}
	}
	if state.EndTime == nil {
		t.Fatalf("expected EndTime to be stamped on completion")
	}
}

// A successful run's audit events reach the shared sink, not just
// audit.log, since the sink is the only channel an external
// log-shipper collaborator can drain from.
func TestRunFeedsTheSharedAuditSink(t *testing.T) {
	store, registry := newHarness(t)
	registry.Register(workflow.StepCmd, &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}})

	co := New(store, policy.NewEngine(nil), registry, &stepClock{at: time.Unix(0, 0)}, Config{})
	def := twoStepWorkflow()

	if _, err := co.Run(context.Background(), def, workflow.GovernanceConfig{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case <-co.AuditSink.Chan():
	default:
		t.Fatalf("expected at least one audit entry on the shared sink")
	}
}

// Scenario C: an agent step that times out fails the run; on_error
// defaults to fail, so the second step never executes.
func TestAgentTimeoutFailsRun(t *testing.T) {
	store, registry := newHarness(t)
	timeoutErr := &bcceerrors.ExecutionError{StepID: "fix", Reason: "deadline exceeded", TimedOut: true, ExitCode: 1}
	registry.Register(workflow.StepAgent, &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 1, Err: timeoutErr, TimedOut: true}}})
	second := &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}}
	registry.Register(workflow.StepCmd, second)

	co := New(store, policy.NewEngine(nil), registry, &stepClock{at: time.Unix(0, 0)}, Config{})
	def := &workflow.Definition{
		Version: 1, Name: "demo",
		Steps: []workflow.Step{
			{ID: "fix", Type: workflow.StepAgent, Policy: &workflow.AgentPolicy{TimeoutSeconds: 5, AllowedPaths: []string{}, CmdAllowlist: []string{}}},
			{ID: "after", Type: workflow.StepCmd, Command: "echo after"},
		},
	}

	res, err := co.Run(context.Background(), def, workflow.GovernanceConfig{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != artifact.StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	if second.calls != 0 {
		t.Fatalf("expected downstream step never to execute after a failing step, calls=%d", second.calls)
	}

	state, _ := store.LoadRunState(res.RunID)
	if state.Result("fix").Status != artifact.StepFailed {
		t.Fatalf("expected fix step failed, got %s", state.Result("fix").Status)
	}
	if state.Result("after").Status != artifact.StepPending {
		t.Fatalf("expected after step left pending, got %s", state.Result("after").Status)
	}
}

// Scenario D: a run crashes mid-step (state left at "running"); Resume
// marks the interrupted step failed and does not retry it.
func TestResumeAfterCrashMarksRunningStepFailed(t *testing.T) {
	store, registry := newHarness(t)
	resumed := &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}}
	registry.Register(workflow.StepCmd, resumed)

	def := twoStepWorkflow()
	clock := &stepClock{at: time.Unix(0, 0)}
	co := New(store, policy.NewEngine(nil), registry, clock, Config{})

	state, err := store.CreateRun("run-crash", def, clock.Now())
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	state.Status = artifact.StatusRunning
	state.StepResults[0].Status = artifact.StepRunning
	if err := store.BeginStep("run-crash", "first"); err != nil {
		t.Fatalf("BeginStep: %v", err)
	}
	if err := store.SaveRunState(state); err != nil {
		t.Fatalf("SaveRunState: %v", err)
	}

	res, err := co.Resume(context.Background(), "run-crash", def, workflow.GovernanceConfig{}, "")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if res.Status != artifact.StatusFailed {
		t.Fatalf("expected failed after crash recovery, got %s", res.Status)
	}
	if resumed.calls != 0 {
		t.Fatalf("expected the crashed non-idempotent step not to be retried, calls=%d", resumed.calls)
	}

	final, _ := store.LoadRunState("run-crash")
	if final.Result("first").Status != artifact.StepFailed {
		t.Fatalf("expected first step failed, got %s", final.Result("first").Status)
	}
}

// Resume after a crash on an idempotent step retries it from scratch
// instead of leaving it failed.
func TestResumeRetriesIdempotentStep(t *testing.T) {
	store, registry := newHarness(t)
	resumed := &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}}
	registry.Register(workflow.StepCmd, resumed)

	def := &workflow.Definition{
		Version: 1, Name: "demo",
		Steps: []workflow.Step{
			{ID: "first", Type: workflow.StepCmd, Command: "echo one", Idempotent: true},
		},
	}
	clock := &stepClock{at: time.Unix(0, 0)}
	co := New(store, policy.NewEngine(nil), registry, clock, Config{})

	state, err := store.CreateRun("run-crash-idem", def, clock.Now())
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	state.Status = artifact.StatusRunning
	state.StepResults[0].Status = artifact.StepRunning
	if err := store.BeginStep("run-crash-idem", "first"); err != nil {
		t.Fatalf("BeginStep: %v", err)
	}
	if err := store.SaveRunState(state); err != nil {
		t.Fatalf("SaveRunState: %v", err)
	}

	res, err := co.Resume(context.Background(), "run-crash-idem", def, workflow.GovernanceConfig{}, "")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if res.Status != artifact.StatusCompleted {
		t.Fatalf("expected completed after retrying idempotent step, got %s", res.Status)
	}
	if resumed.calls != 1 {
		t.Fatalf("expected the idempotent step to be retried exactly once, calls=%d", resumed.calls)
	}
}

// Scenario F: a workflow missing a required agent policy trips the
// security family's block verdict before any step executes.
func TestGovernanceBlockPreventsExecution(t *testing.T) {
	store, registry := newHarness(t)
	agentExec := &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}}
	registry.Register(workflow.StepAgent, agentExec)

	def := &workflow.Definition{
		Version: 1, Name: "demo", Guardrails: []string{"no-secrets"},
		Steps: []workflow.Step{{ID: "fix", Type: workflow.StepAgent}}, // no Policy set
	}

	co := New(store, policy.NewEngine(nil), registry, &stepClock{at: time.Unix(0, 0)}, Config{})
	res, err := co.Run(context.Background(), def, workflow.GovernanceConfig{Policies: []string{"security"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != artifact.StatusBlocked {
		t.Fatalf("expected blocked, got %s", res.Status)
	}
	if agentExec.calls != 0 {
		t.Fatalf("expected no step to execute under a blocking verdict, calls=%d", agentExec.calls)
	}
}

// A require_approval verdict pauses the run before any step executes;
// Approve then lets it proceed to completion.
func TestGovernanceRequireApprovalThenApproveCompletes(t *testing.T) {
	store, registry := newHarness(t)
	registry.Register(workflow.StepCmd, &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}})

	def := twoStepWorkflow()
	gov := workflow.GovernanceConfig{
		Policies:             []string{"compliance"},
		ComplianceFrameworks: []workflow.ComplianceFramework{"soc2"},
		// AuditLevel and RetentionDays deliberately left unset to trip
		// the compliance family's require_approval verdict.
	}

	co := New(store, policy.NewEngine(nil), registry, &stepClock{at: time.Unix(0, 0)}, Config{})
	res, err := co.Run(context.Background(), def, gov)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != artifact.StatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", res.Status)
	}

	// Resume must not silently bypass the approval gate.
	stuck, err := co.Resume(context.Background(), res.RunID, def, gov, "")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if stuck.Status != artifact.StatusPendingApproval {
		t.Fatalf("expected Resume alone to leave pending_approval untouched, got %s", stuck.Status)
	}

	approved, err := co.Approve(context.Background(), res.RunID, "reviewer@example.com", def, gov)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != artifact.StatusCompleted {
		t.Fatalf("expected completed after approval, got %s", approved.Status)
	}
}

// A timed-out run context (max_run_seconds exceeded) fails the pending
// step rather than letting the loop run unbounded.
func TestMaxRunSecondsExceededFailsRun(t *testing.T) {
	store, registry := newHarness(t)
	registry.Register(workflow.StepCmd, &stubExecutor{outcomes: []executor.Outcome{{ExitCode: 0}}})

	def := twoStepWorkflow()
	// step of one second per Now() call; MaxRunSeconds=0 means the
	// deadline is already in the past by the time the loop checks it.
	clock := &stepClock{at: time.Unix(0, 0), step: time.Hour}
	co := New(store, policy.NewEngine(nil), registry, clock, Config{MaxRunSeconds: 1})

	res, err := co.Run(context.Background(), def, workflow.GovernanceConfig{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Status != artifact.StatusFailed {
		t.Fatalf("expected failed on exceeded deadline, got %s", res.Status)
	}
}
