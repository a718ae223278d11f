package agent

import (
	"context"
	"os/exec"
	"testing"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

func cliAvailable() bool {
	for _, name := range CLICommands {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func TestSimulatedFallbackWhenCLIMissing(t *testing.T) {
	if cliAvailable() {
		t.Skip("language-model CLI present on PATH; simulate path not exercised")
	}

	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rc := executor.RunContext{RunID: "run-1", Store: store}
	step := workflow.Step{
		ID:   "fix",
		Type: workflow.StepAgent,
		Policy: &workflow.AgentPolicy{
			TimeoutSeconds: 5,
			AllowedPaths:   []string{},
			CmdAllowlist:   []string{},
		},
	}

	out := New().Execute(context.Background(), step, rc)
	if out.ExitCode != 0 || out.Err != nil {
		t.Fatalf("expected simulated success, got exit=%d err=%v", out.ExitCode, out.Err)
	}
}

func TestMissingPolicyFailsImmediately(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rc := executor.RunContext{RunID: "run-1", Store: store}
	step := workflow.Step{ID: "fix", Type: workflow.StepAgent}

	out := New().Execute(context.Background(), step, rc)
	if out.Err == nil {
		t.Fatalf("expected error for missing policy")
	}
}
