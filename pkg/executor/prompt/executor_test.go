package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

func TestPromptExecutorCopiesFile(t *testing.T) {
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "task.md")
	if err := os.WriteFile(promptPath, []byte("do the thing"), 0o644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}

	store, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	rc := executor.RunContext{RunID: "run-1", Store: store, WorkflowDir: dir}
	step := workflow.Step{ID: "ask", Type: workflow.StepPrompt, PromptFile: "task.md"}

	out := New().Execute(context.Background(), step, rc)
	if out.ExitCode != 0 || out.Err != nil {
		t.Fatalf("expected success, got exit=%d err=%v", out.ExitCode, out.Err)
	}

	got, err := os.ReadFile(filepath.Join(store.StepDir("run-1", "ask"), "prompt.txt"))
	if err != nil {
		t.Fatalf("read prompt.txt: %v", err)
	}
	if string(got) != "do the thing" {
		t.Fatalf("expected copied prompt content, got %q", string(got))
	}
}
