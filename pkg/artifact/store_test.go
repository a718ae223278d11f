package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

func testDef() *workflow.Definition {
	return &workflow.Definition{
		Version: 1,
		Name:    "demo",
		Steps: []workflow.Step{
			{ID: "hello", Type: workflow.StepCmd, Command: "echo hi"},
		},
	}
}

func TestCreateRunInitializesPendingSteps(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	state, err := store.CreateRun("run-1", testDef(), time.Now())
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if state.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", state.Status)
	}
	if len(state.StepResults) != 1 || state.StepResults[0].Status != StepPending {
		t.Fatalf("expected one pending step result, got %+v", state.StepResults)
	}
}

func TestSaveAndLoadRunStateRoundTrips(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	state, err := store.CreateRun("run-1", testDef(), time.Now())
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	state.Status = StatusRunning
	state.StepResults[0].Status = StepRunning
	if err := store.SaveRunState(state); err != nil {
		t.Fatalf("SaveRunState: %v", err)
	}

	loaded, err := store.LoadRunState("run-1")
	if err != nil {
		t.Fatalf("LoadRunState: %v", err)
	}
	if loaded.Status != StatusRunning {
		t.Fatalf("expected running status after reload, got %s", loaded.Status)
	}
	if loaded.StepResults[0].Status != StepRunning {
		t.Fatalf("expected step running after reload, got %s", loaded.StepResults[0].Status)
	}
}

func TestLoadRunStateFallsBackToSnapshotWhenPrimaryCorrupt(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.CreateRun("run-1", testDef(), time.Now()); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	primary := filepath.Join(store.RunDir("run-1"), runStateFile)
	if err := os.WriteFile(primary, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("corrupt primary: %v", err)
	}

	loaded, err := store.LoadRunState("run-1")
	if err != nil {
		t.Fatalf("expected snapshot fallback to succeed, got %v", err)
	}
	if loaded.RunID != "run-1" {
		t.Fatalf("expected recovered run ID, got %q", loaded.RunID)
	}
}

func TestFinalizeRemovesPendingMarker(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.BeginStep("run-1", "hello"); err != nil {
		t.Fatalf("BeginStep: %v", err)
	}
	if !store.IsPending("run-1", "hello") {
		t.Fatalf("expected step pending immediately after BeginStep")
	}
	if err := store.WriteStepFile("run-1", "hello", "output.txt", []byte("hi\n")); err != nil {
		t.Fatalf("WriteStepFile: %v", err)
	}
	if err := store.Finalize("run-1", "hello"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if store.IsPending("run-1", "hello") {
		t.Fatalf("expected step not pending after Finalize")
	}
}

func TestDiscardPendingRemovesStepDirectory(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.BeginStep("run-1", "hello"); err != nil {
		t.Fatalf("BeginStep: %v", err)
	}
	if err := store.DiscardPending("run-1", "hello"); err != nil {
		t.Fatalf("DiscardPending: %v", err)
	}
	if _, err := os.Stat(store.StepDir("run-1", "hello")); !os.IsNotExist(err) {
		t.Fatalf("expected step directory removed, stat err = %v", err)
	}
}

func TestGenerateRunIDIsLexicographicallySortable(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)
	id1 := GenerateRunID(t1)
	id2 := GenerateRunID(t2)
	if id1 >= id2 {
		t.Fatalf("expected id1 < id2 lexicographically, got %q >= %q", id1, id2)
	}
}
