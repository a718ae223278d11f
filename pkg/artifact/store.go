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

package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

const (
	runStateFile     = "run-state.json"
	runStateTmp      = "run-state.json.tmp"
	runStateSnapshot = "run-state.json.snapshot"
	auditLogFile     = "audit.log"
	pendingMarker    = ".pending"
)

// Store provides the deterministic, crash-safe on-disk run layout.
// It is the exclusive owner of run-state.json; step executors write
// step-directory artifacts through it but never touch the state file.
type Store struct {
	root string
}

// NewStore roots a Store at the given artifacts directory, creating it if
// it does not already exist.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &bcceerrors.IntegrityError{
			Component: root,
			Reason:    fmt.Sprintf("cannot create artifacts root: %v", err),
		}
	}
	return &Store{root: root}, nil
}

// RunDir returns the absolute directory for a run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.root, runID)
}

// StepDir returns the absolute directory for one step within a run.
func (s *Store) StepDir(runID, stepID string) string {
	return filepath.Join(s.RunDir(runID), stepID)
}

// AuditLogPath returns the absolute path to a run's audit log.
func (s *Store) AuditLogPath(runID string) string {
	return filepath.Join(s.RunDir(runID), auditLogFile)
}

// CreateRun initializes a new run directory and its initial RunState, with
// every declared step pending.
func (s *Store) CreateRun(runID string, def *workflow.Definition, now time.Time) (*RunState, error) {
	dir := s.RunDir(runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &bcceerrors.IntegrityError{Component: dir, Reason: fmt.Sprintf("cannot create run directory: %v", err)}
	}

	results := make([]StepResult, len(def.Steps))
	for i, step := range def.Steps {
		results[i] = StepResult{StepID: step.ID, Status: StepPending}
	}

	state := &RunState{
		RunID:            runID,
		Workflow:         def,
		CurrentStepIndex: 0,
		StartTime:        now,
		Status:           StatusPending,
		StepResults:      results,
	}
	if err := s.SaveRunState(state); err != nil {
		return nil, err
	}
	return state, nil
}

// SaveRunState writes run-state.json atomically: write to a temp file in
// the same directory, fsync it, then rename over the target. A snapshot copy is kept so LoadRunState can fall back to the
// last good state if the primary file is missing or unparseable.
//
// State-save I/O failure is fatal to the run: callers must
// treat a non-nil error here as run-terminating.
func (s *Store) SaveRunState(state *RunState) error {
	dir := s.RunDir(state.RunID)
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return &bcceerrors.IntegrityError{Component: dir, Reason: fmt.Sprintf("marshal run state: %v", err)}
	}

	tmpPath := filepath.Join(dir, runStateTmp)
	finalPath := filepath.Join(dir, runStateFile)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &bcceerrors.IntegrityError{Component: tmpPath, Reason: fmt.Sprintf("open temp state file: %v", err)}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &bcceerrors.IntegrityError{Component: tmpPath, Reason: fmt.Sprintf("write temp state file: %v", err)}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &bcceerrors.IntegrityError{Component: tmpPath, Reason: fmt.Sprintf("fsync temp state file: %v", err)}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return &bcceerrors.IntegrityError{Component: tmpPath, Reason: fmt.Sprintf("close temp state file: %v", err)}
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return &bcceerrors.IntegrityError{Component: finalPath, Reason: fmt.Sprintf("rename temp state file: %v", err)}
	}

	// Best-effort snapshot for LoadRunState's fallback path; a failure
	// here does not invalidate the state save that already succeeded.
	_ = os.WriteFile(filepath.Join(dir, runStateSnapshot), data, 0o644)
	return nil
}

// LoadRunState reads run-state.json for a run, falling back to the last
// good snapshot if the primary file is missing or fails to parse.
func (s *Store) LoadRunState(runID string) (*RunState, error) {
	dir := s.RunDir(runID)
	state, primaryErr := readState(filepath.Join(dir, runStateFile))
	if primaryErr == nil {
		return state, nil
	}

	snap, snapErr := readState(filepath.Join(dir, runStateSnapshot))
	if snapErr == nil {
		return snap, nil
	}

	return nil, &bcceerrors.IntegrityError{
		Component: dir,
		Reason:    fmt.Sprintf("run state unreadable: %v (snapshot fallback also failed: %v)", primaryErr, snapErr),
	}
}

func readState(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// BeginStep creates the step directory and drops a .pending marker,
// signaling that artifacts within are not yet safe to trust on resume.
func (s *Store) BeginStep(runID, stepID string) error {
	dir := s.StepDir(runID, stepID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &bcceerrors.IntegrityError{Component: dir, Reason: fmt.Sprintf("create step directory: %v", err)}
	}
	marker := filepath.Join(dir, pendingMarker)
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return &bcceerrors.IntegrityError{Component: marker, Reason: fmt.Sprintf("write pending marker: %v", err)}
	}
	return nil
}

// WriteStepFile writes one artifact within a step directory. The step
// directory must already exist (BeginStep must have run first).
func (s *Store) WriteStepFile(runID, stepID, name string, data []byte) error {
	path := filepath.Join(s.StepDir(runID, stepID), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &bcceerrors.IntegrityError{Component: path, Reason: fmt.Sprintf("write artifact: %v", err)}
	}
	return nil
}

// Finalize fsyncs every file in the step directory, then removes the
// .pending marker. A step directory carrying a .pending
// marker is incomplete by definition and must be discarded on resume.
func (s *Store) Finalize(runID, stepID string) error {
	dir := s.StepDir(runID, stepID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &bcceerrors.IntegrityError{Component: dir, Reason: fmt.Sprintf("list step directory: %v", err)}
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == pendingMarker {
			continue
		}
		if err := fsyncFile(filepath.Join(dir, entry.Name())); err != nil {
			return &bcceerrors.IntegrityError{Component: entry.Name(), Reason: fmt.Sprintf("fsync artifact: %v", err)}
		}
	}
	marker := filepath.Join(dir, pendingMarker)
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return &bcceerrors.IntegrityError{Component: marker, Reason: fmt.Sprintf("remove pending marker: %v", err)}
	}
	return nil
}

func fsyncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// IsPending reports whether a step directory still carries its .pending
// marker, meaning it must be discarded and the step re-executed.
func (s *Store) IsPending(runID, stepID string) bool {
	_, err := os.Stat(filepath.Join(s.StepDir(runID, stepID), pendingMarker))
	return err == nil
}

// DiscardPending removes a pending step directory entirely so the
// executor starts the step from a clean slate.
func (s *Store) DiscardPending(runID, stepID string) error {
	dir := s.StepDir(runID, stepID)
	if err := os.RemoveAll(dir); err != nil {
		return &bcceerrors.IntegrityError{Component: dir, Reason: fmt.Sprintf("discard pending step directory: %v", err)}
	}
	return nil
}
