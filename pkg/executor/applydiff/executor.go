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

// Package applydiff implements the apply-diff step executor: it scans prior transcripts for fenced diffs, verifies every
// affected path against the effective allowed_paths, and applies the
// diffs atomically.
package applydiff

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// Executor applies diffs extracted from prior steps' transcripts, pausing
// for approval first when governance and the step both require it.
type Executor struct {
	// VerifyCommand, if set, is run after applying and must exit zero for
	// the step to succeed.
	VerifyCommand func(path string) error
}

func New() *Executor { return &Executor{} }

func (e *Executor) Execute(_ context.Context, step workflow.Step, rc executor.RunContext) executor.Outcome {
	if err := rc.Store.BeginStep(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	transcripts := e.collectTranscripts(rc)
	diffs := ExtractDiffs(transcripts)
	if len(diffs) == 0 {
		_ = rc.Store.Finalize(rc.RunID, step.ID)
		return executor.Outcome{ExitCode: 0, Output: "no diffs found in prior transcripts"}
	}

	if conflict := conflictingPaths(diffs); conflict != "" {
		secErr := &bcceerrors.SecurityError{
			ReasonCode: "conflicting_diff",
			Message:    fmt.Sprintf("%s: touched by more than one extracted diff in this step", conflict),
		}
		_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(secErr.Error()))
		_ = rc.Store.Finalize(rc.RunID, step.ID)
		return executor.Outcome{ExitCode: 1, Err: secErr}
	}

	allowedPaths := e.effectiveAllowedPaths(rc)

	for _, d := range diffs {
		if err := verifyPathSafety(d.Path, allowedPaths); err != nil {
			secErr := &bcceerrors.SecurityError{
				ReasonCode: "path_not_allowed",
				Message:    fmt.Sprintf("%s: %v", d.Path, err),
			}
			_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(secErr.Error()))
			_ = rc.Store.Finalize(rc.RunID, step.ID)
			return executor.Outcome{ExitCode: 1, Err: secErr}
		}
	}

	if step.ApproveRequired() && rc.GovernanceApprovalRequired && !rc.StepApproved {
		_ = rc.Store.Finalize(rc.RunID, step.ID)
		return executor.Outcome{ExitCode: 0, PendingApproval: true}
	}

	combined := joinDiffs(diffs)
	if err := rc.Store.WriteStepFile(rc.RunID, step.ID, "diff.patch", []byte(combined)); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	backups, applyErr := e.applyAll(diffs, rc.WorkflowDir)
	if applyErr != nil {
		restoreErr := restore(backups)
		errText := applyErr.Error()
		if restoreErr != nil {
			errText += fmt.Sprintf("; rollback also failed: %v", restoreErr)
		}
		intErr := &bcceerrors.IntegrityError{Component: step.ID, Reason: errText}
		_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(intErr.Error()))
		_ = rc.Store.Finalize(rc.RunID, step.ID)
		return executor.Outcome{ExitCode: 1, Err: intErr}
	}

	for _, d := range diffs {
		full := filepath.Join(rc.WorkflowDir, d.Path)
		if _, err := os.Stat(full); err != nil {
			restoreErr := restore(backups)
			intErr := &bcceerrors.IntegrityError{Component: step.ID, Reason: fmt.Sprintf("post-condition failed for %s: %v (rollback err: %v)", d.Path, err, restoreErr)}
			_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(intErr.Error()))
			_ = rc.Store.Finalize(rc.RunID, step.ID)
			return executor.Outcome{ExitCode: 1, Err: intErr}
		}
		if e.VerifyCommand != nil {
			if err := e.VerifyCommand(full); err != nil {
				restoreErr := restore(backups)
				intErr := &bcceerrors.IntegrityError{Component: step.ID, Reason: fmt.Sprintf("verifier failed for %s: %v (rollback err: %v)", d.Path, err, restoreErr)}
				_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(intErr.Error()))
				_ = rc.Store.Finalize(rc.RunID, step.ID)
				return executor.Outcome{ExitCode: 1, Err: intErr}
			}
		}
	}

	if err := rc.Store.Finalize(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: 0, Err: err}
	}

	return executor.Outcome{ExitCode: 0, Output: combined, ArtifactsWritten: []string{"diff.patch"}}
}

func (e *Executor) collectTranscripts(rc executor.RunContext) []string {
	var texts []string
	for _, id := range rc.PrecedingStepIDs {
		for _, name := range []string{"transcript.md", "output.txt"} {
			data, err := os.ReadFile(filepath.Join(rc.Store.StepDir(rc.RunID, id), name))
			if err == nil {
				texts = append(texts, string(data))
			}
		}
	}
	return texts
}

// effectiveAllowedPaths returns the allowed_paths of the most recent
// preceding agent step, which is the policy under which the diffs being
// applied were produced.
func (e *Executor) effectiveAllowedPaths(rc executor.RunContext) []string {
	if rc.Workflow == nil {
		return nil
	}
	var allowed []string
	for _, id := range rc.PrecedingStepIDs {
		for _, step := range rc.Workflow.Steps {
			if step.ID == id && step.Type == workflow.StepAgent && step.Policy != nil {
				allowed = step.Policy.AllowedPaths
			}
		}
	}
	return allowed
}

func verifyPathSafety(path string, allowed []string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("path escapes workflow root")
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("absolute paths are not allowed")
	}
	for _, pattern := range allowed {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return nil
		}
	}
	return fmt.Errorf("path does not match any allowed_paths entry")
}

func joinDiffs(diffs []Diff) string {
	var b strings.Builder
	for _, d := range diffs {
		b.WriteString(d.Text)
		b.WriteString("\n")
	}
	return b.String()
}

type backup struct {
	path    string
	existed bool
	data    []byte
}

// conflictingPaths returns the first path touched by more than one
// extracted diff. Two diffs against the same file cannot both be
// applied against the same pre-image, so this is a hard reject rather
// than a last-write-wins apply.
func conflictingPaths(diffs []Diff) string {
	seen := make(map[string]bool, len(diffs))
	for _, d := range diffs {
		if seen[d.Path] {
			return d.Path
		}
		seen[d.Path] = true
	}
	return ""
}

// applyAll parses and applies every diff's hunks against its target
// file's current content: all affected files are backed up first, then
// the patched content is written; on any failure the caller rolls back
// from the returned backups.
func (e *Executor) applyAll(diffs []Diff, root string) ([]backup, error) {
	var backups []backup
	patched := make([][]byte, len(diffs))
	for i, d := range diffs {
		full := filepath.Join(root, d.Path)
		existing, err := os.ReadFile(full)
		backups = append(backups, backup{path: full, existed: err == nil, data: existing})

		out, perr := applyUnifiedDiff(existing, d.Text)
		if perr != nil {
			return backups, fmt.Errorf("apply diff for %s: %w", d.Path, perr)
		}
		patched[i] = out
	}

	for i, d := range diffs {
		full := backups[i].path
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return backups, fmt.Errorf("create parent directory for %s: %w", d.Path, err)
		}
		if err := os.WriteFile(full, patched[i], 0o644); err != nil {
			return backups, fmt.Errorf("write %s: %w", d.Path, err)
		}
	}
	return backups, nil
}

func restore(backups []backup) error {
	var firstErr error
	for _, b := range backups {
		if b.existed {
			if err := os.WriteFile(b.path, b.data, 0o644); err != nil && firstErr == nil {
				firstErr = err
			}
		} else {
			if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
