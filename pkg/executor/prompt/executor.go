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

// Package prompt implements the deterministic prompt step executor
//: it never calls a language model itself.
package prompt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// Executor copies prompt_file into the step directory and records which
// prompt was selected. It never blocks on anything but I/O.
type Executor struct{}

func New() *Executor { return &Executor{} }

func (e *Executor) Execute(_ context.Context, step workflow.Step, rc executor.RunContext) executor.Outcome {
	if err := rc.Store.BeginStep(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	promptPath := step.PromptFile
	if !filepath.IsAbs(promptPath) {
		promptPath = filepath.Join(rc.WorkflowDir, step.PromptFile)
	}

	data, err := os.ReadFile(promptPath)
	if err != nil {
		return executor.Outcome{ExitCode: 1, Err: fmt.Errorf("read prompt_file %q: %w", step.PromptFile, err)}
	}

	var written []string
	if err := rc.Store.WriteStepFile(rc.RunID, step.ID, "prompt.txt", data); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}
	written = append(written, "prompt.txt")

	output := fmt.Sprintf("selected prompt: %s (%d bytes)\n", step.PromptFile, len(data))
	if err := rc.Store.WriteStepFile(rc.RunID, step.ID, "output.txt", []byte(output)); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}
	written = append(written, "output.txt")

	if err := rc.Store.Finalize(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	return executor.Outcome{ExitCode: 0, Output: output, ArtifactsWritten: written}
}
