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

// Package custom implements the custom step executor: it
// dispatches an opaque payload to a registered handler function keyed by
// a "handler" field in the payload, falling back to recording the
// payload when no handler is registered.
package custom

import (
	"context"
	"encoding/json"
	"fmt"

	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// Handler processes one custom step's payload and returns its textual
// output.
type Handler func(ctx context.Context, payload map[string]any) (string, error)

// Executor dispatches custom steps to registered handlers by name.
type Executor struct {
	handlers map[string]Handler
}

func New() *Executor {
	return &Executor{handlers: make(map[string]Handler)}
}

// RegisterHandler associates a handler name with its implementation.
func (e *Executor) RegisterHandler(name string, h Handler) {
	e.handlers[name] = h
}

func (e *Executor) Execute(ctx context.Context, step workflow.Step, rc executor.RunContext) executor.Outcome {
	if err := rc.Store.BeginStep(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	payloadJSON, err := json.MarshalIndent(step.Custom, "", "  ")
	if err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}
	if err := rc.Store.WriteStepFile(rc.RunID, step.ID, "custom_payload.json", payloadJSON); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	name, _ := step.Custom["handler"].(string)
	var output string
	if handler, ok := e.handlers[name]; ok {
		output, err = handler(ctx, step.Custom)
		if err != nil {
			execErr := &bcceerrors.ExecutionError{StepID: step.ID, Reason: err.Error()}
			_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(execErr.Error()))
			_ = rc.Store.Finalize(rc.RunID, step.ID)
			return executor.Outcome{ExitCode: 1, Err: execErr}
		}
	} else {
		output = fmt.Sprintf("no handler registered for %q; payload recorded only", name)
	}

	if err := rc.Store.WriteStepFile(rc.RunID, step.ID, "output.txt", []byte(output)); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}
	if err := rc.Store.Finalize(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: 0, Err: err}
	}

	return executor.Outcome{ExitCode: 0, Output: output, ArtifactsWritten: []string{"custom_payload.json", "output.txt"}}
}
