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

// Package cmd implements the cmd step executor: it
// launches the configured command directly, never through a shell.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/redact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// MaxStreamBytes bounds a captured stream before truncation.
const MaxStreamBytes = 1 << 20 // 1 MiB

const truncatedMarker = "\n[TRUNCATED]\n"

// Executor runs a step's command as a direct subprocess (no shell
// interpreter), subject to the workflow or governance command allow-list.
type Executor struct{}

func New() *Executor { return &Executor{} }

func (e *Executor) Execute(ctx context.Context, step workflow.Step, rc executor.RunContext) executor.Outcome {
	if err := rc.Store.BeginStep(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	fields := strings.Fields(step.Command)
	if len(fields) == 0 {
		return executor.Outcome{ExitCode: 1, Err: &bcceerrors.ValidationError{Field: "command", Message: "command is empty"}}
	}
	bin := fields[0]
	args := fields[1:]

	if !allowed(bin, rc.GovernanceCmdAllow) {
		secErr := &bcceerrors.SecurityError{
			ReasonCode: "command_not_allowed",
			Message:    fmt.Sprintf("command %q is not in the allow-list", bin),
		}
		_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(secErr.Error()))
		_ = rc.Store.Finalize(rc.RunID, step.ID)
		return executor.Outcome{ExitCode: 1, Err: secErr}
	}

	timeout := time.Duration(rc.DefaultCmdTimeout) * time.Second
	if rc.MaxRunSeconds > 0 {
		timeout = time.Duration(rc.MaxRunSeconds) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, bin, args...)
	c.Dir = rc.Store.StepDir(rc.RunID, step.ID)
	c.Env = buildEnv(rc.WorkflowEnv)

	stdout := newCapBuffer(MaxStreamBytes)
	stderr := newCapBuffer(MaxStreamBytes)
	c.Stdout = stdout
	c.Stderr = stderr

	if err := rc.Store.WriteStepFile(rc.RunID, step.ID, "command.txt", []byte(step.Command)); err != nil {
		return executor.Outcome{ExitCode: 1, Err: err}
	}

	start := time.Now()
	runErr := c.Run()
	duration := time.Since(start)
	timedOut := runCtx.Err() == context.DeadlineExceeded

	redactor := redact.New()
	redactedStdout := redactor.Redact(stdout.String())
	_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "stdout.txt", []byte(redactedStdout))
	_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "stderr.txt", []byte(redactor.Redact(stderr.String())))

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}

	metrics := fmt.Sprintf(`{"duration_seconds": %.3f, "exit_code": %d, "timed_out": %t}`,
		duration.Seconds(), exitCode, timedOut)
	_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "metrics.json", []byte(metrics))

	var outcomeErr error
	if runErr != nil {
		reason := runErr.Error()
		if timedOut {
			reason = "command timed out"
		}
		outcomeErr = &bcceerrors.ExecutionError{
			StepID:   step.ID,
			Reason:   reason,
			ExitCode: exitCode,
			TimedOut: timedOut,
		}
		_ = rc.Store.WriteStepFile(rc.RunID, step.ID, "error.txt", []byte(outcomeErr.Error()))
	}

	if err := rc.Store.Finalize(rc.RunID, step.ID); err != nil {
		return executor.Outcome{ExitCode: exitCode, Err: err, TimedOut: timedOut}
	}

	return executor.Outcome{
		ExitCode: exitCode,
		Output:   redactedStdout,
		Err:      outcomeErr,
		TimedOut: timedOut,
		ArtifactsWritten: []string{"command.txt", "stdout.txt", "stderr.txt", "metrics.json"},
	}
}

func allowed(bin string, extra []string) bool {
	for _, a := range extra {
		if a == bin {
			return true
		}
	}
	return false
}

func buildEnv(workflowEnv map[string]string) []string {
	env := os.Environ()
	for k, v := range workflowEnv {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

// capBuffer caps total writes, appending a truncation marker once the
// limit is exceeded.
type capBuffer struct {
	limit     int
	buf       []byte
	truncated bool
}

func newCapBuffer(limit int) *capBuffer {
	return &capBuffer{limit: limit}
}

func (c *capBuffer) Write(p []byte) (int, error) {
	if c.truncated {
		return len(p), nil
	}
	remaining := c.limit - len(c.buf)
	if remaining <= 0 {
		c.truncated = true
		c.buf = append(c.buf, []byte(truncatedMarker)...)
		return len(p), nil
	}
	if len(p) > remaining {
		c.buf = append(c.buf, p[:remaining]...)
		c.buf = append(c.buf, []byte(truncatedMarker)...)
		c.truncated = true
		return len(p), nil
	}
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *capBuffer) String() string {
	return string(c.buf)
}
