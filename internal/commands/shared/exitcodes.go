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

// Package shared holds the CLI exit-code and path-resolution
// conventions common to every command.
package shared

import (
	"errors"
	"fmt"
	"os"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
)

const (
	ExitOK          = 0
	ExitRunFailed   = 1
	ExitConfigError = 2
)

// ExitError is an error that carries the process exit code a command
// should terminate with.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Cause }

// HandleExitError prints err (plus a Fix line when the cause carries
// one) and exits the process with its code, or ExitRunFailed for an
// error that isn't an *ExitError.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", exitErr.Error())
		printFix(exitErr.Cause)
		os.Exit(exitErr.Code)
	}

	fmt.Fprintln(os.Stderr, "Error:", err.Error())
	printFix(err)
	os.Exit(ExitRunFailed)
}

func printFix(err error) {
	for err != nil {
		if f, ok := err.(bcceerrors.Fixable); ok {
			if hint := f.Fix(); hint != "" {
				fmt.Fprintf(os.Stderr, "Fix: %s\n", hint)
			}
			return
		}
		err = errors.Unwrap(err)
	}
}

// RunExitCode maps a finished run's status to the process exit code
// convention for `workflow run`/`workflow resume`.
func RunExitCode(status artifact.RunStatus) int {
	switch status {
	case artifact.StatusCompleted:
		return ExitOK
	case artifact.StatusFailed, artifact.StatusBlocked:
		return ExitRunFailed
	default:
		// paused / pending_approval: the run did not fail, but it also
		// did not finish. Treated as a non-failure exit so automation can
		// poll and resume rather than treat it as broken.
		return ExitOK
	}
}
