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

package workflow

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NSvoltage/BCCE-dev-sub002/internal/app"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/commands/shared"
)

func newResumeCmd() *cobra.Command {
	var (
		fromStep      string
		artifactsRoot string
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "resume <run_id>",
		Short: "Resume a paused, blocked, or crashed run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			runID := args[0]

			a, err := app.New(artifactsRoot)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: "failed to initialize engine", Cause: err}
			}
			defer a.Shutdown(cmd.Context())

			res, err := a.Adapter.Resume(cmd.Context(), runID, fromStep)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: fmt.Sprintf("cannot resume %s", runID), Cause: err}
			}

			printResult(out, res, jsonOut)
			if code := shared.RunExitCode(res.Status); code != shared.ExitOK {
				return &shared.ExitError{Code: code, Message: fmt.Sprintf("run %s ended %s", res.RunID, res.Status)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStep, "from", "", "Step ID to rewind to before resuming")
	cmd.Flags().StringVar(&artifactsRoot, "artifacts-root", "", "Overrides BCCE_ARTIFACTS_ROOT")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the governed result as JSON")

	return cmd
}
