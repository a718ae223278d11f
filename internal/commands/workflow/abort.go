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
	"github.com/NSvoltage/BCCE-dev-sub002/internal/cli/format"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/commands/shared"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
)

func newAbortCmd() *cobra.Command {
	var (
		reason        string
		artifactsRoot string
	)

	cmd := &cobra.Command{
		Use:   "abort <run_id>",
		Short: "Abort a running workflow, leaving it resumable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			runID := args[0]

			a, err := app.New(artifactsRoot)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: "failed to initialize engine", Cause: err}
			}
			defer a.Shutdown(cmd.Context())

			res, err := a.Adapter.Abort(runID, reason)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: fmt.Sprintf("cannot abort %s", runID), Cause: err}
			}

			fmt.Fprintf(out, "run %s: %s\n", res.RunID, format.StatusBadge(string(res.Status)))
			if res.Status != artifact.StatusPaused {
				return &shared.ExitError{Code: shared.ExitRunFailed, Message: fmt.Sprintf("run did not reach paused, got %s", res.Status)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded in the audit trail")
	cmd.Flags().StringVar(&artifactsRoot, "artifacts-root", "", "Overrides BCCE_ARTIFACTS_ROOT")

	return cmd
}
