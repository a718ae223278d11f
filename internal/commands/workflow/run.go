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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/NSvoltage/BCCE-dev-sub002/internal/app"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/cli/format"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/commands/shared"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/adapter"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

func newRunCmd() *cobra.Command {
	var (
		dryRun         bool
		governancePath string
		artifactsRoot  string
		jsonOut        bool
		resumeFrom     string
	)

	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Run a workflow under governance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := args[0]

			if resumeFrom != "" {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: fmt.Sprintf(
					"--resume-from has no run to rewind: run always starts a fresh run_id; use `workflow resume <run_id> --from %s` once you have one", resumeFrom)}
			}

			def, err := workflow.Parse(path)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: "cannot load workflow", Cause: err}
			}

			gov, err := workflow.LoadGovernance(governancePath)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: "cannot load governance document", Cause: err}
			}

			a, err := app.New(artifactsRoot)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: "failed to initialize engine", Cause: err}
			}
			defer a.Shutdown(cmd.Context())

			if dryRun {
				printDryRun(out, def, gov)
				return nil
			}

			res, err := a.Adapter.ExecuteWithGovernance(cmd.Context(), def, gov)
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: "execution failed", Cause: err}
			}

			printResult(out, res, jsonOut)

			if res.RunID == "" {
				return &shared.ExitError{Code: shared.ExitRunFailed, Message: "workflow rejected before a run was created"}
			}
			if code := shared.RunExitCode(res.Status); code != shared.ExitOK {
				return &shared.ExitError{Code: code, Message: fmt.Sprintf("run %s ended %s", res.RunID, res.Status)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the steps that would run without executing them")
	cmd.Flags().StringVar(&governancePath, "governance", "", "Path to a governance document")
	cmd.Flags().StringVar(&artifactsRoot, "artifacts-root", "", "Overrides BCCE_ARTIFACTS_ROOT")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the governed result as JSON")
	cmd.Flags().StringVar(&resumeFrom, "resume-from", "", "Accepted for CLI-surface parity; a fresh run has no run_id to rewind, use `workflow resume --from` instead")

	return cmd
}

func printDryRun(out io.Writer, def *workflow.Definition, gov workflow.GovernanceConfig) {
	fmt.Fprintf(out, "Dry run: %s (%d steps)\n\n", def.Name, len(def.Steps))
	for i, step := range def.Steps {
		fmt.Fprintf(out, "%d. %s [%s]\n", i+1, step.ID, step.Type)
	}
	if len(gov.Policies) > 0 {
		fmt.Fprintf(out, "\nGovernance policies: %v\n", gov.Policies)
	}
	fmt.Fprintln(out, "\nRun without --dry-run to execute.")
}

func printResult(out io.Writer, res adapter.GovernedResult, jsonOut bool) {
	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
		return
	}
	runID := res.RunID
	if runID == "" {
		runID = "-"
	}
	fmt.Fprintf(out, "run %s: %s\n", runID, format.StatusBadge(string(res.Status)))
	for _, e := range res.Errors {
		fmt.Fprintln(out, format.Fail(e))
	}
}
