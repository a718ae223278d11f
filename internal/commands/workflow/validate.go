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
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a workflow file against the schema and semantic rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := args[0]

			def, err := workflow.Parse(path)
			if err != nil {
				fmt.Fprintln(out, format.Fail(err.Error()))
				return &shared.ExitError{Code: shared.ExitRunFailed, Message: "workflow failed to parse"}
			}

			a, err := app.New("")
			if err != nil {
				return &shared.ExitError{Code: shared.ExitConfigError, Message: "failed to initialize engine", Cause: err}
			}
			defer a.Shutdown(cmd.Context())

			result := a.Adapter.Validate(def)
			for _, w := range result.Warnings {
				fmt.Fprintln(out, format.Warn(w))
			}
			if !result.Valid {
				for _, e := range result.Errors {
					fmt.Fprintln(out, format.Fail(e))
				}
				return &shared.ExitError{Code: shared.ExitRunFailed, Message: "workflow is invalid"}
			}

			fmt.Fprintln(out, format.Pass(fmt.Sprintf("%s is valid", path)))
			return nil
		},
	}
	return cmd
}
