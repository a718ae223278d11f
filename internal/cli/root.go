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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/NSvoltage/BCCE-dev-sub002/internal/commands/doctor"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/commands/shared"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/commands/workflow"
)

// NewRootCommand creates the root command and wires every subcommand.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bcce",
		Short:         "Governed workflow execution engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(workflow.NewCommand())
	cmd.AddCommand(doctor.NewCommand())

	return cmd
}

// HandleExitError prints err and exits the process with its code.
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
