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

// Package workflow wires the workflow command group: validate, run,
// resume, and abort.
package workflow

import "github.com/spf13/cobra"

// NewCommand creates the workflow command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Validate, run, resume, and abort governed workflows",
	}

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newResumeCmd())
	cmd.AddCommand(newAbortCmd())

	return cmd
}
