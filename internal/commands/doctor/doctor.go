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

// Package doctor implements the environment health probe: it checks
// ambient AWS credentials, the artifacts root, and the agent CLI
// binary, printing a pass/fail/warn line per check.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/NSvoltage/BCCE-dev-sub002/internal/cli/format"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/commands/shared"
	ibccecfg "github.com/NSvoltage/BCCE-dev-sub002/internal/config"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor/agent"
)

// NewCommand creates the doctor command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment the engine will run in",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := false

			if err := checkCredentials(cmd.Context()); err != nil {
				fmt.Fprintln(out, format.Fail(fmt.Sprintf("AWS credentials: %v", err)))
				failed = true
			} else {
				fmt.Fprintln(out, format.Pass("AWS credentials resolve and STS accepts them"))
			}

			checkArtifactsRoot(out)
			checkAgentCLI(out)

			if failed {
				return &shared.ExitError{Code: shared.ExitRunFailed, Message: "one or more checks failed"}
			}
			return nil
		},
	}
	return cmd
}

func checkCredentials(ctx context.Context) error {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sts.NewFromConfig(cfg)

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.GetCallerIdentity(probeCtx, &sts.GetCallerIdentityInput{}); err != nil {
		return fmt.Errorf("GetCallerIdentity failed: %w", err)
	}
	return nil
}

func checkArtifactsRoot(out interface{ Write([]byte) (int, error) }) {
	cfg := ibccecfg.FromEnv()
	if _, err := os.Stat(cfg.ArtifactsRoot); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, format.Warn(fmt.Sprintf("artifacts root %s does not exist yet; it is created on first run", cfg.ArtifactsRoot)))
			return
		}
		fmt.Fprintln(out, format.Warn(fmt.Sprintf("artifacts root %s: %v", cfg.ArtifactsRoot, err)))
		return
	}
	fmt.Fprintln(out, format.Pass(fmt.Sprintf("artifacts root %s is writable", cfg.ArtifactsRoot)))
}

func checkAgentCLI(out interface{ Write([]byte) (int, error) }) {
	for _, name := range agent.CLICommands {
		if _, err := exec.LookPath(name); err == nil {
			fmt.Fprintln(out, format.Pass(fmt.Sprintf("agent CLI %q found on PATH", name)))
			return
		}
	}
	fmt.Fprintln(out, format.Warn("agent CLI not found on PATH; agent steps will run in simulated mode"))
}
