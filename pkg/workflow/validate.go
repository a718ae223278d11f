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
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationResult is the pure-function output of Validate.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// deprecatedTools names tool identifiers superseded by newer ones;
// referencing them is a warning, not an error.
var deprecatedTools = map[string]string{
	"bash_tool":   "cmd",
	"file_editor": "apply-diff",
}

// Validate enforces the semantic rules beyond bare schema shape
// (partially covered by the caller's JSON-Schema pass): step ID
// uniqueness, per-type required fields, prompt_file existence relative
// to the workflow file, glob syntax, and command-allowlist shape. It is
// a pure function of its inputs and performs no mutation.
func Validate(def *Definition) ValidationResult {
	res := ValidationResult{Valid: true}

	addErr := func(format string, args ...any) {
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf(format, args...))
	}
	addWarn := func(format string, args ...any) {
		res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
	}

	if def == nil {
		addErr("workflow is nil")
		return res
	}

	if def.Version != 1 {
		addWarn("unrecognized workflow version %d, expected 1", def.Version)
	}

	if strings.TrimSpace(def.Name) == "" {
		addErr("name must not be empty")
	}

	if len(def.Steps) == 0 {
		addErr("workflow must declare at least one step")
	}

	if def.ModelRef != "" {
		if name, ok := IsTemplateRef(def.ModelRef); ok {
			if _, present := os.LookupEnv(name); !present {
				addWarn("model_ref references environment variable %q which is not set", name)
			}
		}
	}

	for key := range def.Env {
		if key == "" {
			addErr("env keys must not be empty")
		}
	}

	seen := make(map[string]bool, len(def.Steps))
	for _, step := range def.Steps {
		if step.ID == "" {
			addErr("step ID must not be empty")
		} else if !identifierPattern.MatchString(step.ID) {
			addErr("step ID %q must be identifier-safe (letters, digits, -, _)", step.ID)
		}

		if step.ID != "" {
			if seen[step.ID] {
				addErr("Duplicate step ID: %s", step.ID)
			}
			seen[step.ID] = true
		}

		switch step.EffectiveOnError() {
		case OnErrorFail, OnErrorContinue:
		default:
			addErr("step %q: on_error must be one of fail, continue", step.ID)
		}

		switch step.Type {
		case StepPrompt:
			validatePromptStep(def, step, addErr)
		case StepCmd:
			validateCmdStep(step, addErr)
		case StepAgent:
			validateAgentStep(step, addErr, addWarn)
		case StepApplyDiff:
			validateApplyDiffStep(step, addErr)
		case StepCustom:
			// opaque payload, nothing to validate structurally
		default:
			addErr("step %q: unknown type %q", step.ID, step.Type)
		}

		for _, tool := range step.AvailableTools {
			if repl, deprecated := deprecatedTools[tool]; deprecated {
				addWarn("step %q: tool %q is deprecated, use %q", step.ID, tool, repl)
			}
		}
	}

	return res
}

func validatePromptStep(def *Definition, step Step, addErr func(string, ...any)) {
	if step.PromptFile == "" {
		addErr("step %q: prompt steps require prompt_file", step.ID)
		return
	}
	resolved := step.PromptFile
	if !filepath.IsAbs(resolved) && def.SourcePath != "" {
		resolved = filepath.Join(filepath.Dir(def.SourcePath), step.PromptFile)
	}
	if def.SourcePath != "" {
		if _, err := os.Stat(resolved); err != nil {
			addErr("step %q: prompt_file %q does not exist", step.ID, step.PromptFile)
		}
	}
}

func validateCmdStep(step Step, addErr func(string, ...any)) {
	if strings.TrimSpace(step.Command) == "" {
		addErr("step %q: cmd steps require command", step.ID)
	}
}

func validateAgentStep(step Step, addErr func(string, ...any), addWarn func(string, ...any)) {
	if step.Policy == nil {
		addErr("step %q: agent steps require policy", step.ID)
		return
	}
	p := step.Policy

	if p.TimeoutSeconds <= 0 {
		addErr("step %q: policy.timeout_seconds must be a positive integer", step.ID)
	}
	if p.MaxFiles < 0 {
		addErr("step %q: policy.max_files must not be negative", step.ID)
	}
	if p.MaxEdits < 0 {
		addErr("step %q: policy.max_edits must not be negative", step.ID)
	}
	if p.AllowedPaths == nil {
		addErr("step %q: policy.allowed_paths must be present (use [] for no access)", step.ID)
	}
	for _, pattern := range p.AllowedPaths {
		if !doublestar.ValidatePattern(pattern) {
			addErr("step %q: policy.allowed_paths entry %q is not a valid glob", step.ID, pattern)
		}
	}
	for _, cmd := range p.CmdAllowlist {
		if strings.ContainsAny(cmd, "/\\") {
			addErr("step %q: policy.cmd_allowlist entry %q must be a plain basename", step.ID, cmd)
		}
	}
	if len(p.AllowedPaths) == 0 {
		addWarn("step %q: policy.allowed_paths is empty; the agent will have no file access", step.ID)
	}
}

func validateApplyDiffStep(step Step, addErr func(string, ...any)) {
	if step.Approve == nil {
		addErr("step %q: apply-diff steps require approve", step.ID)
	}
}
