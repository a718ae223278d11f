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

// Package workflow defines the declarative workflow data model, its YAML parser, and its validator. Types here are immutable
// once loaded; the loader never mutates a Definition after parse.
package workflow

import "fmt"

// StepType is the closed set of step variants. An unknown tag is
// rejected at load time, never at execute time.
type StepType string

const (
	StepPrompt    StepType = "prompt"
	StepCmd       StepType = "cmd"
	StepAgent     StepType = "agent"
	StepApplyDiff StepType = "apply-diff"
	StepCustom    StepType = "custom"
)

// OnError controls step failure propagation.
type OnError string

const (
	OnErrorFail     OnError = "fail"
	OnErrorContinue OnError = "continue"
)

// Definition is the immutable, parsed and validated workflow document.
type Definition struct {
	Version    int               `yaml:"version" json:"version"`
	Name       string            `yaml:"name" json:"name"`
	ModelRef   string            `yaml:"model_ref" json:"model_ref"`
	Guardrails []string          `yaml:"guardrails,omitempty" json:"guardrails,omitempty"`
	Env        map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// CmdAllowlist names executables a cmd step may launch, in addition
	// to whatever the active governance document allows.
	CmdAllowlist []string `yaml:"cmd_allowlist,omitempty" json:"cmd_allowlist,omitempty"`

	Steps []Step `yaml:"steps" json:"steps"`

	// SourcePath is the absolute path the workflow was loaded from.
	// Used to resolve prompt_file references relative to the file.
	SourcePath string `yaml:"-" json:"-"`
}

// Reserved env keys carry coordinator-level meaning rather than being
// passed through verbatim to subprocess environments.
const (
	EnvMaxRuntimeSeconds = "max_runtime_seconds"
	EnvArtifactsDir      = "artifacts_dir"
	EnvSeed              = "seed"
)

// Step is the tagged variant over {prompt, cmd, agent, apply-diff, custom}.
// Exactly one of the type-specific payloads is populated, matching Type.
type Step struct {
	ID      string   `yaml:"id" json:"id"`
	Type    StepType `yaml:"type" json:"type"`
	OnError OnError  `yaml:"on_error,omitempty" json:"on_error,omitempty"`

	// idempotent controls resume behavior for steps observed "running"
	// at coordinator startup: retried from scratch when
	// true, otherwise left failed.
	Idempotent bool `yaml:"idempotent,omitempty" json:"idempotent,omitempty"`

	// prompt
	PromptFile     string   `yaml:"prompt_file,omitempty" json:"prompt_file,omitempty"`
	AvailableTools []string `yaml:"available_tools,omitempty" json:"available_tools,omitempty"`
	Inputs         map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`

	// cmd
	Command string `yaml:"command,omitempty" json:"command,omitempty"`

	// agent
	Policy *AgentPolicy `yaml:"policy,omitempty" json:"policy,omitempty"`

	// apply-diff
	Approve *bool `yaml:"approve,omitempty" json:"approve,omitempty"`

	// custom
	Custom map[string]any `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// EffectiveOnError returns the step's on_error policy, defaulting to fail.
func (s Step) EffectiveOnError() OnError {
	if s.OnError == "" {
		return OnErrorFail
	}
	return s.OnError
}

// ApproveRequired reports whether an apply-diff step requested approval.
func (s Step) ApproveRequired() bool {
	return s.Approve != nil && *s.Approve
}

// AgentPolicy is the per-agent-step resource budget. Every field must
// be present for the step to be valid.
type AgentPolicy struct {
	TimeoutSeconds int      `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxFiles       int      `yaml:"max_files" json:"max_files"`
	MaxEdits       int      `yaml:"max_edits" json:"max_edits"`
	AllowedPaths   []string `yaml:"allowed_paths" json:"allowed_paths"`
	CmdAllowlist   []string `yaml:"cmd_allowlist" json:"cmd_allowlist"`
}

// CostControls are the governance-level cost guardrails.
type CostControls struct {
	BudgetLimit       *float64 `yaml:"budget_limit,omitempty" json:"budget_limit,omitempty"`
	ModelRestrictions []string `yaml:"model_restrictions,omitempty" json:"model_restrictions,omitempty"`
	TimeoutMinutes    *int     `yaml:"timeout_minutes,omitempty" json:"timeout_minutes,omitempty"`
}

// AuditLevel controls how much detail the audit emitter records.
type AuditLevel string

const (
	AuditBasic         AuditLevel = "basic"
	AuditDetailed      AuditLevel = "detailed"
	AuditComprehensive AuditLevel = "comprehensive"
)

// CustomPolicy is an operator-supplied governance rule, evaluated as a
// boolean expr-lang expression against {workflow, governance}.
type CustomPolicy struct {
	Name       string `yaml:"name" json:"name"`
	Expression string `yaml:"expression" json:"expression"`
	// Severity controls the verdict produced when Expression evaluates
	// false: "block", "warn", or "require_approval".
	Severity string `yaml:"severity" json:"severity"`
}

// ComplianceFramework names an enumerated compliance regime governance
// can activate (e.g. "soc2", "hipaa"); presence drives the comprehensive
// audit-level and retention requirements governance applies.
type ComplianceFramework string

// GovernanceConfig is the run-level rule set applied before and around
// execution.
type GovernanceConfig struct {
	Policies             []string              `yaml:"policies,omitempty" json:"policies,omitempty"`
	ApprovalRequired     bool                  `yaml:"approval_required,omitempty" json:"approval_required,omitempty"`
	ComplianceLogging    bool                  `yaml:"compliance_logging,omitempty" json:"compliance_logging,omitempty"`
	CostControls         CostControls          `yaml:"cost_controls,omitempty" json:"cost_controls,omitempty"`
	AuditLevel           AuditLevel            `yaml:"audit_level,omitempty" json:"audit_level,omitempty"`
	ComplianceFrameworks []ComplianceFramework `yaml:"compliance_frameworks,omitempty" json:"compliance_frameworks,omitempty"`
	RetentionDays        *int                  `yaml:"retention_days,omitempty" json:"retention_days,omitempty"`
	CustomPolicies       []CustomPolicy        `yaml:"custom_policies,omitempty" json:"custom_policies,omitempty"`
	CmdAllowlist         []string              `yaml:"cmd_allowlist,omitempty" json:"cmd_allowlist,omitempty"`
}

// HasPolicy reports whether a named policy family is active.
func (g GovernanceConfig) HasPolicy(name string) bool {
	for _, p := range g.Policies {
		if p == name {
			return true
		}
	}
	return false
}

func (s StepType) valid() bool {
	switch s {
	case StepPrompt, StepCmd, StepAgent, StepApplyDiff, StepCustom:
		return true
	}
	return false
}

func (s StepType) String() string { return string(s) }

// ErrUnknownStepType is returned by the parser for an unrecognized tag.
type ErrUnknownStepType struct{ Type string }

func (e ErrUnknownStepType) Error() string {
	return fmt.Sprintf("unknown step type: %q", e.Type)
}
