package workflow

import (
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func baseDef() *Definition {
	return &Definition{
		Version: 1,
		Name:    "demo",
		Steps: []Step{
			{ID: "analyze", Type: StepCmd, Command: "echo hi"},
		},
	}
}

func TestValidateEmptySteps(t *testing.T) {
	def := baseDef()
	def.Steps = nil
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for empty steps")
	}
	assertContains(t, res.Errors, "workflow must declare at least one step")
}

func TestValidateDuplicateStepIDs(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{ID: "analyze", Type: StepCmd, Command: "echo one"},
		{ID: "analyze", Type: StepCmd, Command: "echo two"},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for duplicate step IDs")
	}
	assertContains(t, res.Errors, "Duplicate step ID: analyze")
}

func TestValidateMissingPromptFile(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{ID: "ask", Type: StepPrompt},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for missing prompt_file")
	}
	assertContains(t, res.Errors, `step "ask": prompt steps require prompt_file`)
}

func TestValidateAgentZeroTimeout(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{
			ID:   "fix",
			Type: StepAgent,
			Policy: &AgentPolicy{
				TimeoutSeconds: 0,
				AllowedPaths:   []string{"src/**"},
				CmdAllowlist:   []string{"go"},
			},
		},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for timeout_seconds = 0")
	}
	assertContains(t, res.Errors, `step "fix": policy.timeout_seconds must be a positive integer`)
}

func TestValidateAgentEmptyAllowedPathsWarnsNotErrors(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{
			ID:   "readonly",
			Type: StepAgent,
			Policy: &AgentPolicy{
				TimeoutSeconds: 60,
				AllowedPaths:   []string{},
				CmdAllowlist:   []string{},
			},
		},
	}
	res := Validate(def)
	if !res.Valid {
		t.Fatalf("empty allowed_paths must not be a validation error, got: %v", res.Errors)
	}
	assertContains(t, res.Warnings, `step "readonly": policy.allowed_paths is empty; the agent will have no file access`)
}

func TestValidateAgentMissingPolicy(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{ID: "fix", Type: StepAgent},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for missing policy")
	}
	assertContains(t, res.Errors, `step "fix": agent steps require policy`)
}

func TestValidateAgentInvalidGlob(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{
			ID:   "fix",
			Type: StepAgent,
			Policy: &AgentPolicy{
				TimeoutSeconds: 60,
				AllowedPaths:   []string{"["},
				CmdAllowlist:   []string{"go"},
			},
		},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for malformed glob")
	}
}

func TestValidateAgentCmdAllowlistRejectsPaths(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{
			ID:   "fix",
			Type: StepAgent,
			Policy: &AgentPolicy{
				TimeoutSeconds: 60,
				AllowedPaths:   []string{"src/**"},
				CmdAllowlist:   []string{"bin/go"},
			},
		},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for cmd_allowlist entry with path separator")
	}
}

func TestValidateApplyDiffRequiresApprove(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{ID: "apply", Type: StepApplyDiff},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for missing approve")
	}
	assertContains(t, res.Errors, `step "apply": apply-diff steps require approve`)
}

func TestValidateApplyDiffWithApprove(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{ID: "apply", Type: StepApplyDiff, Approve: boolPtr(true)},
	}
	res := Validate(def)
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}
}

func TestValidateCmdRequiresCommand(t *testing.T) {
	def := baseDef()
	def.Steps = []Step{
		{ID: "run", Type: StepCmd},
	}
	res := Validate(def)
	if res.Valid {
		t.Fatalf("expected invalid for missing command")
	}
}

func TestValidateHappyPath(t *testing.T) {
	res := Validate(baseDef())
	if !res.Valid {
		t.Fatalf("expected valid, got errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", res.Errors)
	}
}

func assertContains(t *testing.T, items []string, want string) {
	t.Helper()
	for _, item := range items {
		if item == want {
			return
		}
	}
	t.Fatalf("expected %v to contain %q", items, want)
}
