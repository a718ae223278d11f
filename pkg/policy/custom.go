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

package policy

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// evaluateCustom runs each operator-declared custom policy as a boolean
// expr-lang expression against {workflow, governance}. An expression that
// evaluates false produces a violation at its declared severity; an
// expression that fails to compile or run is treated as a block, since a
// broken rule must never silently pass.
func evaluateCustom(def *workflow.Definition, gov workflow.GovernanceConfig) []Violation {
	var violations []Violation

	evalCtx := map[string]any{
		"workflow": map[string]any{
			"name":       def.Name,
			"model_ref":  def.ModelRef,
			"guardrails": def.Guardrails,
			"step_count": len(def.Steps),
		},
		"governance": map[string]any{
			"approval_required":  gov.ApprovalRequired,
			"compliance_logging": gov.ComplianceLogging,
			"audit_level":        string(gov.AuditLevel),
			"policies":           gov.Policies,
		},
	}

	for _, cp := range gov.CustomPolicies {
		verdict := severityToVerdict(cp.Severity)

		program, err := expr.Compile(cp.Expression, expr.Env(evalCtx), expr.AsBool())
		if err != nil {
			violations = append(violations, Violation{
				PolicyName: cp.Name,
				ReasonCode: ReasonCustomPolicyFailed,
				Message:    fmt.Sprintf("custom policy %q failed to compile: %v", cp.Name, err),
				Verdict:    Block,
			})
			continue
		}

		result, err := expr.Run(program, evalCtx)
		if err != nil {
			violations = append(violations, Violation{
				PolicyName: cp.Name,
				ReasonCode: ReasonCustomPolicyFailed,
				Message:    fmt.Sprintf("custom policy %q failed to evaluate: %v", cp.Name, err),
				Verdict:    Block,
			})
			continue
		}

		pass, ok := result.(bool)
		if !ok || pass {
			continue
		}

		violations = append(violations, Violation{
			PolicyName: cp.Name,
			ReasonCode: ReasonCustomPolicyFailed,
			Message:    fmt.Sprintf("custom policy %q evaluated false", cp.Name),
			Verdict:    verdict,
		})
	}

	return violations
}

func severityToVerdict(severity string) Verdict {
	switch severity {
	case "block":
		return Block
	case "require_approval":
		return RequireApproval
	case "warn":
		return Warn
	default:
		return Block
	}
}
