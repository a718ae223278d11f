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

import "github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"

const securityPolicyName = "security"

// evaluateSecurity enforces: every agent step declares a policy, and
// guardrails are non-empty when the security policy family is active.
func evaluateSecurity(def *workflow.Definition, gov workflow.GovernanceConfig) []Violation {
	if !gov.HasPolicy(securityPolicyName) {
		return nil
	}

	var violations []Violation

	if len(def.Guardrails) == 0 {
		violations = append(violations, Violation{
			PolicyName: securityPolicyName,
			ReasonCode: ReasonEmptyGuardrails,
			Message:    "security policy is active but the workflow declares no guardrails",
			Verdict:    Block,
		})
	}

	for _, step := range def.Steps {
		if step.Type == workflow.StepAgent && step.Policy == nil {
			violations = append(violations, Violation{
				PolicyName: securityPolicyName,
				ReasonCode: ReasonMissingAgentPolicy,
				StepID:     step.ID,
				Message:    "agent step has no policy declared",
				Verdict:    Block,
			})
		}
	}

	return violations
}
