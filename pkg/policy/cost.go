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

const costPolicyName = "cost-control"

// perAgentStepEstimate is the flat per-model-call cost estimate used to
// derive a workflow's projected cost. Real pricing varies by model and
// token volume; this is a governance-time upper-bound heuristic, not a
// billing calculation.
const perAgentStepEstimate = 0.50

// evaluateCost enforces: projected cost (agent steps × a per-model
// estimate) must not exceed budget_limit, and model_ref must not appear
// in model_restrictions.
func evaluateCost(def *workflow.Definition, gov workflow.GovernanceConfig) []Violation {
	if !gov.HasPolicy(costPolicyName) {
		return nil
	}

	var violations []Violation

	agentSteps := 0
	for _, step := range def.Steps {
		if step.Type == workflow.StepAgent {
			agentSteps++
		}
	}
	estimated := float64(agentSteps) * perAgentStepEstimate

	if gov.CostControls.BudgetLimit != nil && estimated > *gov.CostControls.BudgetLimit {
		violations = append(violations, Violation{
			PolicyName: costPolicyName,
			ReasonCode: ReasonBudgetExceeded,
			Message:    "projected run cost exceeds budget_limit",
			Verdict:    Block,
		})
	}

	for _, restricted := range gov.CostControls.ModelRestrictions {
		if restricted == def.ModelRef {
			violations = append(violations, Violation{
				PolicyName: costPolicyName,
				ReasonCode: ReasonModelRestricted,
				Message:    "model_ref is excluded by model_restrictions",
				Verdict:    Block,
			})
		}
	}

	return violations
}
