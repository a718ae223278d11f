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

const compliancePolicyName = "compliance"

// evaluateCompliance enforces: audit_level = comprehensive when any
// compliance framework is active, and retention settings are present
// when retention is configured.
func evaluateCompliance(def *workflow.Definition, gov workflow.GovernanceConfig) []Violation {
	if !gov.HasPolicy(compliancePolicyName) {
		return nil
	}
	if len(gov.ComplianceFrameworks) == 0 {
		return nil
	}

	var violations []Violation

	if gov.AuditLevel != workflow.AuditComprehensive {
		violations = append(violations, Violation{
			PolicyName: compliancePolicyName,
			ReasonCode: ReasonAuditLevelInsufficient,
			Message:    "a compliance framework is active but audit_level is not comprehensive",
			Verdict:    RequireApproval,
		})
	}

	if gov.RetentionDays == nil {
		violations = append(violations, Violation{
			PolicyName: compliancePolicyName,
			ReasonCode: ReasonRetentionMissing,
			Message:    "a compliance framework is active but retention_days is not set",
			Verdict:    RequireApproval,
		})
	}

	return violations
}
