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

// Engine evaluates a workflow against a governance configuration. It
// holds no mutable state beyond an injected TimeSource, so Evaluate is a
// pure function of its arguments.
type Engine struct {
	clock TimeSource
}

// NewEngine constructs an Engine with the given TimeSource. Pass
// SystemClock{} in production and a FixedClock in tests.
func NewEngine(clock TimeSource) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{clock: clock}
}

// Evaluate runs every policy family against (def, gov) and reduces the
// results to a single verdict by precedence (block > require_approval >
// warn > allow), deduplicating violations by (policy_name, reason_code,
// step_id).
func (e *Engine) Evaluate(def *workflow.Definition, gov workflow.GovernanceConfig) EvalResult {
	var all []Violation
	all = append(all, evaluateSecurity(def, gov)...)
	all = append(all, evaluateCost(def, gov)...)
	all = append(all, evaluateCompliance(def, gov)...)
	all = append(all, evaluateCustom(def, gov)...)

	deduped := dedupe(all)

	verdict := Allow
	for _, v := range deduped {
		if moreSevere(v.Verdict, verdict) {
			verdict = v.Verdict
		}
	}

	return EvalResult{Verdict: verdict, Violations: deduped}
}

func dedupe(violations []Violation) []Violation {
	seen := make(map[[3]string]bool, len(violations))
	out := make([]Violation, 0, len(violations))
	for _, v := range violations {
		k := v.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
