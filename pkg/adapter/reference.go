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

package adapter

import (
	"context"
	"encoding/json"

	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/audit"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/coordinator"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
)

// ReferenceAdapter is the coordinator-backed Adapter implementation: the
// coordinator itself is the reference adapter. It adds
// nothing beyond shape translation: governance config capture for
// GovernedResult.AppliedPolicies, audit-trail hydration, and schema
// validation ahead of C2's semantic pass.
type ReferenceAdapter struct {
	Coordinator *coordinator.Coordinator
	Store       *artifact.Store
	Schema      SchemaValidator
}

// SchemaValidator is the subset of pkg/workflow/schema.Validator an
// adapter needs; kept as an interface so a nil Schema skips the
// structural pass in tests without pulling in the embedded JSON.
type SchemaValidator interface {
	ValidateBytes(doc any) []string
}

// NewReferenceAdapter wires a coordinator and artifact store into the
// façade. schema may be nil to skip the JSON Schema structural pass.
func NewReferenceAdapter(co *coordinator.Coordinator, store *artifact.Store, schema SchemaValidator) *ReferenceAdapter {
	return &ReferenceAdapter{Coordinator: co, Store: store, Schema: schema}
}

// Validate runs the JSON Schema structural pass (if wired) followed by
// the semantic validator, mirroring the split between the embedded
// schema package and workflow.Validate.
func (a *ReferenceAdapter) Validate(def *workflow.Definition) workflow.ValidationResult {
	result := workflow.Validate(def)
	if a.Schema == nil {
		return result
	}

	// jsonschema validates generic JSON values (maps/slices/primitives),
	// not tagged Go structs, so def is round-tripped through its JSON
	// encoding first.
	raw, err := json.Marshal(def)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, "internal: cannot encode workflow for schema validation: "+err.Error())
		return result
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, "internal: cannot decode workflow for schema validation: "+err.Error())
		return result
	}

	for _, msg := range a.Schema.ValidateBytes(doc) {
		result.Errors = append(result.Errors, msg)
		result.Valid = false
	}
	return result
}

// ExecuteWithGovernance validates, then runs def under gov through the
// coordinator, hydrating the audit trail onto the returned GovernedResult.
func (a *ReferenceAdapter) ExecuteWithGovernance(ctx context.Context, def *workflow.Definition, gov workflow.GovernanceConfig) (GovernedResult, error) {
	if v := a.Validate(def); !v.Valid {
		return GovernedResult{WorkflowName: def.Name, Status: artifact.StatusBlocked, Errors: v.Errors}, nil
	}

	res, err := a.Coordinator.Run(ctx, def, gov)
	if err != nil {
		return GovernedResult{}, err
	}
	return a.hydrate(res, def, gov)
}

// Resume continues an existing run, optionally rewinding to fromStep.
func (a *ReferenceAdapter) Resume(ctx context.Context, runID string, fromStep string) (GovernedResult, error) {
	state, err := a.Store.LoadRunState(runID)
	if err != nil {
		return GovernedResult{}, err
	}

	res, err := a.Coordinator.Resume(ctx, runID, state.Workflow, workflow.GovernanceConfig{}, fromStep)
	if err != nil {
		return GovernedResult{}, err
	}
	return a.hydrate(res, state.Workflow, workflow.GovernanceConfig{})
}

// Abort requests a run stop, producing a paused, resumable state.
func (a *ReferenceAdapter) Abort(runID, reason string) (GovernedResult, error) {
	state, err := a.Store.LoadRunState(runID)
	if err != nil {
		return GovernedResult{}, err
	}

	res, err := a.Coordinator.Abort(runID, reason)
	if err != nil {
		return GovernedResult{}, err
	}
	return a.hydrate(res, state.Workflow, workflow.GovernanceConfig{})
}

func (a *ReferenceAdapter) hydrate(res coordinator.Result, def *workflow.Definition, gov workflow.GovernanceConfig) (GovernedResult, error) {
	state, err := a.Store.LoadRunState(res.RunID)
	if err != nil {
		return GovernedResult{}, err
	}

	trail, err := audit.ReadLog(a.Store.AuditLogPath(res.RunID))
	if err != nil {
		return GovernedResult{}, err
	}

	return GovernedResult{
		RunID:           res.RunID,
		WorkflowName:    def.Name,
		Status:          res.Status,
		AppliedPolicies: gov.Policies,
		Compliant:       res.Status != artifact.StatusBlocked,
		AuditTrail:      trail,
		Payload:         state,
		StartTime:       state.StartTime,
		EndTime:         state.EndTime,
	}, nil
}
