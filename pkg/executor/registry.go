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

package executor

import "github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"

// Registry maps a step type to the Executor that handles it. The
// coordinator asks the registry for an executor rather than switching on
// step type itself, so new step types register without touching the
// coordinator.
type Registry struct {
	executors map[workflow.StepType]Executor
}

// NewRegistry builds an empty registry; callers register each variant.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[workflow.StepType]Executor)}
}

// Register associates a step type with its executor.
func (r *Registry) Register(t workflow.StepType, e Executor) {
	r.executors[t] = e
}

// For returns the executor for a step type, or nil if none is
// registered.
func (r *Registry) For(t workflow.StepType) Executor {
	return r.executors[t]
}
