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

// Package schema compiles and applies the companion JSON Schema document
// that accompanies the YAML workflow format, layered ahead
// of the hand-written semantic checks in pkg/workflow.Validate.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed workflow.schema.json
var document []byte

// Validator wraps a compiled jsonschema.Schema for the workflow document
// shape. It is safe for concurrent use once built.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded schema document once at construction time.
func New() (*Validator, error) {
	var doc any
	if err := json.Unmarshal(document, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal embedded schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("workflow.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	s, err := c.Compile("workflow.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// ValidateBytes decodes raw YAML-as-JSON-compatible data (a map[string]any
// produced by a prior yaml.Unmarshal into any) against the schema and
// returns a flat list of human-readable violation messages.
func (v *Validator) ValidateBytes(doc any) []string {
	if err := v.schema.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return flatten(ve)
		}
		return []string{err.Error()}
	}
	return nil
}

func flatten(ve *jsonschema.ValidationError) []string {
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			msgs = append(msgs, e.Error())
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return msgs
}
