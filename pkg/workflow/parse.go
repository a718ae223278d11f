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

package workflow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
)

// LoadError wraps a YAML parse failure with position information when
// the parser can supply it, so the CLI can print file:line:column.
type LoadError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Parse reads and parses the YAML workflow at path, rejecting unknown
// keys at any level. It does not run semantic
// validation; call Validate on the result for that.
func Parse(path string) (*Definition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &bcceerrors.ConfigError{
			Key:        "path",
			Reason:     fmt.Sprintf("cannot resolve %q: %v", path, err),
			Suggestion: "pass a valid file path",
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &bcceerrors.ConfigError{
			Key:        "path",
			Reason:     fmt.Sprintf("cannot read workflow file: %v", err),
			Suggestion: fmt.Sprintf("verify the file exists: ls -la %s", abs),
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		line, col := 0, 0
		if te, ok := err.(*yaml.TypeError); ok && len(te.Errors) > 0 {
			// yaml.v3 doesn't expose structured positions on TypeError;
			// fall back to message-only reporting.
			_ = te
		}
		return nil, &LoadError{Path: abs, Line: line, Column: col, Message: err.Error()}
	}

	for i := range def.Steps {
		if !def.Steps[i].Type.valid() {
			return nil, &LoadError{Path: abs, Message: ErrUnknownStepType{Type: string(def.Steps[i].Type)}.Error()}
		}
	}

	def.SourcePath = abs
	return &def, nil
}

// LoadGovernance reads a governance document from path. An empty path
// returns the zero GovernanceConfig (no policies active).
func LoadGovernance(path string) (GovernanceConfig, error) {
	if path == "" {
		return GovernanceConfig{}, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return GovernanceConfig{}, &bcceerrors.ConfigError{
			Key:        "governance",
			Reason:     fmt.Sprintf("cannot resolve %q: %v", path, err),
			Suggestion: "pass a valid file path",
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return GovernanceConfig{}, &bcceerrors.ConfigError{
			Key:        "governance",
			Reason:     fmt.Sprintf("cannot read governance file: %v", err),
			Suggestion: fmt.Sprintf("verify the file exists: ls -la %s", abs),
		}
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var gov GovernanceConfig
	if err := dec.Decode(&gov); err != nil {
		return GovernanceConfig{}, &LoadError{Path: abs, Message: err.Error()}
	}
	return gov, nil
}
