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

package errors

import "fmt"

// Fixable is implemented by error kinds that carry a remediation hint.
type Fixable interface {
	Fix() string
}

// FormatWithFix renders an error followed by a "Fix:" line when the
// error (or one it wraps) implements Fixable and has a non-empty hint.
func FormatWithFix(err error) string {
	if err == nil {
		return ""
	}
	if f, ok := err.(Fixable); ok {
		if hint := f.Fix(); hint != "" {
			return fmt.Sprintf("%s\nFix: %s", err.Error(), hint)
		}
	}
	return err.Error()
}

// ExitCode maps an error to the CLI exit code convention: 2 for
// configuration/validation errors, 1 for policy/execution failures, 0
// for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch err.(type) {
	case *ConfigError, *ValidationError:
		return 2
	case *PolicyError, *ExecutionError, *IntegrityError, *SecurityError:
		return 1
	default:
		return 1
	}
}
