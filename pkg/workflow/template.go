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
	"os"
	"regexp"
)

// templateRef matches ${NAME} environment-variable references. Only
// environment-variable names are recognized.
var templateRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// IsTemplateRef reports whether s is entirely a single ${NAME} reference.
func IsTemplateRef(s string) (name string, ok bool) {
	m := templateRef.FindStringSubmatch(s)
	if m == nil || m[0] != s {
		return "", false
	}
	return m[1], true
}

// TemplateRefs returns every ${NAME} reference found anywhere in s.
func TemplateRefs(s string) []string {
	matches := templateRef.FindAllStringSubmatch(s, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ResolveTemplate substitutes every ${NAME} reference in s with the
// value of the named environment variable, leaving unresolvable
// references untouched.
func ResolveTemplate(s string) string {
	return templateRef.ReplaceAllStringFunc(s, func(match string) string {
		name := templateRef.FindStringSubmatch(match)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}
