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

package applydiff

import "regexp"

// fencedDiff matches a fenced code block whose contents begin with a
// recognizable unified-diff header.
var fencedDiff = regexp.MustCompile("(?s)```(?:diff|patch)?\\n(---[^\\n]*\\n\\+\\+\\+[^\\n]*\\n.*?)\\n```")

// filePathInDiff extracts the new-file path from a unified diff's "+++"
// header line.
var filePathInDiff = regexp.MustCompile(`\+\+\+ (?:b/)?([^\t\n]+)`)

// Diff is one extracted, parsed diff block.
type Diff struct {
	Path string
	Text string
}

// ExtractDiffs scans transcripts in workflow order for fenced diff
// blocks and returns them in the order they were written.
func ExtractDiffs(transcripts []string) []Diff {
	var diffs []Diff
	for _, t := range transcripts {
		matches := fencedDiff.FindAllStringSubmatch(t, -1)
		for _, m := range matches {
			body := m[1]
			pathMatch := filePathInDiff.FindStringSubmatch(body)
			if pathMatch == nil {
				continue
			}
			diffs = append(diffs, Diff{Path: pathMatch[1], Text: body})
		}
	}
	return diffs
}
