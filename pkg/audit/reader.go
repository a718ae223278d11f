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

package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
)

// ReadLog loads every entry from an audit.log in sequence order, for
// adapters surfacing the full trail on a GovernedResult and for the CLI's
// `workflow run --verbose` replay.
func ReadLog(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &bcceerrors.IntegrityError{Component: path, Reason: fmt.Sprintf("open audit log: %v", err)}
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return entries, &bcceerrors.IntegrityError{Component: path, Reason: fmt.Sprintf("malformed audit line: %v", err)}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, &bcceerrors.IntegrityError{Component: path, Reason: fmt.Sprintf("read audit log: %v", err)}
	}
	return entries, nil
}
