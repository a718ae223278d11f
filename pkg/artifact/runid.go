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

package artifact

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateRunID returns a lexicographically sortable, globally unique run
// identifier: an ISO-8601 UTC timestamp (to the millisecond, colons and
// dots stripped so it is filesystem-safe) plus a short random suffix drawn
// from a UUIDv4.
func GenerateRunID(now time.Time) string {
	ts := now.UTC().Format("20060102T150405.000Z")
	return fmt.Sprintf("%s-%s", ts, randomSuffix())
}

func randomSuffix() string {
	id := uuid.New().String()
	return id[:8]
}
