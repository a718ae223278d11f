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
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	bcceerrors "github.com/NSvoltage/BCCE-dev-sub002/pkg/errors"
)

// fsyncEvents names the events that must be durable before the emitter
// returns: step_end, policy_violation, and any status
// transition, which callers mark with forceFsync on Emit.
var fsyncEvents = map[EventType]bool{
	EventStepEnd:       true,
	EventPolicyViolation: true,
}

// Emitter appends Entries to a run's audit.log. It is the only writer of
// that file; every other component reaches audit.log through it.
type Emitter struct {
	mu   sync.Mutex
	seq  uint64
	file *os.File
	sink *Sink
	now  func() time.Time
}

// NewEmitter opens (creating if absent) the audit log at path in append
// mode and wires an optional secondary Sink for the external log
// shipper. sink may be nil. Sequence numbers continue from the last
// entry already in the log, so resuming or aborting a run never
// restarts or collides with the sequence the run already wrote.
func NewEmitter(path string, sink *Sink) (*Emitter, error) {
	existing, err := ReadLog(path)
	if err != nil {
		return nil, err
	}
	var seq uint64
	if n := len(existing); n > 0 {
		seq = existing[n-1].Sequence
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, &bcceerrors.IntegrityError{Component: path, Reason: fmt.Sprintf("open audit log: %v", err)}
	}
	return &Emitter{file: f, sink: sink, now: time.Now, seq: seq}, nil
}

// Close releases the underlying file handle.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Close()
}

// Emit appends one entry. forceFsync additionally durability-syncs
// events outside the always-synced set (used by the coordinator for
// status transitions).
func (e *Emitter) Emit(event EventType, details map[string]any, forceFsync bool) (Entry, error) {
	return e.emit(event, details, "", nil, forceFsync)
}

// EmitWithActor is Emit plus an actor field, used for approval events.
func (e *Emitter) EmitWithActor(event EventType, details map[string]any, actor string, forceFsync bool) (Entry, error) {
	return e.emit(event, details, actor, nil, forceFsync)
}

// EmitWithCost is Emit plus a cost field, used for budget_check events.
func (e *Emitter) EmitWithCost(event EventType, details map[string]any, cost float64, forceFsync bool) (Entry, error) {
	return e.emit(event, details, "", &cost, forceFsync)
}

func (e *Emitter) emit(event EventType, details map[string]any, actor string, cost *float64, forceFsync bool) (Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	entry := Entry{
		Sequence:  e.seq,
		Timestamp: e.now().UTC(),
		Event:     event,
		Details:   details,
		Actor:     actor,
		Cost:      cost,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, &bcceerrors.IntegrityError{Component: "audit", Reason: fmt.Sprintf("marshal audit entry: %v", err)}
	}
	line = append(line, '\n')

	if _, err := e.file.Write(line); err != nil {
		return Entry{}, &bcceerrors.IntegrityError{Component: "audit", Reason: fmt.Sprintf("write audit entry: %v", err)}
	}

	if fsyncEvents[event] || forceFsync {
		if err := e.file.Sync(); err != nil {
			return Entry{}, &bcceerrors.IntegrityError{Component: "audit", Reason: fmt.Sprintf("fsync audit log: %v", err)}
		}
	}

	if e.sink != nil {
		e.sink.Send(entry)
	}

	return entry, nil
}
