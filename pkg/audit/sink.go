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
	"sync/atomic"

	"github.com/NSvoltage/BCCE-dev-sub002/internal/metrics"
)

// Sink is a bounded-capacity secondary channel consumed by an external
// log-shipper collaborator. Backpressure on the sink never blocks the
// coordinator: once full, the oldest queued entry is dropped in favor of
// the newest, and a dropped-event counter tracks how many were lost.
type Sink struct {
	queue   chan Entry
	dropped atomic.Uint64
}

// NewSink creates a sink with the given bounded capacity.
func NewSink(capacity int) *Sink {
	if capacity <= 0 {
		capacity = 1
	}
	return &Sink{queue: make(chan Entry, capacity)}
}

// Send enqueues an entry, dropping the oldest queued entry to make room
// if the sink is full. Never blocks.
func (s *Sink) Send(e Entry) {
	select {
	case s.queue <- e:
		return
	default:
	}

	// Queue full: drop the oldest entry and retry once.
	select {
	case <-s.queue:
		s.dropped.Add(1)
		metrics.AuditEventsDropped.Inc()
	default:
	}

	select {
	case s.queue <- e:
	default:
		s.dropped.Add(1)
		metrics.AuditEventsDropped.Inc()
	}
}

// Dropped returns the cumulative number of entries dropped for capacity.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Chan exposes the consumer-facing channel for the log-shipper worker.
func (s *Sink) Chan() <-chan Entry {
	return s.queue
}
