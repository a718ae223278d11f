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

package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RunSpan wraps a span covering one coordinator operation (a run or a step).
type RunSpan struct {
	span trace.Span
}

// StartRun opens the root span for a Run or Resume call.
func StartRun(ctx context.Context, runID, workflowName string) (context.Context, *RunSpan) {
	ctx, span := Tracer().Start(ctx, fmt.Sprintf("run %s", workflowName),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.workflow", workflowName),
		),
	)
	return ctx, &RunSpan{span: span}
}

// StartStep opens a child span for a single step execution.
func StartStep(ctx context.Context, runID, stepID, stepType string) (context.Context, *RunSpan) {
	ctx, span := Tracer().Start(ctx, fmt.Sprintf("step %s", stepID),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
			attribute.String("step.type", stepType),
		),
	)
	return ctx, &RunSpan{span: span}
}

// SetStatus records the span's terminal status ("completed", "failed", ...).
func (s *RunSpan) SetStatus(status string, err error) {
	if s == nil || s.span == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		return
	}
	s.span.SetAttributes(attribute.String("run.status", status))
	s.span.SetStatus(codes.Ok, status)
}

// End closes the span.
func (s *RunSpan) End() {
	if s == nil || s.span == nil {
		return
	}
	s.span.End()
}
