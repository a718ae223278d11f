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

// Package tracing wires a single OpenTelemetry tracer provider for the
// engine. Spans go nowhere unless BCCE_TRACE_STDOUT is set, in which case
// they are written to stderr as they complete.
package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's instrumentation scope.
const tracerName = "github.com/NSvoltage/BCCE-dev-sub002/pkg/coordinator"

// Provider owns the process-wide TracerProvider lifecycle. The zero
// value is valid and traces nothing; call New to wire a real exporter.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// New installs a stdout span exporter as the global tracer provider when
// BCCE_TRACE_STDOUT is set, otherwise leaves the default no-op provider
// in place so Tracer() calls stay cheap.
func New() (*Provider, error) {
	if os.Getenv("BCCE_TRACE_STDOUT") == "" {
		return &Provider{}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return &Provider{tp: tp}, nil
}

// Shutdown flushes and releases the exporter, if one was installed.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// Tracer returns the engine's tracer, backed by whatever provider is
// currently global (the no-op default, or the one New installed).
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
