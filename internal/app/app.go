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

// Package app assembles the artifact store, policy engine, executor
// registry, coordinator and reference adapter into the single stack
// every CLI command drives.
package app

import (
	"context"
	"time"

	"github.com/NSvoltage/BCCE-dev-sub002/internal/config"
	"github.com/NSvoltage/BCCE-dev-sub002/internal/tracing"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/adapter"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/artifact"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/audit"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/coordinator"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor/agent"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor/applydiff"
	cmdexec "github.com/NSvoltage/BCCE-dev-sub002/pkg/executor/cmd"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/executor/prompt"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/policy"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow"
	"github.com/NSvoltage/BCCE-dev-sub002/pkg/workflow/schema"
)

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// App holds the assembled stack and is shared by every command.
type App struct {
	Config  *config.Config
	Store   *artifact.Store
	Adapter *adapter.ReferenceAdapter

	// AuditSink is the process-wide secondary audit channel; an
	// embedding program drains it to ship events to an external log
	// store. The CLI itself does not consume it.
	AuditSink *audit.Sink

	tracing *tracing.Provider
}

// Shutdown flushes the tracing provider, if one was installed.
func (a *App) Shutdown(ctx context.Context) error {
	return a.tracing.Shutdown(ctx)
}

// New wires the full stack from the process environment. artifactsRoot
// overrides config.FromEnv's resolution when non-empty (the --artifacts-root
// flag).
func New(artifactsRoot string) (*App, error) {
	cfg := config.FromEnv()
	if artifactsRoot != "" {
		cfg.ArtifactsRoot = artifactsRoot
	}

	store, err := artifact.NewStore(cfg.ArtifactsRoot)
	if err != nil {
		return nil, err
	}

	registry := executor.NewRegistry()
	registry.Register(workflow.StepPrompt, prompt.New())
	registry.Register(workflow.StepCmd, cmdexec.New())
	registry.Register(workflow.StepAgent, agent.New())
	registry.Register(workflow.StepApplyDiff, applydiff.New())

	engine := policy.NewEngine(nil)

	co := coordinator.New(store, engine, registry, wallClock{}, coordinator.Config{
		MaxRunSeconds:     cfg.MaxRunSeconds,
		DefaultCmdTimeout: int(cfg.DefaultCmdTimeout.Seconds()),
		AuditSinkCapacity: cfg.AuditSinkCapacity,
	})

	validator, err := schema.New()
	if err != nil {
		return nil, err
	}

	tp, err := tracing.New()
	if err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		Store:     store,
		Adapter:   adapter.NewReferenceAdapter(co, store, validator),
		AuditSink: co.AuditSink,
		tracing:   tp,
	}, nil
}
