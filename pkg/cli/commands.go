// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-objlifecycle.
//
// go-objlifecycle is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/jeremyhahn/go-objlifecycle/pkg/adapters"
	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
	"github.com/jeremyhahn/go-objlifecycle/pkg/factory"
	"github.com/jeremyhahn/go-objlifecycle/pkg/lifecycle"
	"github.com/jeremyhahn/go-objlifecycle/pkg/version"
)

// CommandContext holds the context for executing commands.
type CommandContext struct {
	Backend common.Backend
	Config  *FileConfig
	Logger  adapters.Logger
	Metrics *lifecycle.Metrics
}

// NewCommandContext validates fc and creates its backend. Nothing is sent
// to the backend here.
func NewCommandContext(fc *FileConfig, logger adapters.Logger) (*CommandContext, error) {
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = adapters.NewNoOpLogger()
	}

	backend, err := factory.NewBackend(fc.Backend.Type, fc.Backend.Settings)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", fc.Backend.Type, err)
	}
	if l, ok := backend.(interface{ SetLogger(adapters.Logger) }); ok {
		l.SetLogger(logger)
	}

	return &CommandContext{
		Backend: backend,
		Config:  fc,
		Logger:  logger,
		Metrics: lifecycle.NewMetrics(nil),
	}, nil
}

// Close closes the backend.
func (ctx *CommandContext) Close() error {
	if ctx.Backend == nil {
		return nil
	}
	return ctx.Backend.Close()
}

// RunCommand evaluates every rule. forceDryRun overrides options.dry_run.
func (ctx *CommandContext) RunCommand(c context.Context, forceDryRun bool) (*lifecycle.Report, error) {
	cfg := ctx.Config.RunConfig()
	if forceDryRun {
		cfg.DryRun = true
	}

	engine, err := lifecycle.New(ctx.Backend,
		lifecycle.WithLogger(ctx.Logger),
		lifecycle.WithMetrics(ctx.Metrics))
	if err != nil {
		return nil, err
	}
	return engine.Run(c, cfg)
}

// ListCommand lists up to limit objects under prefix. A limit <= 0 lists all.
func (ctx *CommandContext) ListCommand(c context.Context, prefix string, limit int) ([]common.Object, error) {
	if err := common.ValidatePrefix("prefix", prefix); err != nil {
		return nil, err
	}

	source := lifecycle.NewPagedSource(ctx.Backend)
	objects := []common.Object{}
	for obj, err := range source.Enumerate(c, ctx.Config.Bucket, prefix, ctx.Config.Options.PageSize) {
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
		if limit > 0 && len(objects) >= limit {
			break
		}
	}
	return objects, nil
}

// WriteMetrics writes the run metrics in Prometheus text format to path.
func (ctx *CommandContext) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	return ctx.Metrics.WriteTextfile(path)
}

// ValidateCommand loads nothing from the backend: it only checks fc.
func ValidateCommand(fc *FileConfig) error {
	return fc.Validate()
}

// VersionCommand returns the version banner.
func VersionCommand() string {
	return version.String()
}

func backendTypes() []string {
	return factory.Types()
}

func knownBackend(t string) bool {
	return slices.Contains(factory.Types(), t)
}
