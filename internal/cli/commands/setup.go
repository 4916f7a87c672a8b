package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaptmpl/internal/config"
	"github.com/leapstack-labs/leaptmpl/internal/data"
	"github.com/leapstack-labs/leaptmpl/internal/store"
	"github.com/leapstack-labs/leaptmpl/pkg/core"
	"github.com/leapstack-labs/leaptmpl/pkg/template"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Source template.Source
	Engine *template.Engine
	Store  *store.Store // set when the source is the SQL store
}

// NewCommandContext opens the configured template source and builds an engine
// over it. The cleanup function must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	cc := &CommandContext{Cfg: cfg, Logger: logger}
	cleanup := func() {}

	switch cfg.Source {
	case config.SourceStore:
		s, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		cc.Store = s
		cc.Source = s
		cleanup = func() { _ = s.Close() }
	default:
		if err := cfg.ValidateDirectories(); err != nil {
			return nil, nil, err
		}
		cc.Source = template.NewFSSource(os.DirFS(cfg.TemplatesDir), cfg.Extension)
	}

	cc.Engine = template.NewEngine(cc.Source, template.WithLogger(logger))
	return cc, cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	s, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open template store: %w", err)
	}
	return s, nil
}

// LoadData builds the render context from the configured data files and
// key=value assignments, assignments winning.
func (cc *CommandContext) LoadData(assignments []string) (core.Context, error) {
	ctx, err := data.LoadFiles(cc.Cfg.Data...)
	if err != nil {
		return nil, err
	}
	overrides, err := data.ParseSet(assignments)
	if err != nil {
		return nil, err
	}
	ctx.Merge(overrides)
	return ctx, nil
}

// listTemplates returns every template identifier of the source.
func (cc *CommandContext) listTemplates(ctx context.Context) ([]string, error) {
	lister, ok := cc.Source.(template.Lister)
	if !ok {
		return nil, fmt.Errorf("template source cannot list templates")
	}
	return lister.List(ctx)
}
