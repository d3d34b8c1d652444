package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studiops/bankrecon/internal/categories"
	"github.com/studiops/bankrecon/internal/config"
	"github.com/studiops/bankrecon/internal/importer"
	"github.com/studiops/bankrecon/internal/ingest"
	"github.com/studiops/bankrecon/internal/logging"
	"github.com/studiops/bankrecon/internal/matching"
	"github.com/studiops/bankrecon/internal/store"
)

// app is an opened project: config, logger, store and services.
type app struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	ingest *ingest.Service
	engine *matching.Engine
}

// openApp loads the config at g.configPath and connects everything.
func openApp(ctx context.Context, cmd *cobra.Command, g *globalFlags) (*app, error) {
	path, err := filepath.Abs(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(path)

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	dbCfg := cfg.Database
	dbCfg.DSN = resolveDSN(root, dbCfg)
	st, err := store.Open(dbCfg)
	if err != nil {
		return nil, err
	}

	resolver, err := loadResolver(ctx, root, st, cfg.Import.DefaultCategory)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		root:   root,
		cfg:    cfg,
		logger: logger,
		store:  st,
		ingest: ingest.NewService(st, importer.DefaultRegistry(nil), resolver, logger,
			ingest.WithMaxFileBytes(cfg.Import.MaxFileBytes)),
		engine: matching.NewEngine(st, cfg.Thresholds(), logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// resolveDSN anchors a relative SQLite path at the project root.
func resolveDSN(root string, db config.DatabaseConfig) string {
	dsn := db.DSN
	if db.Driver != "sqlite" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(root, dsn)
}

// loadResolver prefers rules stored in the database, then the project's
// rules file, then the built-in defaults.
func loadResolver(ctx context.Context, root string, st *store.Store, fallback string) (*categories.Resolver, error) {
	rules, err := st.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		rules, err = categories.Load(root)
		if errors.Is(err, os.ErrNotExist) {
			rules, err = categories.DefaultRules(), nil
		}
		if err != nil {
			return nil, err
		}
	}
	return categories.NewResolver(rules, fallback), nil
}
