// Package commands implements the cardforge CLI subcommands.
package commands

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harulab/cardforge/alias"
	"github.com/harulab/cardforge/cards"
	"github.com/harulab/cardforge/catalog"
	"github.com/harulab/cardforge/config"
	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/gitsync"
	"github.com/harulab/cardforge/logger"
	"github.com/harulab/cardforge/render"
	"github.com/harulab/cardforge/search"
	"github.com/harulab/cardforge/transform"
)

// app bundles the wired-up services a command works with
type app struct {
	cfg        *config.Config
	repo       *catalog.Repository
	maintainer *gitsync.Maintainer
	cards      *cards.Service
	alias      *alias.Store
	loader     *render.Loader

	db *sql.DB
}

// newApp loads configuration and wires the service graph. Commands that
// need catalog data call ensureReady afterwards.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading configuration")
	}

	// The --json-logs flag wins; the config only upgrades console output
	if cfg.Log.JSON && !logger.JSONOutput {
		if err := logger.Initialize(true); err != nil {
			return nil, errors.Wrap(err, "reinitializing logger")
		}
	}

	maintainer := gitsync.New(cfg.Data.GamedataRepo, filepath.Dir(cfg.Data.GamedataPath))
	catalogLoader := catalog.NewLoader(cfg.Data.GamedataPath, cfg.Data.LocalTablesPath)
	repo := catalog.NewRepository(catalogLoader, maintainer)

	renderLoader := render.NewLoader(cfg.Templates.Root)
	cardSvc, err := cards.NewService(cfg.Cache.Root, renderLoader, transform.NewHTMLToPNG(), pngDefaults(cfg))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:        cfg,
		repo:       repo,
		maintainer: maintainer,
		cards:      cardSvc,
		loader:     renderLoader,
	}

	if cfg.Data.AliasDBPath != "" {
		db, err := sql.Open("sqlite3", cfg.Data.AliasDBPath)
		if err != nil {
			return nil, errors.Wrapf(err, "opening alias database %s", cfg.Data.AliasDBPath)
		}
		store := alias.NewStore(db)
		if err := store.Init(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.alias = store
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// ensureReady loads the catalog bundle, running a first-time gamedata sync
// when none exists on disk yet
func (a *app) ensureReady(ctx context.Context) error {
	return a.repo.StartupPrepare(ctx)
}

// searchOptions maps the configured search defaults onto engine options
func (a *app) searchOptions() search.Options {
	return searchOptionsFrom(a.cfg)
}

func searchOptionsFrom(cfg *config.Config) search.Options {
	return search.Options{
		Limit:         cfg.Search.ResultLimit,
		MinSimilarity: cfg.Search.MinSimilarity,
		ExactOnly:     cfg.Search.ExactOnly,
	}
}

// sources builds the resolution sources for the current bundle, aliases
// included when an alias store is configured
func (a *app) sources(ctx context.Context, bundle *catalog.Bundle) ([]search.SourceSpec, error) {
	sources := catalog.BuildSources(bundle)
	if a.alias != nil {
		src, err := alias.BuildSource(ctx, a.alias, bundle)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func pngDefaults(cfg *config.Config) transform.Config {
	out := transform.DefaultConfig()
	if cfg.Transform.ViewportWidth > 0 {
		out.Viewport.Width = cfg.Transform.ViewportWidth
	}
	if cfg.Transform.ViewportHeight > 0 {
		out.Viewport.Height = cfg.Transform.ViewportHeight
	}
	out.Headless = cfg.Transform.Headless
	out.BrowserPath = cfg.Transform.BrowserPath
	out.BrowserArgs = cfg.Transform.BrowserArgs
	return out
}

// commandTimeout bounds a CLI invocation against hung downloads or browsers
func commandTimeout(cfg *config.Config) time.Duration {
	if cfg.Transform.TimeoutSeconds > 0 {
		return time.Duration(cfg.Transform.TimeoutSeconds) * time.Second
	}
	return 120 * time.Second
}
