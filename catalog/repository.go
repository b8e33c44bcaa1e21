package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/logger"
)

// Maintainer keeps the on-disk gamedata current. Implemented by gitsync.
type Maintainer interface {
	// Initialized reports whether local gamedata exists at all
	Initialized() bool
	// Update fetches the latest gamedata onto disk
	Update(ctx context.Context) error
}

// Repository holds the current catalog snapshot and swaps in new ones
// atomically. Bundle reads never block behind a refresh.
type Repository struct {
	loader     *Loader
	maintainer Maintainer

	bundle   atomic.Pointer[Bundle]
	updateMu sync.Mutex
}

// NewRepository creates a repository over the loader. The maintainer is
// optional; without one, Sync degrades to a disk reload.
func NewRepository(loader *Loader, maintainer Maintainer) *Repository {
	return &Repository{loader: loader, maintainer: maintainer}
}

// Ready reports whether a bundle has been loaded
func (r *Repository) Ready() bool {
	return r.bundle.Load() != nil
}

// Bundle returns the current snapshot without touching disk
func (r *Repository) Bundle() (*Bundle, error) {
	b := r.bundle.Load()
	if b == nil {
		return nil, errors.Mark(errors.New("game data bundle is not loaded"), errors.ErrDataNotReady)
	}
	return b, nil
}

// StartupPrepare makes the repository ready: when no local gamedata exists
// yet it runs a first-time sync, then loads the bundle from disk
func (r *Repository) StartupPrepare(ctx context.Context) error {
	if r.maintainer != nil && !r.maintainer.Initialized() {
		logger.Info("no local gamedata found, performing first-time sync")
		if err := r.maintainer.Update(ctx); err != nil {
			return errors.Wrap(err, "first-time gamedata sync")
		}
	}
	return r.Refresh(ctx)
}

// Refresh rebuilds the bundle from what is on disk and swaps it in
func (r *Repository) Refresh(ctx context.Context) error {
	r.updateMu.Lock()
	defer r.updateMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info("loading game data bundle from disk")
	b := BuildBundle(r.loader)
	r.bundle.Store(b)
	logger.Infow("game data bundle loaded",
		"version", b.Version,
		"operators", len(b.Operators),
		"tokens", len(b.Tokens))
	return nil
}

// Sync updates the on-disk gamedata through the maintainer and reloads the
// bundle. Without a maintainer it only reloads.
func (r *Repository) Sync(ctx context.Context) error {
	if r.maintainer != nil {
		logger.Info("updating gamedata on disk")
		if err := r.maintainer.Update(ctx); err != nil {
			return errors.Wrap(err, "gamedata update")
		}
	}
	return r.Refresh(ctx)
}
