// Package gitsync keeps the on-disk gamedata current by mirroring a git
// repository and unpacking the data archive it ships.
package gitsync

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"golang.org/x/time/rate"

	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/logger"
)

const archiveName = "gamedata.zip"

// Maintainer mirrors the gamedata repository into <baseDir>/assets and
// extracts its archive into <baseDir>/gamedata. Update is cheap when the
// remote has not moved: it compares the remote HEAD against the local one
// before pulling anything.
type Maintainer struct {
	repoURL     string
	assetsDir   string
	gamedataDir string

	// remoteChecks throttles ls-remote round trips so bursts of Update
	// calls do not hammer the upstream
	remoteChecks *rate.Limiter
}

// New creates a maintainer rooted at baseDir
func New(repoURL, baseDir string) *Maintainer {
	return &Maintainer{
		repoURL:      repoURL,
		assetsDir:    filepath.Join(baseDir, "assets"),
		gamedataDir:  filepath.Join(baseDir, "gamedata"),
		remoteChecks: rate.NewLimiter(rate.Every(30*time.Second), 1),
	}
}

// GamedataDir returns the directory the archive is extracted into
func (m *Maintainer) GamedataDir() string {
	return m.gamedataDir
}

// Initialized reports whether extracted gamedata already exists on disk
func (m *Maintainer) Initialized() bool {
	_, err := os.Stat(filepath.Join(m.gamedataDir, "excel", "character_table.json"))
	return err == nil
}

// Update brings the local mirror up to date and re-extracts the archive.
// When the remote HEAD matches the local one nothing is touched.
func (m *Maintainer) Update(ctx context.Context) error {
	if m.repoURL == "" {
		return errors.New("no gamedata repository configured")
	}

	repo, err := git.PlainOpen(m.assetsDir)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			logger.Warnw("local mirror unreadable, recloning", "path", m.assetsDir, "error", err)
			if err := os.RemoveAll(m.assetsDir); err != nil {
				return errors.Wrap(err, "removing broken mirror")
			}
		}
		if err := m.clone(ctx); err != nil {
			return err
		}
		return m.extract()
	}

	localHead, err := localHeadHash(repo)
	if err != nil {
		return errors.Wrap(err, "resolving local HEAD")
	}
	remoteHead, err := m.remoteHeadHash(ctx)
	if err != nil {
		return errors.Wrap(err, "resolving remote HEAD")
	}

	if localHead == remoteHead {
		logger.Infow("gamedata already current", "head", localHead)
		return nil
	}

	logger.Infow("remote gamedata moved, pulling", "local", localHead, "remote", remoteHead)
	wt, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "opening worktree")
	}
	err = wt.PullContext(ctx, &git.PullOptions{Depth: 1})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		// Shallow mirrors sometimes cannot fast-forward; a fresh clone is
		// cheaper than untangling the history.
		logger.Warnw("pull failed, recloning", "error", err)
		if err := os.RemoveAll(m.assetsDir); err != nil {
			return errors.Wrap(err, "removing stale mirror")
		}
		if err := m.clone(ctx); err != nil {
			return err
		}
	}
	return m.extract()
}

func (m *Maintainer) clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(m.assetsDir), 0o755); err != nil {
		return errors.Wrap(err, "creating base dir")
	}
	logger.Infow("cloning gamedata repository", "url", m.repoURL, "destination", m.assetsDir)
	_, err := git.PlainCloneContext(ctx, m.assetsDir, false, &git.CloneOptions{
		URL:   m.repoURL,
		Depth: 1,
	})
	if err != nil {
		os.RemoveAll(m.assetsDir)
		return errors.Wrap(err, "cloning gamedata repository")
	}
	return nil
}

func (m *Maintainer) extract() error {
	zipPath := filepath.Join(m.assetsDir, archiveName)
	if _, err := os.Stat(zipPath); err != nil {
		return errors.Wrapf(err, "gamedata archive %s missing", zipPath)
	}
	logger.Infow("extracting gamedata archive", "archive", zipPath, "destination", m.gamedataDir)
	if err := extractZip(zipPath, m.gamedataDir); err != nil {
		return errors.Wrap(err, "extracting gamedata archive")
	}
	return nil
}

func (m *Maintainer) remoteHeadHash(ctx context.Context) (string, error) {
	if err := m.remoteChecks.Wait(ctx); err != nil {
		return "", err
	}

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{m.repoURL},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", err
	}

	var headTarget plumbing.ReferenceName
	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD {
			if ref.Type() == plumbing.HashReference {
				return ref.Hash().String(), nil
			}
			headTarget = ref.Target()
		}
	}
	if headTarget != "" {
		for _, ref := range refs {
			if ref.Name() == headTarget {
				return ref.Hash().String(), nil
			}
		}
	}
	return "", errors.New("remote advertises no HEAD")
}

func localHeadHash(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}
