// Package alias stores user-taught nicknames for catalog entries in SQLite
// and exposes them as an extra resolution source.
package alias

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/harulab/cardforge/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS aliases (
	alias      TEXT NOT NULL,
	target     TEXT NOT NULL,
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (alias, target)
);
CREATE INDEX IF NOT EXISTS idx_aliases_alias ON aliases(alias COLLATE NOCASE);
`

// Store handles nickname mappings. Every nickname is stored bidirectionally
// so either side resolves to the other; lookups are case-insensitive but the
// original spellings are preserved.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the aliases table when it does not exist yet
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "creating aliases schema")
	}
	return nil
}

// Create records a bidirectional nickname mapping
func (s *Store) Create(ctx context.Context, alias, target, createdBy string) error {
	if alias == "" {
		return errors.NewValidationf("alias cannot be empty")
	}
	if target == "" {
		return errors.NewValidationf("target cannot be empty")
	}
	if strings.EqualFold(alias, target) {
		return errors.NewValidationf("alias and target cannot be identical")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	now := time.Now()
	for _, pair := range [][2]string{{alias, target}, {target, alias}} {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO aliases (alias, target, created_by, created_at)
			VALUES (?, ?, ?, ?)`,
			pair[0], pair[1], createdBy, now)
		if err != nil {
			return errors.Wrapf(err, "creating alias %s -> %s", pair[0], pair[1])
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// Resolve returns every identifier the given one maps to, the identifier
// itself included
func (s *Store) Resolve(ctx context.Context, identifier string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target
		FROM aliases
		WHERE alias = ? COLLATE NOCASE
		UNION
		SELECT ?`,
		identifier, identifier)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving alias %s", identifier)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning identifier")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// All returns every alias mapping keyed by alias
func (s *Store) All(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT alias, target FROM aliases ORDER BY alias, target`)
	if err != nil {
		return nil, errors.Wrap(err, "listing aliases")
	}
	defer rows.Close()

	aliases := make(map[string][]string)
	for rows.Next() {
		var alias, target string
		if err := rows.Scan(&alias, &target); err != nil {
			return nil, errors.Wrap(err, "scanning alias")
		}
		aliases[alias] = append(aliases[alias], target)
	}
	return aliases, rows.Err()
}

// Delete removes a mapping in both directions. Missing mappings are not an
// error.
func (s *Store) Delete(ctx context.Context, alias, target string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM aliases
		WHERE (alias = ? AND target = ?) OR (alias = ? AND target = ?)`,
		alias, target, target, alias)
	if err != nil {
		return errors.Wrapf(err, "deleting alias %s <-> %s", alias, target)
	}
	return nil
}
