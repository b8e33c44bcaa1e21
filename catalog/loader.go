package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/logger"
)

// gamedataTables lists the excel tables a bundle is built from
var gamedataTables = []string{
	"character_table",
	"uniequip_table",
	"handbook_team_table",
	"item_table",
	"range_table",
	"skill_table",
	"skin_table",
	"charword_table",
	"char_meta_table",
}

// Loader reads gamedata and local override tables from disk. A missing or
// unparsable table degrades to an empty one; the bundle builder treats absent
// tables the same as empty ones.
type Loader struct {
	gamedataRoot string
	localRoot    string
}

// NewLoader creates a loader over the unpacked gamedata root (containing
// excel/*.json) and an optional local override directory
func NewLoader(gamedataRoot, localRoot string) *Loader {
	return &Loader{gamedataRoot: gamedataRoot, localRoot: localRoot}
}

// LoadTables reads every known gamedata table plus local overrides and merges
// them with the built-in display tables
func (l *Loader) LoadTables() map[string]Table {
	tables := defaultTables()

	for _, name := range gamedataTables {
		tables[name] = l.readTable(filepath.Join(l.gamedataRoot, "excel", name+".json"))
	}

	if l.localRoot == "" {
		return tables
	}
	entries, err := os.ReadDir(l.localRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnw("reading local tables dir failed", "path", l.localRoot, "error", err)
		}
		return tables
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		tables[name] = l.readTable(filepath.Join(l.localRoot, e.Name()))
	}
	return tables
}

// Version reads the gamedata version string when present, "unknown" otherwise
func (l *Loader) Version() string {
	raw, err := os.ReadFile(filepath.Join(l.gamedataRoot, "excel", "data_version.txt"))
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "VersionControl:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return "unknown"
}

func (l *Loader) readTable(path string) Table {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnw("reading table failed", "path", path, "error", err)
		}
		return Table{}
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		logger.Warnw("parsing table failed", "path", path, "error", errors.Wrap(err, "unmarshal"))
		return Table{}
	}
	if t == nil {
		return Table{}
	}
	return t
}
