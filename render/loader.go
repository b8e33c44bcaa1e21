// Package render turns structured query results into textual artifacts
// through disk-loaded templates. Three renderers share one template root:
// plain text, HTML, and JSON, each reading its templates from its own
// subdirectory.
package render

import (
	"os"
	"path/filepath"

	"github.com/harulab/cardforge/errors"
)

// Loader reads template sources from a root directory. Templates live at
// <root>/<kind>/<name>.<ext>.tmpl; the loader itself caches nothing so edits
// on disk take effect on the next render.
type Loader struct {
	root string
}

// NewLoader creates a loader over the template root directory
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Load returns the template source at the conventional path for the given
// kind and name. A missing file yields a template-missing error naming the
// path that was tried.
func (l *Loader) Load(kind, name, ext string) (string, string, error) {
	relpath := filepath.Join(kind, name+"."+ext+".tmpl")
	raw, err := os.ReadFile(filepath.Join(l.root, relpath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", relpath, errors.Mark(
				errors.Newf("template %s not found under %s", relpath, l.root),
				errors.ErrTemplateMissing)
		}
		return "", relpath, errors.Wrapf(err, "reading template %s", relpath)
	}
	return string(raw), relpath, nil
}
