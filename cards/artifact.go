// Package cards produces and caches card artifacts: rendered views of a
// query result in one of several formats, persisted on disk and reused until
// invalidated by a new payload key.
package cards

import (
	"os"
	"strings"

	"github.com/harulab/cardforge/errors"
)

// Format is one artifact flavor
type Format string

const (
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
)

// ParseFormat normalizes a user-supplied format string. Leading dots and
// casing are tolerated; anything else is a validation error.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case FormatTXT, FormatJSON, FormatHTML, FormatPNG:
		return f, nil
	}
	return "", errors.NewValidationf("unsupported format %q, must be one of txt, json, html, png", s)
}

// MIME returns the content type of the format
func (f Format) MIME() string {
	switch f {
	case FormatTXT:
		return "text/plain; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Artifact is one cached rendering on disk
type Artifact struct {
	Template   string
	PayloadKey string
	Format     Format
	Path       string
	MIME       string
}

// Exists reports whether the artifact file is present and non-empty
func (a *Artifact) Exists() bool {
	info, err := os.Stat(a.Path)
	return err == nil && info.Size() > 0
}

// Bytes reads the artifact body
func (a *Artifact) Bytes() ([]byte, error) {
	raw, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "reading artifact %s", a.Path), errors.ErrStorage)
	}
	return raw, nil
}

// Text reads the artifact body as a string
func (a *Artifact) Text() (string, error) {
	raw, err := a.Bytes()
	return string(raw), err
}
