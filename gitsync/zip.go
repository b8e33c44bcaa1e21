package gitsync

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harulab/cardforge/errors"
)

// extractZip unpacks an archive into dest, rejecting entries that would
// escape the destination directory
func extractZip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return errors.Wrap(err, "creating destination")
	}

	for _, f := range r.File {
		if err := extractEntry(f, dest); err != nil {
			return errors.Wrapf(err, "extracting %s", f.Name)
		}
	}
	return nil
}

func extractEntry(f *zip.File, dest string) error {
	target := filepath.Join(dest, filepath.Clean(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return errors.Newf("entry %q escapes destination", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
