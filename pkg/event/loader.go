// loader.go — Load .eventdp (ZIP) bundles holding event.json and its flyer.
package event

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BundleExt is the file extension of event bundles.
const BundleExt = ".eventdp"

// LoadBundle opens a .eventdp ZIP, extracts it to a temp directory, parses
// event.json and resolves a relative flyer reference against the bundle.
// The returned cleanup function removes the temp directory.
func LoadBundle(path string) (*Event, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "eventdp-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(&r.Reader, tmpDir); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	e, err := ParseEventFile(filepath.Join(tmpDir, "event.json"))
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	e.FlyerURL = resolveLocal(e.FlyerURL, tmpDir)
	return e, cleanup, nil
}

// Load reads either a bundle or a standalone event JSON file. Relative
// flyer paths in a JSON file are resolved against the file's directory.
func Load(path string) (*Event, func(), error) {
	if strings.EqualFold(filepath.Ext(path), BundleExt) {
		return LoadBundle(path)
	}
	e, err := ParseEventFile(path)
	if err != nil {
		return nil, func() {}, err
	}
	e.FlyerURL = resolveLocal(e.FlyerURL, filepath.Dir(path))
	return e, func() {}, nil
}

// resolveLocal makes a relative file reference absolute. URLs pass through.
func resolveLocal(p, baseDir string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(baseDir, p)
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// extractFile writes a single zip entry to disk.
func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
