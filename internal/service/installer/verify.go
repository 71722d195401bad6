package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/desktop-installer/internal/logger"
)

var (
	// ErrChecksumMismatch is returned by Verify when a file differs from the manifest.
	ErrChecksumMismatch = errors.New("installer does not match manifest")
	// errEmptyManifest is returned for a manifest without files.
	errEmptyManifest = errors.New("manifest lists no files")
)

// Verify compares the installers in dir with the manifest written by the build.
// Every mismatching or missing file is logged; the first one is returned.
func Verify(ctx context.Context, dir string) error {
	ctx = logger.WithName(ctx, "desktop-installer")

	contents, err := os.ReadFile(filepath.Join(dir, ManifestFilename))
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err = yaml.Unmarshal(contents, &manifest); err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}

	if len(manifest.Files) == 0 {
		return errEmptyManifest
	}

	current, err := BuildManifest(dir, nil)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(manifest.Files))
	for name := range manifest.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	var firstErr error

	for _, name := range names {
		want := manifest.Files[name]

		got, ok := current.Files[name]
		if ok && got == want {
			continue
		}

		logger.ErrorKV(ctx, "Installer does not match manifest", "file", name, "present", ok)

		if firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", name, ErrChecksumMismatch)
		}
	}

	if firstErr != nil {
		return firstErr
	}

	logger.InfoKV(ctx, "Installers match manifest", "files", len(names))

	return nil
}
