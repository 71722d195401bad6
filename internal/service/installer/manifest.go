package installer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/desktop-installer/internal/domain/build"
	"github.com/oshokin/desktop-installer/internal/logger"
	"github.com/oshokin/desktop-installer/internal/version"
)

const (
	// ManifestFilename is the artifact manifest written next to the installers.
	ManifestFilename = "desktop-installer-manifest.yaml"

	// manifestFileMode matches what packaging engines use for their outputs.
	manifestFileMode os.FileMode = 0o644
)

// Manifest lists the installers produced by a build.
type Manifest struct {
	// Tool is the desktop-installer version that produced the manifest.
	Tool string `yaml:"tool"`
	// CreatedAt is when the manifest was written.
	CreatedAt time.Time `yaml:"created_at"`
	// Targets are the built targets.
	Targets []string `yaml:"targets"`
	// Files maps file names to their checksum and size.
	Files map[string]Artifact `yaml:"files"`
}

// Artifact describes one produced file.
type Artifact struct {
	// Checksum is the base64-encoded BLAKE3 digest.
	Checksum string `yaml:"checksum"`
	// Size is the file size in bytes.
	Size int64 `yaml:"size"`
}

// BuildManifest checksums the regular files directly inside dir.
// Subdirectories hold unpacked intermediates and are skipped.
func BuildManifest(dir string, targets []build.Target) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	manifest := &Manifest{
		Tool:      version.Short(),
		CreatedAt: time.Now().UTC(),
		Targets:   make([]string, 0, len(targets)),
		Files:     make(map[string]Artifact, len(entries)),
	}

	for _, target := range targets {
		manifest.Targets = append(manifest.Targets, target.String())
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == ManifestFilename {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		checksum, size, err := fileChecksum(path)
		if err != nil {
			return nil, err
		}

		manifest.Files[entry.Name()] = Artifact{
			Checksum: base64.StdEncoding.EncodeToString(checksum),
			Size:     size,
		}
	}

	return manifest, nil
}

// writeManifest builds the manifest for dir and stores it there.
// A missing output directory is logged and yields an empty path.
func writeManifest(ctx context.Context, dir string, targets []build.Target) (string, error) {
	manifest, err := BuildManifest(dir, targets)
	if errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Output directory not found, skipping manifest", "path", dir)
		return "", nil
	}

	if err != nil {
		return "", err
	}

	contents, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	for name, artifact := range manifest.Files {
		logger.InfoKV(ctx, "Installer produced", "file", name, "size", humanize.Bytes(uint64(artifact.Size)))
	}

	path := filepath.Join(dir, ManifestFilename)
	if err = os.WriteFile(path, contents, manifestFileMode); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	logger.InfoKV(ctx, "Artifact manifest written", "path", path, "files", len(manifest.Files))

	return path, nil
}

// fileChecksum returns the BLAKE3 digest and size of the file at path.
func fileChecksum(path string) ([]byte, int64, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := blake3.New()

	size, err := io.Copy(hasher, file)
	if err != nil {
		return nil, 0, fmt.Errorf("checksum %s: %w", path, err)
	}

	return hasher.Sum(nil), size, nil
}
