package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/desktop-installer/internal/domain/build"
)

// TestVerify detects modified and missing installers.
func TestVerify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	setup := filepath.Join(dir, "app Setup 1.0.0.exe")
	image := filepath.Join(dir, "app-1.0.0.dmg")

	require.NoError(t, os.WriteFile(setup, []byte("nsis"), 0o600))
	require.NoError(t, os.WriteFile(image, []byte("dmg"), 0o600))

	targets := []build.Target{{Platform: build.Windows, Arch: build.X64}, {Platform: build.Mac, Arch: build.X64}}

	path, err := writeManifest(ctx, dir, targets)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.NoError(t, Verify(ctx, dir))

	// Modified file.
	require.NoError(t, os.WriteFile(image, []byte("tampered"), 0o600))
	require.ErrorIs(t, Verify(ctx, dir), ErrChecksumMismatch)

	// Missing file.
	require.NoError(t, os.Remove(image))
	require.ErrorIs(t, Verify(ctx, dir), ErrChecksumMismatch)
}

// TestVerify_NoManifest reports a missing manifest.
func TestVerify_NoManifest(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Verify(context.Background(), t.TempDir()), os.ErrNotExist)
}

// TestWriteManifest_MissingOutput skips the manifest when the engine produced nothing.
func TestWriteManifest_MissingOutput(t *testing.T) {
	t.Parallel()

	path, err := writeManifest(context.Background(), filepath.Join(t.TempDir(), "installers"), nil)
	require.NoError(t, err)
	require.Empty(t, path)
}
