package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields, defaults and directory name rules.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing app root.
	cfg := new(Config)
	require.Error(t, Validate(cfg))

	// Defaults.
	cfg = &Config{AppRoot: "build/desktop"}
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultSettingsFilename, cfg.SettingsFile)
	require.Equal(t, DefaultDependencyDir, cfg.DependencyDir)
	require.Equal(t, "_node_modules", cfg.StagedDir)
	require.Equal(t, ".", cfg.OutputDir)
	require.Equal(t, DefaultInstallerDir, cfg.InstallerDir)
	require.Equal(t, DefaultEngineCommand, cfg.Engine.Command)

	require.Equal(t, filepath.Join("build/desktop", "node_modules"), cfg.DependencyPath())
	require.Equal(t, filepath.Join("build/desktop", "_node_modules"), cfg.StagedPath())
	require.Equal(t, "installers", cfg.InstallerOutputPath())

	// Nested dependency directory.
	cfg = &Config{AppRoot: "app", DependencyDir: "vendor/modules"}
	require.ErrorIs(t, Validate(cfg), errBadDirName)

	// Staged name equal to the dependency name.
	cfg = &Config{AppRoot: "app", StagedDir: "node_modules"}
	require.ErrorIs(t, Validate(cfg), errSameDirs)

	// Blank engine command.
	cfg = &Config{AppRoot: "app", Engine: Engine{Command: "  "}}
	require.ErrorIs(t, Validate(cfg), errEngineRequired)

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)
}

// TestSaveLoadRoundtrip ensures the configuration is persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "desktop-installer.yaml")

	cfg := &Config{
		AppRoot:   ".meteor/desktop-build",
		OutputDir: "dist",
		Engine: Engine{
			Command: "npx",
			Args:    []string{"electron-builder"},
		},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.False(t, info.IsDir())
}

// TestRead_Missing reports os.ErrNotExist so callers can fall back to flags only.
func TestRead_Missing(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.ErrorIs(t, Save("", nil), errConfigIsNotSet)
}
