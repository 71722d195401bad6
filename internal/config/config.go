package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the paths and engine settings of an installer build.
type Config struct {
	// AppRoot is the application directory handed to the packaging engine.
	AppRoot string `yaml:"app_root"`
	// SettingsFile is the desktop settings JSON(C) file carrying builderOptions.
	SettingsFile string `yaml:"settings_file"`
	// DependencyDir is the directory inside AppRoot hidden from the engine while it runs.
	DependencyDir string `yaml:"dependency_dir"`
	// StagedDir is the sibling name DependencyDir is moved to while staged.
	StagedDir string `yaml:"staged_dir"`
	// OutputDir is the build output directory.
	OutputDir string `yaml:"output_dir"`
	// InstallerDir is the subdirectory of OutputDir installers are written to.
	InstallerDir string `yaml:"installer_dir"`
	// Engine describes the external packaging command.
	Engine Engine `yaml:"engine"`
}

// Engine describes the external packaging command.
type Engine struct {
	// Command is the executable name or path.
	Command string `yaml:"command"`
	// Args are extra arguments placed before the generated ones.
	Args []string `yaml:"args,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for the tool configuration.
	DefaultConfigFilename = "desktop-installer.yaml"

	// DefaultSettingsFilename is the default desktop settings file.
	DefaultSettingsFilename = "settings.json"

	// DefaultDependencyDir is the dependency directory moved aside during builds.
	DefaultDependencyDir = "node_modules"

	// DefaultInstallerDir is the installers subdirectory of the output directory.
	DefaultInstallerDir = "installers"

	// DefaultEngineCommand is the packaging CLI invoked by default.
	DefaultEngineCommand = "electron-builder"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// stagedPrefix is prepended to DependencyDir when StagedDir is not set.
	stagedPrefix = "_"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAppRootRequired is returned when the application root is missing.
	errAppRootRequired = errors.New("application root must be provided")
	// errEngineRequired is returned when the engine command is blank.
	errEngineRequired = errors.New("engine command must be provided")
	// errBadDirName is returned for directory names that are not a single path element.
	errBadDirName = errors.New("must be a single directory name")
	// errSameDirs is returned when the staged name equals the dependency name.
	errSameDirs = errors.New("staged directory must differ from dependency directory")
)

// Read decodes the configuration file at path without validating it.
// A missing file is reported with an error wrapping os.ErrNotExist.
func Read(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.AppRoot) == "" {
		return errAppRootRequired
	}

	if cfg.SettingsFile == "" {
		cfg.SettingsFile = DefaultSettingsFilename
	}

	if cfg.DependencyDir == "" {
		cfg.DependencyDir = DefaultDependencyDir
	}

	if err := validateDirName(cfg.DependencyDir); err != nil {
		return fmt.Errorf("dependency_dir %q: %w", cfg.DependencyDir, err)
	}

	if cfg.StagedDir == "" {
		cfg.StagedDir = stagedPrefix + cfg.DependencyDir
	}

	if err := validateDirName(cfg.StagedDir); err != nil {
		return fmt.Errorf("staged_dir %q: %w", cfg.StagedDir, err)
	}

	if cfg.StagedDir == cfg.DependencyDir {
		return errSameDirs
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	if cfg.InstallerDir == "" {
		cfg.InstallerDir = DefaultInstallerDir
	}

	if cfg.Engine.Command == "" {
		cfg.Engine.Command = DefaultEngineCommand
	}

	if strings.TrimSpace(cfg.Engine.Command) == "" {
		return errEngineRequired
	}

	return nil
}

// DependencyPath returns the location of the dependency directory.
func (c *Config) DependencyPath() string {
	return filepath.Join(c.AppRoot, c.DependencyDir)
}

// StagedPath returns the location the dependency directory is staged to.
func (c *Config) StagedPath() string {
	return filepath.Join(c.AppRoot, c.StagedDir)
}

// InstallerOutputPath returns the directory the engine writes installers to.
func (c *Config) InstallerOutputPath() string {
	return filepath.Join(c.OutputDir, c.InstallerDir)
}

// validateDirName accepts a single, non-special path element.
func validateDirName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errBadDirName
	}

	return nil
}
