package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/desktop-installer/internal/config"
	"github.com/oshokin/desktop-installer/internal/domain/build"
	"github.com/oshokin/desktop-installer/internal/engine"
	"github.com/oshokin/desktop-installer/internal/logger"
	"github.com/oshokin/desktop-installer/internal/repository/lock"
	"github.com/oshokin/desktop-installer/internal/service/common"
	"github.com/oshokin/desktop-installer/internal/staging"
)

// Options contains inputs for the installer entry points.
type Options struct {
	// ConfigPath is the tool configuration file.
	ConfigPath string
	// ConfigRequired makes a missing configuration file an error.
	// Otherwise the build runs from Overrides alone.
	ConfigRequired bool
	// Overrides replace configuration values that are set (non-zero).
	Overrides config.Config
	// Flags select platforms and architectures.
	Flags build.Flags
	// SkipManifest disables the artifact manifest.
	SkipManifest bool
	// Engine replaces the configured command engine when set.
	Engine engine.Engine
	// Host replaces the detected host platform when set.
	Host build.Platform
}

// Run executes an installer build. The returned Report carries the engine
// outcome; the error is reserved for configuration, lock, staging and restore failures.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "desktop-installer")

	cfg, err := ResolveConfig(opts)
	if err != nil {
		return nil, err
	}

	b := newBuilder(cfg, opts)

	report, err := b.Build(ctx)
	if err != nil {
		return report, err
	}

	if report.Succeeded() {
		logger.InfoKV(ctx, "Installers built successfully", "output", report.OutputDir)
	} else {
		logger.WarnKV(ctx, "Installer build failed, dependency directory restored", "output", report.OutputDir)
	}

	return report, nil
}

// Recover moves a dependency directory left staged by an interrupted build back into place.
func Recover(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "desktop-installer")

	cfg, err := ResolveConfig(opts)
	if err != nil {
		return err
	}

	owner, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	locker := lock.NewFileLock(lock.PathFor(cfg.AppRoot))
	if err = locker.Acquire(ctx, owner); err != nil {
		return fmt.Errorf("acquire build lock: %w", err)
	}

	defer releaseLock(ctx, locker, owner)

	s := staging.New(cfg.DependencyPath(), cfg.StagedPath())

	restored, err := s.Recover()
	if err != nil {
		return fmt.Errorf("recover dependency directory: %w", err)
	}

	if restored {
		logger.InfoKV(ctx, "Dependency directory restored", "path", s.Original())
	} else {
		logger.InfoKV(ctx, "Dependency directory already in place", "path", s.Original())
	}

	return nil
}

// WriteConfig validates cfg and saves it to path, refusing to overwrite unless force is set.
func WriteConfig(path string, cfg *config.Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, errConfigExists)
		}
	}

	return config.Save(path, cfg)
}

// newBuilder wires the production collaborators for cfg.
func newBuilder(cfg *config.Config, opts *Options) *builder {
	eng := opts.Engine
	if eng == nil {
		eng = engine.NewCommandEngine(cfg.Engine.Command, cfg.Engine.Args...)
	}

	host := opts.Host
	if host == "" {
		host = common.DetectHostPlatform()
	}

	return &builder{
		cfg:          cfg,
		flags:        opts.Flags,
		host:         host,
		engine:       eng,
		stager:       staging.New(cfg.DependencyPath(), cfg.StagedPath()),
		locker:       lock.NewFileLock(lock.PathFor(cfg.AppRoot)),
		detectActor:  common.DetectActor,
		skipManifest: opts.SkipManifest,
	}
}

// ResolveConfig returns the validated configuration a build with opts uses.
func ResolveConfig(opts *Options) (*config.Config, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return cfg, nil
}

// resolveConfig reads the configuration file, applies overrides and validates the result.
func resolveConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Read(opts.ConfigPath)

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !opts.ConfigRequired:
		cfg = new(config.Config)
	default:
		return nil, err
	}

	applyOverrides(cfg, &opts.Overrides)

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyOverrides copies every non-zero field of src onto dst.
func applyOverrides(dst, src *config.Config) {
	overrideString(&dst.AppRoot, src.AppRoot)
	overrideString(&dst.SettingsFile, src.SettingsFile)
	overrideString(&dst.DependencyDir, src.DependencyDir)
	overrideString(&dst.StagedDir, src.StagedDir)
	overrideString(&dst.OutputDir, src.OutputDir)
	overrideString(&dst.InstallerDir, src.InstallerDir)
	overrideString(&dst.Engine.Command, src.Engine.Command)

	if len(src.Engine.Args) > 0 {
		dst.Engine.Args = append([]string(nil), src.Engine.Args...)
	}
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
