package installer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/desktop-installer/internal/config"
	"github.com/oshokin/desktop-installer/internal/domain/build"
	"github.com/oshokin/desktop-installer/internal/engine"
	"github.com/oshokin/desktop-installer/internal/logger"
	"github.com/oshokin/desktop-installer/internal/repository/lock"
	"github.com/oshokin/desktop-installer/internal/staging"
)

// Report describes the outcome of a build that got as far as the engine.
type Report struct {
	// Targets is the resolved target matrix.
	Targets []build.Target
	// OutputDir is where installers were written.
	OutputDir string
	// BuildErr is the packaging engine failure, nil on success.
	BuildErr error
	// ManifestPath is the written artifact manifest, empty when none was written.
	ManifestPath string
}

// Succeeded reports whether the packaging engine finished without error.
func (r *Report) Succeeded() bool {
	return r != nil && r.BuildErr == nil
}

// stager moves the dependency directory aside for the duration of fn.
type stager interface {
	With(fn func() error) error
}

// builder holds everything a single build needs.
// It is unexported; callers go through Run.
type builder struct {
	// cfg is the validated configuration.
	cfg *config.Config
	// flags are the requested platforms and architectures.
	flags build.Flags
	// host is the platform used when no platform is requested.
	host build.Platform
	// engine produces the installers.
	engine engine.Engine
	// stager hides the dependency directory from the engine.
	stager stager
	// locker serializes builds of the same application.
	locker lock.Locker
	// detectActor identifies the lock owner.
	detectActor func() (*build.Actor, error)
	// skipManifest disables the artifact manifest.
	skipManifest bool
}

// Build runs one installer build.
func (b *builder) Build(ctx context.Context) (*Report, error) {
	req, err := b.prepare(ctx)
	if err != nil {
		return nil, err
	}

	owner, err := b.detectActor()
	if err != nil {
		return nil, fmt.Errorf("detect actor: %w", err)
	}

	if err = b.locker.Acquire(ctx, owner); err != nil {
		return nil, fmt.Errorf("acquire build lock: %w", err)
	}

	defer releaseLock(ctx, b.locker, owner)

	report := &Report{
		Targets:   req.Targets,
		OutputDir: req.OutputDir,
	}

	err = b.stager.With(func() error {
		logger.InfoKV(ctx, "Dependency directory moved aside", "path", b.cfg.DependencyPath())

		report.BuildErr = engine.Invoke(ctx, b.engine, req)
		if report.BuildErr != nil {
			logger.ErrorKV(ctx, "Error while building installers", "error", report.BuildErr)
		}

		return report.BuildErr
	})

	var (
		stageErr   *staging.StageError
		restoreErr *staging.RestoreError
	)

	switch {
	case errors.As(err, &stageErr):
		return nil, fmt.Errorf("stage dependency directory: %w", err)
	case errors.As(err, &restoreErr):
		logger.ErrorKV(ctx, "Dependency directory was not restored, run the recover command",
			"original", restoreErr.Destination, "staged", restoreErr.Source, "error", restoreErr.Err)

		return report, fmt.Errorf("restore dependency directory: %w", restoreErr)
	}

	logger.InfoKV(ctx, "Dependency directory restored", "path", b.cfg.DependencyPath())

	if !report.Succeeded() || b.skipManifest {
		return report, nil
	}

	manifestPath, err := writeManifest(ctx, req.OutputDir, req.Targets)
	if err != nil {
		return report, fmt.Errorf("write artifact manifest: %w", err)
	}

	report.ManifestPath = manifestPath

	return report, nil
}

// prepare loads settings and builds the engine request. It never touches the filesystem layout.
func (b *builder) prepare(ctx context.Context) (*engine.Request, error) {
	settings, err := config.LoadSettings(b.cfg.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	options, err := settings.BuilderOptions()
	if err != nil {
		logger.ErrorKV(ctx, "No usable builderOptions in settings, aborting", "settings", b.cfg.SettingsFile)

		return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, b.cfg.SettingsFile, err)
	}

	targets := build.ResolveTargets(b.flags, b.host)

	names := make([]string, 0, len(targets))
	for _, target := range targets {
		names = append(names, target.String())
	}

	logger.InfoKV(ctx, "Resolved build targets", "targets", names)

	return &engine.Request{
		Targets:   targets,
		Config:    config.MergeBuilderOptions(options),
		AppDir:    b.cfg.AppRoot,
		OutputDir: b.cfg.InstallerOutputPath(),
	}, nil
}

// releaseLock frees the build lock, logging a lock file that could not be removed.
func releaseLock(ctx context.Context, locker lock.Locker, owner *build.Actor) {
	if err := locker.Release(ctx, owner); err != nil {
		logger.WarnKV(ctx, "Failed to release build lock", "error", err)
	}
}
