package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/desktop-installer/internal/config"
	"github.com/oshokin/desktop-installer/internal/logger"
	"github.com/oshokin/desktop-installer/internal/service/installer"
	"github.com/oshokin/desktop-installer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum level of printed log messages.
	logLevel string
	// failOnBuildError turns packaging engine failures into a non-zero exit status.
	failOnBuildError bool
	// forceInit allows init to overwrite an existing configuration file.
	forceInit bool

	// options are filled from flags and passed to the installer service.
	options = new(installer.Options)

	// errBuildFailed is returned when the engine failed and --fail-on-build-error is set.
	errBuildFailed = errors.New("installer build failed")
	// errUnknownLogLevel is returned for an unsupported --log-level value.
	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd builds installers for the configured application.
	rootCmd = &cobra.Command{
		Use:   "desktop-installer",
		Short: "Build desktop application installers.",
		Long: `Builds installers for a desktop application with an external packaging engine.

The dependency directory (node_modules by default) is moved aside while the engine
runs and is always moved back afterwards. Without platform flags the installer for
the current operating system is built.

Settings are read from a JSON file that must contain a "builderOptions" object;
archive packing is always disabled and dependency rebuild always forced.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath
			options.ConfigRequired = cmd.Flags().Changed("config")

			report, err := installer.Run(ctx, options)
			if err != nil {
				return err
			}

			if failOnBuildError && !report.Succeeded() {
				return fmt.Errorf("%w: %w", errBuildFailed, report.BuildErr)
			}

			return nil
		},
	}

	// recoverCmd puts back a dependency directory left staged by an interrupted build.
	recoverCmd = &cobra.Command{
		Use:   "recover",
		Short: "Move a dependency directory left staged by an interrupted build back into place.",
		Long: `Restores the dependency directory when a previous build was killed before it could
move the directory back. When both the original and the staged directory exist,
nothing is changed and the conflict has to be resolved by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath
			options.ConfigRequired = cmd.Flags().Changed("config")

			return installer.Recover(ctx, options)
		},
	}

	// verifyCmd checks produced installers against the artifact manifest.
	verifyCmd = &cobra.Command{
		Use:   "verify [installer-dir]",
		Short: "Check installers against the manifest written by the last build.",
		Long: `Recomputes the checksums of the installers and compares them with the manifest
written after the last successful build. Without an argument the configured
<output>/<installer-dir> directory is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dir string
			if len(args) > 0 {
				dir = args[0]
			} else {
				options.ConfigPath = configPath
				options.ConfigRequired = cmd.Flags().Changed("config")

				cfg, err := installer.ResolveConfig(options)
				if err != nil {
					return err
				}

				dir = cfg.InstallerOutputPath()
			}

			return installer.Verify(cmd.Context(), dir)
		},
	}

	// initCmd writes a configuration file from the given flags.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the given paths and defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := options.Overrides
			if err := installer.WriteConfig(configPath, &cfg, forceInit); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration written to", configPath)

			return nil
		},
	}
)

// Execute runs the desktop-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addPathFlags registers the settings, output and engine flags stored in the configuration file.
func addPathFlags(flags *pflag.FlagSet) {
	flags.StringVar(&options.Overrides.SettingsFile, "settings", "",
		"desktop settings file with builderOptions (default \""+config.DefaultSettingsFilename+"\")")
	flags.StringVarP(&options.Overrides.OutputDir, "output", "o", "", "output directory (default \".\")")
	flags.StringVar(&options.Overrides.InstallerDir, "installer-dir", "",
		"installers subdirectory of the output directory (default \""+config.DefaultInstallerDir+"\")")
	flags.StringVar(&options.Overrides.Engine.Command, "engine", "",
		"packaging engine command (default \""+config.DefaultEngineCommand+"\")")
	flags.StringSliceVar(&options.Overrides.Engine.Args, "engine-arg", nil,
		"extra argument passed to the engine, repeatable")
}

// setupLogging applies --log-level to the global logger.
func setupLogging(_ *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, logLevel)
	}

	logger.SetLevel(level)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(recoverCmd, verifyCmd, initCmd)

	// Flags shared by every command.
	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	persistent.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	persistent.StringVar(&options.Overrides.AppRoot, "app-root", "", "application root directory")
	persistent.StringVar(&options.Overrides.DependencyDir, "dependency-dir", "",
		"dependency directory inside the app root (default \""+config.DefaultDependencyDir+"\")")
	persistent.StringVar(&options.Overrides.StagedDir, "staged-dir", "",
		"name the dependency directory is staged under (default \"_\" + dependency dir)")

	// Build flags.
	flags := rootCmd.Flags()
	addPathFlags(flags)
	flags.BoolVar(&options.Flags.Windows, "win", false, "build Windows installers")
	flags.BoolVar(&options.Flags.Linux, "linux", false, "build Linux packages")
	flags.BoolVar(&options.Flags.Mac, "mac", false, "build macOS images")
	flags.BoolVar(&options.Flags.IA32, "ia32", false, "build 32-bit installers")
	flags.BoolVar(&options.Flags.AllArchs, "all-archs", false, "build installers for every architecture")
	flags.BoolVar(&options.SkipManifest, "skip-manifest", false, "do not write the artifact manifest")
	flags.BoolVar(&failOnBuildError, "fail-on-build-error", false, "exit with non-zero status when the engine fails")

	addPathFlags(verifyCmd.Flags())

	initFlags := initCmd.Flags()
	addPathFlags(initFlags)
	initFlags.BoolVar(&forceInit, "force", false, "overwrite an existing configuration file")
}
