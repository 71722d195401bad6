package engine

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/desktop-installer/internal/domain/build"
	"github.com/oshokin/desktop-installer/internal/logger"
)

const (
	// configFilename is the name of the generated engine configuration.
	configFilename = "builder-config.yaml"

	// directoriesKey is the configuration section holding app and output paths.
	directoriesKey = "directories"

	// configFileMode restricts the generated configuration to the current user.
	configFileMode = 0o600
)

var (
	// errNoTargets is returned for a request without targets.
	errNoTargets = errors.New("no build targets")
	// errNoCommand is returned when the engine command is blank.
	errNoCommand = errors.New("engine command is not set")
)

// platformFlags maps platforms to command line switches.
//
//nolint:gochecknoglobals // Read-only lookup table.
var platformFlags = map[build.Platform]string{
	build.Windows: "--win",
	build.Linux:   "--linux",
	build.Mac:     "--mac",
}

// CommandEngine runs an external packaging command line.
type CommandEngine struct {
	// command is the executable to run.
	command string
	// args are placed before the generated arguments.
	args []string
}

// NewCommandEngine creates an engine running command with extra leading args.
func NewCommandEngine(command string, args ...string) *CommandEngine {
	return &CommandEngine{
		command: command,
		args:    append([]string(nil), args...),
	}
}

// Build writes the configuration file, runs the command and waits for it to exit.
// The command is deliberately not tied to ctx: a started build runs to completion.
func (e *CommandEngine) Build(ctx context.Context, req *Request) error {
	if e.command == "" {
		return errNoCommand
	}

	if len(req.Targets) == 0 {
		return errNoTargets
	}

	appDir, err := filepath.Abs(req.AppDir)
	if err != nil {
		return fmt.Errorf("resolve app directory: %w", err)
	}

	outputDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output directory: %w", err)
	}

	workDir, err := os.MkdirTemp("", "desktop-installer-")
	if err != nil {
		return fmt.Errorf("create temporary directory: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	configPath := filepath.Join(workDir, configFilename)
	rendered := RenderConfig(req.Config, appDir, outputDir)

	if err = writeConfig(configPath, rendered); err != nil {
		return err
	}

	logger.DebugKV(ctx, "Engine configuration written", "path", configPath, "config", rendered)

	args := e.Arguments(req.Targets, appDir, configPath)

	logger.InfoKV(ctx, "Starting packaging engine", "command", e.command, "args", args)

	stdout := logger.NewLineWriter(ctx, zapcore.InfoLevel, "stdout")
	stderr := logger.NewLineWriter(ctx, zapcore.WarnLevel, "stderr")

	//nolint:gosec,noctx // Command comes from the operator's configuration; builds are not cancellable.
	cmd := exec.Command(e.command, args...)
	cmd.Dir = appDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err = cmd.Run()

	stdout.Flush()
	stderr.Flush()

	if err != nil {
		return fmt.Errorf("run %s: %w", e.command, err)
	}

	return nil
}

// Arguments renders the command line for targets.
// The architecture "all" expands to every architecture switch.
// Without targets only the extra arguments, project and config are rendered.
func (e *CommandEngine) Arguments(targets []build.Target, appDir, configPath string) []string {
	args := make([]string, 0, len(e.args)+len(targets)+6)
	args = append(args, e.args...)
	args = append(args, "--projectDir", appDir, "--config", configPath)

	if len(targets) == 0 {
		return args
	}

	for _, platform := range build.Platforms(targets) {
		args = append(args, platformFlags[platform])
	}

	// The architecture is a single global choice, so the first target decides it.
	switch targets[0].Arch {
	case build.AllArchs:
		args = append(args, "--ia32", "--x64")
	case build.IA32:
		args = append(args, "--ia32")
	default:
		args = append(args, "--x64")
	}

	return args
}

// RenderConfig returns the engine configuration: options plus the app and output
// directories. Existing entries of the directories section are kept.
func RenderConfig(options map[string]any, appDir, outputDir string) map[string]any {
	rendered := make(map[string]any, len(options)+1)
	maps.Copy(rendered, options)

	directories := make(map[string]any)
	if existing, ok := options[directoriesKey].(map[string]any); ok {
		maps.Copy(directories, existing)
	}

	directories["app"] = appDir
	directories["output"] = outputDir
	rendered[directoriesKey] = directories

	return rendered
}

// writeConfig stores the rendered configuration as YAML.
func writeConfig(path string, cfg map[string]any) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode engine config: %w", err)
	}

	if err = os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("write engine config: %w", err)
	}

	return nil
}
