package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/desktop-installer/internal/domain/build"
)

// Request is everything the packaging engine needs for one build.
type Request struct {
	// Targets is the resolved target matrix.
	Targets []build.Target
	// Config is the merged packaging configuration.
	Config map[string]any
	// AppDir is the application source root.
	AppDir string
	// OutputDir is the directory installers are written to.
	OutputDir string
}

// Engine produces installers for a request.
type Engine interface {
	Build(ctx context.Context, req *Request) error
}

// Func adapts a function to the Engine interface.
type Func func(ctx context.Context, req *Request) error

// Build calls f.
func (f Func) Build(ctx context.Context, req *Request) error {
	return f(ctx, req)
}

var (
	// ErrEnginePanicked is wrapped by a BuildError created from a recovered panic.
	ErrEnginePanicked = errors.New("packaging engine panicked")
	// errNoEngine is returned when Invoke gets a nil engine.
	errNoEngine = errors.New("packaging engine is not set")
	// errNoRequest is returned when Invoke gets a nil request.
	errNoRequest = errors.New("build request is not set")
)

// BuildError reports a failed packaging engine call.
type BuildError struct {
	// Targets are the targets the failed call was building.
	Targets []build.Target
	// Err is the engine failure.
	Err error
}

func (e *BuildError) Error() string {
	names := make([]string, 0, len(e.Targets))
	for _, t := range e.Targets {
		names = append(names, t.String())
	}

	return fmt.Sprintf("build installers [%s]: %v", strings.Join(names, ", "), e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Invoke calls eng exactly once. Any error or panic is returned as a *BuildError.
func Invoke(ctx context.Context, eng Engine, req *Request) (err error) {
	if req == nil {
		return &BuildError{Err: errNoRequest}
	}

	if eng == nil {
		return &BuildError{Targets: req.Targets, Err: errNoEngine}
	}

	defer func() {
		if r := recover(); r != nil {
			err = &BuildError{
				Targets: req.Targets,
				Err:     fmt.Errorf("%w: %v", ErrEnginePanicked, r),
			}
		}
	}()

	if buildErr := eng.Build(ctx, req); buildErr != nil {
		return &BuildError{Targets: req.Targets, Err: buildErr}
	}

	return nil
}
