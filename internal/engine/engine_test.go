package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/desktop-installer/internal/domain/build"
)

var errTestEngine = errors.New("test engine failure")

func testRequest() *Request {
	return &Request{
		Targets: []build.Target{
			{Platform: build.Windows, Arch: build.X64},
			{Platform: build.Mac, Arch: build.X64},
		},
		Config:    map[string]any{"appId": "meteor.app"},
		AppDir:    "desktop-build",
		OutputDir: "dist/installers",
	}
}

// TestInvoke_Success calls the engine once with the request.
func TestInvoke_Success(t *testing.T) {
	t.Parallel()

	req := testRequest()
	calls := 0

	err := Invoke(context.Background(), Func(func(_ context.Context, got *Request) error {
		calls++

		require.Same(t, req, got)

		return nil
	}), req)

	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

// TestInvoke_Error wraps engine errors with the targets.
func TestInvoke_Error(t *testing.T) {
	t.Parallel()

	req := testRequest()

	err := Invoke(context.Background(), Func(func(context.Context, *Request) error {
		return errTestEngine
	}), req)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	require.ErrorIs(t, err, errTestEngine)
	require.Equal(t, req.Targets, buildErr.Targets)
	require.Contains(t, err.Error(), "windows/x64, mac/x64")
}

// TestInvoke_Panic converts a panic into a BuildError.
func TestInvoke_Panic(t *testing.T) {
	t.Parallel()

	err := Invoke(context.Background(), Func(func(context.Context, *Request) error {
		panic("signing identity not found")
	}), testRequest())

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	require.ErrorIs(t, err, ErrEnginePanicked)
	require.ErrorContains(t, err, "signing identity not found")
}

// TestInvoke_Nil reports missing engine and request as build errors.
func TestInvoke_Nil(t *testing.T) {
	t.Parallel()

	var buildErr *BuildError

	require.ErrorAs(t, Invoke(context.Background(), nil, testRequest()), &buildErr)
	require.ErrorIs(t, Invoke(context.Background(), nil, testRequest()), errNoEngine)
	require.ErrorIs(t, Invoke(context.Background(), Func(nil), nil), errNoRequest)
}
