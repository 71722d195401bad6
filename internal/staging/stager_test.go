package staging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	errTestBuild  = errors.New("test build failure")
	errTestRename = errors.New("test rename failure")
)

// newTestStager creates an app root with a populated node_modules directory.
func newTestStager(t *testing.T) *Stager {
	t.Helper()

	root := t.TempDir()
	original := filepath.Join(root, "node_modules")

	require.NoError(t, os.MkdirAll(filepath.Join(original, "left-pad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(original, "left-pad", "index.js"), []byte("module.exports = 1"), 0o600))

	return New(original, filepath.Join(root, "_node_modules"))
}

// requireLocation asserts the current staging state.
func requireLocation(t *testing.T, s *Stager, want Location) {
	t.Helper()

	got, err := s.State()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// TestStageRestore_Roundtrip moves the directory away and back with content intact.
func TestStageRestore_Roundtrip(t *testing.T) {
	t.Parallel()

	s := newTestStager(t)
	requireLocation(t, s, LocationOriginal)

	guard, err := s.Stage()
	require.NoError(t, err)
	requireLocation(t, s, LocationStaged)

	require.NoError(t, guard.Release())
	requireLocation(t, s, LocationOriginal)

	// Second release does not move anything again.
	require.NoError(t, guard.Release())
	requireLocation(t, s, LocationOriginal)

	contents, err := os.ReadFile(filepath.Join(s.Original(), "left-pad", "index.js"))
	require.NoError(t, err)
	require.Equal(t, "module.exports = 1", string(contents))
}

// TestStage_Failures refuses a missing source and an occupied destination.
func TestStage_Failures(t *testing.T) {
	t.Parallel()

	s := newTestStager(t)
	require.NoError(t, os.Mkdir(s.Staged(), 0o755))

	_, err := s.Stage()

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.ErrorIs(t, err, ErrDestinationOccupied)
	requireLocation(t, s, LocationBoth)

	missing := New(filepath.Join(t.TempDir(), "node_modules"), filepath.Join(t.TempDir(), "_node_modules"))
	_, err = missing.Stage()
	require.ErrorAs(t, err, &stageErr)
	require.ErrorIs(t, err, ErrSourceMissing)
}

// TestRestore_Failures reports a distinct error type when the staged directory is gone.
func TestRestore_Failures(t *testing.T) {
	t.Parallel()

	s := newTestStager(t)

	err := s.Restore()

	var restoreErr *RestoreError
	require.ErrorAs(t, err, &restoreErr)
	require.ErrorIs(t, err, ErrSourceMissing)
	require.Equal(t, s.Original(), restoreErr.Destination)
}

// TestWith_RestoresOnEveryOutcome covers success, returned errors and panics.
func TestWith_RestoresOnEveryOutcome(t *testing.T) {
	t.Parallel()

	s := newTestStager(t)

	calls := 0
	err := s.With(func() error {
		calls++

		requireLocation(t, s, LocationStaged)

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	requireLocation(t, s, LocationOriginal)

	err = s.With(func() error {
		return errTestBuild
	})
	require.ErrorIs(t, err, errTestBuild)
	requireLocation(t, s, LocationOriginal)

	require.PanicsWithValue(t, "engine crashed", func() {
		_ = s.With(func() error {
			panic("engine crashed")
		})
	})
	requireLocation(t, s, LocationOriginal)
}

// TestWith_StageFailureSkipsFn never runs fn when staging fails.
func TestWith_StageFailureSkipsFn(t *testing.T) {
	t.Parallel()

	s := newTestStager(t)
	require.NoError(t, os.Mkdir(s.Staged(), 0o755))

	called := false
	err := s.With(func() error {
		called = true
		return nil
	})

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.False(t, called)
}

// TestWith_RestoreFailureIsSurfaced keeps both the build and the restore error.
func TestWith_RestoreFailureIsSurfaced(t *testing.T) {
	t.Parallel()

	s := newTestStager(t)

	err := s.With(func() error {
		s.rename = func(string, string) error {
			return errTestRename
		}

		return errTestBuild
	})

	var restoreErr *RestoreError
	require.ErrorAs(t, err, &restoreErr)
	require.ErrorIs(t, err, errTestRename)
	require.ErrorIs(t, err, errTestBuild)
	requireLocation(t, s, LocationStaged)
}

// TestWith_RestoreFailureAfterPanic re-panics with the restore failure attached.
func TestWith_RestoreFailureAfterPanic(t *testing.T) {
	t.Parallel()

	s := newTestStager(t)

	var recovered any

	func() {
		defer func() {
			recovered = recover()
		}()

		_ = s.With(func() error {
			s.rename = func(string, string) error {
				return errTestRename
			}

			panic(errTestBuild)
		})
	}()

	panicErr, ok := recovered.(*PanicError)
	require.True(t, ok, "unexpected panic value %#v", recovered)
	require.Equal(t, errTestBuild, panicErr.Value)

	var restoreErr *RestoreError
	require.ErrorAs(t, panicErr, &restoreErr)
	require.ErrorIs(t, panicErr, errTestRename)
	require.ErrorIs(t, panicErr, errTestBuild)
	requireLocation(t, s, LocationStaged)
}

// TestRecover covers every combination of present locations.
func TestRecover(t *testing.T) {
	t.Parallel()

	// Only original: nothing to do.
	s := newTestStager(t)
	restored, err := s.Recover()
	require.NoError(t, err)
	require.False(t, restored)

	// Only staged: restore.
	_, err = s.Stage()
	require.NoError(t, err)

	restored, err = s.Recover()
	require.NoError(t, err)
	require.True(t, restored)
	requireLocation(t, s, LocationOriginal)

	// Both: refuse and touch nothing.
	require.NoError(t, os.Mkdir(s.Staged(), 0o755))

	restored, err = s.Recover()
	require.ErrorIs(t, err, ErrBothPresent)
	require.False(t, restored)
	requireLocation(t, s, LocationBoth)

	// Neither: report the loss.
	empty := New(filepath.Join(t.TempDir(), "node_modules"), filepath.Join(t.TempDir(), "_node_modules"))
	_, err = empty.Recover()
	require.ErrorIs(t, err, ErrDirectoryMissing)
}

// TestLocationString keeps log names stable.
func TestLocationString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "none", LocationNone.String())
	require.Equal(t, "original", LocationOriginal.String())
	require.Equal(t, "staged", LocationStaged.String())
	require.Equal(t, "both", LocationBoth.String())
}
