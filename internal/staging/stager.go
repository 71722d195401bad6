package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/multierr"
)

// Location tells where the staged directory currently is.
type Location int

const (
	// LocationNone means neither path exists.
	LocationNone Location = iota
	// LocationOriginal means only the original path exists.
	LocationOriginal
	// LocationStaged means only the staged path exists.
	LocationStaged
	// LocationBoth means both paths exist.
	LocationBoth
)

// String returns a short name for logs.
func (l Location) String() string {
	switch l {
	case LocationOriginal:
		return "original"
	case LocationStaged:
		return "staged"
	case LocationBoth:
		return "both"
	default:
		return "none"
	}
}

// Stager moves one directory between its original and staged locations.
// It is not safe for concurrent use against the same paths.
type Stager struct {
	// original is where the directory normally lives.
	original string
	// staged is where the directory lives while staged.
	staged string
	// rename performs the move.
	rename func(oldPath, newPath string) error
}

// New creates a Stager for the original directory and its staged location.
func New(original, staged string) *Stager {
	return &Stager{
		original: filepath.Clean(original),
		staged:   filepath.Clean(staged),
		rename:   os.Rename,
	}
}

// Original returns the original location.
func (s *Stager) Original() string {
	return s.original
}

// Staged returns the staged location.
func (s *Stager) Staged() string {
	return s.staged
}

// Stage moves the directory to the staged location and returns the guard that restores it.
func (s *Stager) Stage() (*Guard, error) {
	if err := s.move(s.original, s.staged); err != nil {
		return nil, &StageError{Source: s.original, Destination: s.staged, Err: err}
	}

	return &Guard{stager: s}, nil
}

// Restore moves the directory back to its original location.
func (s *Stager) Restore() error {
	if err := s.move(s.staged, s.original); err != nil {
		return &RestoreError{Source: s.staged, Destination: s.original, Err: err}
	}

	return nil
}

// With stages the directory, runs fn and restores the directory on every exit
// path, panics included. The returned error combines fn's error with a
// *RestoreError when restoring fails. A *StageError means fn was not called.
// A panic from fn is re-raised after the restore; if the restore failed too,
// the panic value becomes a *PanicError carrying both.
func (s *Stager) With(fn func() error) (err error) {
	guard, err := s.Stage()
	if err != nil {
		return err
	}

	defer func() {
		recovered := recover()
		releaseErr := guard.Release()

		if recovered != nil {
			if releaseErr != nil {
				panic(&PanicError{Value: recovered, Restore: releaseErr})
			}

			panic(recovered)
		}

		if releaseErr != nil {
			err = multierr.Append(err, releaseErr)
		}
	}()

	return fn()
}

// State reports which of the two locations currently exist.
func (s *Stager) State() (Location, error) {
	originalExists, err := exists(s.original)
	if err != nil {
		return LocationNone, err
	}

	stagedExists, err := exists(s.staged)
	if err != nil {
		return LocationNone, err
	}

	switch {
	case originalExists && stagedExists:
		return LocationBoth, nil
	case originalExists:
		return LocationOriginal, nil
	case stagedExists:
		return LocationStaged, nil
	default:
		return LocationNone, nil
	}
}

// Recover brings the directory back after an interrupted build.
// It returns true when a restore was performed. When both locations exist
// nothing is touched and ErrBothPresent is returned: picking one would
// discard the other.
func (s *Stager) Recover() (bool, error) {
	location, err := s.State()
	if err != nil {
		return false, fmt.Errorf("inspect staging state: %w", err)
	}

	switch location {
	case LocationOriginal:
		return false, nil
	case LocationStaged:
		if err = s.Restore(); err != nil {
			return false, err
		}

		return true, nil
	case LocationBoth:
		return false, fmt.Errorf("%s and %s: %w", s.original, s.staged, ErrBothPresent)
	default:
		return false, fmt.Errorf("%s: %w", s.original, ErrDirectoryMissing)
	}
}

// move renames src to dst refusing a missing source or an occupied destination.
func (s *Stager) move(src, dst string) error {
	srcExists, err := exists(src)
	if err != nil {
		return err
	}

	if !srcExists {
		return ErrSourceMissing
	}

	dstExists, err := exists(dst)
	if err != nil {
		return err
	}

	if dstExists {
		return ErrDestinationOccupied
	}

	return s.rename(src, dst)
}

// exists reports whether path exists without following a final symlink.
func exists(path string) (bool, error) {
	_, err := os.Lstat(path)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// Guard restores a staged directory exactly once.
type Guard struct {
	// stager performs the restore.
	stager *Stager

	once sync.Once
	err  error
}

// Release restores the directory on the first call and returns that result on every call.
func (g *Guard) Release() error {
	g.once.Do(func() {
		g.err = g.stager.Restore()
	})

	return g.err
}
