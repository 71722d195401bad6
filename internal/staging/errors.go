package staging

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceMissing is returned when the directory to move does not exist.
	ErrSourceMissing = errors.New("source does not exist")
	// ErrDestinationOccupied is returned when the move target already exists.
	ErrDestinationOccupied = errors.New("destination already exists")
	// ErrBothPresent is returned by Recover when both locations hold a directory.
	ErrBothPresent = errors.New("directory present at both original and staged locations")
	// ErrDirectoryMissing is returned by Recover when neither location holds the directory.
	ErrDirectoryMissing = errors.New("directory missing from both original and staged locations")
)

// StageError reports a failure to move the directory to its staged location.
// Nothing was moved when it is returned.
type StageError struct {
	// Source is the original location.
	Source string
	// Destination is the staged location.
	Destination string
	// Err is the underlying cause.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s to %s: %v", e.Source, e.Destination, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// RestoreError reports a failure to move the directory back from its staged location.
// The directory is not at its original location when it is returned.
type RestoreError struct {
	// Source is the staged location.
	Source string
	// Destination is the original location.
	Destination string
	// Err is the underlying cause.
	Err error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore %s to %s, directory is not at its original location: %v",
		e.Source, e.Destination, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}

// PanicError is raised by With in place of a panic from fn when the directory
// could not be restored afterwards. Restore holds the *RestoreError.
type PanicError struct {
	// Value is what fn panicked with.
	Value any
	// Restore is the restore failure.
	Restore error
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v; %v", e.Value, e.Restore)
}

func (e *PanicError) Unwrap() []error {
	if cause, ok := e.Value.(error); ok {
		return []error{cause, e.Restore}
	}

	return []error{e.Restore}
}
