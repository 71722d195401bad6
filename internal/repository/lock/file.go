package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/desktop-installer/internal/domain/build"
	"github.com/oshokin/desktop-installer/internal/logger"
)

// Locker serializes builds.
type Locker interface {
	Acquire(ctx context.Context, owner *build.Actor) error
	Release(ctx context.Context, owner *build.Actor) error
}

// Record is the content of a lock file.
type Record struct {
	// Owner is the actor holding the lock.
	Owner *build.Actor `yaml:"owner"`
}

const (
	// filePermissions restricts the lock file to its owner.
	filePermissions = 0o600

	// unreadableLifetime is how long an unreadable lock file is trusted.
	// A lock is written right after it is created, so a short window covers a concurrent writer.
	unreadableLifetime = 30 * time.Second

	// lockSuffix is appended to the application directory name.
	lockSuffix = ".installer.lock"
)

var (
	// ErrLocked is returned when another live build holds the lock.
	ErrLocked = errors.New("another build is running")
	// ErrNotFound is returned when the lock file does not exist.
	ErrNotFound = errors.New("lock not found")
	// errNotOwner is returned when releasing a lock held by someone else.
	errNotOwner = errors.New("lock is held by another owner")
	// errOwnerRequired is returned when no owner is given.
	errOwnerRequired = errors.New("lock owner must be provided")
)

// FileLock is a lock backed by an exclusively created file.
type FileLock struct {
	// path is the filesystem location of the lock file.
	path string
	// isAlive reports whether a process with the PID exists on this host.
	isAlive func(pid int) (bool, error)
	// hostname returns the name of this host.
	hostname func() (string, error)
}

// PathFor returns the lock path used for an application root: a hidden sibling
// of the root, so the lock itself is never packaged.
func PathFor(appRoot string) string {
	cleaned := filepath.Clean(appRoot)
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}

	return filepath.Join(filepath.Dir(cleaned), "."+filepath.Base(cleaned)+lockSuffix)
}

// NewFileLock creates a lock stored at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		path:     filepath.Clean(path),
		isAlive:  processExists,
		hostname: os.Hostname,
	}
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire creates the lock file for owner. A stale lock is removed and acquisition retried once.
func (l *FileLock) Acquire(ctx context.Context, owner *build.Actor) error {
	if owner == nil {
		return errOwnerRequired
	}

	err := l.create(owner)
	if !errors.Is(err, os.ErrExist) {
		return err
	}

	stale, holder, err := l.isStale(ctx)
	if err != nil {
		return err
	}

	if !stale {
		return lockedError(holder)
	}

	logger.InfoKV(ctx, "Removing stale build lock", "path", l.path)

	if err = l.discardStale(holder); err != nil {
		return err
	}

	err = l.create(owner)
	if errors.Is(err, os.ErrExist) {
		// Somebody else won the race for the stale lock.
		return ErrLocked
	}

	return err
}

// Release removes the lock file if owner holds it.
func (l *FileLock) Release(ctx context.Context, owner *build.Actor) error {
	if owner == nil {
		return errOwnerRequired
	}

	record, err := l.Read(ctx)
	if err != nil {
		return err
	}

	if record.Owner == nil || record.Owner.PID != owner.PID || record.Owner.Hostname != owner.Hostname {
		return errNotOwner
	}

	if err = os.Remove(l.path); err != nil {
		return fmt.Errorf("remove lock: %w", err)
	}

	return nil
}

// Read loads the lock record.
func (l *FileLock) Read(_ context.Context) (*Record, error) {
	return readRecord(l.path)
}

// discardStale removes the lock judged stale for holder. The file is renamed
// aside first, so a lock created by another build after the check is put back.
func (l *FileLock) discardStale(holder *build.Actor) error {
	aside := fmt.Sprintf("%s.stale-%d", l.path, os.Getpid())

	if err := os.Rename(l.path, aside); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("move stale lock aside: %w", err)
	}

	record, err := readRecord(aside)
	if err == nil && !sameOwner(record.Owner, holder) {
		linkErr := os.Link(aside, l.path)
		_ = os.Remove(aside)

		if linkErr != nil && !errors.Is(linkErr, os.ErrExist) {
			return fmt.Errorf("put back live lock: %w", linkErr)
		}

		return lockedError(record.Owner)
	}

	if err = os.Remove(aside); err != nil {
		return fmt.Errorf("remove stale lock: %w", err)
	}

	return nil
}

// readRecord loads a lock record from path.
func readRecord(path string) (*Record, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read lock file: %w", err)
	}

	var record Record
	if err = yaml.Unmarshal(contents, &record); err != nil {
		return nil, fmt.Errorf("decode lock file: %w", err)
	}

	return &record, nil
}

// create writes the lock file, failing with os.ErrExist when it is present.
func (l *FileLock) create(owner *build.Actor) error {
	data, err := yaml.Marshal(&Record{Owner: owner.Clone()})
	if err != nil {
		return fmt.Errorf("encode lock: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return err
		}

		return fmt.Errorf("create lock file: %w", err)
	}

	if _, err = file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(l.path)

		return fmt.Errorf("write lock file: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}

	return nil
}

// isStale decides whether the existing lock may be replaced.
func (l *FileLock) isStale(ctx context.Context) (bool, *build.Actor, error) {
	record, err := l.Read(ctx)

	switch {
	case errors.Is(err, ErrNotFound):
		// Released between our create attempt and now.
		return true, nil, nil
	case err != nil:
		info, statErr := os.Stat(l.path)
		if statErr != nil {
			return false, nil, fmt.Errorf("stat lock file: %w", statErr)
		}

		logger.WarnKV(ctx, "Unreadable build lock", "path", l.path, "error", err)

		return time.Since(info.ModTime()) > unreadableLifetime, nil, nil
	case record.Owner == nil:
		return true, nil, nil
	}

	hostname, err := l.hostname()
	if err != nil {
		return false, record.Owner, fmt.Errorf("hostname: %w", err)
	}

	// A lock from another host on a shared filesystem cannot be checked.
	if record.Owner.Hostname != hostname {
		return false, record.Owner, nil
	}

	alive, err := l.isAlive(record.Owner.PID)
	if err != nil {
		return false, record.Owner, fmt.Errorf("check lock owner: %w", err)
	}

	return !alive, record.Owner, nil
}

// sameOwner reports whether both actors describe the same lock holder.
func sameOwner(a, b *build.Actor) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.PID == b.PID && a.Hostname == b.Hostname && a.StartedAt.Equal(b.StartedAt)
}

// lockedError describes the current holder.
func lockedError(holder *build.Actor) error {
	if holder == nil {
		return ErrLocked
	}

	return fmt.Errorf("%w: pid %d, user %s on %s since %s", ErrLocked,
		holder.PID, holder.Username, holder.Hostname, holder.StartedAt.Format(time.RFC3339))
}

// processExists looks the PID up in the process table.
func processExists(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}
