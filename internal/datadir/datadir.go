// Package datadir resolves the directory that holds cliphist's persisted
// state (history snapshot, log file) from the history_location setting.
package datadir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	// ConfigDir is the default location relative to the user's home.
	ConfigDir = ".config/cliphist"

	// LogFile is the log destination used while the live view owns the terminal.
	LogFile = "cliphist.log"

	// WatchLockFile is held by a running watch for as long as it owns the
	// history.
	WatchLockFile = "watch.lock"
)

// ErrLocked reports that a running watch owns the history in a directory.
var ErrLocked = errors.New("history is in use by a running 'cliphist watch'")

// Dir is a directory for cliphist's state files.
type Dir struct {
	root string
}

// Resolve maps a history_location value to a Dir and creates it.
//
// An empty location means ~/.config/cliphist. An absolute location is used
// as is. A relative location is a subdirectory of ~/.config/cliphist.
func Resolve(location string) (*Dir, error) {
	var root string
	if filepath.IsAbs(location) {
		root = location
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(homeDir, ConfigDir, location)
	}

	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// New returns a Dir rooted at root without touching the filesystem.
func New(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path.
func (d *Dir) Root() string {
	return d.root
}

// Path joins name onto the directory.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// OpenLog opens (appending) the log file inside the directory.
func (d *Dir) OpenLog() (*os.File, error) {
	f, err := os.OpenFile(d.Path(LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Lock is an advisory lock on the history in a Dir. The operating system
// releases it if the process dies.
type Lock struct {
	fl *flock.Flock
}

// TryLock takes the watch lock without blocking. It returns ErrLocked when
// another process, or another Lock in this one, holds it.
func (d *Dir) TryLock() (*Lock, error) {
	fl := flock.New(d.Path(WatchLockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

// Unlock releases the lock. The lock file is left in place.
func (l *Lock) Unlock() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.fl.Path(), err)
	}
	return nil
}
