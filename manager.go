// This file implements the filesystem-backed management layer: creating,
// opening and caching named databases under one root directory.
//
// The management layer owns all name and path logic; the storage core
// below it only ever sees an open, exclusively-owned stream. One file per
// database, named <name>.db inside the root directory.
package vectoria

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// dbFileExt is the filename suffix of database files under the root.
const dbFileExt = ".db"

// ManagementSystem creates, opens and caches the databases stored under a
// root directory.
//
// Thread-safety: all methods are safe for concurrent use. Filesystem
// operations are serialized behind the handle lock, the loaded-database
// cache behind its own lock, acquired in that order - the same discipline
// Database applies to its store and cache.
type ManagementSystem struct {
	rootDir string

	// lockFile guards the root against a second process managing the
	// same directory.
	lockFile *os.File

	handleMu sync.Mutex

	cacheMu sync.Mutex
	loaded  map[string]*Database

	opts []DatabaseOption
}

// NewManagementSystem opens a management system rooted at the given
// directory, creating the directory if needed and acquiring its lock
// file.
//
// The options are applied to every database the system creates or opens.
func NewManagementSystem(rootDir string, opts ...DatabaseOption) (*ManagementSystem, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	ms := &ManagementSystem{
		rootDir: rootDir,
		loaded:  make(map[string]*Database),
		opts:    opts,
	}
	if err := ms.acquireLock(); err != nil {
		return nil, err
	}
	return ms, nil
}

// acquireLock creates the root's lock file exclusively, so two processes
// cannot manage the same directory at once.
func (ms *ManagementSystem) acquireLock() error {
	lockPath := filepath.Join(ms.rootDir, "LOCK")

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("root directory is locked by another process")
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if _, err := fmt.Fprintf(lockFile, "%d\n", os.Getpid()); err != nil {
		lockFile.Close()
		os.Remove(lockPath)
		return fmt.Errorf("failed to write lock file: %w", err)
	}

	ms.lockFile = lockFile
	return nil
}

// Close releases the root directory lock. Open database streams stay
// open; they belong to their Database instances.
func (ms *ManagementSystem) Close() error {
	if ms.lockFile == nil {
		return nil
	}
	lockPath := filepath.Join(ms.rootDir, "LOCK")
	if err := ms.lockFile.Close(); err != nil {
		return fmt.Errorf("failed to close lock file: %w", err)
	}
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	ms.lockFile = nil
	return nil
}

// databasePath returns the backing file path of a named database.
func (ms *ManagementSystem) databasePath(name string) string {
	return filepath.Join(ms.rootDir, name+dbFileExt)
}

// Create creates a new named database. It fails with ErrNameConflict when
// a database of that name already exists.
func (ms *ManagementSystem) Create(name string, dimSize uint32) (*Database, error) {
	ms.handleMu.Lock()
	defer ms.handleMu.Unlock()

	path := ms.databasePath(name)
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNameConflict, name)
		}
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}

	db, err := NewDatabase(name, dimSize, fd, ms.opts...)
	if err != nil {
		fd.Close()
		os.Remove(path)
		return nil, err
	}

	ms.cacheMu.Lock()
	defer ms.cacheMu.Unlock()
	ms.loaded[name] = db
	return db, nil
}

// Get returns the named database, opening and caching it on first use.
// found is false when no database of that name exists - a normal outcome,
// not an error. Repeated calls return the same instance.
func (ms *ManagementSystem) Get(name string) (*Database, bool, error) {
	ms.handleMu.Lock()
	defer ms.handleMu.Unlock()
	ms.cacheMu.Lock()
	defer ms.cacheMu.Unlock()

	if db, ok := ms.loaded[name]; ok {
		return db, true, nil
	}

	path := ms.databasePath(name)
	fd, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open database file: %w", err)
	}

	db, err := ReadDatabase(name, fd, ms.opts...)
	if err != nil {
		fd.Close()
		return nil, false, fmt.Errorf("database %s failed to load: %w", name, err)
	}

	ms.loaded[name] = db
	return db, true, nil
}
