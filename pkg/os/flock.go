package os

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Flock is an advisory inter-process file lock.
type Flock struct {
	f *flock.Flock
}

// NewFileLock makes a lock file at path (or in the temp dir when empty).
func NewFileLock(path string) (*Flock, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "emuka.lock")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, err
	}
	return &Flock{f: flock.New(path)}, nil
}

// LockFileFor returns a lock guarding the file at path,
// the lock lives next to it as .<name>.lock.
func LockFileFor(path string) (*Flock, error) {
	dir, name := filepath.Split(path)
	return NewFileLock(filepath.Join(dir, "."+name+".lock"))
}

func (f *Flock) Lock() error   { return f.f.Lock() }
func (f *Flock) Unlock() error { return f.f.Unlock() }
func (f *Flock) Path() string  { return f.f.Path() }
