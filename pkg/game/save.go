package game

import (
	"fmt"
	"os"
	"path/filepath"

	xos "github.com/emuka/emuka/pkg/os"
)

// Save is the battery memory of a game.
type Save interface {
	Game
	CanWrite() bool
	Write(data []byte) error
}

// FileSave is a save backed by a file on the disk.
type FileSave struct {
	name     string
	data     []byte
	path     string
	writable bool
}

// NewFileSave reads the save at path.
// The save is writable when the file has any write permission bit.
func NewFileSave(path string) (*FileSave, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	writable, err := xos.IsWritable(path)
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	return &FileSave{name: filepath.Base(path), data: data, path: path, writable: writable}, nil
}

func (s *FileSave) Name() string         { return s.name }
func (s *FileSave) Data() []byte         { return s.data }
func (s *FileSave) Path() (string, bool) { return s.path, true }
func (s *FileSave) CanWrite() bool       { return s.writable }

// Write replaces the save file contents. The file is locked
// for the duration of the write so that other emuka processes
// sharing the save folder don't see it half-written.
func (s *FileSave) Write(data []byte) error {
	if !s.writable {
		return fmt.Errorf("save %v: %w", s.name, os.ErrPermission)
	}
	lock, err := xos.LockFileFor(s.path)
	if err != nil {
		return fmt.Errorf("save lock: %w", err)
	}
	if err = lock.Lock(); err != nil {
		return fmt.Errorf("save lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	if err = xos.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("save write: %w", err)
	}
	s.data = append(s.data[:0], data...)
	return nil
}

// MemorySave is a read-only in-memory save.
type MemorySave struct {
	MemoryGame
}

func NewMemorySave(name string, data []byte) *MemorySave {
	return &MemorySave{MemoryGame: *NewMemoryGame(name, data)}
}

func (s *MemorySave) CanWrite() bool { return false }

func (s *MemorySave) Write([]byte) error {
	return fmt.Errorf("save %v: %w", s.name, os.ErrPermission)
}
