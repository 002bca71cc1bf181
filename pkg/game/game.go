// Package game holds the game and save handles the emulator loads.
package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Game is a game image that can be loaded into the core.
type Game interface {
	Name() string
	Data() []byte
	// Path returns the file the core should load,
	// in-memory games don't have one.
	Path() (string, bool)
}

// FileGame is a game read from the disk.
// Archived games are unpacked into a temporary file.
type FileGame struct {
	name string
	data []byte
	path string
	temp bool
}

// NewFileGame reads the game at path. Supported archives (zip, gz, 7z, rar)
// are unpacked and the first file with one of the extensions is used,
// no extensions means the first file.
func NewFileGame(path string, extensions ...string) (*FileGame, error) {
	data, name, archived, err := load(path, extensions)
	if err != nil {
		return nil, err
	}
	g := FileGame{name: name, data: data, path: path}
	if !archived {
		return &g, nil
	}

	tmp, err := os.MkdirTemp("", "emuka-game-")
	if err != nil {
		return nil, fmt.Errorf("game temp dir: %w", err)
	}
	g.path = filepath.Join(tmp, name)
	if err = os.WriteFile(g.path, data, 0644); err != nil {
		_ = os.RemoveAll(tmp)
		return nil, fmt.Errorf("game unpack: %w", err)
	}
	g.temp = true
	return &g, nil
}

func (g *FileGame) Name() string         { return g.name }
func (g *FileGame) Data() []byte         { return g.data }
func (g *FileGame) Path() (string, bool) { return g.path, true }

// Close removes the unpacked copy of an archived game.
func (g *FileGame) Close() error {
	if !g.temp {
		return nil
	}
	g.temp = false
	return os.RemoveAll(filepath.Dir(g.path))
}

func (g *FileGame) String() string { return g.name }

// MemoryGame is a game that exists only in memory.
type MemoryGame struct {
	name string
	data []byte
}

func NewMemoryGame(name string, data []byte) *MemoryGame {
	return &MemoryGame{name: name, data: append([]byte(nil), data...)}
}

func (g *MemoryGame) Name() string         { return g.name }
func (g *MemoryGame) Data() []byte         { return g.data }
func (g *MemoryGame) Path() (string, bool) { return "", false }

// Title returns the game name without the file extension.
func Title(g Game) string {
	name := g.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}
