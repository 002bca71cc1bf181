package emulator

import (
	"fmt"
	"sync"

	"github.com/emuka/emuka/pkg/game"
)

type fakeCore struct {
	mu      sync.Mutex
	calls   []string
	frames  int
	stealth int
	loadErr error
	// gameFps is reported after a game is loaded
	fps, gameFps float64
}

func (c *fakeCore) record(format string, v ...any) {
	c.mu.Lock()
	c.calls = append(c.calls, fmt.Sprintf(format, v...))
	c.mu.Unlock()
}

func (c *fakeCore) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeCore) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *fakeCore) LoadGame(path string) error {
	c.record("load %v", path)
	if c.loadErr == nil && c.gameFps > 0 {
		c.mu.Lock()
		c.fps = c.gameFps
		c.mu.Unlock()
	}
	return c.loadErr
}

func (c *fakeCore) UnloadGame()                { c.record("unload") }
func (c *fakeCore) LoadSave(path string) error { c.record("load save %v", path); return nil }
func (c *fakeCore) SaveTo(path string) error   { c.record("save %v", path); return nil }
func (c *fakeCore) Deinit()                    { c.record("deinit") }

func (c *fakeCore) FrameRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fps == 0 {
		return 60
	}
	return c.fps
}

func (c *fakeCore) Run() {
	c.mu.Lock()
	c.frames++
	c.mu.Unlock()
}

func (c *fakeCore) Evaluate(expr string) (string, bool) {
	c.record("eval %v", expr)
	if expr == "bad" {
		return "", false
	}
	return "$" + expr, true
}

func (c *fakeCore) RunStealth(jump uint32, vars map[string]uint32) (map[string]uint32, bool) {
	c.mu.Lock()
	c.stealth++
	c.mu.Unlock()
	out := make(map[string]uint32, len(vars))
	for k, v := range vars {
		out[k] = v + jump
	}
	return out, true
}

type fakeScreen struct {
	data ScreenData
	ok   bool
}

func (s fakeScreen) Screen() (ScreenData, bool) { return s.data.Clone(), s.ok }

type fakeGame struct{ name, path string }

// closingGame records its release among the core calls.
type closingGame struct {
	fakeGame
	core *fakeCore
}

func (g closingGame) Close() error { g.core.record("close %v", g.name); return nil }

func (g fakeGame) Name() string         { return g.name }
func (g fakeGame) Data() []byte         { return nil }
func (g fakeGame) Path() (string, bool) { return g.path, g.path != "" }

type fakeSave struct {
	fakeGame
	writable bool
}

func (s fakeSave) CanWrite() bool     { return s.writable }
func (s fakeSave) Write([]byte) error { return nil }

var (
	_ game.Game = fakeGame{}
	_ game.Save = fakeSave{}
)
