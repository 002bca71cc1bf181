package emulator

import (
	"errors"
	"io"
	"time"

	"github.com/emuka/emuka/pkg/game"
)

var (
	ErrNotRunning = errors.New("emulator is not running")
	ErrStopped    = errors.New("emulator has been stopped")
)

// Command is a request to the actor.
type Command interface{ command() }

// Maybe is a reply that may have no value.
type Maybe[T any] struct {
	Value T
	Ok    bool
}

func Some[T any](v T) Maybe[T] { return Maybe[T]{Value: v, Ok: true} }

// StealthResult is the variable state after a stealth run.
type StealthResult struct {
	State map[string]uint32
	Err   error
}

// BurstResult is the outcome of one burst sub-command.
// Memory commands fill Value, stealth runs fill State.
type BurstResult struct {
	Ok    bool
	Value string
	State map[string]uint32
}

type (
	LoadGame   struct{ Game game.Game }
	UnloadGame struct{}
	LoadSave   struct{ Save game.Save }
	RunFrame   struct{}
	Pause      struct{}
	Resume     struct{}
	Input      struct {
		Button  Button
		Pressed bool
	}
	Save struct{}
	Stop struct{}
	// SetFrameInterval arms the frame timing, until then RunFrame does nothing.
	SetFrameInterval struct{ Interval time.Duration }

	GetScreenData struct {
		Reply chan Maybe[ScreenData]
	}
	ReadMemory struct {
		Expr  string
		Reply chan Maybe[string]
	}
	WriteMemory struct {
		Expr  string
		Reply chan Maybe[string]
	}
	RunStealth struct {
		Jump  uint32
		State map[string]uint32
		Reply chan StealthResult
	}
	// Burst runs memory, stealth and frame commands in one go.
	// Replies of the sub-commands are not used.
	Burst struct {
		Ops   []Command
		Reply chan []BurstResult
	}
)

func (LoadGame) command()         {}
func (UnloadGame) command()       {}
func (LoadSave) command()         {}
func (RunFrame) command()         {}
func (Pause) command()            {}
func (Resume) command()           {}
func (Input) command()            {}
func (Save) command()             {}
func (Stop) command()             {}
func (SetFrameInterval) command() {}
func (GetScreenData) command()    {}
func (ReadMemory) command()       {}
func (WriteMemory) command()      {}
func (RunStealth) command()       {}
func (Burst) command()            {}

// respondEmpty satisfies the reply of a command that won't be executed.
func respondEmpty(cmd Command) {
	switch c := cmd.(type) {
	case LoadGame:
		if g, ok := c.Game.(io.Closer); ok {
			_ = g.Close()
		}
	case GetScreenData:
		reply(c.Reply, Maybe[ScreenData]{})
	case ReadMemory:
		reply(c.Reply, Maybe[string]{})
	case WriteMemory:
		reply(c.Reply, Maybe[string]{})
	case RunStealth:
		reply(c.Reply, StealthResult{Err: ErrStopped})
	case Burst:
		reply(c.Reply, make([]BurstResult, len(c.Ops)))
	}
}

func reply[T any](ch chan<- T, v T) {
	if ch != nil {
		ch <- v
	}
}
