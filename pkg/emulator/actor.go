// Package emulator serializes every operation on a native core
// through a single goroutine.
package emulator

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/emuka/emuka/pkg/game"
	"github.com/emuka/emuka/pkg/logger"
)

// Submitter accepts commands for the emulator.
type Submitter interface {
	Submit(Command)
}

// Actor owns the emulator state. Commands are executed one at a time
// in the order a single submitter has sent them.
type Actor struct {
	core   Core
	screen ScreenSource
	joypad *Joypad
	queue  *mailbox
	log    *logger.Logger

	now         func() time.Time
	onRunning   func(bool)
	onFrameRate func(float64)
	lockThread  bool

	// the state below belongs to the loop goroutine
	game     game.Game
	savePath string
	running  bool
	timing   frameTiming

	done chan struct{}
}

type Option func(*Actor)

// WithClock replaces the wall clock used for frame pacing.
func WithClock(now func() time.Time) Option { return func(a *Actor) { a.now = now } }

// WithRunningHook is called from the loop every time
// the emulator is paused or resumed.
func WithRunningHook(fn func(running bool)) Option { return func(a *Actor) { a.onRunning = fn } }

// WithFrameRateHook is called from the loop when a loaded game
// changes the core frame rate.
func WithFrameRateHook(fn func(fps float64)) Option { return func(a *Actor) { a.onFrameRate = fn } }

// WithLockThread pins the loop to one OS thread,
// some cores keep thread-local state.
func WithLockThread(lock bool) Option { return func(a *Actor) { a.lockThread = lock } }

func NewActor(core Core, screen ScreenSource, joypad *Joypad, log *logger.Logger, opts ...Option) *Actor {
	a := &Actor{
		core:   core,
		screen: screen,
		joypad: joypad,
		queue:  newMailbox(),
		log:    log.Module("emu"),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Submit queues the command and returns immediately.
// Input is applied to the joypad right away so the next
// input poll sees it regardless of the queue backlog.
func (a *Actor) Submit(cmd Command) {
	if in, ok := cmd.(Input); ok {
		a.joypad.Set(in.Button, in.Pressed)
		return
	}
	if !a.queue.push(cmd) {
		respondEmpty(cmd)
	}
}

// Run starts the command loop.
func (a *Actor) Run() { go a.loop() }

// Shutdown stops the loop and waits until the core is released.
func (a *Actor) Shutdown(ctx context.Context) error {
	a.Submit(Stop{})
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the queue for good, the loop finishes
// after the commands submitted before.
func (a *Actor) Close() { a.queue.close() }

// Done is closed when the loop has finished.
func (a *Actor) Done() <-chan struct{} { return a.done }

func (a *Actor) String() string { return "emulator" }

func (a *Actor) loop() {
	if a.lockThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer close(a.done)

	a.log.Info().Msg("emulator loop started")
	for {
		cmd, ok := a.queue.pop()
		if !ok {
			break
		}
		queueLength.Set(float64(a.queue.len()))
		if !a.handle(cmd) {
			break
		}
	}

	a.queue.close()
	rest := a.queue.drain()
	for _, cmd := range rest {
		respondEmpty(cmd)
	}
	if len(rest) > 0 {
		a.log.Debug().Msgf("dropped %v queued commands", len(rest))
	}
	a.uninit()
	a.log.Info().Msg("emulator loop stopped")
}

// handle executes one command, false means the loop should stop.
func (a *Actor) handle(cmd Command) bool {
	switch c := cmd.(type) {
	case RunFrame:
		a.runFrame()
	case SetFrameInterval:
		a.timing = frameTiming{interval: c.Interval}
		a.log.Debug().Msgf("frame interval %v", c.Interval)
	case LoadGame:
		a.loadGame(c.Game)
	case UnloadGame:
		a.unloadGame()
	case LoadSave:
		a.loadSave(c.Save)
	case Save:
		a.save()
	case Pause:
		a.setRunning(false)
	case Resume:
		a.setRunning(true)
	case GetScreenData:
		reply(c.Reply, a.screenData())
	case ReadMemory:
		reply(c.Reply, a.readMemory(c.Expr))
	case WriteMemory:
		reply(c.Reply, a.writeMemory(c.Expr))
	case RunStealth:
		state, err := a.runStealth(c.Jump, c.State)
		reply(c.Reply, StealthResult{State: state, Err: err})
	case Burst:
		reply(c.Reply, a.burst(c.Ops))
	case Stop:
		return false
	default:
		a.log.Warn().Msgf("unknown command %T", cmd)
	}
	return true
}

func (a *Actor) loadGame(g game.Game) {
	prev := a.game
	a.game = g
	// the core may still use the previous game until it switches
	defer release(prev, a.log)

	path, ok := g.Path()
	if !ok {
		a.log.Error().Str("game", g.Name()).Msg("the core can load games from files only")
		if prev != nil {
			a.core.UnloadGame()
		}
		return
	}
	if err := a.core.LoadGame(path); err != nil {
		a.log.Error().Err(err).Str("game", g.Name()).Msg("game load failed")
		return
	}
	a.log.Info().Str("game", g.Name()).Msg("game loaded")
	a.syncFrameRate()
}

// syncFrameRate rearms the frame timing when the core
// reports a frame rate other than the current one.
func (a *Actor) syncFrameRate() {
	fps := a.core.FrameRate()
	interval := FrameInterval(fps)
	if interval <= 0 || interval == a.timing.interval {
		return
	}
	a.timing = frameTiming{interval: interval}
	a.log.Info().Msgf("frame rate %v, interval %v", fps, interval)
	if a.onFrameRate != nil {
		a.onFrameRate(fps)
	}
}

func (a *Actor) unloadGame() {
	a.setRunning(false)
	prev := a.game
	a.game = nil
	a.savePath = ""
	a.core.UnloadGame()
	release(prev, a.log)
	a.log.Info().Msg("game unloaded")
}

// release frees the resources of a game the core no longer holds.
func release(g game.Game, log *logger.Logger) {
	if c, ok := g.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Str("game", g.Name()).Msg("game release")
		}
	}
}

func (a *Actor) loadSave(s game.Save) {
	if a.game == nil {
		a.log.Debug().Msg("no game for the save")
		return
	}
	if !s.CanWrite() {
		a.log.Warn().Str("save", s.Name()).Msg("read-only saves are not supported")
		return
	}
	path, ok := s.Path()
	if !ok {
		a.log.Warn().Str("save", s.Name()).Msg("the core can load saves from files only")
		return
	}
	a.savePath = path
	if err := a.core.LoadSave(path); err != nil {
		a.log.Error().Err(err).Str("save", s.Name()).Msg("save load failed")
		return
	}
	a.log.Info().Str("save", s.Name()).Msg("save loaded")
}

func (a *Actor) save() {
	if a.savePath == "" {
		return
	}
	if err := a.core.SaveTo(a.savePath); err != nil {
		a.log.Error().Err(err).Str("path", a.savePath).Msg("save failed")
		return
	}
	a.log.Debug().Str("path", a.savePath).Msg("saved")
}

func (a *Actor) setRunning(running bool) {
	a.running = running
	if a.onRunning != nil {
		a.onRunning(running)
	}
}

func (a *Actor) screenData() Maybe[ScreenData] {
	if a.screen == nil {
		return Maybe[ScreenData]{}
	}
	s, ok := a.screen.Screen()
	if !ok {
		return Maybe[ScreenData]{}
	}
	return Some(s)
}

func (a *Actor) readMemory(expr string) Maybe[string] {
	if IsAssignment(expr) {
		return Maybe[string]{}
	}
	return a.evaluate(expr)
}

func (a *Actor) writeMemory(expr string) Maybe[string] {
	if !IsAssignment(expr) {
		return Maybe[string]{}
	}
	return a.evaluate(expr)
}

func (a *Actor) evaluate(expr string) Maybe[string] {
	v, ok := a.core.Evaluate(expr)
	if !ok {
		return Maybe[string]{}
	}
	return Some(v)
}

func (a *Actor) runStealth(jump uint32, state map[string]uint32) (map[string]uint32, error) {
	if !a.running {
		return nil, ErrNotRunning
	}
	if state == nil {
		state = map[string]uint32{}
	}
	out, ok := a.core.RunStealth(jump, state)
	if !ok {
		a.log.Warn().Msgf("stealth run at %#x has failed", jump)
	}
	return out, nil
}

func (a *Actor) burst(ops []Command) []BurstResult {
	out := make([]BurstResult, len(ops))
	for i, op := range ops {
		switch c := op.(type) {
		case ReadMemory:
			v := a.readMemory(c.Expr)
			out[i] = BurstResult{Ok: v.Ok, Value: v.Value}
		case WriteMemory:
			v := a.writeMemory(c.Expr)
			out[i] = BurstResult{Ok: v.Ok, Value: v.Value}
		case RunStealth:
			if state, err := a.runStealth(c.Jump, c.State); err == nil {
				out[i] = BurstResult{Ok: true, State: state}
			}
		case RunFrame:
			a.runFrame()
			out[i] = BurstResult{Ok: true}
		default:
			a.log.Debug().Msgf("%T is not allowed in a burst", op)
		}
	}
	return out
}

func (a *Actor) uninit() {
	a.save()
	prev := a.game
	a.game = nil
	a.core.UnloadGame()
	release(prev, a.log)
	a.core.Deinit()
}
