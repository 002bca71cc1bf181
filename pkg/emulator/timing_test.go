package emulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/emuka/emuka/pkg/logger"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time      { return c.t }
func (c *manualClock) add(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *manualClock               { return &manualClock{t: time.Unix(1000, 0)} }
func pacedActor(core Core, c *manualClock) *Actor {
	a := NewActor(core, nil, &Joypad{}, logger.Discard(), WithClock(c.now))
	a.running = true
	return a
}

func TestNoFramesWithoutInterval(t *testing.T) {
	core := &fakeCore{}
	a := pacedActor(core, newClock())

	a.runFrame()

	assert.Zero(t, core.Frames())
	assert.Zero(t, a.timing.frames)
}

func TestCatchUpWhenBehind(t *testing.T) {
	const T = 16 * time.Millisecond
	core := &fakeCore{}
	clock := newClock()
	a := pacedActor(core, clock)
	a.handle(SetFrameInterval{Interval: T})

	for i := 0; i < driftCheckFrames; i++ {
		clock.add(2 * T)
		a.runFrame()
	}

	assert.Greater(t, core.Frames(), driftCheckFrames, "a catch-up frame should have run")
	assert.False(t, a.timing.skipNext)
}

func TestSkipWhenAhead(t *testing.T) {
	const T = 16 * time.Millisecond
	core := &fakeCore{}
	a := pacedActor(core, newClock())
	a.handle(SetFrameInterval{Interval: T})

	for i := 0; i < driftCheckFrames; i++ {
		a.runFrame()
	}

	assert.True(t, a.timing.skipNext)
	assert.Equal(t, -(driftCheckFrames-2)*T, a.timing.drift)

	a.runFrame()
	assert.Equal(t, driftCheckFrames, core.Frames(), "the tick after a skip is consumed")
	assert.False(t, a.timing.skipNext)
}

func TestOnTimeFramesDontDrift(t *testing.T) {
	const T = 16 * time.Millisecond
	core := &fakeCore{}
	clock := newClock()
	a := pacedActor(core, clock)
	a.handle(SetFrameInterval{Interval: T})

	for i := 0; i < 3*driftCheckFrames; i++ {
		clock.add(T)
		a.runFrame()
	}

	assert.Equal(t, 3*driftCheckFrames, core.Frames())
	assert.Zero(t, a.timing.drift)
}

func TestPausedTicksAreCounted(t *testing.T) {
	core := &fakeCore{}
	a := pacedActor(core, newClock())
	a.running = false
	a.handle(SetFrameInterval{Interval: time.Millisecond})

	a.runFrame()
	a.runFrame()

	assert.Zero(t, core.Frames())
	assert.EqualValues(t, 2, a.timing.frames)
}
