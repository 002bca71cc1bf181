package emulator

import "time"

// driftCheckFrames is how often the accumulated drift is corrected.
const driftCheckFrames = 60

type frameTiming struct {
	interval time.Duration
	before   time.Time
	drift    time.Duration
	frames   uint64
	skipNext bool
}

// runFrame advances the core by one frame while keeping
// the frame rate near the nominal one.
// When the accumulated drift exceeds one frame, an extra frame is run
// right away (behind) or the next tick is skipped (ahead).
func (a *Actor) runFrame() {
	t := &a.timing
	if t.interval == 0 {
		return
	}

	if a.running && !t.skipNext {
		a.core.Run()
	} else if t.skipNext {
		framesSkipped.Inc()
	}
	t.skipNext = false
	t.frames++
	framesTotal.Inc()

	now := a.now()
	if t.frames == 1 {
		t.before = now
		return
	}
	t.drift += now.Sub(t.before) - t.interval
	t.before = now

	if t.frames%driftCheckFrames != 0 {
		return
	}
	frameDrift.Set(t.drift.Seconds())
	a.log.Debug().
		Dur("interval", t.interval).
		Dur("drift", t.drift).
		Msg("frame timing")

	if t.drift > t.interval {
		framesCatchUp.Inc()
		a.runFrame()
	}
	if t.drift < -t.interval {
		t.skipNext = true
		t.drift += t.interval
	}
}
