package emulator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emuka/emuka/pkg/logger"
)

// Pacer ticks the emulator at the core frame rate.
// Ticks are sent without waiting for the frames to finish,
// the actor corrects the accumulated drift itself.
type Pacer struct {
	emu      Submitter
	interval atomic.Int64
	log      *logger.Logger

	reset chan struct{}
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// FrameInterval converts a refresh rate into the frame duration.
func FrameInterval(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func NewPacer(emu Submitter, fps float64, log *logger.Logger) *Pacer {
	p := &Pacer{
		emu:   emu,
		log:   log.Module("pace"),
		reset: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	p.interval.Store(int64(FrameInterval(fps)))
	return p
}

func (p *Pacer) Interval() time.Duration { return time.Duration(p.interval.Load()) }

// Reset changes the tick period of the running pacer.
// The actor timing is expected to be rearmed by the caller.
func (p *Pacer) Reset(fps float64) {
	interval := FrameInterval(fps)
	if interval <= 0 {
		return
	}
	p.interval.Store(int64(interval))
	select {
	case p.reset <- struct{}{}:
	default:
	}
}

func (p *Pacer) Run() {
	interval := p.Interval()
	if interval <= 0 {
		p.log.Error().Msg("the core has no frame rate, frames won't run")
		return
	}
	p.emu.Submit(SetFrameInterval{Interval: interval})
	p.log.Info().Msgf("frame interval %v", interval)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.emu.Submit(RunFrame{})
			case <-p.reset:
				ticker.Reset(p.Interval())
				p.log.Info().Msgf("frame interval %v", p.Interval())
			case <-p.done:
				return
			}
		}
	}()
}

func (p *Pacer) Shutdown(ctx context.Context) error {
	p.once.Do(func() { close(p.done) })
	stopped := make(chan struct{})
	go func() { p.wg.Wait(); close(stopped) }()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pacer) String() string { return "pacer" }
