// Package output plays the emulator audio on the local sound device.
package output

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/logger"
)

// Output is a local audio consumer, it pulls samples
// from the distributor when the device needs them.
type Output struct {
	ctx    *oto.Context
	player *oto.Player
	src    *source
	log    *logger.Logger
}

// New opens the default audio device.
// No device is a startup fault and is reported with an error.
func New(d *audio.Distributor, buffer time.Duration, log *logger.Logger) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("no audio output device: %w", err)
	}
	<-ready

	src := newSource(d)
	player := ctx.NewPlayer(src)
	// about 50ms of stereo int16
	player.SetBufferSize(audio.SampleRate / 20 * 4)

	return &Output{ctx: ctx, player: player, src: src, log: log.Module("out")}, nil
}

func (o *Output) Play() {
	o.src.reset()
	o.player.Play()
	o.log.Debug().Msg("play")
}

func (o *Output) Pause() {
	o.player.Pause()
	o.log.Debug().Msg("pause")
}

// SetPlaying follows the emulator run state.
func (o *Output) SetPlaying(playing bool) {
	if playing {
		o.Play()
	} else {
		o.Pause()
	}
}

func (o *Output) Run() { o.Play() }

func (o *Output) Shutdown(context.Context) error {
	o.player.Pause()
	err := o.player.Close()
	o.src.close()
	return err
}

func (o *Output) String() string { return "audio output" }

// source is an io.Reader over a distributor queue,
// it fills the gaps with silence so the device never stalls.
type source struct {
	d       *audio.Distributor
	id      audio.ConsumerID
	mu      sync.Mutex
	pending []byte
}

func newSource(d *audio.Distributor) *source {
	return &source{d: d, id: d.Register()}
}

func (s *source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) < len(p) {
		if samples, ok := s.d.Drain(s.id); ok && len(samples) > 0 {
			s.pending = append(s.pending, samples.Bytes()...)
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	clear(p[n:])
	return len(p), nil
}

// reset throws away everything queued while paused.
func (s *source) reset() {
	s.mu.Lock()
	s.pending = nil
	_, _ = s.d.Drain(s.id)
	s.mu.Unlock()
}

func (s *source) close() { s.d.Unregister(s.id) }
