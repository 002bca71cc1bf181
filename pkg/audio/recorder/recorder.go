// Package recorder captures the emulator audio into WAV files.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/logger"
)

const (
	bitDepth    = 16
	channels    = 2
	pcmFormat   = 1
	drainPeriod = 100 * time.Millisecond
)

var ErrRecording = errors.New("already recording")
var ErrNotRecording = errors.New("not recording")

// Recorder writes everything the core plays into a WAV file.
// Only one recording can be active at a time.
type Recorder struct {
	d   *audio.Distributor
	log *logger.Logger

	mu  sync.Mutex
	cur *stream
}

type stream struct {
	id   audio.ConsumerID
	f    *os.File
	enc  *wav.Encoder
	done chan struct{}
	wg   sync.WaitGroup
	path string
}

func New(d *audio.Distributor, log *logger.Logger) *Recorder {
	return &Recorder{d: d, log: log.Module("rec")}
}

// Start begins the recording into the file at path.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur != nil {
		return ErrRecording
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	s := &stream{
		id:   r.d.Register(),
		f:    f,
		enc:  wav.NewEncoder(f, audio.SampleRate, bitDepth, channels, pcmFormat),
		done: make(chan struct{}),
		path: path,
	}
	s.wg.Add(1)
	go r.loop(s)
	r.cur = s
	r.log.Info().Str("path", path).Msg("recording")
	return nil
}

// Stop finishes the current recording and returns its file path.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	s := r.cur
	r.cur = nil
	r.mu.Unlock()
	if s == nil {
		return "", ErrNotRecording
	}

	close(s.done)
	s.wg.Wait()
	r.d.Unregister(s.id)

	err := errors.Join(s.enc.Close(), s.f.Close())
	if err != nil {
		r.log.Error().Err(err).Msg("recording close")
	} else {
		r.log.Info().Str("path", s.path).Msg("recording saved")
	}
	return s.path, err
}

func (r *Recorder) Run() {}

// Shutdown saves an unfinished recording.
func (r *Recorder) Shutdown(context.Context) error {
	if !r.IsRecording() {
		return nil
	}
	_, err := r.Stop()
	if errors.Is(err, ErrNotRecording) {
		return nil
	}
	return err
}

func (r *Recorder) String() string { return "recorder" }

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur != nil
}

func (r *Recorder) loop(s *stream) {
	defer s.wg.Done()
	t := time.NewTicker(drainPeriod)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.flush(s)
		case <-s.done:
			r.flush(s)
			return
		}
	}
}

func (r *Recorder) flush(s *stream) {
	samples, ok := r.d.Drain(s.id)
	if !ok || len(samples) == 0 {
		return
	}
	if err := s.enc.Write(toIntBuffer(samples)); err != nil {
		r.log.Error().Err(err).Msg("wav write")
	}
}

func toIntBuffer(samples audio.Samples) *goaudio.IntBuffer {
	data := make([]int, 0, len(samples)*channels)
	for _, s := range samples {
		data = append(data, int(s.Left), int(s.Right))
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: audio.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
}
