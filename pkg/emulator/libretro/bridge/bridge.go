// Package bridge turns libretro callbacks into typed handler calls.
// No handler fault ever gets back to the native core:
// a failed call answers false, zero or nothing.
package bridge

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/logger"
)

// BytesPerPixel of XRGB8888, the only supported pixel format.
const BytesPerPixel = 4

// Frame is a video frame as the core gives it.
// Data is nil when there is no new frame.
type Frame struct {
	Data   []byte
	Width  int
	Height int
	Pitch  int
}

type Bridge struct {
	Registry

	mu     sync.Mutex
	screen emulator.ScreenData
	shown  bool

	log *logger.Logger
	// for the callbacks fired thousands of times per frame
	hot *logger.Logger
}

func New(log *logger.Logger) *Bridge {
	log = log.Module("bridge")
	return &Bridge{log: log, hot: log.Sampled(1000)}
}

// protect runs fn and reports false if it has panicked.
func protect(cb string, log *logger.Logger, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			faults.WithLabelValues(cb).Inc()
			log.Error().Str("cb", cb).Str("fault", fmt.Sprint(r)).Msg("callback handler has failed")
			ok = false
		}
	}()
	fn()
	return true
}

// Environment serves a core environment call.
// The payload is written back only when the handler reports success.
func (b *Bridge) Environment(code uint32, codec PayloadCodec) bool {
	req, ok := ParseRequest(code)
	if !ok {
		b.hot.Debug().Msgf("unsupported environment command %v", code)
		return false
	}
	h, ok := b.environment.load()
	if !ok {
		return false
	}

	var served bool
	ok = protect("environment", b.log, func() {
		payload, err := codec.Decode(req)
		if err != nil {
			b.log.Warn().Err(err).Msgf("%v payload", req)
			return
		}
		if !h(Environment{Request: req, Payload: payload}) {
			return
		}
		if err = codec.Encode(req, payload); err != nil {
			b.log.Warn().Err(err).Msgf("%v answer", req)
			return
		}
		served = true
	})
	return ok && served
}

func (b *Bridge) InputPoll() {
	if h, ok := b.inputPoll.load(); ok {
		protect("input_poll", b.hot, h)
	}
}

// InputState returns the pressed buttons mask, none on faults.
func (b *Bridge) InputState() (state uint16) {
	h, ok := b.inputState.load()
	if !ok {
		return 0
	}
	if !protect("input_state", b.hot, func() { state = h() }) {
		return 0
	}
	return state
}

func (b *Bridge) AudioSample(left, right int16) {
	if h, ok := b.audioSample.load(); ok {
		protect("audio_sample", b.hot, func() { h(left, right) })
	}
}

// VideoRefresh replaces the screen with the frame.
func (b *Bridge) VideoRefresh(f Frame) {
	if f.Data == nil {
		return
	}
	pixels, err := toPixels(f)
	if err != nil {
		b.hot.Warn().Err(err).Msg("bad frame")
		return
	}
	b.mu.Lock()
	b.screen = emulator.ScreenData{Width: f.Width, Height: f.Height, Pixels: pixels}
	b.shown = true
	b.mu.Unlock()

	if h, ok := b.videoRefresh.load(); ok {
		protect("video_refresh", b.hot, func() { h(f.Width, f.Height) })
	}
}

// ClearScreen drops the last frame.
func (b *Bridge) ClearScreen() {
	b.mu.Lock()
	b.screen, b.shown = emulator.ScreenData{}, false
	b.mu.Unlock()
}

// Screen returns a copy of the last frame.
func (b *Bridge) Screen() (emulator.ScreenData, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shown {
		return emulator.ScreenData{}, false
	}
	return b.screen.Clone(), true
}

func toPixels(f Frame) ([]uint32, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("frame size %vx%v", f.Width, f.Height)
	}
	row := f.Width * BytesPerPixel
	if f.Pitch < row || len(f.Data) < f.Pitch*(f.Height-1)+row {
		return nil, fmt.Errorf("frame %vx%v with pitch %v doesn't fit %v bytes", f.Width, f.Height, f.Pitch, len(f.Data))
	}
	out := make([]uint32, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		src := f.Data[y*f.Pitch : y*f.Pitch+row]
		dst := out[y*f.Width : (y+1)*f.Width]
		for x := range dst {
			dst[x] = binary.LittleEndian.Uint32(src[x*BytesPerPixel:])
		}
	}
	return out, nil
}
