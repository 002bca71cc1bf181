// Package libretro answers the libretro core requests
// with the frontend state: config, joypad and audio.
package libretro

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/config"
	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/emulator/libretro/bridge"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/emuka/emuka/pkg/os"
)

// PixelFormatXRGB8888 is the libretro id of the only supported pixel format.
const PixelFormatXRGB8888 = 1

type Frontend struct {
	conf      config.Emulator
	systemDir string
	saveDir   string

	joypad *emulator.Joypad
	audio  *audio.Distributor

	mu     sync.Mutex
	vw, vh int

	log *logger.Logger
}

// NewFrontend prepares the directories the core may ask for.
func NewFrontend(conf config.Emulator, joypad *emulator.Joypad, dist *audio.Distributor, log *logger.Logger) (*Frontend, error) {
	f := &Frontend{conf: conf, joypad: joypad, audio: dist, log: log.Module("libretro")}

	var err error
	if f.systemDir, err = prepareDir(conf.SystemDir); err != nil {
		return nil, fmt.Errorf("system dir: %w", err)
	}
	if f.saveDir, err = prepareDir(conf.SaveDir); err != nil {
		return nil, fmt.Errorf("save dir: %w", err)
	}
	f.log.Debug().Str("system", f.systemDir).Str("saves", f.saveDir).Msg("dirs")
	return f, nil
}

func prepareDir(dir string) (string, error) {
	pth, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err = os.CheckCreateDir(pth); err != nil {
		return "", err
	}
	return pth, nil
}

// Attach installs the frontend handlers into the bridge.
func (f *Frontend) Attach(b *bridge.Bridge) {
	b.SetEnvironment(f.Environment)
	b.SetInputPoll(func() {})
	b.SetInputState(f.joypad.Bitmask)
	b.SetAudioSample(f.AudioSample)
	b.SetVideoRefresh(f.VideoRefresh)
}

func (f *Frontend) Environment(env bridge.Environment) bool {
	switch env.Request {
	case bridge.GetVariable:
		v, ok := env.Payload.(*bridge.Variable)
		if !ok {
			return false
		}
		v.Value, v.Found = f.conf.Option(v.Key)
		if !v.Found {
			f.log.Debug().Msgf("no option %v", v.Key)
		}
		return v.Found
	case bridge.GetSystemDirectory:
		return f.answer(env.Payload, f.systemDir)
	case bridge.GetSaveDirectory:
		return f.answer(env.Payload, f.saveDir)
	case bridge.SetPixelFormat:
		p, ok := env.Payload.(*bridge.IntSlot)
		if !ok {
			return false
		}
		if p.Value != PixelFormatXRGB8888 {
			f.log.Warn().Msgf("unsupported pixel format %v", p.Value)
			return false
		}
		return true
	case bridge.GetInputBitmasks:
		return true
	}
	return false
}

func (f *Frontend) answer(p bridge.Payload, value string) bool {
	s, ok := p.(*bridge.StringSlot)
	if !ok {
		return false
	}
	s.Value = value
	return true
}

func (f *Frontend) AudioSample(left, right int16) {
	f.audio.Push(audio.Sample{Left: left, Right: right})
}

func (f *Frontend) VideoRefresh(w, h int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w != f.vw || h != f.vh {
		f.vw, f.vh = w, h
		f.log.Info().Msgf("screen size %vx%v", w, h)
	}
}
