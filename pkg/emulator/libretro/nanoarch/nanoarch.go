// Package nanoarch runs libretro cores loaded from shared libraries.
// Every raw pointer of the native API stays inside this package,
// the callbacks are handed over to the bridge as typed values.
package nanoarch

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/emulator/libretro/bridge"
	"github.com/emuka/emuka/pkg/logger"
)

/*
#include "libretro.h"
#include <stdlib.h>
#include <stdint.h>

void bridge_retro_init(void *f);
void bridge_retro_deinit(void *f);
unsigned bridge_retro_api_version(void *f);
void bridge_retro_get_system_info(void *f, struct retro_system_info *si);
void bridge_retro_get_system_av_info(void *f, struct retro_system_av_info *si);
void bridge_retro_set_environment(void *f, void *callback);
void bridge_retro_set_video_refresh(void *f, void *callback);
void bridge_retro_set_input_poll(void *f, void *callback);
void bridge_retro_set_input_state(void *f, void *callback);
void bridge_retro_set_audio_sample(void *f, void *callback);
void bridge_retro_set_audio_sample_batch(void *f, void *callback);
bool bridge_retro_load_game(void *f, struct retro_game_info *gi);
void bridge_retro_unload_game(void *f);
void bridge_retro_run(void *f);

void bridge_emuka_set_audio_frequency(void *f, unsigned frequency);
void bridge_emuka_battery(void *f, const char *path);
bool bridge_emuka_evaluate(void *f, const char *expr, char *out, size_t size);
bool bridge_emuka_run_stealth(void *f, uint32_t jump, const char **names, uint32_t *values, size_t count);

bool coreEnvironment_cgo(unsigned cmd, void *data);
void coreVideoRefresh_cgo(void *data, unsigned width, unsigned height, size_t pitch);
void coreInputPoll_cgo();
void coreAudioSample_cgo(int16_t left, int16_t right);
size_t coreAudioSampleBatch_cgo(const int16_t *data, size_t frames);
int16_t coreInputState_cgo(unsigned port, unsigned device, unsigned index, unsigned id);
*/
import "C"

// evalBufferSize is the max length of an evaluated expression result.
const evalBufferSize = 4096

var (
	ErrNoExtension = errors.New("the core doesn't have the emuka extension")
	ErrLoadGame    = errors.New("the core couldn't load the game")
)

// active is the core that receives the callbacks,
// libretro callbacks don't carry any user data.
var active atomic.Pointer[Core]

type symbols struct {
	init, deinit, apiVersion            unsafe.Pointer
	systemInfo, systemAvInfo            unsafe.Pointer
	setEnvironment, setVideoRefresh     unsafe.Pointer
	setInputPoll, setInputState         unsafe.Pointer
	setAudioSample, setAudioSampleBatch unsafe.Pointer
	loadGame, unloadGame, run           unsafe.Pointer
	setAudioFrequency, loadBattery      unsafe.Pointer
	saveBattery, evaluate, runStealth   unsafe.Pointer
}

// Core is a loaded libretro core.
// It's not safe for concurrent use, the emulator calls it
// from one goroutine.
type Core struct {
	handle unsafe.Pointer
	fn     symbols
	bridge *bridge.Bridge
	log    *logger.Logger

	name      string
	version   string
	fps       float64
	frequency int

	// C strings handed to the core, they live until Close
	strings  map[string]*C.char
	gamePath *C.char
	gameData unsafe.Pointer
}

type Options struct {
	// FrameRate is used until a game reports its own.
	FrameRate float64
	// AudioFrequency is set with the emuka extension, 0 skips it.
	AudioFrequency int
}

// Load opens the core library, binds the callbacks to b and initializes it.
// Only one core can be active in a process.
func Load(path string, b *bridge.Bridge, opts Options, log *logger.Logger) (*Core, error) {
	log = log.Module("core")
	handle, err := loadLib(path)
	if err != nil {
		log.Warn().Err(err).Msg("rolling the lib names")
		if handle, err = loadLibRolling(path); err != nil {
			return nil, fmt.Errorf("core %v: %w", path, err)
		}
	}

	c := &Core{
		handle:    handle,
		bridge:    b,
		log:       log,
		fps:       opts.FrameRate,
		frequency: opts.AudioFrequency,
		strings:   map[string]*C.char{},
	}
	if err = c.bind(); err != nil {
		_ = closeLib(handle)
		return nil, fmt.Errorf("core %v: %w", path, err)
	}
	if !active.CompareAndSwap(nil, c) {
		_ = closeLib(handle)
		return nil, errors.New("another core is already active")
	}

	if v := uint(C.bridge_retro_api_version(c.fn.apiVersion)); v != C.RETRO_API_VERSION {
		log.Warn().Msgf("core API version %v, want %v", v, C.RETRO_API_VERSION)
	}

	var si C.struct_retro_system_info
	C.bridge_retro_get_system_info(c.fn.systemInfo, &si)
	c.name, c.version = C.GoString(si.library_name), C.GoString(si.library_version)

	C.bridge_retro_set_environment(c.fn.setEnvironment, C.coreEnvironment_cgo)
	C.bridge_retro_set_video_refresh(c.fn.setVideoRefresh, C.coreVideoRefresh_cgo)
	C.bridge_retro_set_input_poll(c.fn.setInputPoll, C.coreInputPoll_cgo)
	C.bridge_retro_set_input_state(c.fn.setInputState, C.coreInputState_cgo)
	C.bridge_retro_set_audio_sample(c.fn.setAudioSample, C.coreAudioSample_cgo)
	C.bridge_retro_set_audio_sample_batch(c.fn.setAudioSampleBatch, C.coreAudioSampleBatch_cgo)

	if c.frequency > 0 && c.fn.setAudioFrequency != nil {
		C.bridge_emuka_set_audio_frequency(c.fn.setAudioFrequency, C.unsigned(c.frequency))
	}
	C.bridge_retro_init(c.fn.init)

	log.Info().Str("core", c.name).Str("version", c.version).Msg("core loaded")
	return c, nil
}

func (c *Core) bind() error {
	required := []struct {
		name string
		ptr  *unsafe.Pointer
	}{
		{"retro_init", &c.fn.init},
		{"retro_deinit", &c.fn.deinit},
		{"retro_api_version", &c.fn.apiVersion},
		{"retro_get_system_info", &c.fn.systemInfo},
		{"retro_get_system_av_info", &c.fn.systemAvInfo},
		{"retro_set_environment", &c.fn.setEnvironment},
		{"retro_set_video_refresh", &c.fn.setVideoRefresh},
		{"retro_set_input_poll", &c.fn.setInputPoll},
		{"retro_set_input_state", &c.fn.setInputState},
		{"retro_set_audio_sample", &c.fn.setAudioSample},
		{"retro_set_audio_sample_batch", &c.fn.setAudioSampleBatch},
		{"retro_load_game", &c.fn.loadGame},
		{"retro_unload_game", &c.fn.unloadGame},
		{"retro_run", &c.fn.run},
	}
	for _, s := range required {
		if *s.ptr = loadFunction(c.handle, s.name); *s.ptr == nil {
			return fmt.Errorf("no %v symbol", s.name)
		}
	}

	optional := []struct {
		name string
		ptr  *unsafe.Pointer
	}{
		{"emuka_set_audio_frequency", &c.fn.setAudioFrequency},
		{"emuka_load_battery", &c.fn.loadBattery},
		{"emuka_save_battery", &c.fn.saveBattery},
		{"emuka_evaluate", &c.fn.evaluate},
		{"emuka_run_stealth", &c.fn.runStealth},
	}
	for _, s := range optional {
		if *s.ptr = loadFunction(c.handle, s.name); *s.ptr == nil {
			c.log.Debug().Msgf("no %v extension", s.name)
		}
	}
	return nil
}

func (c *Core) Name() string { return c.name }

func (c *Core) LoadGame(path string) error {
	if c.gamePath != nil {
		C.bridge_retro_unload_game(c.fn.unloadGame)
		c.freeGame()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	c.gamePath = C.CString(path)
	gi := C.struct_retro_game_info{path: c.gamePath}
	if len(data) > 0 {
		c.gameData = C.CBytes(data)
		gi.data, gi.size = c.gameData, C.size_t(len(data))
	}
	if !bool(C.bridge_retro_load_game(c.fn.loadGame, &gi)) {
		c.freeGame()
		return ErrLoadGame
	}

	var av C.struct_retro_system_av_info
	C.bridge_retro_get_system_av_info(c.fn.systemAvInfo, &av)
	if fps := float64(av.timing.fps); fps > 0 {
		c.fps = fps
	}
	c.log.Debug().
		Float64("fps", c.fps).
		Float64("sample_rate", float64(av.timing.sample_rate)).
		Msgf("geometry %vx%v", av.geometry.base_width, av.geometry.base_height)
	return nil
}

func (c *Core) UnloadGame() {
	C.bridge_retro_unload_game(c.fn.unloadGame)
	c.freeGame()
	c.bridge.ClearScreen()
}

func (c *Core) freeGame() {
	if c.gamePath != nil {
		C.free(unsafe.Pointer(c.gamePath))
		c.gamePath = nil
	}
	if c.gameData != nil {
		C.free(c.gameData)
		c.gameData = nil
	}
}

func (c *Core) LoadSave(path string) error { return c.battery(c.fn.loadBattery, path) }

func (c *Core) SaveTo(path string) error { return c.battery(c.fn.saveBattery, path) }

func (c *Core) battery(fn unsafe.Pointer, path string) error {
	if fn == nil {
		return ErrNoExtension
	}
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))
	C.bridge_emuka_battery(fn, cs)
	return nil
}

func (c *Core) Run() { C.bridge_retro_run(c.fn.run) }

func (c *Core) Evaluate(expr string) (string, bool) {
	if c.fn.evaluate == nil {
		return "", false
	}
	cs := C.CString(expr)
	defer C.free(unsafe.Pointer(cs))
	out := (*C.char)(C.calloc(evalBufferSize, 1))
	defer C.free(unsafe.Pointer(out))

	if !bool(C.bridge_emuka_evaluate(c.fn.evaluate, cs, out, evalBufferSize)) {
		return "", false
	}
	return C.GoString(out), true
}

func (c *Core) RunStealth(jump uint32, vars map[string]uint32) (map[string]uint32, bool) {
	if c.fn.runStealth == nil {
		return vars, false
	}
	n := len(vars)
	if n == 0 {
		ok := bool(C.bridge_emuka_run_stealth(c.fn.runStealth, C.uint32_t(jump), nil, nil, 0))
		return vars, ok
	}

	names := (*[1 << 20]*C.char)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(uintptr(0)))))[:n:n]
	values := (*[1 << 20]C.uint32_t)(C.calloc(C.size_t(n), 4))[:n:n]
	defer C.free(unsafe.Pointer(&names[0]))
	defer C.free(unsafe.Pointer(&values[0]))

	keys := make([]string, 0, n)
	for k, v := range vars {
		i := len(keys)
		keys = append(keys, k)
		names[i] = C.CString(k)
		values[i] = C.uint32_t(v)
	}
	defer func() {
		for _, s := range names {
			C.free(unsafe.Pointer(s))
		}
	}()

	ok := bool(C.bridge_emuka_run_stealth(c.fn.runStealth, C.uint32_t(jump), &names[0], &values[0], C.size_t(n)))
	out := make(map[string]uint32, n)
	for i, k := range keys {
		out[k] = uint32(values[i])
	}
	return out, ok
}

func (c *Core) FrameRate() float64 { return c.fps }

func (c *Core) Deinit() { C.bridge_retro_deinit(c.fn.deinit) }

// Close unloads the library, the core can't be used after.
func (c *Core) Close() error {
	active.CompareAndSwap(c, nil)
	c.freeGame()
	for k, s := range c.strings {
		C.free(unsafe.Pointer(s))
		delete(c.strings, k)
	}
	err := closeLib(c.handle)
	c.handle = nil
	return err
}

// cstr returns a C copy of s that stays valid until Close.
func (c *Core) cstr(s string) *C.char {
	if cs, ok := c.strings[s]; ok {
		return cs
	}
	cs := C.CString(s)
	c.strings[s] = cs
	return cs
}

var _ emulator.Core = (*Core)(nil)

//export coreEnvironment
func coreEnvironment(cmd C.unsigned, data unsafe.Pointer) C.bool {
	c := active.Load()
	if c == nil {
		return false
	}
	return C.bool(c.bridge.Environment(uint32(cmd), envCodec{core: c, data: data}))
}

//export coreVideoRefresh
func coreVideoRefresh(data unsafe.Pointer, width C.unsigned, height C.unsigned, pitch C.size_t) {
	c := active.Load()
	if c == nil {
		return
	}
	f := bridge.Frame{Width: int(width), Height: int(height), Pitch: int(pitch)}
	if data != nil && height > 0 {
		f.Data = unsafe.Slice((*byte)(data), int(pitch)*int(height))
	}
	c.bridge.VideoRefresh(f)
}

//export coreInputPoll
func coreInputPoll() {
	if c := active.Load(); c != nil {
		c.bridge.InputPoll()
	}
}

//export coreInputState
func coreInputState(port C.unsigned, device C.unsigned, index C.unsigned, id C.unsigned) C.int16_t {
	c := active.Load()
	if c == nil || port != 0 || index != 0 || device != C.RETRO_DEVICE_JOYPAD {
		return 0
	}
	mask := c.bridge.InputState()
	if id == C.RETRO_DEVICE_ID_JOYPAD_MASK {
		return C.int16_t(mask)
	}
	if id > 15 {
		return 0
	}
	return C.int16_t(mask >> uint(id) & 1)
}

//export coreAudioSample
func coreAudioSample(left C.int16_t, right C.int16_t) {
	if c := active.Load(); c != nil {
		c.bridge.AudioSample(int16(left), int16(right))
	}
}

//export coreAudioSampleBatch
func coreAudioSampleBatch(data unsafe.Pointer, frames C.size_t) C.size_t {
	c := active.Load()
	if c == nil || data == nil {
		return frames
	}
	pcm := unsafe.Slice((*int16)(data), int(frames)*2)
	for i := 0; i < len(pcm); i += 2 {
		c.bridge.AudioSample(pcm[i], pcm[i+1])
	}
	return frames
}
