package libretro

import (
	"path/filepath"
	"testing"

	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/config"
	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/emulator/libretro/bridge"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// codec is an in-memory payload codec,
// it plays the part of the native data pointer.
type codec struct {
	key    string
	format int
	out    bridge.Payload
}

func (c *codec) Decode(r bridge.Request) (bridge.Payload, error) {
	p := bridge.PayloadFor(r)
	switch v := p.(type) {
	case *bridge.Variable:
		v.Key = c.key
	case *bridge.IntSlot:
		v.Value = c.format
	}
	return p, nil
}

func (c *codec) Encode(_ bridge.Request, p bridge.Payload) error {
	c.out = p
	return nil
}

func newFrontend(t *testing.T) (*Frontend, *bridge.Bridge, *emulator.Joypad, *audio.Distributor) {
	dir := t.TempDir()
	conf := config.Emulator{
		SystemDir: filepath.Join(dir, "system"),
		SaveDir:   filepath.Join(dir, "saves"),
		Options:   map[string]string{"sameboy_model": "Game Boy Color"},
	}
	joypad := &emulator.Joypad{}
	dist := audio.NewDistributor()
	f, err := NewFrontend(conf, joypad, dist, logger.Discard())
	require.NoError(t, err)
	b := bridge.New(logger.Discard())
	f.Attach(b)
	return f, b, joypad, dist
}

func TestNewFrontendCreatesDirs(t *testing.T) {
	f, _, _, _ := newFrontend(t)
	assert.DirExists(t, f.systemDir)
	assert.DirExists(t, f.saveDir)
	assert.True(t, filepath.IsAbs(f.saveDir))
}

func TestVariables(t *testing.T) {
	_, b, _, _ := newFrontend(t)

	c := &codec{key: "sameboy_model"}
	require.True(t, b.Environment(bridge.EnvGetVariable, c))
	v := c.out.(*bridge.Variable)
	assert.Equal(t, "Game Boy Color", v.Value)

	c = &codec{key: "sameboy_rtc"}
	assert.False(t, b.Environment(bridge.EnvGetVariable, c))
	assert.Nil(t, c.out)
}

func TestDirectories(t *testing.T) {
	f, b, _, _ := newFrontend(t)

	c := &codec{}
	require.True(t, b.Environment(bridge.EnvGetSystemDirectory, c))
	assert.Equal(t, f.systemDir, c.out.(*bridge.StringSlot).Value)

	c = &codec{}
	require.True(t, b.Environment(bridge.EnvGetSaveDirectory, c))
	assert.Equal(t, f.saveDir, c.out.(*bridge.StringSlot).Value)
}

func TestPixelFormat(t *testing.T) {
	_, b, _, _ := newFrontend(t)

	assert.True(t, b.Environment(bridge.EnvSetPixelFormat, &codec{format: PixelFormatXRGB8888}))
	assert.False(t, b.Environment(bridge.EnvSetPixelFormat, &codec{format: 2}))
	assert.True(t, b.Environment(bridge.EnvGetInputBitmasks, &codec{}))
}

func TestInputAndAudio(t *testing.T) {
	_, b, joypad, dist := newFrontend(t)

	joypad.Set(emulator.ButtonA, true)
	joypad.Set(emulator.ButtonStart, true)
	assert.Equal(t, uint16(1<<8|1<<3), b.InputState())

	id := dist.Register()
	b.AudioSample(3, -3)
	samples, ok := dist.Drain(id)
	require.True(t, ok)
	assert.Equal(t, audio.Samples{{Left: 3, Right: -3}}, samples)
}
