package server

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emuka/emuka/pkg/api"
	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/config"
	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/games"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmu answers the queries right away.
type fakeEmu struct {
	mu      sync.Mutex
	cmds    []emulator.Command
	screen  emulator.Maybe[emulator.ScreenData]
	running bool
}

func (f *fakeEmu) Submit(cmd emulator.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)

	switch c := cmd.(type) {
	case emulator.GetScreenData:
		c.Reply <- f.screen
	case emulator.ReadMemory:
		if emulator.IsAssignment(c.Expr) {
			c.Reply <- emulator.Maybe[string]{}
		} else {
			c.Reply <- emulator.Some("0x42")
		}
	case emulator.WriteMemory:
		if emulator.IsAssignment(c.Expr) {
			c.Reply <- emulator.Some(c.Expr)
		} else {
			c.Reply <- emulator.Maybe[string]{}
		}
	case emulator.RunStealth:
		if !f.running {
			c.Reply <- emulator.StealthResult{Err: emulator.ErrNotRunning}
			return
		}
		state := map[string]uint32{}
		for k, v := range c.State {
			state[k] = v + 1
		}
		c.Reply <- emulator.StealthResult{State: state}
	case emulator.Burst:
		out := make([]emulator.BurstResult, len(c.Ops))
		for i, op := range c.Ops {
			switch op.(type) {
			case emulator.ReadMemory:
				out[i] = emulator.BurstResult{Ok: true, Value: "1"}
			case emulator.RunFrame:
				out[i] = emulator.BurstResult{Ok: true}
			}
		}
		c.Reply <- out
	}
}

func (f *fakeEmu) last() emulator.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cmds) == 0 {
		return nil
	}
	return f.cmds[len(f.cmds)-1]
}

type fakeRecorder struct {
	path string
}

func (r *fakeRecorder) Start(path string) error {
	if r.path != "" {
		return assert.AnError
	}
	r.path = path
	return nil
}

func (r *fakeRecorder) Stop() (string, error) {
	p := r.path
	r.path = ""
	return p, nil
}

type testServer struct {
	emu  *fakeEmu
	dist *audio.Distributor
	srv  *Server
	h    http.Handler
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	emu := &fakeEmu{}
	dist := audio.NewDistributor()
	srv := New(emu, dist, logger.Discard(), opts...)
	return &testServer{emu: emu, dist: dist, srv: srv, h: srv.Handler()}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.h.ServeHTTP(w, r)
	return w
}

func writeFile(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoadGame(t *testing.T) {
	ts := newTestServer(t)
	path := writeFile(t, "tetris.gb", []byte{1, 2, 3})

	for _, prefix := range Prefixes {
		w := ts.do(http.MethodPost, prefix+"/game/load", `{"path":"`+path+`"}`)
		require.Equal(t, http.StatusOK, w.Code)
		cmd, ok := ts.emu.last().(emulator.LoadGame)
		require.True(t, ok)
		assert.Equal(t, []byte{1, 2, 3}, cmd.Game.Data())
	}

	w := ts.do(http.MethodPost, "/api/game/load", `{"path":"/no/such/game.gb"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/api/game/load", `{"path":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyLimit(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/game/load", `{"path":"`+strings.Repeat("a", maxBodySize)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, ts.emu.last())
}

func TestLibraryGames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Tetris.gb"), []byte{7}, 0644))
	lib, err := games.NewLib(config.Library{BasePath: dir, Supported: []string{"gb"}}, logger.Discard())
	require.NoError(t, err)
	lib.Scan()

	ts := newTestServer(t, WithLibrary(lib))

	w := ts.do(http.MethodGet, "/api/v1/games", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []games.GameMetadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Tetris", list[0].Name)

	w = ts.do(http.MethodPost, "/api/game/load/Tetris", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.IsType(t, emulator.LoadGame{}, ts.emu.last())

	w = ts.do(http.MethodPost, "/api/game/load/Zelda", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNoLibrary(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/api/games", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/api/game/load/Tetris", "").Code)
}

func TestSimpleCommands(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		path string
		cmd  emulator.Command
	}{
		{"/api/game/unload", emulator.UnloadGame{}},
		{"/api/save/save", emulator.Save{}},
		{"/api/resume", emulator.Resume{}},
		{"/api/v1/pause", emulator.Pause{}},
	}
	for _, test := range tests {
		w := ts.do(http.MethodGet, test.path, "")
		assert.Equal(t, http.StatusOK, w.Code, test.path)
		assert.Equal(t, test.cmd, ts.emu.last(), test.path)
	}
}

func TestLoadSave(t *testing.T) {
	ts := newTestServer(t)
	path := writeFile(t, "tetris.sav", []byte{9})

	w := ts.do(http.MethodPost, "/api/save/load", `{"path":"`+path+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cmd, ok := ts.emu.last().(emulator.LoadSave)
	require.True(t, ok)
	assert.True(t, cmd.Save.CanWrite())

	w = ts.do(http.MethodPost, "/api/save/load", `{"path":"/no/such.sav"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInput(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/input", `{"input":"start","pressed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, emulator.Input{Button: emulator.ButtonStart, Pressed: true}, ts.emu.last())

	w = ts.do(http.MethodPost, "/api/input", `{"input":"turbo","pressed":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreen(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/screen", "")
	require.Equal(t, http.StatusOK, w.Code)
	rec, err := api.DecodeScreen(w.Body)
	require.NoError(t, err)
	assert.Empty(t, rec.Data)

	ts.emu.screen = emulator.Some(emulator.ScreenData{Width: 1, Height: 1, Pixels: []uint32{0x112233}})
	w = ts.do(http.MethodGet, "/api/screen", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, api.AvroContentType, w.Header().Get("Content-Type"))
	rec, err = api.DecodeScreen(w.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0xff}, rec.Data)
}

func TestScreenPNG(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodGet, "/api/screen.png", "").Code)

	ts.emu.screen = emulator.Some(emulator.ScreenData{Width: 2, Height: 1, Pixels: []uint32{0xff0000, 0x00ff00}})
	w := ts.do(http.MethodGet, "/api/screen.png?scale=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	r, g, _, _ := img.At(5, 2).RGBA()
	assert.Zero(t, r)
	assert.Equal(t, uint32(0xffff), g)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/screen.png?scale=100", "").Code)
}

func TestAudio(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/audio/register", "")
	require.Equal(t, http.StatusOK, w.Code)
	var reg api.AudioRegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))

	ts.dist.Push(audio.Sample{Left: 1, Right: 2})
	ts.dist.Push(audio.Sample{Left: 3, Right: 4})

	w = ts.do(http.MethodGet, "/api/audio/get/"+reg.Id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	rec, err := api.DecodeAudio(w.Body)
	require.NoError(t, err)
	assert.Equal(t, audio.Samples{{Left: 1, Right: 2}, {Left: 3, Right: 4}}, rec.Samples())

	w = ts.do(http.MethodGet, "/api/audio/get/"+reg.Id.String(), "")
	rec, err = api.DecodeAudio(w.Body)
	require.NoError(t, err)
	assert.Empty(t, rec.Data, "drained")

	w = ts.do(http.MethodGet, "/api/audio/get/6ba7b810-9dad-11d1-80b4-00c04fd430c8", "")
	require.Equal(t, http.StatusOK, w.Code)
	rec, err = api.DecodeAudio(w.Body)
	require.NoError(t, err)
	assert.Empty(t, rec.Data, "unknown consumer")

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/audio/get/xyz", "").Code)
}

func TestRecording(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/audio/record/stop", "").Code)

	ts = newTestServer(t, WithRecorder(&fakeRecorder{}))
	w := ts.do(http.MethodPost, "/api/audio/record", `{"path":"a.wav"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(http.MethodPost, "/api/audio/record", `{"path":"b.wav"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = ts.do(http.MethodGet, "/api/audio/record/stop", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"path":"a.wav"}`, w.Body.String())
}

func TestMemory(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/memory/read", `{"expr":"[$ff00]"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":"0x42"}`, w.Body.String())

	w = ts.do(http.MethodPost, "/api/memory/read", `{"expr":"[$ff00] = 1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":null}`, w.Body.String())

	w = ts.do(http.MethodPost, "/api/memory/write", `{"expr":"a == 1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":null}`, w.Body.String())
}

func TestStealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/stealth", `{"jump":256,"state":{"a":1}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.emu.running = true
	w = ts.do(http.MethodPost, "/api/stealth", `{"jump":256,"state":{"a":1}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res api.StealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, map[string]uint32{"a": 2}, res.State)
}

func TestBurst(t *testing.T) {
	ts := newTestServer(t)

	body := `[{"op":"read","expr":"a"},{"op":"frame"},{"op":"teleport"}]`
	w := ts.do(http.MethodPost, "/api/burst", body)
	require.Equal(t, http.StatusOK, w.Code)
	var out []api.BurstResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 3)
	require.NotNil(t, out[0].Value)
	assert.Equal(t, "1", *out[0].Value)
	assert.True(t, out[1].Ok)
	assert.False(t, out[2].Ok)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)
	r := httptest.NewRequest(http.MethodOptions, "/api/memory/read", nil)
	r.Header.Set("Origin", "http://example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.h.ServeHTTP(w, r)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/v2/pause", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, ts.do(http.MethodPost, "/api/pause", "").Code)
}

func TestAudioStream(t *testing.T) {
	ts := newTestServer(t)
	hs := httptest.NewServer(ts.h)
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/api/v1/audio/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ts.dist.Consumers() == 1 }, time.Second, time.Millisecond)

	ts.dist.Push(audio.Sample{Left: 1, Right: -1})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, []byte{1, 0, 0xff, 0xff}, data)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return ts.dist.Consumers() == 0 }, 2*time.Second, time.Millisecond)
	assert.NoError(t, ts.srv.Shutdown(context.Background()))
}
