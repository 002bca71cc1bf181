package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/emuka/emuka/pkg/api"
	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/game"
	"github.com/emuka/emuka/pkg/games"
	"github.com/emuka/emuka/pkg/network/websocket"
	"github.com/gofrs/uuid"
	"golang.org/x/image/draw"
)

const maxScale = 8

var (
	ErrNoLibrary  = errors.New("no game library")
	ErrNoRecorder = errors.New("no audio recorder")
)

func (s *Server) loadGame(w http.ResponseWriter, r *http.Request) {
	var req api.GameLoadRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.load(w, req.Path)
}

func (s *Server) loadLibraryGame(w http.ResponseWriter, r *http.Request) {
	if s.lib == nil {
		s.fail(w, http.StatusNotFound, ErrNoLibrary)
		return
	}
	name := r.PathValue("name")
	meta, ok := s.lib.FindGameByName(name)
	if !ok {
		s.fail(w, http.StatusNotFound, fmt.Errorf("no game %q", name))
		return
	}
	s.load(w, s.lib.FullPath(meta))
}

func (s *Server) load(w http.ResponseWriter, path string) {
	g, err := game.NewFileGame(path, s.extensions...)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.log.Info().Msgf("load game %v", g.Name())
	s.emu.Submit(emulator.LoadGame{Game: g})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listGames(w http.ResponseWriter, _ *http.Request) {
	list := []games.GameMetadata{}
	if s.lib != nil {
		list = s.lib.GetAll()
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) loadSave(w http.ResponseWriter, r *http.Request) {
	var req api.SaveLoadRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	save, err := game.NewFileSave(req.Path)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.emu.Submit(emulator.LoadSave{Save: save})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) input(w http.ResponseWriter, r *http.Request) {
	var req api.InputRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	s.emu.Submit(emulator.Input{Button: req.Input, Pressed: req.Pressed})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) screen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.query(r)
	defer cancel()
	screen, err := emulator.ScreenOf(ctx, s.emu)
	if err != nil {
		s.failQuery(w, err)
		return
	}
	var buf bytes.Buffer
	if err = api.EncodeScreen(&buf, api.NewScreenRecord(screen)); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", api.AvroContentType)
	_, _ = w.Write(buf.Bytes())
}

// screenPNG answers the screen as a PNG image,
// the scale query param enlarges it with the nearest neighbor.
func (s *Server) screenPNG(w http.ResponseWriter, r *http.Request) {
	scale := 1
	if v := r.URL.Query().Get("scale"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxScale {
			s.fail(w, http.StatusBadRequest, fmt.Errorf("scale should be 1..%v", maxScale))
			return
		}
		scale = n
	}

	ctx, cancel := s.query(r)
	defer cancel()
	screen, err := emulator.ScreenOf(ctx, s.emu)
	if err != nil {
		s.failQuery(w, err)
		return
	}
	if !screen.Ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var img image.Image = screen.Value.Image()
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, screen.Value.Width*scale, screen.Value.Height*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err = png.Encode(&buf, img); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) registerAudio(w http.ResponseWriter, _ *http.Request) {
	id := s.audio.Register()
	s.log.Debug().Msgf("audio consumer %v", id)
	s.writeJSON(w, http.StatusOK, api.AudioRegisterResponse{Id: id})
}

// audioSamples drains the consumer queue,
// unknown consumers get no samples.
func (s *Server) audioSamples(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	samples, _ := s.audio.Drain(id)
	var buf bytes.Buffer
	if err = api.EncodeAudio(&buf, api.NewAudioRecord(samples)); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", api.AvroContentType)
	_, _ = w.Write(buf.Bytes())
}

// audioStream pushes the samples to a websocket client,
// the consumer lives as long as the connection.
func (s *Server) audioStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Upgrade(w, r, s.log)
	if err != nil {
		s.log.Warn().Err(err).Msg("audio stream")
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()

	id := s.audio.Register()
	defer s.audio.Unregister(id)
	log := s.log.Extend(s.log.With().Str("consumer", id.String()))
	log.Debug().Msg("audio stream")

	t := time.NewTicker(streamPeriod)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			samples, _ := s.audio.Drain(id)
			if len(samples) == 0 {
				continue
			}
			if err = conn.WriteBinary(samples.Bytes()); err != nil {
				log.Debug().Err(err).Msg("audio stream")
				return
			}
		case <-conn.Done():
			log.Debug().Msg("audio stream has ended")
			return
		case <-s.done:
			_ = conn.Close()
			return
		}
	}
}

func (s *Server) startRecording(w http.ResponseWriter, r *http.Request) {
	if s.rec == nil {
		s.fail(w, http.StatusNotFound, ErrNoRecorder)
		return
	}
	var req api.RecordRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	if err := s.rec.Start(req.Path); err != nil {
		s.fail(w, http.StatusConflict, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RecordResponse{Path: req.Path})
}

func (s *Server) stopRecording(w http.ResponseWriter, _ *http.Request) {
	if s.rec == nil {
		s.fail(w, http.StatusNotFound, ErrNoRecorder)
		return
	}
	path, err := s.rec.Stop()
	if err != nil {
		s.fail(w, http.StatusConflict, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RecordResponse{Path: path})
}

func (s *Server) readMemory(w http.ResponseWriter, r *http.Request) {
	s.memory(w, r, emulator.ReadMemoryOf)
}

func (s *Server) writeMemory(w http.ResponseWriter, r *http.Request) {
	s.memory(w, r, emulator.WriteMemoryOf)
}

type memoryQuery = func(context.Context, emulator.Submitter, string) (emulator.Maybe[string], error)

func (s *Server) memory(w http.ResponseWriter, r *http.Request, query memoryQuery) {
	var req api.MemoryRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.query(r)
	defer cancel()
	v, err := query(ctx, s.emu, req.Expr)
	if err != nil {
		s.failQuery(w, err)
		return
	}
	var res api.MemoryResponse
	if v.Ok {
		res.Value = &v.Value
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) stealth(w http.ResponseWriter, r *http.Request) {
	var req api.StealthRequest
	if err := decode(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	ctx, cancel := s.query(r)
	defer cancel()
	res, err := emulator.RunStealthOf(ctx, s.emu, req.Jump, req.State)
	if err != nil {
		s.failQuery(w, err)
		return
	}
	switch {
	case errors.Is(res.Err, emulator.ErrNotRunning):
		s.fail(w, http.StatusBadRequest, res.Err)
	case res.Err != nil:
		s.fail(w, http.StatusServiceUnavailable, res.Err)
	default:
		s.writeJSON(w, http.StatusOK, api.StealthResponse{State: res.State, Ok: true})
	}
}

func (s *Server) burst(w http.ResponseWriter, r *http.Request) {
	var ops []api.BurstOp
	if err := decode(w, r, &ops); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	cmds := make([]emulator.Command, len(ops))
	for i, op := range ops {
		cmds[i] = op.Command()
	}
	ctx, cancel := s.query(r)
	defer cancel()
	results, err := emulator.BurstOf(ctx, s.emu, cmds)
	if err != nil {
		s.failQuery(w, err)
		return
	}
	out := make([]api.BurstResult, len(results))
	for i, res := range results {
		out[i] = api.NewBurstResult(ops[i], res)
	}
	s.writeJSON(w, http.StatusOK, out)
}
