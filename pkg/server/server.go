// Package server is the HTTP API of the emulator.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emuka/emuka/pkg/api"
	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/emulator"
	"github.com/emuka/emuka/pkg/games"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/rs/cors"
)

const (
	// max size of the JSON request bodies
	maxBodySize = 16 * 1024
	// how long a query waits for the emulator
	defaultTimeout = 10 * time.Second
	// how often the audio streams are flushed
	streamPeriod = 10 * time.Millisecond
)

// Prefixes are the API paths, each one serves the same routes.
var Prefixes = []string{"/api", "/api/v1"}

// Recorder captures the audio into a file.
type Recorder interface {
	Start(path string) error
	Stop() (string, error)
}

type Server struct {
	emu   emulator.Submitter
	audio *audio.Distributor

	lib        *games.Library
	rec        Recorder
	extensions []string
	origins    []string
	timeout    time.Duration

	// closed on shutdown to end the long-living streams
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	log *logger.Logger
}

type Option func(*Server)

func WithLibrary(lib *games.Library) Option { return func(s *Server) { s.lib = lib } }
func WithRecorder(rec Recorder) Option      { return func(s *Server) { s.rec = rec } }

// WithExtensions sets the ROM file extensions looked for in archives.
func WithExtensions(ext []string) Option  { return func(s *Server) { s.extensions = ext } }
func WithOrigins(origins []string) Option { return func(s *Server) { s.origins = origins } }
func WithTimeout(t time.Duration) Option  { return func(s *Server) { s.timeout = t } }

func New(emu emulator.Submitter, dist *audio.Distributor, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		emu:     emu,
		audio:   dist,
		timeout: defaultTimeout,
		done:    make(chan struct{}),
		log:     log.Module("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes with CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, prefix := range Prefixes {
		s.routes(mux, prefix)
	}
	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)
}

func (s *Server) routes(mux *http.ServeMux, prefix string) {
	h := func(pattern string, fn http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(method+" "+prefix+path, fn)
	}

	h("POST /game/load", s.loadGame)
	h("POST /game/load/{name}", s.loadLibraryGame)
	h("GET /game/unload", s.command(emulator.UnloadGame{}))
	h("GET /games", s.listGames)

	h("POST /save/load", s.loadSave)
	h("GET /save/save", s.command(emulator.Save{}))

	h("GET /resume", s.command(emulator.Resume{}))
	h("GET /pause", s.command(emulator.Pause{}))
	h("POST /input", s.input)

	h("GET /screen", s.screen)
	h("GET /screen.png", s.screenPNG)

	h("GET /audio/register", s.registerAudio)
	h("GET /audio/get/{id}", s.audioSamples)
	h("GET /audio/ws", s.audioStream)
	h("POST /audio/record", s.startRecording)
	h("GET /audio/record/stop", s.stopRecording)

	h("POST /memory/read", s.readMemory)
	h("POST /memory/write", s.writeMemory)
	h("POST /stealth", s.stealth)
	h("POST /burst", s.burst)
}

// Run does nothing, the routes are served by the HTTP server.
func (s *Server) Run() {}

// Shutdown ends the audio streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.done) })
	wait := make(chan struct{})
	go func() { s.wg.Wait(); close(wait) }()
	select {
	case <-wait:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) String() string { return "api" }

// command makes a handler that fires cmd and answers right away.
func (s *Server) command(cmd emulator.Command) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.emu.Submit(cmd)
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) query(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	return dec.Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("json response")
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.log.Debug().Err(err).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, api.ErrorResponse{Error: err.Error()})
}

// failQuery answers the error of a query that has not got its reply.
func (s *Server) failQuery(w http.ResponseWriter, err error) {
	status := http.StatusServiceUnavailable
	if errors.Is(err, context.Canceled) {
		// the client is gone
		status = http.StatusRequestTimeout
	}
	s.fail(w, status, err)
}
