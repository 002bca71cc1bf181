package bridge

import "sync"

type (
	// EnvironmentHandler answers a core environment request,
	// it may change the payload and returns true when the request is served.
	EnvironmentHandler  func(env Environment) bool
	InputPollHandler    func()
	InputStateHandler   func() uint16
	AudioSampleHandler  func(left, right int16)
	VideoRefreshHandler func(width, height int)
)

// slot holds one callback handler, replacing and
// reading it are guarded independently of the calls.
type slot[T any] struct {
	mu  sync.RWMutex
	h   T
	set bool
}

func (s *slot[T]) store(h T) {
	s.mu.Lock()
	s.h, s.set = h, true
	s.mu.Unlock()
}

func (s *slot[T]) load() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.h, s.set
}

// Registry keeps the handlers of the five libretro callbacks.
type Registry struct {
	environment  slot[EnvironmentHandler]
	inputPoll    slot[InputPollHandler]
	inputState   slot[InputStateHandler]
	audioSample  slot[AudioSampleHandler]
	videoRefresh slot[VideoRefreshHandler]
}

func (r *Registry) SetEnvironment(h EnvironmentHandler)   { r.environment.store(h) }
func (r *Registry) SetInputPoll(h InputPollHandler)       { r.inputPoll.store(h) }
func (r *Registry) SetInputState(h InputStateHandler)     { r.inputState.store(h) }
func (r *Registry) SetAudioSample(h AudioSampleHandler)   { r.audioSample.store(h) }
func (r *Registry) SetVideoRefresh(h VideoRefreshHandler) { r.videoRefresh.store(h) }
