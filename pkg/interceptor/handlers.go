package interceptor

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/codysoyland/methodhooks/pkg/hook"
)

// Recorder keeps every request it handles, in order.
type Recorder struct {
	name string

	mu       sync.Mutex
	requests []*hook.Request
}

// NewRecorder creates an empty recorder.
func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

func (r *Recorder) Name() string { return r.name }

// Handle appends req.
func (r *Recorder) Handle(req *hook.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

// Requests returns a copy of the recorded requests.
func (r *Recorder) Requests() []*hook.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*hook.Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Events returns "<hook> <method>" for each recorded request.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.requests))
	for i, req := range r.requests {
		out[i] = fmt.Sprintf("%s %s", req.Hook, req.Method)
	}
	return out
}

// Reset drops all recorded requests.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = nil
}

// LogHandler writes one log line per request.
type LogHandler struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLogHandler logs requests to l at level.
func NewLogHandler(l zerolog.Logger, level zerolog.Level) *LogHandler {
	return &LogHandler{logger: l, level: level}
}

func (h *LogHandler) Name() string { return "log" }

// Handle logs req.
func (h *LogHandler) Handle(req *hook.Request) {
	h.logger.WithLevel(h.level).
		Str("method", req.Method).
		Str("hook", string(req.Hook)).
		Uint64("seq", req.Seq).
		Interface("args", req.Args).
		Msg("call")
}

// Multi fans a request out to several handlers in order.
type Multi []hook.Handler

func (m Multi) Name() string { return "multi" }

// Handle passes req to every non-nil handler.
func (m Multi) Handle(req *hook.Request) {
	for _, h := range m {
		if h != nil {
			h.Handle(req)
		}
	}
}
