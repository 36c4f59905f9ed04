// Package interceptor turns a hook.Handler into the before and after hooks of
// method wrappers, building a hook.Request for every invocation.
package interceptor

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/hook"
	"github.com/codysoyland/methodhooks/pkg/signature"
	"github.com/codysoyland/methodhooks/pkg/wrapper"
)

// Interceptor feeds hook invocations to a handler
type Interceptor struct {
	handler atomic.Pointer[hook.Handler]
	logger  zerolog.Logger
	verbose bool
	seq     atomic.Uint64
	now     func() time.Time
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithLogger sets the logger for verbose output.
func WithLogger(l zerolog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = l
	}
}

// WithVerbose logs every request at debug level.
func WithVerbose(v bool) Option {
	return func(i *Interceptor) {
		i.verbose = v
	}
}

// New creates an interceptor for h. A nil handler is allowed; requests are
// then built and dropped.
func New(h hook.Handler, opts ...Option) *Interceptor {
	i := &Interceptor{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.SetHandler(h)
	return i
}

// SetHandler changes the handler used for new requests.
func (i *Interceptor) SetHandler(h hook.Handler) {
	i.handler.Store(&h)
}

// Handler returns the current handler.
func (i *Interceptor) Handler() hook.Handler {
	if h := i.handler.Load(); h != nil {
		return *h
	}
	return nil
}

// Hooks returns the before and after hooks for t.
func (i *Interceptor) Hooks(t dispatch.Triple) hook.Pair {
	return hook.Pair{
		Before: i.hookFor(t, hook.HookBefore),
		After:  i.hookFor(t, hook.HookAfter),
	}
}

// Attach installs the interceptor's hooks on w, replacing any it had.
func (i *Interceptor) Attach(w *wrapper.MethodWrapper) {
	p := i.Hooks(w.Triple())
	w.SetHooks(p.Before, p.After)
}

func (i *Interceptor) hookFor(t dispatch.Triple, typ hook.Type) hook.Hook {
	return func(self dispatch.Object, args signature.Args) {
		i.process(&hook.Request{
			Triple:   t,
			Method:   t.String(),
			Receiver: self,
			Args:     args.Values(),
			Hook:     typ,
			Seq:      i.seq.Add(1),
			Time:     i.now(),
		})
	}
}

// process hands req to the handler. Handler panics are not recovered.
func (i *Interceptor) process(req *hook.Request) {
	h := i.Handler()
	if i.verbose {
		name := "none"
		if h != nil {
			name = h.Name()
		}
		i.logger.Debug().
			Str("method", req.Method).
			Str("hook", string(req.Hook)).
			Uint64("seq", req.Seq).
			Int("args", len(req.Args)).
			Str("handler", name).
			Msg("hook invoked")
	}
	if h != nil {
		h.Handle(req)
	}
}
