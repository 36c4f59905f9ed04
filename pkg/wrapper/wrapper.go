// Package wrapper installs before and after hooks around a method of a
// dispatch class and removes them again, restoring the original slot
// exactly.
package wrapper

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/hook"
	"github.com/codysoyland/methodhooks/pkg/trampoline"
)

// Wrapper errors.
var (
	// ErrAlreadyActive indicates Activate on a wrapper that is already active.
	ErrAlreadyActive = errors.New("wrapper: already active")

	// ErrTripleAlreadyWrapped indicates another wrapper owns the method.
	ErrTripleAlreadyWrapped = errors.New("wrapper: method already wrapped")

	// ErrNotActive describes an inactive wrapper. Deactivate never returns it.
	ErrNotActive = errors.New("wrapper: not active")
)

// MethodWrapper owns one interception of one method slot. It is created
// inactive; Activate installs the trampoline and Deactivate or Close puts
// the original slot back.
type MethodWrapper struct {
	id     uuid.UUID
	triple dispatch.Triple
	hooks  hook.Cell
	logger zerolog.Logger

	mu         sync.Mutex
	active     bool
	original   *dispatch.Implementation
	trampoline *dispatch.Implementation
	prev       *dispatch.Implementation
	hadLocal   bool
}

// Option is a functional option for configuring a MethodWrapper.
type Option func(*MethodWrapper)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(w *MethodWrapper) {
		w.logger = l
	}
}

// WithBefore sets the initial before hook.
func WithBefore(h hook.Hook) Option {
	return func(w *MethodWrapper) {
		w.hooks.SetBefore(h)
	}
}

// WithAfter sets the initial after hook.
func WithAfter(h hook.Hook) Option {
	return func(w *MethodWrapper) {
		w.hooks.SetAfter(h)
	}
}

// New creates an inactive wrapper for selector on class. It fails with
// dispatch.ErrMethodNotFound if the method does not resolve.
func New(class *dispatch.Class, selector string, kind dispatch.Kind, opts ...Option) (*MethodWrapper, error) {
	return NewForTriple(dispatch.Triple{Class: class, Selector: selector, Kind: kind}, opts...)
}

// NewForTriple is New with the target given as a triple.
func NewForTriple(t dispatch.Triple, opts ...Option) (*MethodWrapper, error) {
	if _, err := t.Lookup(); err != nil {
		return nil, err
	}
	w := &MethodWrapper{
		id:     uuid.New(),
		triple: t,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().
		Str("wrapper", w.id.String()).
		Str("method", t.String()).
		Logger()
	return w, nil
}

// ID returns the wrapper's unique id.
func (w *MethodWrapper) ID() uuid.UUID {
	return w.id
}

// Triple returns the wrapped method slot.
func (w *MethodWrapper) Triple() dispatch.Triple {
	return w.triple
}

// SetBefore replaces the before hook. It may be called while active.
func (w *MethodWrapper) SetBefore(h hook.Hook) {
	w.hooks.SetBefore(h)
}

// SetAfter replaces the after hook. It may be called while active.
func (w *MethodWrapper) SetAfter(h hook.Hook) {
	w.hooks.SetAfter(h)
}

// SetHooks replaces both hooks in a single publish.
func (w *MethodWrapper) SetHooks(before, after hook.Hook) {
	w.hooks.Store(hook.Pair{Before: before, After: after})
}

// Before returns the current before hook.
func (w *MethodWrapper) Before() hook.Hook {
	return w.hooks.Load().Before
}

// After returns the current after hook.
func (w *MethodWrapper) After() hook.Hook {
	return w.hooks.Load().After
}

// IsActive reports whether the wrapper's trampoline is installed.
func (w *MethodWrapper) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Activate replaces the method slot with a trampoline around the current
// implementation. Nothing is changed when it fails.
func (w *MethodWrapper) Activate() error {
	unlock := lockTriple(w.triple)
	defer unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active {
		return fmt.Errorf("%w: %s", ErrAlreadyActive, w.triple)
	}
	if owner := ownerOf(w.triple); owner != nil {
		return fmt.Errorf("%w: %s is owned by wrapper %s", ErrTripleAlreadyWrapped, w.triple, owner.id)
	}

	original, err := w.triple.Lookup()
	if err != nil {
		return err
	}
	tramp, err := trampoline.Build(original, &w.hooks)
	if err != nil {
		return fmt.Errorf("%s: %w", w.triple, err)
	}
	prev, hadLocal, err := w.triple.Install(tramp)
	if err != nil {
		return err
	}

	w.original = original
	w.trampoline = tramp
	w.prev = prev
	w.hadLocal = hadLocal
	w.active = true
	claim(w.triple, w)

	w.logger.Debug().Bool("inherited", !hadLocal).Msg("wrapper activated")
	return nil
}

// Deactivate puts back the slot captured by Activate. It is a no-op on an
// inactive wrapper.
func (w *MethodWrapper) Deactivate() error {
	unlock := lockTriple(w.triple)
	defer unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active {
		return nil
	}
	if current, ok := w.triple.LookupLocal(); !ok || current != w.trampoline {
		w.logger.Warn().Msg("method slot changed while wrapped; restoring anyway")
	}
	if err := w.triple.Restore(w.prev, w.hadLocal); err != nil {
		return err
	}

	release(w.triple, w)
	w.original = nil
	w.trampoline = nil
	w.prev = nil
	w.hadLocal = false
	w.active = false

	w.logger.Debug().Msg("wrapper deactivated")
	return nil
}

// SetWrapped activates or deactivates the wrapper.
func (w *MethodWrapper) SetWrapped(wrapped bool) error {
	if wrapped {
		return w.Activate()
	}
	return w.Deactivate()
}

// Original returns the implementation the active trampoline forwards to.
func (w *MethodWrapper) Original() (*dispatch.Implementation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return nil, fmt.Errorf("%w: %s", ErrNotActive, w.triple)
	}
	return w.original, nil
}

// Close deactivates the wrapper. Defer it right after a successful
// activation so the original method comes back on every exit path.
func (w *MethodWrapper) Close() error {
	return w.Deactivate()
}

func (w *MethodWrapper) String() string {
	state := "inactive"
	if w.IsActive() {
		state = "active"
	}
	return fmt.Sprintf("wrapper %s for %s (%s)", w.id, w.triple, state)
}
