// Package methodhooks provides a library for running hooks before and after
// methods of dispatch classes, and for removing them again.
package methodhooks

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/codysoyland/methodhooks/pkg/dispatch"
	"github.com/codysoyland/methodhooks/pkg/hook"
	"github.com/codysoyland/methodhooks/pkg/interceptor"
	"github.com/codysoyland/methodhooks/pkg/wrapper"
)

// ErrClosed is returned by a MethodHooks instance after Close.
var ErrClosed = errors.New("methodhooks: closed")

// Wrap creates a wrapper for selector on class with the given hooks and
// activates it (simple API). The wrap lasts until the returned wrapper is
// closed.
func Wrap(class *dispatch.Class, selector string, kind dispatch.Kind, before, after hook.Hook, opts ...wrapper.Option) (*wrapper.MethodWrapper, error) {
	opts = append([]wrapper.Option{wrapper.WithBefore(before), wrapper.WithAfter(after)}, opts...)
	w, err := wrapper.New(class, selector, kind, opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Activate(); err != nil {
		return nil, err
	}
	return w, nil
}

// WrapInstanceMethod wraps an instance method of class.
func WrapInstanceMethod(class *dispatch.Class, selector string, before, after hook.Hook, opts ...wrapper.Option) (*wrapper.MethodWrapper, error) {
	return Wrap(class, selector, dispatch.InstanceMethod, before, after, opts...)
}

// WrapClassMethod wraps a class method of class.
func WrapClassMethod(class *dispatch.Class, selector string, before, after hook.Hook, opts ...wrapper.Option) (*wrapper.MethodWrapper, error) {
	return Wrap(class, selector, dispatch.ClassMethod, before, after, opts...)
}

// New creates a new MethodHooks instance
func New(opts ...Option) (*MethodHooks, error) {
	// Create default config
	config := &Config{
		Verbose: false,
		Logger:  zerolog.Nop(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if !config.Verbose {
		config.Logger = config.Logger.Level(zerolog.InfoLevel)
	}

	i := interceptor.New(config.Handler,
		interceptor.WithLogger(config.Logger),
		interceptor.WithVerbose(config.Verbose))

	return &MethodHooks{
		config:      config,
		interceptor: i,
	}, nil
}

// Wrap wraps selector on class with the given hooks. The wrapper stays
// owned by m and is restored by Close, but may also be closed directly.
func (m *MethodHooks) Wrap(class *dispatch.Class, selector string, kind dispatch.Kind, before, after hook.Hook) (*wrapper.MethodWrapper, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	w, err := Wrap(class, selector, kind, before, after, wrapper.WithLogger(m.config.Logger))
	if err != nil {
		return nil, err
	}
	if err := m.track(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Intercept wraps selector on class and routes its hooks to the configured
// handler.
func (m *MethodHooks) Intercept(class *dispatch.Class, selector string, kind dispatch.Kind) (*wrapper.MethodWrapper, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	w, err := wrapper.New(class, selector, kind, wrapper.WithLogger(m.config.Logger))
	if err != nil {
		return nil, err
	}
	m.interceptor.Attach(w)
	if err := w.Activate(); err != nil {
		return nil, err
	}
	if err := m.track(w); err != nil {
		return nil, err
	}
	return w, nil
}

// SetHandler changes the handler used by intercepted methods, including
// those already wrapped.
func (m *MethodHooks) SetHandler(h hook.Handler) {
	m.interceptor.SetHandler(h)
}

// GetHandler returns the current handler
func (m *MethodHooks) GetHandler() hook.Handler {
	return m.interceptor.Handler()
}

// Wrappers returns the wrappers created by m that have not been closed by m.
func (m *MethodHooks) Wrappers() []*wrapper.MethodWrapper {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*wrapper.MethodWrapper, len(m.wrappers))
	copy(out, m.wrappers)
	return out
}

// Close restores every method wrapped through m, newest first.
func (m *MethodHooks) Close() error {
	m.mu.Lock()
	wrappers := m.wrappers
	m.wrappers = nil
	m.closed = true
	m.mu.Unlock()

	var errs []error
	for i := len(wrappers) - 1; i >= 0; i-- {
		if err := wrappers[i].Close(); err != nil {
			m.config.Logger.Error().Err(err).Str("method", wrappers[i].Triple().String()).
				Msg("failed to restore method")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MethodHooks) checkOpen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// track records w for Close. If Close ran while w was being activated, w is
// closed here instead and ErrClosed is returned.
func (m *MethodHooks) track(w *wrapper.MethodWrapper) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		if err := w.Close(); err != nil {
			return errors.Join(ErrClosed, err)
		}
		return ErrClosed
	}
	m.wrappers = append(m.wrappers, w)
	m.mu.Unlock()
	return nil
}
