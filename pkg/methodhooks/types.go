package methodhooks

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/codysoyland/methodhooks/pkg/hook"
	"github.com/codysoyland/methodhooks/pkg/interceptor"
	"github.com/codysoyland/methodhooks/pkg/wrapper"
)

// MethodHooks represents the main library instance
type MethodHooks struct {
	config      *Config
	interceptor *interceptor.Interceptor

	mu       sync.Mutex
	wrappers []*wrapper.MethodWrapper
	closed   bool
}

// Config holds all configuration options
type Config struct {
	Verbose bool
	Logger  zerolog.Logger
	// Handler receives a hook.Request for every call of methods wrapped
	// through Intercept. May be nil.
	Handler hook.Handler
}

// Option represents a functional option for configuration
type Option func(*Config) error
