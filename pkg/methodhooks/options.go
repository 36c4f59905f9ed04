package methodhooks

import (
	"github.com/rs/zerolog"

	"github.com/codysoyland/methodhooks/pkg/hook"
)

// WithHandler sets the handler used by Intercept
func WithHandler(h hook.Handler) Option {
	return func(c *Config) error {
		c.Handler = h
		return nil
	}
}

// WithVerbose enables or disables verbose output
func WithVerbose(v bool) Option {
	return func(c *Config) error {
		c.Verbose = v
		return nil
	}
}

// WithLogger sets the logger passed to every wrapper
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}
