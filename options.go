package hpke

import (
	"crypto/rand"
	"io"

	"github.com/rs/zerolog"
)

// config holds per-call configuration.
type config struct {
	rand   io.Reader
	logger zerolog.Logger
}

// Option configures Setup and the single-shot functions.
type Option func(*config)

// WithRand sets the randomness source for ephemeral keys.
// Default: crypto/rand.Reader
func WithRand(r io.Reader) Option {
	return func(c *config) {
		c.rand = r
	}
}

// WithLogger sets the logger for setup and context lifecycle events.
// Key material, plaintext and ciphertext are never logged.
// Default: zerolog.Nop()
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{
		rand:   rand.Reader,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rand == nil {
		cfg.rand = rand.Reader
	}
	return cfg
}
