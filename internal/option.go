package internal

import (
	"log/slog"

	"github.com/starford/docsauthor/internal/authoring"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logger    *slog.Logger
	publisher authoring.Publisher
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the default JSON logger on stderr.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithPublisher routes progress and events to p instead of the SSE broker.
func WithPublisher(p authoring.Publisher) Option {
	return func(a *application) {
		a.publisher = p
	}
}
