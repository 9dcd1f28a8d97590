package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config      *Config
	identifiers []string
	out         io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithIdentifiers sets the part identifiers a batch run resolves.
func WithIdentifiers(ids []string) Option {
	return func(a *application) {
		a.identifiers = ids
	}
}

// WithOutput redirects result lines (stdout by default).
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
