package gantry

import (
	"github.com/rs/zerolog"

	"github.com/gantry-io/gantry/env"
	"github.com/gantry-io/gantry/graph"
)

// Option describes a function used to configure a Runtime.
type Option func(*config)

type config struct {
	graph   *graph.Graph
	environ env.Environment
	logger  zerolog.Logger
}

// WithGraph supplies the dependency graph the runtime's loaders delegate
// through. The graph is shared read-only by every loader; the caller is
// responsible for populating it and for synchronizing any later mutation.
func WithGraph(g *graph.Graph) Option {
	return func(cfg *config) {
		if g != nil {
			cfg.graph = g
		}
	}
}

// WithEnvironment supplies the execution environment that compiled units
// are defined into. The default environment only records definitions;
// hosts that execute units supply their own implementation.
func WithEnvironment(environ env.Environment) Option {
	return func(cfg *config) {
		if environ != nil {
			cfg.environ = environ
		}
	}
}

// WithLogger supplies the logger used by the runtime and its loaders.
// Logging is disabled by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}
