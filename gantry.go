// Package gantry is a plugin loading runtime: it activates externally
// supplied compiled modules into isolated namespaces and resolves
// cross-module symbol references through an explicit dependency graph,
// without a global flat namespace.
//
// Each active module is served by exactly one loader, created at activation
// and discarded at deactivation. A loader resolves symbols against its own
// definition cache, then its own module source, then its direct
// dependencies in declared graph order, recursively. Resources, unlike
// symbols, never delegate: they are private to their module.
package gantry

import (
	"context"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/gantry-io/gantry/env"
	"github.com/gantry-io/gantry/errz"
	"github.com/gantry-io/gantry/graph"
	"github.com/gantry-io/gantry/internal/telemetry"
	"github.com/gantry-io/gantry/loader"
	"github.com/gantry-io/gantry/source"
	"github.com/gantry-io/gantry/unit"
)

// Runtime is the arena of live module loaders, indexed by module
// identifier. The dependency graph is shared by every loader and is
// read-only from the runtime's point of view; populating it is the host's
// responsibility.
type Runtime struct {
	mu      sync.RWMutex
	loaders map[string]*loader.Loader
	graph   *graph.Graph
	environ env.Environment
	log     zerolog.Logger
}

// New creates a Runtime. By default it has an empty dependency graph, an
// in-memory execution environment, and no logging.
func New(opts ...Option) *Runtime {
	cfg := &config{
		graph:   graph.New(),
		environ: env.NewMem(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return &Runtime{
		loaders: map[string]*loader.Loader{},
		graph:   cfg.graph,
		environ: cfg.environ,
		log:     cfg.logger,
	}
}

// Activate registers a new isolated loader for id backed by src and returns
// it. Activating an identifier that is already active fails with an
// AlreadyActiveError.
func (r *Runtime) Activate(ctx context.Context, id string, src source.ModuleSource) (*loader.Loader, error) {
	_, span := telemetry.StartActivateSpan(ctx, id)
	defer span.End()

	r.mu.Lock()
	if _, ok := r.loaders[id]; ok {
		r.mu.Unlock()
		err := errz.NewAlreadyActiveError(id)
		telemetry.RecordError(span, err)
		return nil, err
	}
	l := loader.New(loader.Params{
		ID:          id,
		Source:      src,
		Graph:       r.graph,
		Environment: r.environ,
		Resolver:    r,
		Logger:      r.log,
		Activation:  uuid.Must(uuid.NewV4()),
	})
	r.loaders[id] = l
	r.mu.Unlock()

	r.log.Info().
		Str("module", id).
		Str("activation", l.Activation().String()).
		Msg("module activated")
	return l, nil
}

// Deactivate discards id's loader, its definition cache, and its namespace
// in the execution environment. Deactivation is all-or-nothing: subsequent
// operations referencing id fail with a NotActiveError, as does
// deactivating an identifier that is not active. The loader is closed
// before its namespace is dropped, so a definition still in flight fails
// with a NotActiveError instead of recreating namespace entries.
func (r *Runtime) Deactivate(ctx context.Context, id string) error {
	_, span := telemetry.StartDeactivateSpan(ctx, id)
	defer span.End()

	r.mu.Lock()
	l, ok := r.loaders[id]
	if !ok {
		r.mu.Unlock()
		err := errz.NewNotActiveError(id)
		telemetry.RecordError(span, err)
		return err
	}
	delete(r.loaders, id)
	r.mu.Unlock()

	l.Close()
	r.environ.Drop(id)
	r.log.Info().
		Str("module", id).
		Str("activation", l.Activation().String()).
		Msg("module deactivated")
	return nil
}

// LookupSymbol resolves name within module id: the loader's cache, then its
// own source, then its dependencies in declared order, recursively.
func (r *Runtime) LookupSymbol(ctx context.Context, id, name string) (*unit.Unit, error) {
	ctx, span := telemetry.StartLookupSpan(ctx, id, name)
	defer span.End()

	l, ok := r.ResolveLoader(id)
	if !ok {
		err := errz.NewNotActiveError(id)
		telemetry.RecordError(span, err)
		return nil, err
	}
	u, err := l.LookupSymbol(ctx, name)
	if err != nil {
		telemetry.RecordError(span, err)
		r.log.Debug().
			Err(err).
			Str("module", id).
			Str("symbol", name).
			Msg("symbol lookup failed")
		return nil, err
	}
	return u, nil
}

// LookupOwnResource returns a ByteSource for name from module id's own
// source only. Absence is reported as source.ErrNotFound.
func (r *Runtime) LookupOwnResource(ctx context.Context, id, name string) (source.ByteSource, error) {
	ctx, span := telemetry.StartResourceSpan(ctx, id, name)
	defer span.End()

	l, ok := r.ResolveLoader(id)
	if !ok {
		err := errz.NewNotActiveError(id)
		telemetry.RecordError(span, err)
		return nil, err
	}
	bs, err := l.OwnResource(ctx, name)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return bs, nil
}

// ResolveLoader returns the live loader for id. It implements the resolver
// contract used during cross-module delegation.
func (r *Runtime) ResolveLoader(id string) (*loader.Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[id]
	return l, ok
}

// ActiveModules returns the identifiers of all active modules, sorted.
func (r *Runtime) ActiveModules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.loaders))
	for id := range r.loaders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Graph returns the shared dependency graph.
func (r *Runtime) Graph() *graph.Graph {
	return r.graph
}

// Environment returns the execution environment definitions land in.
func (r *Runtime) Environment() env.Environment {
	return r.environ
}

// Close deactivates every active module, aggregating any errors.
func (r *Runtime) Close(ctx context.Context) error {
	var result *multierror.Error
	for _, id := range r.ActiveModules() {
		if err := r.Deactivate(ctx, id); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
