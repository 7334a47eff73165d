// Package loader implements per-module symbol resolution: defining compiled
// units from a module's own source, write-once caching of those
// definitions, and delegated lookup across the dependency graph.
package loader

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gantry-io/gantry/env"
	"github.com/gantry-io/gantry/errz"
	"github.com/gantry-io/gantry/graph"
	"github.com/gantry-io/gantry/source"
	"github.com/gantry-io/gantry/unit"
)

// UnitExt is the file extension for encoded compiled units.
const UnitExt = ".unit"

// ResourcePath maps a symbol name to the resource path its unit is stored
// under: dots become path separators and the unit extension is appended.
// For example "geo.distance" maps to "geo/distance.unit".
func ResourcePath(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "/") + UnitExt
}

// Resolver resolves a module identifier to its live loader. It is
// implemented by the runtime's loader arena; delegation uses it to reach
// dependency loaders without holding references to them.
type Resolver interface {
	ResolveLoader(id string) (*Loader, bool)
}

// Loader performs symbol definition and delegated resolution for one active
// module. A loader owns its definition cache, a reference to its own module
// source, and a shared read-only reference to the dependency graph. It is
// created at module activation, lives for the module's active lifetime, and
// is discarded together with its cache at deactivation.
type Loader struct {
	id         string
	activation uuid.UUID
	src        source.ModuleSource
	graph      *graph.Graph
	environ    env.Environment
	resolver   Resolver
	log        zerolog.Logger

	mu     sync.RWMutex
	units  map[string]*unit.Unit
	closed bool
	flight singleflight.Group
}

// Params contains parameters for creating a new Loader. All fields other
// than Activation are required.
type Params struct {
	ID          string
	Source      source.ModuleSource
	Graph       *graph.Graph
	Environment env.Environment
	Resolver    Resolver
	Logger      zerolog.Logger
	Activation  uuid.UUID
}

// New creates a loader for one module. A fresh activation ID is assigned if
// none is given.
func New(params Params) *Loader {
	if params.Activation == uuid.Nil {
		params.Activation = uuid.Must(uuid.NewV4())
	}
	return &Loader{
		id:         params.ID,
		activation: params.Activation,
		src:        params.Source,
		graph:      params.Graph,
		environ:    params.Environment,
		resolver:   params.Resolver,
		log:        params.Logger,
		units:      map[string]*unit.Unit{},
	}
}

// ID returns the module identifier this loader serves.
func (l *Loader) ID() string {
	return l.id
}

// Activation returns the unique ID assigned when the module was activated.
func (l *Loader) Activation() uuid.UUID {
	return l.activation
}

// Close marks the loader inactive: later lookups, definitions, and resource
// reads fail with a NotActiveError. The runtime closes a loader before
// dropping its namespace so that a definition still in flight cannot
// recreate entries for a deactivated module.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *Loader) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// OwnResource returns a ByteSource for name from this loader's own module
// source. It never consults dependencies: resources, unlike symbols, are
// private to their module. Absence is reported as source.ErrNotFound.
func (l *Loader) OwnResource(ctx context.Context, name string) (source.ByteSource, error) {
	if l.isClosed() {
		return nil, errz.NewNotActiveError(l.id)
	}
	bs, err := l.src.Find(ctx, name)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return nil, err
		}
		return nil, errz.NewResourceError(l.id, name, err)
	}
	return bs, nil
}

// LookupSymbol resolves name to a compiled unit: first this loader's
// definition cache, then its own module source, then each direct dependency
// in declared graph order, recursively. The first supplier wins. A symbol
// no reachable module supplies fails with a NotFoundError naming this
// module and the symbol.
func (l *Loader) LookupSymbol(ctx context.Context, name string) (*unit.Unit, error) {
	return l.lookupSymbol(ctx, name, newTraversal())
}

func (l *Loader) lookupSymbol(ctx context.Context, name string, t *traversal) (*unit.Unit, error) {
	if l.isClosed() {
		return nil, errz.NewNotActiveError(l.id)
	}
	t.enter(l.id)
	defer t.exit(l.id)

	if u, ok := l.cached(name); ok {
		return u, nil
	}

	u, err := l.define(ctx, name)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, source.ErrNotFound) {
		return nil, err
	}

	for _, dep := range l.graph.DependenciesOf(l.id) {
		if t.onStack(dep) {
			return nil, errz.NewCycleError(dep, t.pathWith(dep))
		}
		if t.missed(dep) {
			continue
		}
		dl, ok := l.resolver.ResolveLoader(dep)
		if !ok {
			l.log.Warn().
				Str("module", l.id).
				Str("dependency", dep).
				Str("symbol", name).
				Msg("skipping inactive dependency during symbol resolution")
			t.markMissed(dep)
			continue
		}
		du, err := dl.lookupSymbol(ctx, name, t)
		if err == nil {
			return du, nil
		}
		if errz.IsNotFound(err) {
			continue
		}
		if errz.IsNotActive(err) {
			l.log.Warn().
				Str("module", l.id).
				Str("dependency", dep).
				Str("symbol", name).
				Msg("skipping inactive dependency during symbol resolution")
			t.markMissed(dep)
			continue
		}
		return nil, err
	}

	t.markMissed(l.id)
	return nil, errz.NewNotFoundError(l.id, name)
}

func (l *Loader) cached(name string) (*unit.Unit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.units[name]
	return u, ok
}

// define loads name from this loader's own source and registers it in the
// execution environment, at most once per name for the loader's lifetime.
// Concurrent callers for the same name share a single definition. A failed
// definition leaves no cache entry, so the caller may retry after the
// module source is repaired. Returns source.ErrNotFound when the own source
// has no resource for the symbol. The closed check, the environment define,
// and the cache write form one critical section with Close: a definition
// racing deactivation either lands before the namespace drop or fails with
// a NotActiveError.
func (l *Loader) define(ctx context.Context, name string) (*unit.Unit, error) {
	v, err, _ := l.flight.Do(name, func() (any, error) {
		if u, ok := l.cached(name); ok {
			return u, nil
		}
		path := ResourcePath(name)
		bs, err := l.src.Find(ctx, path)
		if err != nil {
			if errors.Is(err, source.ErrNotFound) {
				return nil, err
			}
			return nil, errz.NewResourceError(l.id, path, err)
		}
		data, err := bs.ReadAll(ctx)
		if err != nil {
			return nil, errz.NewResourceError(l.id, path, err)
		}
		u, err := unit.Unmarshal(data)
		if err != nil {
			return nil, errz.NewDefinitionError(l.id, name, err)
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			return nil, errz.NewNotActiveError(l.id)
		}
		if err := l.environ.Define(ctx, l.id, name, u); err != nil {
			return nil, errz.NewDefinitionError(l.id, name, err)
		}
		l.units[name] = u
		l.log.Debug().
			Str("module", l.id).
			Str("symbol", name).
			Msg("defined unit")
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*unit.Unit), nil
}
