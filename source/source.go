// Package source defines the byte-source capabilities that back a module's
// private content: ByteSource yields the raw bytes of one named resource,
// and ModuleSource maps resource names to ByteSources.
package source

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by ModuleSource implementations when no resource
// exists under the requested name. An I/O failure while locating or reading
// a resource is any other error and must never be reported as ErrNotFound.
var ErrNotFound = errors.New("source: resource not found")

// ByteSource lazily yields the raw bytes of a single named resource. The
// backing store is read at most once; repeated reads observe the same bytes.
// Ownership of the returned slice passes to the caller on every read.
type ByteSource interface {
	// Name returns the resource name this source resolves.
	Name() string
	// ReadAll returns the resource bytes. The returned slice is a copy owned
	// by the caller; mutating it does not affect later reads.
	ReadAll(ctx context.Context) ([]byte, error)
}

// ModuleSource is a pure lookup from resource name to ByteSource. It holds
// no mutable resolution state of its own.
type ModuleSource interface {
	// Find returns a ByteSource for name, or ErrNotFound if this module has
	// no resource under that name.
	Find(ctx context.Context, name string) (ByteSource, error)
}

// Func adapts a function to the ModuleSource interface.
type Func func(ctx context.Context, name string) (ByteSource, error)

func (f Func) Find(ctx context.Context, name string) (ByteSource, error) {
	return f(ctx, name)
}

// Map is an in-memory ModuleSource backed by a map of resource names to
// payloads. The map must not be mutated after first use.
type Map map[string][]byte

func (m Map) Find(ctx context.Context, name string) (ByteSource, error) {
	data, ok := m[name]
	if !ok {
		return nil, ErrNotFound
	}
	return FromBytes(name, data), nil
}

// New returns a ByteSource that invokes read on first use and caches the
// outcome, bytes or error, for the life of the source.
func New(name string, read func(ctx context.Context) ([]byte, error)) ByteSource {
	return &byteSource{name: name, read: read}
}

// FromBytes returns a ByteSource over a fixed payload. The payload is copied
// at construction, so later mutation of data has no effect.
func FromBytes(name string, data []byte) ByteSource {
	buf := make([]byte, len(data))
	copy(buf, data)
	return New(name, func(context.Context) ([]byte, error) {
		return buf, nil
	})
}

type byteSource struct {
	name string
	read func(ctx context.Context) ([]byte, error)

	mu   sync.Mutex
	done bool
	data []byte
	err  error
}

func (b *byteSource) Name() string {
	return b.name
}

func (b *byteSource) ReadAll(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.done {
		b.data, b.err = b.read(ctx)
		b.done = true
		b.read = nil
	}
	if b.err != nil {
		return nil, b.err
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}
