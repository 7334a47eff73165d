// Package env defines the execution environment that compiled units are
// defined into. Each module gets an isolated namespace: two modules may
// define distinct units under the same name without collision.
//
// The environment is an extension point. Hosts that execute units supply
// their own implementation; the default Mem environment just records
// definitions.
package env

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gantry-io/gantry/unit"
)

// Environment registers compiled units under per-module namespaces.
type Environment interface {
	// Define registers u under name in module's namespace. Loaders call
	// Define at most once per (module, name); implementations may reject a
	// definition, which surfaces to the resolving caller as a definition
	// failure.
	Define(ctx context.Context, module, name string, u *unit.Unit) error
	// Drop discards module's namespace and every definition in it.
	Drop(module string)
}

// Mem is the default in-memory Environment.
type Mem struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*unit.Unit
}

// NewMem returns an empty in-memory environment.
func NewMem() *Mem {
	return &Mem{namespaces: map[string]map[string]*unit.Unit{}}
}

func (m *Mem) Define(_ context.Context, module, name string, u *unit.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[module]
	if !ok {
		ns = map[string]*unit.Unit{}
		m.namespaces[module] = ns
	}
	if _, exists := ns[name]; exists {
		return fmt.Errorf("env: %q is already defined in module %q", name, module)
	}
	ns[name] = u
	return nil
}

func (m *Mem) Drop(module string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, module)
}

// Lookup returns the unit defined under name in module's namespace.
func (m *Mem) Lookup(module, name string) (*unit.Unit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.namespaces[module][name]
	return u, ok
}

// Defined returns the sorted names defined in module's namespace.
func (m *Mem) Defined(module string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ns := m.namespaces[module]
	if len(ns) == 0 {
		return nil
	}
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
