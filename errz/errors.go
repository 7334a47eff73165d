package errz

import (
	"fmt"
	"strings"
)

// ResourceError indicates an I/O failure while reading the bytes behind a
// named resource. It is distinct from absence: a resource that does not
// exist is reported with the source package's not-found sentinel, never as
// a ResourceError.
type ResourceError struct {
	Module string
	Name   string
	Err    error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %q unreadable in module %q: %s", e.Name, e.Module, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

func NewResourceError(module, name string, err error) *ResourceError {
	return &ResourceError{Module: module, Name: name, Err: err}
}

// DefinitionError indicates that a unit's bytes were located and read but
// could not be defined: the bytes were malformed, or the execution
// environment rejected the definition. A DefinitionError never leaves a
// partial cache entry behind.
type DefinitionError struct {
	Module string
	Symbol string
	Err    error
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition of %q failed in module %q: %s", e.Symbol, e.Module, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

func NewDefinitionError(module, symbol string, err error) *DefinitionError {
	return &DefinitionError{Module: module, Symbol: symbol, Err: err}
}

// NotFoundError indicates that a symbol was not supplied by the requesting
// module's own source nor by any module in its reachable dependency chain.
// It names the original symbol and the module that requested it.
type NotFoundError struct {
	Module string
	Symbol string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("symbol %q not found in module %q or its dependencies", e.Symbol, e.Module)
}

func NewNotFoundError(module, symbol string) *NotFoundError {
	return &NotFoundError{Module: module, Symbol: symbol}
}

// NotActiveError indicates an operation referencing a module identifier that
// is not active: either never activated or already deactivated.
type NotActiveError struct {
	Module string
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("module %q is not active", e.Module)
}

func NewNotActiveError(module string) *NotActiveError {
	return &NotActiveError{Module: module}
}

// AlreadyActiveError indicates an activation attempt for a module identifier
// that already has a live loader.
type AlreadyActiveError struct {
	Module string
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("module %q is already active", e.Module)
}

func NewAlreadyActiveError(module string) *AlreadyActiveError {
	return &AlreadyActiveError{Module: module}
}

// CycleError indicates that symbol delegation reached a module that is
// already on the resolution stack. Path holds the stack from the original
// requester through the edge that closed the cycle.
type CycleError struct {
	Module string
	Path   []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected at module %q: %s", e.Module, strings.Join(e.Path, " -> "))
}

func NewCycleError(module string, path []string) *CycleError {
	return &CycleError{Module: module, Path: path}
}
