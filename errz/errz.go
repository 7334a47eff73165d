// Package errz defines the typed failures produced by module activation,
// deactivation, and symbol resolution.
package errz

import "errors"

// Kind represents the category of a resolution or lifecycle failure.
type Kind int

const (
	// KindUnknown indicates an error that is none of the kinds below.
	KindUnknown Kind = iota
	// KindResourceUnreadable indicates an I/O failure reading a byte source.
	KindResourceUnreadable
	// KindDefinitionFailed indicates malformed unit bytes or a rejected definition.
	KindDefinitionFailed
	// KindSymbolNotFound indicates an exhausted own source and all dependency chains.
	KindSymbolNotFound
	// KindModuleNotActive indicates an operation referencing a deactivated or unknown module.
	KindModuleNotActive
	// KindModuleAlreadyActive indicates an activation of an identifier that is already live.
	KindModuleAlreadyActive
	// KindGraphCycle indicates that delegation re-entered a module already being resolved.
	KindGraphCycle
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindResourceUnreadable:
		return "resource unreadable"
	case KindDefinitionFailed:
		return "definition failed"
	case KindSymbolNotFound:
		return "symbol not found"
	case KindModuleNotActive:
		return "module not active"
	case KindModuleAlreadyActive:
		return "module already active"
	case KindGraphCycle:
		return "dependency cycle"
	default:
		return "error"
	}
}

// KindOf classifies an error returned by this library. Errors that did not
// originate here classify as KindUnknown.
func KindOf(err error) Kind {
	var (
		resourceErr  *ResourceError
		defErr       *DefinitionError
		notFoundErr  *NotFoundError
		notActiveErr *NotActiveError
		activeErr    *AlreadyActiveError
		cycleErr     *CycleError
	)
	switch {
	case errors.As(err, &resourceErr):
		return KindResourceUnreadable
	case errors.As(err, &defErr):
		return KindDefinitionFailed
	case errors.As(err, &notFoundErr):
		return KindSymbolNotFound
	case errors.As(err, &notActiveErr):
		return KindModuleNotActive
	case errors.As(err, &activeErr):
		return KindModuleAlreadyActive
	case errors.As(err, &cycleErr):
		return KindGraphCycle
	default:
		return KindUnknown
	}
}

// IsNotFound returns true if the error indicates a symbol that no reachable
// module could supply.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsNotActive returns true if the error indicates a deactivated or unknown
// module identifier.
func IsNotActive(err error) bool {
	var notActiveErr *NotActiveError
	return errors.As(err, &notActiveErr)
}

// IsCycle returns true if the error indicates a dependency cycle encountered
// during delegation.
func IsCycle(err error) bool {
	var cycleErr *CycleError
	return errors.As(err, &cycleErr)
}
