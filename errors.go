package modelbuilder

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by configuration and build operations. Every
// error produced by this package wraps one of these, so callers can
// classify failures with errors.Is while the message carries the
// conflicting type and property names.
var (
	// ErrNilArgument indicates a required argument was nil, zero or empty.
	ErrNilArgument = errors.New("missing required argument")

	// ErrInvalidArgument indicates an argument that is present but
	// semantically wrong for the call, such as a base type the configured
	// Go type does not embed, or a container property of the wrong shape.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBasePropertyConflict indicates a property name that is already
	// declared on an ancestor type.
	ErrBasePropertyConflict = errors.New("property already defined on base type")

	// ErrDerivedPropertyConflict indicates a property name that is already
	// declared on a derived type.
	ErrDerivedPropertyConflict = errors.New("property already defined on derived type")

	// ErrPropertyKindConflict indicates a property that was already added
	// under an incompatible configuration kind, or whose backing field
	// cannot carry the requested kind.
	ErrPropertyKindConflict = errors.New("property kind mismatch")

	// ErrMultiplicityConflict indicates a navigation property re-added
	// with a different multiplicity.
	ErrMultiplicityConflict = errors.New("navigation property multiplicity mismatch")

	// ErrDynamicContainerExists indicates a second dynamic property
	// dictionary on the same type.
	ErrDynamicContainerExists = errors.New("more than one dynamic property container found")

	// ErrAnnotationContainerExists indicates a second instance annotation
	// container on the same type.
	ErrAnnotationContainerExists = errors.New("more than one annotation property container found")

	// ErrTypeKindConflict indicates a Go type already registered under a
	// different schema kind, such as requesting a complex type for a type
	// registered as an entity.
	ErrTypeKindConflict = errors.New("type already registered with a different kind")

	// ErrNavigationSourceConflict indicates an entity set or singleton
	// name already bound to a different entity type or source kind.
	ErrNavigationSourceConflict = errors.New("navigation source already bound")

	// ErrKeyOnDerivedType indicates an attempt to declare key properties
	// on a type that derives from another entity type.
	ErrKeyOnDerivedType = errors.New("keys must be declared on the root type of a hierarchy")

	// ErrValidation indicates a structural problem detected by Build.
	ErrValidation = errors.New("model validation failed")
)

// enrich wraps a sentinel with call-site context. The result satisfies
// errors.Is for the sentinel and reads as "<sentinel>: <detail>".
func enrich(err error, format string, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s", err, format)
	}
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}

// nilArg reports a missing required argument by name.
func nilArg(name string) error {
	return enrich(ErrNilArgument, "%s", name)
}
