package platform

import "errors"

var (
	// ErrUnknownPlatform is returned when parsing an unknown platform name.
	ErrUnknownPlatform = errors.New("unknown platform")
	// ErrServiceNotFound is the cause of a failed lookup for a type
	// that has no registration on the built platform.
	ErrServiceNotFound = errors.New("service not found")
	// ErrDuplicateService is returned by Build if two registrations
	// of the same precedence provide the same type.
	ErrDuplicateService = errors.New("duplicate service registration")
	// ErrServiceCycle is the cause of a service whose factory
	// depends on itself, directly or transitively.
	ErrServiceCycle = errors.New("service dependency cycle")
	// ErrFrozen is returned when modifying a Builder that was already built.
	ErrFrozen = errors.New("registry is already built")
	// ErrServiceDisabled is the cause of a service disabled by configuration.
	ErrServiceDisabled = errors.New("service disabled")
)
