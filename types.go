package di

// Package di provides interfaces and data types for service registration.

// Factory produces a service instance from its already-resolved dependencies.
// The deps slice matches the order of the dependency names declared at
// registration time.
type Factory func(deps []any) (any, error)

// Scope defines the lifetime and sharing behavior of a service.
type Scope string

// Available service scopes
const (
	// ScopeTransient creates a new instance for each resolution
	ScopeTransient Scope = "transient"
	// ScopeSingleton shares a single instance across the container lifetime
	ScopeSingleton Scope = "singleton"
)

// Registration carries the options of a Register call.
type Registration struct {
	// Scope selects the lifecycle policy. Empty defaults to ScopeSingleton.
	Scope Scope

	// Dependencies lists the names of services that must be resolved and
	// passed to the factory, in order.
	Dependencies []string
}

// descriptor is the stored recipe for producing a named service.
type descriptor struct {
	name         string
	factory      Factory
	dependencies []string
	scope        Scope
}
