package di

import "fmt"

// UnregisteredServiceError represents a lookup for a service name that has no descriptor.
type UnregisteredServiceError struct {
	Name string
}

func (e *UnregisteredServiceError) Error() string {
	return fmt.Sprintf("no service registered under name: %s", e.Name)
}

// CircularDependencyError represents a dependency cycle detected during resolution.
type CircularDependencyError struct {
	Name string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected for service: %s", e.Name)
}

// NilFactoryError represents an attempt to register a nil factory or nil value.
type NilFactoryError struct {
	Name string
}

func (e *NilFactoryError) Error() string {
	return fmt.Sprintf("nil factory provided for service: %s", e.Name)
}

// FactoryError represents a failure inside a user-supplied factory.
type FactoryError struct {
	Name string
	Err  error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("factory failed for service %s: %v", e.Name, e.Err)
}

func (e *FactoryError) Unwrap() error {
	return e.Err
}

// TypeMismatchError represents a type assertion failure on a resolved instance.
type TypeMismatchError struct {
	Name     string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for service %s: expected %s, got %s", e.Name, e.Expected, e.Got)
}

// ShutdownError represents a service close failure during container shutdown.
type ShutdownError struct {
	Name string
	Err  error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown failed for service %s: %v", e.Name, e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}
