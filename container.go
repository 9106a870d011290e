// Package di provides the service container runtime of the smartfix
// marketplace backend: a registry of named service factories with declared
// dependencies, graph-aware resolution with cycle detection, singleton
// caching, and a single-flight protocol for concurrent callers.
package di

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Container manages service descriptors and their resolved instances.
// It provides thread-safe registration and handles dependency resolution.
// The zero value is not usable; construct containers with New.
type Container struct {
	mu        sync.RWMutex
	services  map[string]*descriptor
	instances map[string]any
	created   []string

	// flights deduplicates concurrent construction per service name so a
	// cold singleton is built by exactly one factory invocation.
	flights singleflight.Group

	metrics *metricsRecorder

	resolutionState sync.Map
	resolutionMu    sync.RWMutex
	statePool       sync.Pool
	goidCache       sync.Map
}

// New creates an empty container. Each container is fully isolated; tests
// construct one per case instead of sharing a process-wide instance.
func New() *Container {
	return &Container{
		services:  make(map[string]*descriptor, 32),
		instances: make(map[string]any, 32),
		metrics:   newMetricsRecorder(),
		statePool: sync.Pool{
			New: func() interface{} {
				return &resolutionState{
					chain:    make(map[string]bool, 8),
					keyCache: make([]string, 0, 8),
				}
			},
		},
	}
}

// Register stores a service descriptor under name, overwriting any prior
// descriptor entirely. An already-cached singleton instance from the old
// descriptor is kept until Clear is called.
// Returns NilFactoryError if the factory is nil.
func (c *Container) Register(name string, factory Factory, reg Registration) error {
	if factory == nil {
		return &NilFactoryError{Name: name}
	}

	scope := reg.Scope
	if scope == "" {
		scope = ScopeSingleton
	}

	deps := make([]string, len(reg.Dependencies))
	copy(deps, reg.Dependencies)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = &descriptor{
		name:         name,
		factory:      factory,
		dependencies: deps,
		scope:        scope,
	}
	return nil
}

// RegisterSingleton registers a factory whose result is cached after the
// first successful resolution and shared across the container lifetime.
func (c *Container) RegisterSingleton(name string, factory Factory, deps ...string) error {
	return c.Register(name, factory, Registration{Scope: ScopeSingleton, Dependencies: deps})
}

// RegisterTransient registers a factory that produces a fresh instance on
// every resolution.
func (c *Container) RegisterTransient(name string, factory Factory, deps ...string) error {
	return c.Register(name, factory, Registration{Scope: ScopeTransient, Dependencies: deps})
}

// RegisterValue registers a pre-built value as a singleton service.
// Returns NilFactoryError if the value is nil.
func (c *Container) RegisterValue(name string, value any) error {
	if value == nil {
		return &NilFactoryError{Name: name}
	}
	return c.Register(name, func([]any) (any, error) {
		return value, nil
	}, Registration{Scope: ScopeSingleton})
}

// Resolve returns the instance registered under name.
// Returns UnregisteredServiceError if the name has no descriptor,
// CircularDependencyError if name is already being constructed on the
// current resolution chain, and FactoryError if the factory fails.
func (c *Container) Resolve(name string) (any, error) {
	start := time.Now()
	instance, err := c.resolve(name)
	c.metrics.record(name, time.Since(start), err)
	return instance, err
}

func (c *Container) resolve(name string) (any, error) {
	d, instance, cached, ok := c.lookup(name)
	if !ok {
		return nil, &UnregisteredServiceError{Name: name}
	}
	if cached {
		return instance, nil
	}

	if err := c.startResolving(name); err != nil {
		return nil, err
	}
	defer c.finishResolving(name)

	if d.scope == ScopeSingleton {
		v, err, _ := c.flights.Do(name, func() (any, error) {
			return c.build(d)
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return c.build(d)
}

// lookup returns the descriptor for name and, for singletons, the cached
// instance if one exists.
func (c *Container) lookup(name string) (d *descriptor, instance any, cached bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok = c.services[name]
	if !ok {
		return nil, nil, false, false
	}
	if d.scope == ScopeSingleton {
		if instance, cached = c.instances[name]; cached {
			return d, instance, true, true
		}
	}
	return d, nil, false, true
}

// build resolves the declared dependencies in order, invokes the factory
// and caches the result for singletons. It re-checks the instance cache so
// that late callers racing a completed flight never re-run the factory.
func (c *Container) build(d *descriptor) (any, error) {
	if d.scope == ScopeSingleton {
		c.mu.RLock()
		instance, cached := c.instances[d.name]
		c.mu.RUnlock()
		if cached {
			return instance, nil
		}
	}

	deps := make([]any, 0, len(d.dependencies))
	for _, dep := range d.dependencies {
		instance, err := c.Resolve(dep)
		if err != nil {
			return nil, err
		}
		deps = append(deps, instance)
	}

	instance, err := c.invoke(d, deps)
	if err != nil {
		return nil, err
	}

	if d.scope == ScopeSingleton {
		c.mu.Lock()
		if existing, cached := c.instances[d.name]; cached {
			c.mu.Unlock()
			return existing, nil
		}
		c.instances[d.name] = instance
		c.created = append(c.created, d.name)
		c.mu.Unlock()
	}
	return instance, nil
}

// invoke runs the factory, converting panics and returned errors into
// FactoryError carrying the service name.
func (c *Container) invoke(d *descriptor, deps []any) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FactoryError{Name: d.name, Err: fmt.Errorf("factory panic: %v", r)}
		}
	}()

	instance, err = d.factory(deps)
	if err != nil {
		return nil, &FactoryError{Name: d.name, Err: err}
	}
	return instance, nil
}

// Has reports whether a descriptor is registered under name.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// RegisteredServices returns the sorted names of all registered services.
func (c *Container) RegisteredServices() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the declared dependency names of a registered
// service, in declaration order.
func (c *Container) Dependencies(name string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.services[name]
	if !ok {
		return nil, false
	}
	deps := make([]string, len(d.dependencies))
	copy(deps, d.dependencies)
	return deps, true
}

// Clear purges cached instances and any in-flight creations. With no
// arguments every cached instance is purged; with arguments only the named
// ones are. Descriptors survive, so the next resolution re-runs the factory.
func (c *Container) Clear(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(names) == 0 {
		for name := range c.services {
			c.flights.Forget(name)
		}
		c.instances = make(map[string]any, 32)
		c.created = c.created[:0]
		return
	}

	for _, name := range names {
		c.flights.Forget(name)
		delete(c.instances, name)
	}
	c.created = c.pruneCreated(names)
}

func (c *Container) pruneCreated(names []string) []string {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	kept := c.created[:0]
	for _, name := range c.created {
		if !drop[name] {
			kept = append(kept, name)
		}
	}
	return kept
}

// Close shuts the container down: cached singletons implementing io.Closer
// are closed in reverse creation order and all caches are emptied.
// Descriptors survive, so the container remains usable afterwards.
// Returns the first close failure, wrapped as ShutdownError.
func (c *Container) Close() error {
	c.mu.Lock()
	names := make([]string, len(c.created))
	copy(names, c.created)
	instances := c.instances
	for name := range c.services {
		c.flights.Forget(name)
	}
	c.instances = make(map[string]any, 32)
	c.created = nil
	c.mu.Unlock()

	var firstErr error
	for i := len(names) - 1; i >= 0; i-- {
		closer, ok := instances[names[i]].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = &ShutdownError{Name: names[i], Err: err}
		}
	}
	return firstErr
}

// Reset clears all container state including descriptors and metrics.
// This function is intended for testing purposes only.
func (c *Container) Reset() {
	c.mu.Lock()
	c.resolutionMu.Lock()

	for name := range c.services {
		c.flights.Forget(name)
	}
	c.services = make(map[string]*descriptor, 32)
	c.instances = make(map[string]any, 32)
	c.created = nil
	c.resolutionState.Range(func(k, _ any) bool {
		c.resolutionState.Delete(k)
		return true
	})
	c.metrics.reset()

	c.resolutionMu.Unlock()
	c.mu.Unlock()
}

// ResolveAs resolves name and type-asserts the instance to T.
// Returns TypeMismatchError if the instance is not a T.
func ResolveAs[T any](c *Container, name string) (T, error) {
	var zero T
	instance, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Name:     name,
			Expected: fmt.Sprintf("%T", zero),
			Got:      fmt.Sprintf("%T", instance),
		}
	}
	return typed, nil
}
