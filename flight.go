package di

import (
	"context"
	"fmt"
	"time"
)

// Get is the awaitable front of the container: it returns the instance
// registered under name, collapsing concurrent callers of the same cold
// singleton into one factory invocation. A cached singleton completes
// immediately; otherwise the caller waits on the shared in-flight creation.
//
// The context bounds only the caller's wait. A flight that has started runs
// to completion even if every waiter gives up, and a successful singleton
// result is still cached for the next call. Failures are never memoized, so
// a later Get retries the factory from scratch.
func (c *Container) Get(ctx context.Context, name string) (any, error) {
	start := time.Now()
	instance, err := c.get(ctx, name)
	c.metrics.record(name, time.Since(start), err)
	return instance, err
}

func (c *Container) get(ctx context.Context, name string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	d, instance, cached, ok := c.lookup(name)
	if !ok {
		return nil, &UnregisteredServiceError{Name: name}
	}
	if cached {
		return instance, nil
	}

	// A factory synchronously calling Get for one of its own ancestors
	// would wait on its own flight forever; fail it as a cycle instead.
	if c.isResolving(name) {
		return nil, &CircularDependencyError{Name: name}
	}

	// Transients stay out of the flight group: deduplication would hand
	// one instance to callers that must each receive a fresh one.
	if d.scope != ScopeSingleton {
		if err := c.startResolving(name); err != nil {
			return nil, err
		}
		defer c.finishResolving(name)
		return c.build(d)
	}

	// The flight body runs on its own goroutine, so the chain mark is
	// taken there, not on the waiting caller.
	ch := c.flights.DoChan(name, func() (any, error) {
		if err := c.startResolving(name); err != nil {
			return nil, err
		}
		defer c.finishResolving(name)
		return c.build(d)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetAs waits for name and type-asserts the instance to T.
// Returns TypeMismatchError if the instance is not a T.
func GetAs[T any](ctx context.Context, c *Container, name string) (T, error) {
	var zero T
	instance, err := c.Get(ctx, name)
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
