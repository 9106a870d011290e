package di

import (
	"strconv"
	"sync"
)

// resolutionState tracks the service names under construction on one
// goroutine's resolution chain. Membership is the cycle signal: a repeat
// visit before completion proves a cycle regardless of its shape or length,
// while diamond graphs pass because finished branches are removed.
type resolutionState struct {
	chain    map[string]bool
	mu       sync.Mutex
	keyCache []string
}

func (c *Container) getResolutionState() *resolutionState {
	id := c.goroutineID()

	c.resolutionMu.RLock()
	state, ok := c.resolutionState.Load(id)
	c.resolutionMu.RUnlock()
	if ok {
		return state.(*resolutionState)
	}

	c.resolutionMu.Lock()
	defer c.resolutionMu.Unlock()

	if state, ok := c.resolutionState.Load(id); ok {
		return state.(*resolutionState)
	}

	state = c.statePool.Get()
	c.resolutionState.Store(id, state)
	return state.(*resolutionState)
}

// startResolving marks name as under construction on the current chain.
// Returns CircularDependencyError if name is already a member.
func (c *Container) startResolving(name string) error {
	state := c.getResolutionState()
	state.mu.Lock()
	defer state.mu.Unlock()

	if state.chain[name] {
		return &CircularDependencyError{Name: name}
	}
	state.chain[name] = true
	state.keyCache = append(state.keyCache, name)
	return nil
}

// isResolving reports whether name is under construction on the current
// chain without marking it. Used by the async path, whose flight runs the
// factory on its own goroutine.
func (c *Container) isResolving(name string) bool {
	id := c.goroutineID()
	state, ok := c.resolutionState.Load(id)
	if !ok {
		return false
	}
	rs := state.(*resolutionState)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.chain[name]
}

// finishResolving removes name from the chain. It runs on every exit path
// so a failed resolution never leaves a stale entry that would trip cycle
// detection on a later, unrelated call. Once the chain drains, the state
// is returned to the pool.
func (c *Container) finishResolving(name string) {
	state := c.getResolutionState()
	state.mu.Lock()
	delete(state.chain, name)
	isEmpty := len(state.chain) == 0
	state.mu.Unlock()

	if isEmpty {
		c.resolutionMu.Lock()
		id := c.goroutineID()
		if s, ok := c.resolutionState.Load(id); ok {
			c.resolutionState.Delete(id)
			rs := s.(*resolutionState)
			for _, k := range rs.keyCache {
				delete(rs.chain, k)
			}
			rs.keyCache = rs.keyCache[:0]
			c.statePool.Put(rs)
		}
		c.resolutionMu.Unlock()
	}
}

func (c *Container) goroutineID() string {
	id := goid()
	if cached, ok := c.goidCache.Load(id); ok {
		return cached.(string)
	}
	strID := strconv.FormatInt(id, 10)
	c.goidCache.Store(id, strID)
	return strID
}
