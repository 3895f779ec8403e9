package vecseg

import (
	"fmt"
	"sync"
)

// Registry resolves segment ids to live segments.
//
// A SearchResult references its segment by id only; the coordinator
// keeps the segment registered for the duration of the search/fill
// pipeline and resolves the id here when it materializes columns.
type Registry struct {
	mu       sync.RWMutex
	segments map[SegmentID]*Core
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{segments: make(map[SegmentID]*Core)}
}

// Register adds a segment. Registering an id twice is a caller bug.
func (r *Registry) Register(c *Core) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.segments[c.ID()]; ok {
		return fmt.Errorf("%w: segment %d already registered", ErrPrecondition, c.ID())
	}
	r.segments[c.ID()] = c
	return nil
}

// Get resolves a segment id.
func (r *Registry) Get(id SegmentID) (*Core, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.segments[id]
	return c, ok
}

// Unregister removes a segment. Pending results referencing the id can
// no longer be filled afterwards.
func (r *Registry) Unregister(id SegmentID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.segments, id)
}

// Len returns the number of registered segments.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.segments)
}
