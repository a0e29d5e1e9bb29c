package workchain

import "sync"

// Context is the attribute-accessible store a WorkChain's steps read and
// write through. Values are either resolved data or, transiently, a
// *Awaitable placeholder sitting at the key it will eventually occupy
// (spec.md §3, §4.3).
//
// A single *Awaitable value may appear either directly at ctx[key] (the
// ASSIGN case) or as one element inside a []interface{} at ctx[key] (the
// APPEND case) — never both, and never unreferenced: every entry on the
// owning WorkChain's pending awaitable list is reachable from exactly one
// place in Context. That bijection is the placeholder invariant steps
// must not violate by writing over a pending key out of band.
type Context struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]interface{})}
}

// Get returns the value at key and whether it was present.
func (c *Context) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set assigns key directly, overwriting whatever was there (including a
// placeholder, which is how resolution completes an ASSIGN binding).
func (c *Context) Set(key string, value interface{}) {
	c.mu.Lock()
	c.values[key] = value
	c.mu.Unlock()
}

// AppendPlaceholder appends value (typically a *Awaitable) to the ordered
// slice at key, creating it if absent. Position within the slice is fixed
// at insertion time and is never reordered by resolution order (spec.md
// §4.3, I-APPEND-ORDER).
func (c *Context) AppendPlaceholder(key string, value interface{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, _ := c.values[key].([]interface{})
	seq = append(seq, value)
	c.values[key] = seq
	return len(seq) - 1
}

// SetAt overwrites the element at index within the slice stored at key,
// used to resolve an APPEND-bound awaitable in place without disturbing
// sibling positions.
func (c *Context) SetAt(key string, index int, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, _ := c.values[key].([]interface{})
	if index < 0 || index >= len(seq) {
		return
	}
	seq[index] = value
}

// Delete removes key entirely.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	delete(c.values, key)
	c.mu.Unlock()
}

// Keys returns a snapshot of the keys currently set, for persistence and
// debugging. Order is unspecified.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a shallow copy of the underlying map, suitable for
// serialization once all placeholders have resolved (unresolved
// *Awaitable values are serialized by the persistence layer as
// references, not inlined).
func (c *Context) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]interface{}, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Restore replaces the Context's contents wholesale, used when rebuilding
// a Context from a persisted snapshot.
func (c *Context) Restore(values map[string]interface{}) {
	c.mu.Lock()
	if values == nil {
		values = make(map[string]interface{})
	}
	c.values = values
	c.mu.Unlock()
}
