package schema

import "sync"

// Catalog is the process-wide namespace mapping entity names to objects.
//
// The catalog is append-only: names are bound exactly once and never
// removed, mirroring a type catalog that only grows for the life of the
// process. It also owns THE synthesis lock: the single mutual-exclusion
// section that the whole synthesize-and-cascade operation runs under.
// Any schema-loading machinery in the host must share this lock to avoid
// lock-ordering deadlocks with partition creation.
//
// Catalogs are injectable, not hidden singletons, so tests can work
// against isolated namespaces.
type Catalog struct {
	mu    sync.RWMutex
	names map[string]Object
	order []string

	// synth guards the whole synthesis-and-cascade operation. It is held
	// across recursion, so it must only be taken at the top level.
	synth sync.Mutex
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{names: make(map[string]Object)}
}

// Lookup returns the object bound under name, if any.
func (c *Catalog) Lookup(name string) (Object, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obj, ok := c.names[name]
	return obj, ok
}

// Bind registers obj under its name. Binding the same object again is a
// no-op; binding a name already held by a distinct object fails and
// leaves the existing binding untouched.
func (c *Catalog) Bind(obj Object) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := obj.Name()
	if existing, ok := c.names[name]; ok {
		if existing == obj {
			return nil
		}
		return NewNameCollisionError(name, "")
	}
	c.names[name] = obj
	c.order = append(c.order, name)
	return nil
}

// Names returns the bound names in binding order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of bound names.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// LockSynthesis acquires the process-wide synthesis lock. Not reentrant:
// recursive cascade work happens on the locked path without re-acquiring.
func (c *Catalog) LockSynthesis() { c.synth.Lock() }

// UnlockSynthesis releases the synthesis lock.
func (c *Catalog) UnlockSynthesis() { c.synth.Unlock() }
