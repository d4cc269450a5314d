// Package registry tracks pending cross-entity links: for each target
// template, the deferred foreign keys that reference it. Pure in-memory
// bookkeeping with no entity creation logic of its own.
package registry

import (
	"sync"

	"github.com/tesseradb/tessera/internal/schema"
)

// Registry maps a target template to the ordered list of deferred foreign
// keys referencing it. Entries are never removed; the mapping only grows
// across the process lifetime. Insertion order determines processing
// order during cascade resolution.
//
// Thread-safety: Referencing returns a snapshot that is safe to iterate
// while other goroutines register.
type Registry struct {
	mu       sync.RWMutex
	byTarget map[*schema.Template][]*schema.DeferredForeignKey
}

// New creates an empty registry. Registries are injectable so tests can
// instantiate isolated ones.
func New() *Registry {
	return &Registry{byTarget: make(map[*schema.Template][]*schema.DeferredForeignKey)}
}

// Register appends d to the list keyed by its target template.
// Implements schema.Registrar.
func (r *Registry) Register(d *schema.DeferredForeignKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTarget[d.Target()] = append(r.byTarget[d.Target()], d)
}

// Referencing returns the (possibly empty) placeholders that name target,
// in insertion order, as a copied snapshot.
func (r *Registry) Referencing(target *schema.Template) []*schema.DeferredForeignKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.byTarget[target]
	out := make([]*schema.DeferredForeignKey, len(src))
	copy(out, src)
	return out
}

// Len returns the number of registered placeholders across all targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, dfks := range r.byTarget {
		n += len(dfks)
	}
	return n
}
