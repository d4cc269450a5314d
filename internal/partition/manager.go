package partition

import (
	"github.com/tesseradb/tessera/internal/registry"
	"github.com/tesseradb/tessera/internal/schema"
	"github.com/tesseradb/tessera/internal/synth"
)

// Manager materializes concrete partitions for exactly one template
// entity. It is the single entry point for "give me the schema for
// partition key K", creating it lazily and transitively ensuring
// partitions in every dependent family referenced via a deferred
// foreign key.
type Manager struct {
	tpl       *schema.Template
	catalog   *schema.Catalog
	registry  *registry.Registry
	keyer     Keyer
	accessors []schema.Accessor
}

// Attach creates a manager for tpl against the given catalog and
// registry and records it on the template. A partitioned template must
// be abstract; attaching to a non-abstract entity is a configuration
// error detected here, at declaration time.
//
// keyer may be nil, in which case the time-bucketed extension points
// fail with NOT_IMPLEMENTED until a keyer is supplied. accessors are
// attached to every synthesized partition in declared order; when none
// are declared a single "objects" accessor is used.
func Attach(tpl *schema.Template, cat *schema.Catalog, reg *registry.Registry, keyer Keyer, accessors ...schema.Accessor) (*Manager, error) {
	if !tpl.Abstract() {
		return nil, schema.NewConfigError(tpl.Name(), "partitioned template must be abstract")
	}
	if keyer == nil {
		keyer = UnimplementedKeyer{Entity: tpl.Name()}
	}
	if len(accessors) == 0 {
		accessors = []schema.Accessor{{Name: "objects"}}
	}
	m := &Manager{
		tpl:       tpl,
		catalog:   cat,
		registry:  reg,
		keyer:     keyer,
		accessors: accessors,
	}
	if err := tpl.SetManager(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Template returns the template this manager is attached to.
func (m *Manager) Template() *schema.Template { return m.tpl }

// Keyer returns the manager's key computation extension points.
func (m *Manager) Keyer() Keyer { return m.keyer }

// GetPartition returns the concrete partition entity for key.
//
// A hit on the deterministic name returns immediately - already-resolved
// partitions are assumed complete, so no dependent checks run. On a miss
// with create false it returns (nil, nil). On a miss with create true it
// synthesizes the partition and cascades to every dependent family under
// the catalog's process-wide synthesis lock.
func (m *Manager) GetPartition(key string, create bool) (*schema.Partition, error) {
	name := schema.PartitionName(m.tpl.Name(), key)
	if p, ok, err := m.lookup(name, key); err != nil || ok {
		return p, err
	}
	if !create {
		return nil, nil
	}

	// The lock is not reentrant; all recursive work below goes through
	// getLocked directly.
	m.catalog.LockSynthesis()
	defer m.catalog.UnlockSynthesis()
	return m.getLocked(key)
}

// EnsureCurrentPartition materializes the partition for the current
// bucket, per the manager's keyer.
func (m *Manager) EnsureCurrentPartition() (*schema.Partition, error) {
	key, err := m.keyer.CurrentPartitionKey()
	if err != nil {
		return nil, err
	}
	return m.GetPartition(key, true)
}

// EnsureNextPartition materializes the partition for the following bucket.
func (m *Manager) EnsureNextPartition() (*schema.Partition, error) {
	key, err := m.keyer.NextPartitionKey()
	if err != nil {
		return nil, err
	}
	return m.GetPartition(key, true)
}

// lookup resolves name in the catalog. ok reports a usable hit. A name
// bound to anything other than a partition of this template is a
// collision; the existing binding is left untouched.
func (m *Manager) lookup(name, key string) (*schema.Partition, bool, error) {
	obj, bound := m.catalog.Lookup(name)
	if !bound {
		return nil, false, nil
	}
	p, isPartition := obj.(*schema.Partition)
	if !isPartition || p.Base() != m.tpl {
		return nil, false, schema.NewNameCollisionError(name, key)
	}
	return p, true, nil
}

// getLocked runs the synthesis algorithm. Callers must hold the
// catalog's synthesis lock; cascade recursion re-enters here.
func (m *Manager) getLocked(key string) (*schema.Partition, error) {
	name := schema.PartitionName(m.tpl.Name(), key)

	// Re-check under the lock: another caller may have created the
	// partition between the unlocked lookup and lock acquisition.
	if p, ok, err := m.lookup(name, key); err != nil || ok {
		return p, err
	}

	p := synth.Create(name, m.tpl, key)

	// Sibling accessors attach in declared order; the first declared
	// becomes the entity's default accessor.
	for _, a := range m.accessors {
		p.AttachAccessor(a)
	}

	// The parent binds before dependents are processed: the dependent's
	// foreign key needs something to point at. A dependent failure below
	// therefore propagates with the parent already present; nothing is
	// rolled back.
	if err := m.catalog.Bind(p); err != nil {
		return nil, schema.NewNameCollisionError(name, key)
	}

	for _, dfk := range m.registry.Referencing(m.tpl) {
		owner := dfk.Owner()
		depMgr, ok := owner.Manager().(*Manager)
		if owner.Manager() == nil || !ok {
			return nil, schema.NewMissingManagerError(owner.Name(), m.tpl.Name())
		}
		dep, err := depMgr.getLocked(key)
		if err != nil {
			return nil, err
		}
		if err := dep.Resolve(dfk.Field(), p); err != nil {
			return nil, err
		}
	}

	return p, nil
}
