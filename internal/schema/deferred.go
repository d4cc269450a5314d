package schema

// Registrar records attached deferred foreign keys. It is implemented by
// the registry package; the interface lives here so attachment can
// register without the metadata layer importing the registry.
type Registrar interface {
	Register(*DeferredForeignKey)
}

// DeferredForeignKey declares that a field on an owning template should,
// once partitions exist, behave as a real foreign key into a concrete
// partition of the target template.
//
// State machine: Declared (constructed) → Attached (owner recorded,
// registered, visible as a pending field on the owner) → Resolved (the
// dependent partition's placeholder field is replaced by a concrete
// relationship during synthesis; see Partition.Resolve).
//
// The placeholder itself is a passive declaration plus validation gate -
// resolution is driven by the partition manager.
type DeferredForeignKey struct {
	target *Template
	opts   RelOptions
	owner  *Template
	field  string
}

// Defer declares a foreign key into target with the given pass-through
// options. The declaration is inert until attached to an owner.
func Defer(target *Template, opts RelOptions) *DeferredForeignKey {
	return &DeferredForeignKey{target: target, opts: opts}
}

// Attach binds the placeholder to its owning template under fieldName,
// registers it with reg, and exposes it as a pending field on the owner.
//
// Invariants enforced here, before any partition is ever requested:
//   - the owner must be abstract (it is itself a template to partition)
//   - every deferred foreign key on one owner must share a single target,
//     which bounds cascade resolution to one dependency direction
func (d *DeferredForeignKey) Attach(owner *Template, fieldName string, reg Registrar) error {
	if !owner.Abstract() {
		return NewFieldConfigError(owner.Name(), fieldName,
			"owner of a deferred foreign key must be abstract")
	}
	for _, f := range owner.fields {
		if pf, ok := f.(PendingFK); ok && pf.Target != d.target {
			return NewFieldConfigError(owner.Name(), fieldName,
				"deferred foreign keys on one template must share a single target")
		}
	}
	if _, ok := owner.Field(fieldName); ok {
		return NewFieldConfigError(owner.Name(), fieldName, "field already declared")
	}

	d.owner = owner
	d.field = fieldName
	owner.fields = append(owner.fields, PendingFK{Name: fieldName, Target: d.target, Opts: d.opts})
	reg.Register(d)
	return nil
}

// Target returns the template the placeholder points into.
func (d *DeferredForeignKey) Target() *Template { return d.target }

// Owner returns the owning template, nil until attached.
func (d *DeferredForeignKey) Owner() *Template { return d.owner }

// Field returns the field name on the owner, empty until attached.
func (d *DeferredForeignKey) Field() string { return d.field }

// Options returns the declared pass-through relationship options.
func (d *DeferredForeignKey) Options() RelOptions { return d.opts }
