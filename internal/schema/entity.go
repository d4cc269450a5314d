package schema

// Object is anything that can occupy a name in the catalog.
//
// Concrete partition entities implement Object; so can foreign objects
// bound by the host application, which is exactly what name collision
// detection exists to catch.
type Object interface {
	Name() string
}

// Ensurer materializes concrete partitions for one template entity.
// It is implemented by the partition manager; templates hold it as an
// interface so the metadata layer stays free of manager logic.
type Ensurer interface {
	// GetPartition returns the concrete partition for key, creating it
	// when create is true. When create is false and no partition exists,
	// it returns (nil, nil).
	GetPartition(key string, create bool) (*Partition, error)
}

// Accessor is a named accessor attached to an entity, mirroring the
// declared order of the manager's sibling accessors. The first attached
// accessor is the entity's default.
type Accessor struct {
	Name string
}

// Template is an abstract schema definition. It declares fields and owns
// exactly one partition manager; it is never instantiated or bound into
// the catalog itself.
type Template struct {
	name      string
	abstract  bool
	fields    []Field
	accessors []Accessor
	manager   Ensurer
}

// NewTemplate creates a template entity with the given column fields in
// declared order. Relationship placeholders are added later via
// DeferredForeignKey.Attach; the partition manager via its own Attach.
func NewTemplate(name string, abstract bool, columns ...Column) *Template {
	t := &Template{name: name, abstract: abstract}
	for _, c := range columns {
		t.fields = append(t.fields, c)
	}
	return t
}

// Name returns the template entity name.
func (t *Template) Name() string { return t.name }

// Abstract reports whether the template was declared abstract.
func (t *Template) Abstract() bool { return t.abstract }

// Fields returns a copy of the declared fields in declaration order.
func (t *Template) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Field returns the declared field with the given name.
func (t *Template) Field(name string) (Field, bool) {
	for _, f := range t.fields {
		if f.FieldName() == name {
			return f, true
		}
	}
	return nil, false
}

// AddColumn appends a plain column to the template.
func (t *Template) AddColumn(c Column) error {
	if _, ok := t.Field(c.Name); ok {
		return NewFieldConfigError(t.name, c.Name, "field already declared")
	}
	t.fields = append(t.fields, c)
	return nil
}

// AddAccessor appends a declared accessor. Declaration order matters:
// the first accessor becomes the default on every synthesized partition.
func (t *Template) AddAccessor(a Accessor) {
	t.accessors = append(t.accessors, a)
}

// Accessors returns a copy of the declared accessors in order.
func (t *Template) Accessors() []Accessor {
	out := make([]Accessor, len(t.accessors))
	copy(out, t.accessors)
	return out
}

// Manager returns the attached partition manager, or nil.
func (t *Template) Manager() Ensurer { return t.manager }

// SetManager records the template's partition manager. A template owns
// exactly one; re-attachment is a configuration error.
func (t *Template) SetManager(m Ensurer) error {
	if t.manager != nil {
		return NewConfigError(t.name, "template already has a partition manager")
	}
	t.manager = m
	return nil
}

// Partition is a materialized schema for one (template, key) pair. It is
// structurally identical to its base template plus a marker recording the
// originating key. Created once, never destroyed by the engine.
type Partition struct {
	name      string
	base      *Template
	key       string
	fields    []Field
	accessors []Accessor
}

// NewPartition builds a concrete partition entity. The field list is
// copied so later resolution never aliases the template's own fields.
func NewPartition(name string, base *Template, key string, fields []Field) *Partition {
	p := &Partition{name: name, base: base, key: key}
	p.fields = make([]Field, len(fields))
	copy(p.fields, fields)
	return p
}

// Name returns the concrete entity name. Implements Object.
func (p *Partition) Name() string { return p.name }

// Base returns the template this partition was synthesized from.
func (p *Partition) Base() *Template { return p.base }

// Key returns the originating partition key marker.
func (p *Partition) Key() string { return p.key }

// TableName returns the storage-table name for this entity.
func (p *Partition) TableName() string { return TableName(p.name) }

// Fields returns a copy of the entity's fields in declaration order.
func (p *Partition) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Field returns the field with the given name.
func (p *Partition) Field(name string) (Field, bool) {
	for _, f := range p.fields {
		if f.FieldName() == name {
			return f, true
		}
	}
	return nil, false
}

// Pending returns the placeholder fields that have not been resolved yet.
func (p *Partition) Pending() []PendingFK {
	var out []PendingFK
	for _, f := range p.fields {
		if pf, ok := f.(PendingFK); ok {
			out = append(out, pf)
		}
	}
	return out
}

// Resolve replaces the named placeholder field with a concrete
// relationship pointing at target, carrying over the placeholder's
// declared options. The replacement is a new field record in the same
// position; the stale placeholder drops out of the field list so
// subsequent introspection never sees it.
//
// Resolving a field that already points at target is a no-op.
func (p *Partition) Resolve(field string, target *Partition) error {
	for i, f := range p.fields {
		if f.FieldName() != field {
			continue
		}
		switch v := f.(type) {
		case PendingFK:
			p.fields[i] = ResolvedFK{Name: v.Name, Target: target, Opts: v.Opts}
			return nil
		case ResolvedFK:
			if v.Target == target {
				return nil
			}
			return NewFieldConfigError(p.name, field, "field already resolved to a different partition")
		default:
			return NewFieldConfigError(p.name, field, "field is not a relationship")
		}
	}
	return NewFieldConfigError(p.name, field, "no such field")
}

// AttachAccessor appends an accessor in manager-declared order.
func (p *Partition) AttachAccessor(a Accessor) {
	p.accessors = append(p.accessors, a)
}

// Accessors returns a copy of the attached accessors in order.
func (p *Partition) Accessors() []Accessor {
	out := make([]Accessor, len(p.accessors))
	copy(out, p.accessors)
	return out
}

// DefaultAccessor returns the first attached accessor.
func (p *Partition) DefaultAccessor() (Accessor, bool) {
	if len(p.accessors) == 0 {
		return Accessor{}, false
	}
	return p.accessors[0], true
}
