package cuespec

import (
	"github.com/tesseradb/tessera/internal/partition"
	"github.com/tesseradb/tessera/internal/registry"
	"github.com/tesseradb/tessera/internal/schema"
)

// Universe bundles the outcome of one spec load: an isolated catalog and
// registry plus the linked template entities, in declaration order.
type Universe struct {
	Catalog  *schema.Catalog
	Registry *registry.Registry

	templates map[string]*schema.Template
	order     []string
}

// Template returns the linked template with the given name.
func (u *Universe) Template(name string) (*schema.Template, bool) {
	t, ok := u.templates[name]
	return t, ok
}

// Manager returns the partition manager of the named template.
func (u *Universe) Manager(name string) (*partition.Manager, bool) {
	t, ok := u.templates[name]
	if !ok {
		return nil, false
	}
	m, ok := t.Manager().(*partition.Manager)
	return m, ok
}

// Names returns the template names in declaration order.
func (u *Universe) Names() []string {
	out := make([]string, len(u.order))
	copy(out, u.order)
	return out
}

// Link resolves compiled template definitions into live schema objects:
// templates with their columns in source order, deferred foreign keys
// attached and registered, and a partition manager per template.
//
// Linking happens in two passes so a foreign key may name a template
// declared later in the same load. clock feeds the time-bucketed keyers;
// pass partition.SystemClock{} outside tests.
func Link(defs []*TemplateDef, clock partition.Clock) (*Universe, error) {
	u := &Universe{
		Catalog:   schema.NewCatalog(),
		Registry:  registry.New(),
		templates: make(map[string]*schema.Template, len(defs)),
	}

	// First pass: bare templates, so fk targets resolve regardless of
	// declaration order.
	for _, def := range defs {
		if _, ok := u.templates[def.Name]; ok {
			return nil, &CompileError{
				Field:   def.Name,
				Message: "template declared twice",
			}
		}
		u.templates[def.Name] = schema.NewTemplate(def.Name, def.Abstract)
		u.order = append(u.order, def.Name)
	}

	// Second pass: fields in source order, then the manager.
	for _, def := range defs {
		tpl := u.templates[def.Name]

		for _, fd := range def.Fields {
			if err := linkField(u, tpl, fd); err != nil {
				return nil, err
			}
		}

		var keyer partition.Keyer
		if def.Partition.By == "month" {
			keyer = partition.MonthKeyer{Clock: clock, Format: def.Partition.Format}
		}
		if _, err := partition.Attach(tpl, u.Catalog, u.Registry, keyer); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// linkField adds one field to its template: columns directly, foreign
// keys through the deferred-FK attachment path so the declaration-time
// invariants run.
func linkField(u *Universe, tpl *schema.Template, fd FieldDef) error {
	if fd.FK == "" {
		return tpl.AddColumn(schema.Column{
			Name:    fd.Name,
			Type:    schema.FieldType(fd.Type),
			Null:    fd.Null,
			Default: fd.Default,
			Unique:  fd.Unique,
		})
	}

	target, ok := u.templates[fd.FK]
	if !ok {
		return &CompileError{
			Field:   tpl.Name() + "." + fd.Name,
			Message: "fk references unknown template " + fd.FK,
		}
	}
	dfk := schema.Defer(target, schema.RelOptions{
		Null:        fd.Null,
		RelatedName: fd.Related,
		OnDelete:    schema.ReferentialAction(fd.OnDelete),
	})
	return dfk.Attach(tpl, fd.Name, u.Registry)
}
