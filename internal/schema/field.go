package schema

// FieldType enumerates the column types a template may declare.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeInt      FieldType = "int"
	TypeBool     FieldType = "bool"
	TypeDatetime FieldType = "datetime"
	TypeJSON     FieldType = "json"
)

// ValidFieldTypes defines the allowed column types.
var ValidFieldTypes = map[FieldType]bool{
	TypeText:     true,
	TypeInt:      true,
	TypeBool:     true,
	TypeDatetime: true,
	TypeJSON:     true,
}

// ReferentialAction controls what happens to referencing rows when the
// referenced row is deleted.
type ReferentialAction string

const (
	Cascade  ReferentialAction = "CASCADE"
	SetNull  ReferentialAction = "SET NULL"
	Restrict ReferentialAction = "RESTRICT"
)

// RelOptions carries the pass-through options of a relationship field.
// They are declared on the placeholder and copied verbatim onto the
// resolved field during synthesis.
type RelOptions struct {
	// Null permits the relationship to be absent.
	Null bool

	// RelatedName is the reverse accessor name on the target entity.
	RelatedName string

	// OnDelete is the referential action. Empty means Cascade.
	OnDelete ReferentialAction
}

// Action returns the effective referential action.
func (o RelOptions) Action() ReferentialAction {
	if o.OnDelete == "" {
		return Cascade
	}
	return o.OnDelete
}

// Field represents one declared field of an entity.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in the DDL
// compiler and keeps resolution a state transition between variants
// rather than a mutation of a shared record.
//
// Field variants:
//   - Column: a plain stored column
//   - PendingFK: a placeholder relationship into a template that has no
//     concrete partition yet
//   - ResolvedFK: a concrete relationship into a materialized partition
type Field interface {
	FieldName() string
	fieldNode() // Marker method - seals interface to this package
}

// Column is a plain stored column.
type Column struct {
	Name    string
	Type    FieldType
	Null    bool
	Default string // literal default; "now" on datetime means insertion time
	Unique  bool
}

func (c Column) FieldName() string { return c.Name }
func (c Column) fieldNode()        {}

// PendingFK is a placeholder relationship field. It names a target
// template; the concrete entity it will point at does not exist yet.
type PendingFK struct {
	Name   string
	Target *Template
	Opts   RelOptions
}

func (p PendingFK) FieldName() string { return p.Name }
func (p PendingFK) fieldNode()        {}

// ResolvedFK is a concrete relationship field pointing at a materialized
// partition entity.
type ResolvedFK struct {
	Name   string
	Target *Partition
	Opts   RelOptions
}

func (r ResolvedFK) FieldName() string { return r.Name }
func (r ResolvedFK) fieldNode()        {}
