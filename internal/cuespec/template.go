// Package cuespec compiles declarative CUE template definitions into the
// schema metadata layer. The CUE surface is deliberately small: a
// "template" struct per entity with ordered fields, optional partition
// configuration, and foreign keys declared by naming another template.
package cuespec

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/tesseradb/tessera/internal/schema"
)

// TemplateDef is a compiled-but-unlinked template definition. Field order
// matches source order; foreign keys still reference their targets by
// name until Link resolves them.
type TemplateDef struct {
	Name      string
	Abstract  bool
	Fields    []FieldDef
	Partition PartitionDef
}

// FieldDef is one field declaration. Exactly one of Type and FK is set.
type FieldDef struct {
	Name     string
	Type     string // column type for plain columns
	FK       string // target template name for foreign keys
	Null     bool
	Default  string
	Unique   bool
	Related  string // reverse accessor name, foreign keys only
	OnDelete string // referential action, foreign keys only
}

// PartitionDef configures the template's partition manager.
type PartitionDef struct {
	By     string // "month" or empty (keyer left unimplemented)
	Format string // optional time layout override
}

// CompileTemplate parses one CUE template value into a TemplateDef.
//
// The CUE value should be the template struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`template: Tweet: { ... }`)
//	def, err := CompileTemplate(v.LookupPath(cue.ParsePath("template.Tweet")))
func CompileTemplate(v cue.Value) (*TemplateDef, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &TemplateDef{Abstract: true}

	// Template name comes from the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}

	// abstract is optional and defaults to true. Declaring it false is
	// allowed here; the manager attach will reject it with the
	// abstractness invariant, which is exactly the error the author
	// should see.
	abstractVal := v.LookupPath(cue.ParsePath("abstract"))
	if abstractVal.Exists() {
		abstract, err := abstractVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		def.Abstract = abstract
	}

	// Fields (required, at least one, source order preserved).
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		fd, err := compileField(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, fd)
	}
	if len(def.Fields) == 0 {
		return nil, &CompileError{
			Field:   "fields",
			Message: "at least one field is required",
			Pos:     fieldsVal.Pos(),
		}
	}

	// Partition configuration (optional).
	partVal := v.LookupPath(cue.ParsePath("partition"))
	if partVal.Exists() {
		part, err := compilePartition(partVal)
		if err != nil {
			return nil, err
		}
		def.Partition = part
	}

	return def, nil
}

// compileField parses one field declaration. A field is either a plain
// column ({type: ...}) or a foreign key ({fk: ...}), never both.
func compileField(name string, v cue.Value) (FieldDef, error) {
	fd := FieldDef{Name: name}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	fkVal := v.LookupPath(cue.ParsePath("fk"))

	switch {
	case typeVal.Exists() && fkVal.Exists():
		return fd, &CompileError{
			Field:   name,
			Message: "a field declares either type or fk, not both",
			Pos:     v.Pos(),
		}
	case typeVal.Exists():
		typ, err := typeVal.String()
		if err != nil {
			return fd, formatCUEError(err)
		}
		if !schema.ValidFieldTypes[schema.FieldType(typ)] {
			return fd, &CompileError{
				Field:   name,
				Message: fmt.Sprintf("unknown field type %q", typ),
				Pos:     typeVal.Pos(),
			}
		}
		fd.Type = typ
	case fkVal.Exists():
		target, err := fkVal.String()
		if err != nil {
			return fd, formatCUEError(err)
		}
		fd.FK = target
	default:
		return fd, &CompileError{
			Field:   name,
			Message: "a field must declare type or fk",
			Pos:     v.Pos(),
		}
	}

	if err := compileFieldOptions(&fd, v); err != nil {
		return fd, err
	}
	return fd, nil
}

// compileFieldOptions fills the optional knobs shared by both field kinds.
func compileFieldOptions(fd *FieldDef, v cue.Value) error {
	if nullVal := v.LookupPath(cue.ParsePath("null")); nullVal.Exists() {
		null, err := nullVal.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		fd.Null = null
	}
	if defVal := v.LookupPath(cue.ParsePath("default")); defVal.Exists() {
		def, err := defVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		fd.Default = def
	}
	if uniqVal := v.LookupPath(cue.ParsePath("unique")); uniqVal.Exists() {
		uniq, err := uniqVal.Bool()
		if err != nil {
			return formatCUEError(err)
		}
		fd.Unique = uniq
	}
	if relVal := v.LookupPath(cue.ParsePath("related")); relVal.Exists() {
		rel, err := relVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		fd.Related = rel
	}
	if odVal := v.LookupPath(cue.ParsePath("onDelete")); odVal.Exists() {
		od, err := odVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		switch schema.ReferentialAction(od) {
		case schema.Cascade, schema.SetNull, schema.Restrict:
			fd.OnDelete = od
		default:
			return &CompileError{
				Field:   fd.Name,
				Message: fmt.Sprintf("unknown onDelete action %q", od),
				Pos:     odVal.Pos(),
			}
		}
	}
	return nil
}

// compilePartition parses the partition manager configuration.
func compilePartition(v cue.Value) (PartitionDef, error) {
	var part PartitionDef

	if byVal := v.LookupPath(cue.ParsePath("by")); byVal.Exists() {
		by, err := byVal.String()
		if err != nil {
			return part, formatCUEError(err)
		}
		if by != "month" {
			return part, &CompileError{
				Field:   "partition.by",
				Message: fmt.Sprintf("unsupported partition scheme %q (only \"month\")", by),
				Pos:     byVal.Pos(),
			}
		}
		part.By = by
	}

	if fmtVal := v.LookupPath(cue.ParsePath("format")); fmtVal.Exists() {
		format, err := fmtVal.String()
		if err != nil {
			return part, formatCUEError(err)
		}
		part.Format = format
	}

	return part, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
