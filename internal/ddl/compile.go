// Package ddl compiles concrete partition entities to SQLite DDL.
//
// Output is deterministic: columns appear in declaration order behind the
// implicit integer primary key, so the same entity always produces the
// same statement. The compiler only accepts fully resolved entities - a
// pending relationship reaching DDL means the cascade never ran, which is
// a caller bug, not something to paper over.
package ddl

import (
	"fmt"
	"strings"

	"github.com/tesseradb/tessera/internal/schema"
)

// Compile converts a concrete partition entity to a CREATE TABLE
// statement. The table name follows the catalog's lower-case convention.
func Compile(p *schema.Partition) (string, error) {
	cols := []string{"    id INTEGER PRIMARY KEY AUTOINCREMENT"}

	for _, f := range p.Fields() {
		switch field := f.(type) {
		case schema.Column:
			col, err := compileColumn(field)
			if err != nil {
				return "", fmt.Errorf("entity %s: %w", p.Name(), err)
			}
			cols = append(cols, "    "+col)
		case schema.ResolvedFK:
			cols = append(cols, "    "+compileForeignKey(field))
		case schema.PendingFK:
			return "", fmt.Errorf("entity %s: field %q is an unresolved placeholder (target %s)",
				p.Name(), field.Name, field.Target.Name())
		default:
			return "", fmt.Errorf("entity %s: unsupported field type: %T", p.Name(), f)
		}
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", p.TableName(), strings.Join(cols, ",\n")), nil
}

// CompileAll compiles every entity in order, preserving creation order so
// referenced tables appear before their dependents.
func CompileAll(parts []*schema.Partition) ([]string, error) {
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		sql, err := Compile(p)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, sql)
	}
	return stmts, nil
}

// compileColumn renders one plain column definition.
func compileColumn(c schema.Column) (string, error) {
	sqlType, ok := columnTypes[c.Type]
	if !ok {
		return "", fmt.Errorf("field %q: unknown type %q", c.Name, c.Type)
	}

	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	b.WriteString(sqlType)
	if !c.Null {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(compileDefault(c))
	}
	return b.String(), nil
}

// compileForeignKey renders a resolved relationship as a referencing
// column. The column name carries the conventional _id suffix.
func compileForeignKey(fk schema.ResolvedFK) string {
	var b strings.Builder
	b.WriteString(fk.Name)
	b.WriteString("_id INTEGER")
	if !fk.Opts.Null {
		b.WriteString(" NOT NULL")
	}
	fmt.Fprintf(&b, " REFERENCES %s (id) ON DELETE %s", fk.Target.TableName(), fk.Opts.Action())
	return b.String()
}

// columnTypes maps field types to SQLite column types.
var columnTypes = map[schema.FieldType]string{
	schema.TypeText:     "TEXT",
	schema.TypeInt:      "INTEGER",
	schema.TypeBool:     "INTEGER",
	schema.TypeDatetime: "TIMESTAMP",
	schema.TypeJSON:     "TEXT",
}

// compileDefault renders a column default. "now" on a datetime column
// means insertion time; ints and bools pass through as literals; text
// defaults are quoted.
func compileDefault(c schema.Column) string {
	switch c.Type {
	case schema.TypeDatetime:
		if c.Default == "now" {
			return "CURRENT_TIMESTAMP"
		}
		return quote(c.Default)
	case schema.TypeInt:
		return c.Default
	case schema.TypeBool:
		switch c.Default {
		case "true":
			return "1"
		case "false":
			return "0"
		}
		return c.Default
	default:
		return quote(c.Default)
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
