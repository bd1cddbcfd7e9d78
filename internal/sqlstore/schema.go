// Schema generation: renders CREATE TABLE / CREATE INDEX statements from the
// catalog. Tables carry a TEXT primary key, one column per attribute, and
// the foreign key columns implied by the relationship descriptors. Join
// tables for to-many-through relationships cascade on delete so removing a
// resource never strands join rows.
package sqlstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/weftdb/weft/pkg/resource"
)

// fkColumn is a foreign key column placed on a table by some relationship
// descriptor. Inverse pairs declare the same column from both sides; they
// are deduplicated by name.
type fkColumn struct {
	name     string
	refTable string
	notNull  bool
	unique   bool
}

// joinTable describes a to-many-through join table.
type joinTable struct {
	name                string
	localCol, targetCol string
	localRef, targetRef string
}

// SchemaStatements returns the DDL for the catalog, referenced tables first
// where the foreign-key graph allows it.
func SchemaStatements(c *resource.Catalog) []string {
	fks := collectForeignKeys(c)
	joins := collectJoinTables(c)

	var stmts []string
	for _, t := range orderTypes(c, fks) {
		stmts = append(stmts, createTable(t, fks[t.Name]))
	}
	for _, t := range c.Types() {
		for _, fk := range fks[t.Name] {
			if fk.unique {
				stmts = append(stmts, fmt.Sprintf(
					"CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)",
					t.Table, fk.name, t.Table, fk.name))
			}
		}
	}
	for _, j := range joins {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (\n"+
				"  %s TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,\n"+
				"  %s TEXT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,\n"+
				"  PRIMARY KEY (%s, %s)\n)",
			j.name,
			j.localCol, j.localRef,
			j.targetCol, j.targetRef,
			j.localCol, j.targetCol))
	}
	return stmts
}

func createTable(t *resource.ResourceType, fks []fkColumn) string {
	var cols []string
	cols = append(cols, "  id TEXT PRIMARY KEY")
	for _, a := range t.Attributes {
		cols = append(cols, fmt.Sprintf("  %s %s", a.Column, columnType(a.Type)))
	}
	for _, fk := range fks {
		col := fmt.Sprintf("  %s TEXT", fk.name)
		if fk.notNull {
			col += " NOT NULL"
		}
		col += fmt.Sprintf(" REFERENCES %s (id)", fk.refTable)
		// Deleting a referenced resource unlinks optional references and is
		// rejected while required ones remain.
		if !fk.notNull {
			col += " ON DELETE SET NULL"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", t.Table, strings.Join(cols, ",\n"))
}

func columnType(attrType string) string {
	switch attrType {
	case resource.AttrInt, resource.AttrBool:
		return "INTEGER"
	case resource.AttrFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// collectForeignKeys gathers, per type name, the FK columns its table
// carries: its own owned to-one keys, plus the child/target keys declared by
// relationships on other types that point at it.
func collectForeignKeys(c *resource.Catalog) map[string][]fkColumn {
	byType := make(map[string]map[string]fkColumn)
	add := func(typeName string, col fkColumn) {
		if byType[typeName] == nil {
			byType[typeName] = make(map[string]fkColumn)
		}
		existing, ok := byType[typeName][col.name]
		if ok {
			// Declared from both sides of an inverse pair; keep the
			// stricter flags.
			col.notNull = col.notNull || existing.notNull
			col.unique = col.unique || existing.unique
		}
		byType[typeName][col.name] = col
	}

	for _, t := range c.Types() {
		for _, rel := range t.Relationships {
			target, _ := c.Type(rel.Target)
			switch {
			case rel.Kind == resource.ToOne && rel.OwnsKey:
				add(t.Name, fkColumn{
					name:     rel.ForeignKey,
					refTable: target.Table,
					notNull:  rel.Required,
				})
			case rel.Kind == resource.ToOne && !rel.OwnsKey:
				add(rel.Target, fkColumn{
					name:     rel.ForeignKey,
					refTable: t.Table,
					notNull:  rel.Required,
					unique:   true,
				})
			case rel.Kind == resource.ToMany:
				add(rel.Target, fkColumn{
					name:     rel.ForeignKey,
					refTable: t.Table,
					notNull:  rel.Required,
				})
			}
		}
	}

	out := make(map[string][]fkColumn, len(byType))
	for name, cols := range byType {
		var list []fkColumn
		for _, col := range cols {
			list = append(list, col)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
		out[name] = list
	}
	return out
}

func collectJoinTables(c *resource.Catalog) []joinTable {
	seen := make(map[string]bool)
	var joins []joinTable
	for _, t := range c.Types() {
		for _, rel := range t.Relationships {
			if rel.Kind != resource.ToManyThrough || seen[rel.Through] {
				continue
			}
			seen[rel.Through] = true
			target, _ := c.Type(rel.Target)
			joins = append(joins, joinTable{
				name:      rel.Through,
				localCol:  rel.LocalKey,
				localRef:  t.Table,
				targetCol: rel.TargetKey,
				targetRef: target.Table,
			})
		}
	}
	return joins
}

// orderTypes sorts types so that referenced tables are created before the
// tables referencing them where possible. Cycles and self-references fall
// back to declaration order, which SQLite tolerates; cyclic graphs on
// postgres need schema management outside this tool.
func orderTypes(c *resource.Catalog, fks map[string][]fkColumn) []*resource.ResourceType {
	tableToType := make(map[string]string)
	for _, t := range c.Types() {
		tableToType[t.Table] = t.Name
	}

	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var ordered []*resource.ResourceType

	var visit func(name string)
	visit = func(name string) {
		if visited[name] || inStack[name] {
			return
		}
		inStack[name] = true
		for _, fk := range fks[name] {
			if dep, ok := tableToType[fk.refTable]; ok && dep != name {
				visit(dep)
			}
		}
		inStack[name] = false
		visited[name] = true
		t, _ := c.Type(name)
		ordered = append(ordered, t)
	}

	for _, t := range c.Types() {
		visit(t.Name)
	}
	return ordered
}
