package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
)

// columnType maps an attribute type to the backend column type.
func columnType(t mmodel.AttrType, dialect string) string {
	if dialect == constant.DialectSqlite {
		switch t {
		case mmodel.TypeInt:
			return "integer"
		case mmodel.TypeFloat:
			return "real"
		case mmodel.TypeBool:
			return "boolean"
		case mmodel.TypeDateTime:
			return "datetime"
		default:
			return "text"
		}
	}

	switch t {
	case mmodel.TypeInt:
		return "bigint"
	case mmodel.TypeFloat:
		return "double precision"
	case mmodel.TypeBool:
		return "boolean"
	case mmodel.TypeDateTime:
		return "timestamptz"
	case mmodel.TypeMap, mmodel.TypeAny:
		return "text"
	default:
		return "varchar"
	}
}

// EntityTableDDL renders the CREATE TABLE statement for an entity, including
// the reserved columns and the pointer columns of its one-to-one
// relationships.
func (c *Catalog) EntityTableDDL(e *mmodel.Entity, dialect string) string {
	table := ToTableReference(e.Module, e.Name)

	cols := []string{
		fmt.Sprintf("%s varchar PRIMARY KEY", constant.ColumnPath),
		fmt.Sprintf("%s varchar NOT NULL", constant.ColumnTenant),
		fmt.Sprintf("%s boolean NOT NULL DEFAULT false", constant.ColumnDeleted),
	}

	if e.Contained {
		cols = append(cols, fmt.Sprintf("%s varchar", constant.ColumnParent))
	}

	for _, a := range e.Attributes {
		col := strings.ToLower(a.Name) + " " + columnType(a.Type, dialect)

		if !a.Optional {
			col += " NOT NULL"
		}

		if a.Unique {
			col += " UNIQUE"
		}

		cols = append(cols, col)
	}

	for _, r := range c.OneToOneRelationshipsFor(e.Fq()) {
		cols = append(cols, r.PointerColumn()+" varchar")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(cols, ", "))
}

// EntityIndexDDL renders one CREATE INDEX statement per indexed attribute.
func (c *Catalog) EntityIndexDDL(e *mmodel.Entity) []string {
	table := ToTableReference(e.Module, e.Name)

	var out []string

	for _, a := range e.Attributes {
		if a.Indexed && !a.Unique {
			col := strings.ToLower(a.Name)
			out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s)", table, col, table, col))
		}
	}

	return out
}

// OwnersTableDDL renders the ownership table shadowing the entity table.
func (c *Catalog) OwnersTableDDL(e *mmodel.Entity, dialect string) string {
	idType := "uuid"
	if dialect == constant.DialectSqlite {
		idType = "varchar"
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id %s PRIMARY KEY, path varchar NOT NULL, user_id varchar NOT NULL, type char(1) NOT NULL, c boolean NOT NULL DEFAULT false, r boolean NOT NULL DEFAULT false, u boolean NOT NULL DEFAULT false, d boolean NOT NULL DEFAULT false, %s varchar NOT NULL)",
		OwnersTable(ToTableReference(e.Module, e.Name)), idType, constant.ColumnTenant)
}

// VectorTableDDL renders the embedding table for the relational vector
// backend. Only the postgres dialect carries a vector type.
func (c *Catalog) VectorTableDDL(e *mmodel.Entity, dims int) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id varchar PRIMARY KEY, embedding vector(%d), %s varchar NOT NULL, %s boolean NOT NULL DEFAULT false)",
		VectorTable(ToTableReference(e.Module, e.Name)), dims, constant.ColumnTenant, constant.ColumnDeleted)
}

// BetweenTableDDL renders the link table of a between relationship.
func (c *Catalog) BetweenTableDDL(r *mmodel.Relationship) string {
	from, to := r.EndpointAliases()

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s varchar PRIMARY KEY, %s varchar NOT NULL, %s varchar NOT NULL, %s varchar NOT NULL, %s boolean NOT NULL DEFAULT false)",
		ToTableReference(r.Module, r.Name), constant.ColumnPath, from, to, constant.ColumnTenant, constant.ColumnDeleted)
}

// SchemaDDL renders the statements that materialize the whole catalog on the
// given dialect. Vector tables are included only when withVector is set (the
// relational vector backend on postgres).
func (c *Catalog) SchemaDDL(dialect string, withVector bool, vectorDims int) []string {
	var out []string

	for _, e := range c.Entities() {
		out = append(out, c.EntityTableDDL(e, dialect))
		out = append(out, c.EntityIndexDDL(e)...)
		out = append(out, c.OwnersTableDDL(e, dialect))

		if withVector && e.HasFullText() {
			out = append(out, c.VectorTableDDL(e, vectorDims))
		}
	}

	for _, r := range c.Relationships() {
		if r.Kind == mmodel.RelBetween {
			out = append(out, c.BetweenTableDDL(r))
		}
	}

	return out
}

// ApplySchema executes externally supplied or rendered DDL on the active
// backend connection. This is the hook where generated migration SQL lands;
// deriving SQL from schema diffs happens upstream.
func ApplySchema(ctx context.Context, db *sql.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %q: %w", stmt, err)
		}
	}

	return nil
}
