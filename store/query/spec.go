// Package query translates declarative query specs into SQL for the active
// backend. It owns predicate emission, tenant and soft-delete scoping, join
// planning from relationship metadata, and aggregate projection.
package query

// Operators recognized in instance queries.
const (
	OpEq      = "="
	OpNe      = "<>"
	OpNeAlt   = "!="
	OpLt      = "<"
	OpLte     = "<="
	OpGt      = ">"
	OpGte     = ">="
	OpLike    = "like"
	OpBetween = "between"
	OpIs      = "is"
	OpIsNot   = "is not"
)

// Where is an extra raw predicate ANDed into the statement.
type Where struct {
	Expr string
	Args []any
}

// Join is one planned join clause: everything after the JOIN keyword, with
// bind arguments for the ON condition.
type Join struct {
	Expr string
	Args []any
}

// OwnerScope asks the builder to constrain the result set to rows the user
// owns. It is injected by the auth gate when the caller lacks a global read
// permission. Flags lists the additional grant columns that must be true
// ("u" for update-intent reads, "d" for delete-intent reads); the read flag
// is always required.
type OwnerScope struct {
	Table  string
	UserID string
	Tenant string
	Flags  []string
}

// Spec is the declarative description of a single read, decoupled from
// backend SQL.
type Spec struct {
	// Table is the root table reference; it is also used as the alias for
	// the reserved-column scoping clauses.
	Table string

	// QueryOps pairs each attribute with its comparison operator; QueryVals
	// carries the corresponding comparison values.
	QueryOps  map[string]string
	QueryVals map[string]any

	Distinct bool
	GroupBy  []string
	OrderBy  []string
	// OrderDirection is "ASC" or "DESC"; empty defaults to ASC.
	OrderDirection string

	// Aggregates maps a result alias to an aggregate expression. When set,
	// the SELECT list is built from Aggregates plus Into.
	Aggregates map[string]string
	// Into projects source column references to result aliases.
	Into map[string]string

	// Columns is the explicit projection for plain row reads. Empty means
	// the full row.
	Columns []string

	Joins []Join
	Where []Where

	Limit  uint64
	Offset uint64

	// Tenant scopes every read; it is mandatory.
	Tenant string

	Owner *OwnerScope
}
