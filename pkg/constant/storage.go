package constant

// Reserved columns present on every entity table.
const (
	ColumnPath    = "__path__"
	ColumnTenant  = "__tenant__"
	ColumnDeleted = "__is_deleted__"
	ColumnParent  = "__parent__"
)

// PathAttributeName is the instance attribute holding the canonical path.
const PathAttributeName = ColumnPath

// Operations checked by the auth gate and recorded as owner grant flags.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Owner grant types. Direct grants are written as owner rows so that the
// ancestral walk recognizes them on descendants.
const (
	GrantTypeUser  = "u"
	GrantTypeOwner = "o"
)

// Dialects of the supported row-store backends.
const (
	DialectPostgres = "postgres"
	DialectSqlite   = "sqlite"
)

// Suffixes for the auxiliary tables that shadow each entity table.
const (
	OwnersTableSuffix = "_owners"
	VectorTableSuffix = "_vec"
)
