package catalog

import (
	"strings"

	"github.com/agentlang-ai/agentstore/pkg/constant"
)

// ToTableReference maps an entity to its table name: lowercased
// `module_entity` with the module separator and any other non-identifier
// characters sanitized to underscores.
func ToTableReference(module, entity string) string {
	return sanitize(module) + "_" + sanitize(entity)
}

// TableForFq maps a fully qualified Module/Name to its table name.
func TableForFq(fq string) string {
	idx := strings.Index(fq, "/")
	if idx < 0 {
		return sanitize(fq)
	}

	return ToTableReference(fq[:idx], fq[idx+1:])
}

// OwnersTable returns the ownership table shadowing an entity table.
func OwnersTable(tableRef string) string {
	return tableRef + constant.OwnersTableSuffix
}

// VectorTable returns the embedding table shadowing an entity table on the
// relational vector backend.
func VectorTable(tableRef string) string {
	return tableRef + constant.VectorTableSuffix
}

// ToColumnReference renders an attribute reference for SQL. The attribute may
// be plain (`age`), entity-qualified (`Person.age`) or fully qualified
// (`acme/Person.age`); qualified references that address the root entity
// resolve to tableRef, any other qualifier resolves to its own table within
// the same module. With quoted set, both parts are double-quoted.
func ToColumnReference(attr, tableRef, entityName, entityFq, module string, quoted bool) string {
	table := tableRef
	column := attr

	if idx := strings.LastIndex(attr, "."); idx >= 0 {
		qualifier := attr[:idx]
		column = attr[idx+1:]

		switch qualifier {
		case entityName, entityFq:
			// root entity
		default:
			if strings.Contains(qualifier, "/") {
				table = TableForFq(qualifier)
			} else {
				table = ToTableReference(module, qualifier)
			}
		}
	}

	column = strings.ToLower(column)

	if quoted {
		return `"` + table + `"."` + column + `"`
	}

	return table + "." + column
}

func sanitize(s string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}
