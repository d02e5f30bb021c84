package resolver

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/lib/pq"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/catalog"
	"github.com/agentlang-ai/agentstore/store/query"
)

// vectorQuerySuffix marks a query attribute as a semantic lookup.
const vectorQuerySuffix = "?"

// specFromInstance translates the instance's query shape into a Spec.
func (r *SQLResolver) specFromInstance(e *mmodel.Entity, inst *mmodel.Instance, sess mmodel.Session, queryAll, distinct bool, owner *query.OwnerScope) *query.Spec {
	spec := &query.Spec{
		Table:          catalog.ToTableReference(e.Module, e.Name),
		Distinct:       distinct || inst.Distinct,
		GroupBy:        inst.GroupBy,
		OrderBy:        inst.OrderBy,
		OrderDirection: inst.OrderDirection,
		Aggregates:     inst.Aggregates,
		Limit:          pkg.SafeIntToUint64(inst.Limit),
		Offset:         pkg.SafeIntToUint64(inst.Offset),
		Tenant:         sess.Tenant,
		Owner:          owner,
	}

	if len(spec.Aggregates) == 0 {
		spec.Columns = r.entityColumns(e)
	}

	if !queryAll {
		spec.QueryOps = map[string]string{}
		spec.QueryVals = map[string]any{}

		for attr, op := range inst.QueryAttributesAsObject() {
			if strings.HasSuffix(attr, vectorQuerySuffix) {
				continue
			}

			spec.QueryOps[attr] = op
			spec.QueryVals[attr] = inst.QueryAttributeValuesAsObject()[attr]
		}
	}

	return spec
}

// vectorQueryText extracts the semantic lookup text from the instance's
// query map: the value of the first attribute whose name ends with "?".
func vectorQueryText(inst *mmodel.Instance) (string, bool) {
	for attr := range inst.QueryAttributesAsObject() {
		if strings.HasSuffix(attr, vectorQuerySuffix) {
			if v, ok := inst.QueryAttributeValuesAsObject()[attr]; ok {
				if s, ok := v.(string); ok {
					return s, true
				}
			}
		}
	}

	return "", false
}

// QueryInstances runs the instance's declarative query: predicates,
// aggregates, grouping, ordering, paging, and the hybrid semantic lookup
// when the query carries a vector attribute.
func (r *SQLResolver) QueryInstances(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, queryAll, distinct bool) ([]*mmodel.Instance, error) {
	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	owner, err := r.gate.ReadScope(sess, e.Fq())
	if err != nil {
		return nil, err
	}

	spec := r.specFromInstance(e, inst, sess, queryAll, distinct, owner)

	text, hasVector := vectorQueryText(inst)
	if !hasVector || !e.HasFullText() {
		return r.runInstanceQuery(ctx, e, spec)
	}

	matches, err := r.searchEmbeddings(ctx, sess, e, text, inst.Limit)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, nil
	}

	if len(spec.QueryOps) == 0 {
		// No other predicates: the vector hits drive the read directly,
		// still scoped by tenant, soft-delete and ownership.
		paths := make([]string, len(matches))
		for i, m := range matches {
			paths[i] = m.ID
		}

		spec.Where = append(spec.Where, r.pathMembership(spec.Table, paths))

		return r.runInstanceQuery(ctx, e, spec)
	}

	// Both predicate kinds present: intersect the SQL result with the
	// vector hits by path membership.
	instances, err := r.runInstanceQuery(ctx, e, spec)
	if err != nil {
		return nil, err
	}

	hits := make(map[string]bool, len(matches))
	for _, m := range matches {
		hits[m.ID] = true
	}

	var out []*mmodel.Instance

	for _, found := range instances {
		if hits[found.Path()] {
			out = append(out, found)
		}
	}

	return out, nil
}

// pathMembership constrains a read to a set of paths. Postgres binds the
// whole set as one array argument; the embedded backend falls back to an IN
// list.
func (r *SQLResolver) pathMembership(table string, paths []string) query.Where {
	col := query.QuoteColumn(table, constant.ColumnPath)

	if r.dialect == constant.DialectPostgres {
		return query.Where{
			Expr: col + " = ANY(?)",
			Args: []any{pq.Array(paths)},
		}
	}

	args := make([]any, len(paths))
	marks := make([]string, len(paths))

	for i, p := range paths {
		args[i] = p
		marks[i] = "?"
	}

	return query.Where{
		Expr: col + " IN (" + strings.Join(marks, ", ") + ")",
		Args: args,
	}
}

// QueryChildInstances narrows a normal query to the descendants of the
// parent path.
func (r *SQLResolver) QueryChildInstances(ctx context.Context, sess mmodel.Session, parentPath string, inst *mmodel.Instance) ([]*mmodel.Instance, error) {
	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	owner, err := r.gate.ReadScope(sess, e.Fq())
	if err != nil {
		return nil, err
	}

	spec := r.specFromInstance(e, inst, sess, false, false, owner)

	spec.Where = append(spec.Where, query.Where{
		Expr: query.QuoteColumn(spec.Table, constant.ColumnPath) + " LIKE ?",
		Args: []any{parentPath + "/%"},
	})

	return r.runInstanceQuery(ctx, e, spec)
}

// runInstanceQuery renders the spec, executes it and normalizes the rows.
func (r *SQLResolver) runInstanceQuery(ctx context.Context, e *mmodel.Entity, spec *query.Spec) ([]*mmodel.Instance, error) {
	q, args, err := r.builder.BuildSelect(spec)
	if err != nil {
		return nil, err
	}

	rows, err := r.executor().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapBackendError(err, e.Name, "")
	}
	defer rows.Close()

	return r.scanInstances(rows, e)
}

// scanInstances normalizes result rows into instances, decoding stringified
// structured values and stripping write-only attributes.
func (r *SQLResolver) scanInstances(rows *sql.Rows, e *mmodel.Entity) ([]*mmodel.Instance, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	attrByColumn := make(map[string]mmodel.Attribute, len(e.Attributes))
	for _, a := range e.Attributes {
		attrByColumn[strings.ToLower(a.Name)] = a
	}

	var out []*mmodel.Instance

	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))

		for i := range values {
			targets[i] = &values[i]
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		inst := mmodel.NewInstance(e.Module, e.Name)

		for i, col := range columns {
			value := normalizeValue(values[i])

			if col == constant.ColumnDeleted {
				continue
			}

			attr, declared := attrByColumn[col]
			if !declared {
				// Reserved columns, pointer columns and aggregate aliases
				// pass through under the column name.
				inst.SetAttribute(col, value)

				continue
			}

			if attr.WriteOnly {
				continue
			}

			inst.SetAttribute(attr.Name, decodeAttribute(attr, value))
		}

		out = append(out, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// normalizeValue maps driver-specific scan results to plain Go values.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return v
}

// decodeAttribute undoes the stringification applied on write for structured
// attributes, and maps integer booleans from the embedded backend.
func decodeAttribute(attr mmodel.Attribute, value any) any {
	switch attr.Type {
	case mmodel.TypeMap, mmodel.TypeAny:
		if s, ok := value.(string); ok && len(s) > 0 && (s[0] == '{' || s[0] == '[') {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		}
	case mmodel.TypeBool:
		if n, ok := value.(int64); ok {
			return n != 0
		}
	}

	return value
}
