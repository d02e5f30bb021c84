package resolver

import (
	"context"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/query"
)

// QueryByJoin is the most expressive read path: the join shape comes either
// from relationship metadata (joinInfo) or from explicit raw join specs, and
// the projection is mandatory.
func (r *SQLResolver) QueryByJoin(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, joinInfo *query.JoinInfo, intoSpec map[string]string, distinct bool, rawJoins []query.RawJoinSpec, wheres []query.Where) ([]map[string]any, error) {
	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	if len(intoSpec) == 0 && len(inst.Aggregates) == 0 {
		return nil, pkg.ValidateBusinessError(constant.ErrMissingProjection, e.Name)
	}

	owner, err := r.gate.ReadScope(sess, e.Fq())
	if err != nil {
		return nil, err
	}

	spec := r.specFromInstance(e, inst, sess, false, distinct, owner)
	spec.Into = intoSpec
	spec.Columns = nil

	if joinInfo != nil {
		joins, err := query.ProcessJoinInfo(e.Fq(), joinInfo, sess.Tenant)
		if err != nil {
			return nil, err
		}

		spec.Joins = append(spec.Joins, joins...)
	}

	if len(rawJoins) > 0 {
		joins, err := query.ProcessRawJoinSpec(e.Name, e.Fq(), spec.Table, rawJoins)
		if err != nil {
			return nil, err
		}

		spec.Joins = append(spec.Joins, joins...)
	}

	spec.Where = append(spec.Where, wheres...)

	q, args, err := r.builder.BuildSelect(spec)
	if err != nil {
		return nil, err
	}

	rows, err := r.executor().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapBackendError(err, e.Name, "")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any

	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))

		for i := range values {
			targets[i] = &values[i]
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
