package resolver

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/catalog"
	"github.com/agentlang-ai/agentstore/store/paths"
	"github.com/agentlang-ai/agentstore/store/query"
)

// QueryConnectedInstances returns the instances of inst's entity reachable
// from the connected instance through the relationship. One-to-one follows
// the pointer column; between joins through the link table using the
// endpoint aliases.
func (r *SQLResolver) QueryConnectedInstances(ctx context.Context, sess mmodel.Session, rel *mmodel.Relationship, connected, inst *mmodel.Instance) ([]*mmodel.Instance, error) {
	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	connectedPath := connected.Path()
	if connectedPath == "" {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidInstance, connected.Name, constant.PathAttributeName)
	}

	owner, err := r.gate.ReadScope(sess, e.Fq())
	if err != nil {
		return nil, err
	}

	spec := r.specFromInstance(e, inst, sess, false, false, owner)

	switch rel.Kind {
	case mmodel.RelOneToOne:
		spec.Where = append(spec.Where, query.Where{
			Expr: query.QuoteColumn(spec.Table, rel.PointerColumn()) + " = ?",
			Args: []any{connectedPath},
		})

	case mmodel.RelBetween:
		linkTable := catalog.TableForFq(rel.Fq())
		fromAlias, toAlias := rel.EndpointAliases()

		on := fmt.Sprintf(`((%s = ? AND %s = %s) OR (%s = ? AND %s = %s))`,
			query.QuoteColumn(linkTable, fromAlias),
			query.QuoteColumn(spec.Table, constant.ColumnPath), query.QuoteColumn(linkTable, toAlias),
			query.QuoteColumn(linkTable, toAlias),
			query.QuoteColumn(spec.Table, constant.ColumnPath), query.QuoteColumn(linkTable, fromAlias))

		spec.Joins = append(spec.Joins, query.Join{
			Expr: fmt.Sprintf(`%s ON %s AND %s = ?`, linkTable, on, query.QuoteColumn(linkTable, constant.ColumnTenant)),
			Args: []any{connectedPath, connectedPath, sess.Tenant},
		})

	default:
		return nil, pkg.ValidateBusinessError(constant.ErrUnsupportedRelationshipForJoin, e.Name, rel.Fq())
	}

	return r.runInstanceQuery(ctx, e, spec)
}

// HandleInstancesLink creates or updates a relationship between two existing
// instances. One-to-one writes each pointer column; between inserts a link
// row, removing any existing one first when orUpdate or inDeleteMode. In
// delete mode, one-to-one pointers are replaced with fresh random UUIDs to
// break the reference and no between row is inserted.
func (r *SQLResolver) HandleInstancesLink(ctx context.Context, sess mmodel.Session, node1, node2 *mmodel.Instance, rel *mmodel.Relationship, orUpdate, inDeleteMode bool) (*mmodel.Instance, error) {
	path1 := node1.Path()
	path2 := node2.Path()

	if path1 == "" || path2 == "" {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidInstance, rel.Name, constant.PathAttributeName)
	}

	switch rel.Kind {
	case mmodel.RelOneToOne:
		return r.linkOneToOne(ctx, sess, node1, node2, rel, inDeleteMode)
	case mmodel.RelBetween:
		return r.linkBetween(ctx, sess, node1, node2, rel, orUpdate, inDeleteMode)
	default:
		return nil, pkg.ValidateBusinessError(constant.ErrUnsupportedRelationshipForJoin, rel.Name, rel.Fq())
	}
}

func (r *SQLResolver) linkOneToOne(ctx context.Context, sess mmodel.Session, node1, node2 *mmodel.Instance, rel *mmodel.Relationship, inDeleteMode bool) (*mmodel.Instance, error) {
	exec := r.executor()

	pointer1 := node2.Path()
	pointer2 := node1.Path()

	if inDeleteMode {
		// Fresh random UUIDs rather than NULLs: the pointer columns stay
		// non-null and can carry a uniqueness constraint.
		pointer1 = uuid.New().String()
		pointer2 = uuid.New().String()
	}

	for _, side := range []struct {
		inst    *mmodel.Instance
		pointer string
	}{
		{node1, pointer1},
		{node2, pointer2},
	} {
		fq := side.inst.GetFqName()

		if err := r.gate.Check(ctx, exec, sess, constant.OpUpdate, fq, side.inst.Path()); err != nil {
			return nil, err
		}

		q := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s AND %s = %s",
			catalog.TableForFq(fq),
			rel.PointerColumn(), r.builder.Placeholder(1),
			constant.ColumnPath, r.builder.Placeholder(2),
			constant.ColumnTenant, r.builder.Placeholder(3))

		if _, err := exec.ExecContext(ctx, q, side.pointer, side.inst.Path(), sess.Tenant); err != nil {
			return nil, mapBackendError(err, side.inst.Name, side.inst.Path())
		}
	}

	if inDeleteMode {
		return node1, nil
	}

	return node1.MergeAttributes(map[string]any{rel.PointerColumn(): node2.Path()}), nil
}

func (r *SQLResolver) linkBetween(ctx context.Context, sess mmodel.Session, node1, node2 *mmodel.Instance, rel *mmodel.Relationship, orUpdate, inDeleteMode bool) (*mmodel.Instance, error) {
	exec := r.executor()

	action := constant.OpCreate
	if inDeleteMode {
		action = constant.OpDelete
	}

	if err := r.gate.Check(ctx, exec, sess, action, rel.Fq(), ""); err != nil {
		return nil, err
	}

	fromAlias, toAlias := rel.EndpointAliases()
	linkTable := catalog.ToTableReference(rel.Module, rel.Name)

	fromPath, toPath := node1.Path(), node2.Path()
	if rel.To == node1.GetFqName() && rel.From != node1.GetFqName() {
		fromPath, toPath = toPath, fromPath
	}

	if orUpdate || inDeleteMode {
		// Between rows are purged, never soft-deleted. Both orientations are
		// removed so a link survives endpoint order differences.
		q := fmt.Sprintf("DELETE FROM %s WHERE ((%s = %s AND %s = %s) OR (%s = %s AND %s = %s)) AND %s = %s",
			linkTable,
			fromAlias, r.builder.Placeholder(1), toAlias, r.builder.Placeholder(2),
			fromAlias, r.builder.Placeholder(3), toAlias, r.builder.Placeholder(4),
			constant.ColumnTenant, r.builder.Placeholder(5))

		if _, err := exec.ExecContext(ctx, q, fromPath, toPath, toPath, fromPath, sess.Tenant); err != nil {
			return nil, mapBackendError(err, rel.Name, fromPath)
		}
	}

	if inDeleteMode {
		return node1, nil
	}

	linkPath := paths.NewRoot(rel.Module, rel.Name, uuid.New().String())

	q := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (%s)",
		linkTable,
		constant.ColumnPath, fromAlias, toAlias, constant.ColumnTenant, constant.ColumnDeleted,
		r.placeholderList(5))

	if _, err := exec.ExecContext(ctx, q, linkPath, fromPath, toPath, sess.Tenant, false); err != nil {
		return nil, mapBackendError(err, rel.Name, linkPath)
	}

	link := mmodel.NewInstance(rel.Module, rel.Name)
	link.SetAttribute(constant.PathAttributeName, linkPath)
	link.SetAttribute(fromAlias, fromPath)
	link.SetAttribute(toAlias, toPath)
	link.SetAttribute(constant.ColumnTenant, sess.Tenant)

	return link, nil
}
