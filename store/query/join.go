package query

import (
	"fmt"
	"strings"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/catalog"
)

// JoinInfo is the tree shape derived from relationship metadata that drives
// multi-table join planning. Each node names an entity reachable from its
// parent node through Relationship.
type JoinInfo struct {
	EntityFq     string
	Relationship *mmodel.Relationship
	Children     []*JoinInfo
}

// RawJoinSpec lets the caller join an explicit table. Rhs must reference the
// root entity as `thisEntity.thisColumn`.
type RawJoinSpec struct {
	Table     string
	LhsColumn string
	Op        string
	Rhs       string
}

// ProcessJoinInfo walks the join tree and emits one join clause per edge.
// Contains edges join on the parent-path column, one-to-one edges on the
// pointer column, and between edges insert the link table with both endpoint
// orientations ORed so the join matches whichever endpoint the caller
// supplied.
func ProcessJoinInfo(rootFq string, node *JoinInfo, tenant string) ([]Join, error) {
	var joins []Join

	parentTable := catalog.TableForFq(rootFq)

	for _, child := range node.Children {
		childJoins, err := planEdge(rootFq, parentTable, child, tenant)
		if err != nil {
			return nil, err
		}

		joins = append(joins, childJoins...)
	}

	return joins, nil
}

func planEdge(parentFq, parentTable string, node *JoinInfo, tenant string) ([]Join, error) {
	rel := node.Relationship
	if rel == nil || !rel.Involves(parentFq) || !rel.Involves(node.EntityFq) {
		name := "?"
		if rel != nil {
			name = rel.Fq()
		}

		return nil, pkg.ValidateBusinessError(constant.ErrUnsupportedRelationshipForJoin, "Join", name)
	}

	childTable := catalog.TableForFq(node.EntityFq)

	var joins []Join

	switch rel.Kind {
	case mmodel.RelContains:
		var on string
		if rel.To == node.EntityFq {
			// child side joined under its parent
			on = fmt.Sprintf(`%s = %s`,
				QuoteColumn(childTable, constant.ColumnParent),
				QuoteColumn(parentTable, constant.ColumnPath))
		} else {
			// walking upward: the joined node is the container
			on = fmt.Sprintf(`%s = %s`,
				QuoteColumn(childTable, constant.ColumnPath),
				QuoteColumn(parentTable, constant.ColumnParent))
		}

		joins = append(joins, scopedJoin(childTable, on, tenant))

	case mmodel.RelOneToOne:
		on := fmt.Sprintf(`%s = %s`,
			QuoteColumn(childTable, rel.PointerColumn()),
			QuoteColumn(parentTable, constant.ColumnPath))

		joins = append(joins, scopedJoin(childTable, on, tenant))

	case mmodel.RelBetween:
		linkTable := catalog.TableForFq(rel.Fq())
		fromAlias, toAlias := rel.EndpointAliases()

		linkOn := fmt.Sprintf(`(%s = %s OR %s = %s)`,
			QuoteColumn(linkTable, fromAlias), QuoteColumn(parentTable, constant.ColumnPath),
			QuoteColumn(linkTable, toAlias), QuoteColumn(parentTable, constant.ColumnPath))

		joins = append(joins, Join{
			Expr: fmt.Sprintf(`%s ON %s AND %s = ?`,
				linkTable, linkOn, QuoteColumn(linkTable, constant.ColumnTenant)),
			Args: []any{tenant},
		})

		childOn := fmt.Sprintf(`((%s = %s AND %s = %s) OR (%s = %s AND %s = %s))`,
			QuoteColumn(childTable, constant.ColumnPath), QuoteColumn(linkTable, toAlias),
			QuoteColumn(linkTable, fromAlias), QuoteColumn(parentTable, constant.ColumnPath),
			QuoteColumn(childTable, constant.ColumnPath), QuoteColumn(linkTable, fromAlias),
			QuoteColumn(linkTable, toAlias), QuoteColumn(parentTable, constant.ColumnPath))

		joins = append(joins, scopedJoin(childTable, childOn, tenant))

	default:
		return nil, pkg.ValidateBusinessError(constant.ErrUnsupportedRelationshipForJoin, "Join", rel.Fq())
	}

	for _, grandChild := range node.Children {
		sub, err := planEdge(node.EntityFq, childTable, grandChild, tenant)
		if err != nil {
			return nil, err
		}

		joins = append(joins, sub...)
	}

	return joins, nil
}

// scopedJoin appends the not-deleted and tenant pair on the joined alias.
func scopedJoin(table, on, tenant string) Join {
	return Join{
		Expr: fmt.Sprintf(`%s ON %s AND %s = false AND %s = ?`,
			table, on,
			QuoteColumn(table, constant.ColumnDeleted),
			QuoteColumn(table, constant.ColumnTenant)),
		Args: []any{tenant},
	}
}

// ProcessRawJoinSpec emits explicit joins. The rhs of each spec must address
// the root entity, by simple name or fully qualified name.
func ProcessRawJoinSpec(rootName, rootFq, rootTable string, specs []RawJoinSpec) ([]Join, error) {
	rawOps := map[string]bool{"=": true, "<>": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

	var joins []Join

	for _, spec := range specs {
		idx := strings.LastIndex(spec.Rhs, ".")
		if idx < 0 {
			return nil, pkg.ValidateBusinessError(constant.ErrInvalidJoinReference, "Join", spec.Rhs)
		}

		qualifier, column := spec.Rhs[:idx], spec.Rhs[idx+1:]
		if qualifier != rootName && qualifier != rootFq && qualifier != rootTable {
			return nil, pkg.ValidateBusinessError(constant.ErrInvalidJoinReference, "Join", spec.Rhs)
		}

		op := strings.TrimSpace(spec.Op)
		if op == "" {
			op = "="
		}

		if !rawOps[op] {
			return nil, pkg.ValidateBusinessError(constant.ErrUnknownOperator, "Join", op)
		}

		joins = append(joins, Join{
			Expr: fmt.Sprintf(`%s ON %s %s %s`,
				spec.Table,
				QuoteColumn(spec.Table, spec.LhsColumn),
				op,
				QuoteColumn(rootTable, column)),
		})
	}

	return joins, nil
}
