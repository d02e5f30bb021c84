// Package authz is the per-row RBAC gate: global role checks through a casbin
// enforcer, plus ownership-table walks that let a container's owner act on
// everything beneath it.
package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/casbin/casbin/v2"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/dbtx"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/catalog"
	"github.com/agentlang-ai/agentstore/store/paths"
	"github.com/agentlang-ai/agentstore/store/query"
)

// flagColumn maps an operation to its grant column on the owners table.
var flagColumn = map[string]string{
	constant.OpCreate: "c",
	constant.OpRead:   "r",
	constant.OpUpdate: "u",
	constant.OpDelete: "d",
}

// Gate answers "may this session perform this operation on this row".
type Gate struct {
	enforcer *casbin.Enforcer
	catalog  *catalog.Catalog
	builder  *query.Builder
}

// NewGate builds the gate for a sealed catalog and the active dialect.
func NewGate(cat *catalog.Catalog, dialect string) (*Gate, error) {
	enforcer, err := newEnforcer(cat)
	if err != nil {
		return nil, err
	}

	return &Gate{
		enforcer: enforcer,
		catalog:  cat,
		builder:  query.NewBuilder(dialect),
	}, nil
}

// CanGlobally consults the global role/permission tables only.
func (g *Gate) CanGlobally(userID, resourceFq, action string) (bool, error) {
	ok, err := g.enforcer.Enforce(userID, resourceFq, action)
	if err != nil {
		return false, pkg.ValidateBusinessError(constant.ErrPermissionEnforcement, resourceFq)
	}

	return ok, nil
}

// Check authorizes one operation. Kernel sessions and sessions with auth
// disabled are granted outright; otherwise the global tables are consulted,
// and as a last resort the path is climbed so that a container's owner is
// permitted on its descendants.
func (g *Gate) Check(ctx context.Context, exec dbtx.Executor, sess mmodel.Session, action, entityFq, path string) error {
	if sess.Bypass() {
		return nil
	}

	ok, err := g.CanGlobally(sess.UserID, entityFq, action)
	if err != nil {
		return err
	}

	if ok {
		return nil
	}

	if path != "" {
		granted, err := g.ownedByWalk(ctx, exec, sess, action, entityFq, path)
		if err != nil {
			return err
		}

		if granted {
			return nil
		}
	}

	logger := pkg.NewLoggerFromContext(ctx)
	logger.Warnf("Denied %s on %s for user %s", action, entityFq, sess.UserID)

	return pkg.ValidateBusinessError(constant.ErrInsufficientPrivileges, entityFq, action)
}

// ownedByWalk checks the row's own grant and then every ancestor for an
// owner-typed grant with the operation flag set.
func (g *Gate) ownedByWalk(ctx context.Context, exec dbtx.Executor, sess mmodel.Session, action, entityFq, path string) (bool, error) {
	flag, ok := flagColumn[action]
	if !ok {
		return false, nil
	}

	ownGranted, err := g.hasGrant(ctx, exec, ownersTableFor(entityFq), path, sess, flag, false)
	if err != nil || ownGranted {
		return ownGranted, err
	}

	ancestors, err := paths.Ancestors(path)
	if err != nil {
		// A path that does not parse cannot carry inherited grants.
		return false, nil
	}

	for _, ancestor := range ancestors {
		granted, err := g.hasGrant(ctx, exec, ownersTableFor(ancestor.Fq()), ancestor.Path, sess, flag, true)
		if err != nil {
			return false, err
		}

		if granted {
			return true, nil
		}
	}

	return false, nil
}

// hasGrant looks for one owners row. Ancestor grants must be owner-typed;
// the row's own grant may be either a user or an owner grant.
func (g *Gate) hasGrant(ctx context.Context, exec dbtx.Executor, table, path string, sess mmodel.Session, flag string, ownerOnly bool) (bool, error) {
	typeCond := fmt.Sprintf("type IN ('%s', '%s')", constant.GrantTypeUser, constant.GrantTypeOwner)
	if ownerOnly {
		typeCond = fmt.Sprintf("type = '%s'", constant.GrantTypeOwner)
	}

	q := fmt.Sprintf(`SELECT 1 FROM %s WHERE path = %s AND user_id = %s AND %s = %s AND %s AND %s = true`,
		table,
		g.builder.Placeholder(1), g.builder.Placeholder(2),
		constant.ColumnTenant, g.builder.Placeholder(3),
		typeCond, flag)

	var one int

	err := exec.QueryRowContext(ctx, q, path, sess.UserID, sess.Tenant).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// ReadScope returns the owner join the query builder must inject when the
// session lacks a global read permission. Intents carry additional
// operations the read serves (update- or delete-intent reads), adding their
// grant flags to the join.
func (g *Gate) ReadScope(sess mmodel.Session, entityFq string, intents ...string) (*query.OwnerScope, error) {
	if sess.Bypass() {
		return nil, nil
	}

	ok, err := g.CanGlobally(sess.UserID, entityFq, constant.OpRead)
	if err != nil {
		return nil, err
	}

	if ok {
		return nil, nil
	}

	var flags []string

	for _, intent := range intents {
		if flag, ok := flagColumn[intent]; ok && flag != "r" {
			flags = append(flags, flag)
		}
	}

	return &query.OwnerScope{
		Table:  ownersTableFor(entityFq),
		UserID: sess.UserID,
		Tenant: sess.Tenant,
		Flags:  flags,
	}, nil
}

func ownersTableFor(entityFq string) string {
	return catalog.OwnersTable(catalog.TableForFq(entityFq))
}
