package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/catalog"
	"github.com/agentlang-ai/agentstore/store/paths"
)

// Postgres error codes mapped to business errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapBackendError translates driver errors into business errors; anything
// unrecognized bubbles up as-is.
func mapBackendError(err error, entityType, path string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return pkg.ValidateBusinessError(constant.ErrDuplicateInstance, entityType, path)
		case pgForeignKeyViolation:
			return pkg.ValidateBusinessError(constant.ErrForeignConstraint, entityType)
		}

		return err
	}

	msg := err.Error()

	switch {
	case strings.Contains(msg, "UNIQUE constraint"):
		return pkg.ValidateBusinessError(constant.ErrDuplicateInstance, entityType, path)
	case strings.Contains(msg, "FOREIGN KEY constraint"):
		return pkg.ValidateBusinessError(constant.ErrForeignConstraint, entityType)
	}

	return err
}

// lookupEntity resolves the instance's entity from the catalog.
func (r *SQLResolver) lookupEntity(inst *mmodel.Instance) (*mmodel.Entity, error) {
	e, ok := r.catalog.LookupEntity(inst.GetFqName())
	if !ok {
		return nil, pkg.ValidateBusinessError(constant.ErrUnknownEntity, inst.Name, inst.GetFqName())
	}

	return e, nil
}

// entityColumns returns the ordered column list of the entity table: the
// reserved columns, the declared attributes, then the one-to-one pointer
// columns.
func (r *SQLResolver) entityColumns(e *mmodel.Entity) []string {
	cols := []string{constant.ColumnPath, constant.ColumnTenant, constant.ColumnDeleted}

	if e.Contained {
		cols = append(cols, constant.ColumnParent)
	}

	for _, a := range e.Attributes {
		cols = append(cols, strings.ToLower(a.Name))
	}

	for _, rel := range r.catalog.OneToOneRelationshipsFor(e.Fq()) {
		cols = append(cols, rel.PointerColumn())
	}

	return cols
}

// allocatePath computes the new instance's path: the declared @id attribute
// when set, a random UUID otherwise; nested under the caller-injected parent
// path for contained children.
func (r *SQLResolver) allocatePath(e *mmodel.Entity, inst *mmodel.Instance) string {
	if p := inst.Path(); p != "" {
		return p
	}

	id := uuid.New().String()

	if idAttr, ok := e.IdentityAttribute(); ok {
		if v, ok := inst.GetAttribute(idAttr.Name); ok && v != nil {
			id = fmt.Sprintf("%v", v)
		}
	}

	if inst.ParentPath != "" {
		return paths.NewChild(inst.ParentPath, e.Module, e.Name, id)
	}

	return paths.NewRoot(e.Module, e.Name, id)
}

// rowValues orders the instance's attributes by the entity column list.
func (r *SQLResolver) rowValues(inst *mmodel.Instance, path string, sess mmodel.Session, cols []string) []any {
	attrs := inst.AttributesWithStringifiedObjects()

	byColumn := make(map[string]any, len(attrs))
	for name, value := range attrs {
		byColumn[strings.ToLower(name)] = value
	}

	values := make([]any, len(cols))

	for i, col := range cols {
		switch col {
		case constant.ColumnPath:
			values[i] = path
		case constant.ColumnTenant:
			values[i] = sess.Tenant
		case constant.ColumnDeleted:
			values[i] = false
		case constant.ColumnParent:
			values[i] = orNil(inst.ParentPath)
		default:
			values[i] = byColumn[col]
		}
	}

	return values
}

func orNil(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// CreateInstance validates the caller's create permission, allocates the
// path, inserts the row, grants the caller full CRUD on the new path and
// indexes the row for semantic lookup when configured.
func (r *SQLResolver) CreateInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error) {
	if r.catalog.IsBetween(inst.GetFqName()) {
		return r.createBetween(ctx, sess, inst)
	}

	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	exec := r.executor()

	if err := r.gate.Check(ctx, exec, sess, constant.OpCreate, e.Fq(), inst.ParentPath); err != nil {
		return nil, err
	}

	path := r.allocatePath(e, inst)

	inst = r.withPointerPlaceholders(e, inst)

	cols := r.entityColumns(e)
	values := r.rowValues(inst, path, sess, cols)

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		catalog.ToTableReference(e.Module, e.Name),
		strings.Join(cols, ", "),
		r.placeholderList(len(values)))

	if _, err := exec.ExecContext(ctx, q, values...); err != nil {
		return nil, mapBackendError(err, e.Name, path)
	}

	if !sess.Bypass() && sess.UserID != "" {
		if err := r.insertOwnerRow(ctx, sess, e.Fq(), path, sess.UserID, FullAccess()); err != nil {
			return nil, err
		}
	}

	created := inst.MergeAttributes(map[string]any{
		constant.PathAttributeName: path,
		constant.ColumnTenant:      sess.Tenant,
	})

	// Best-effort: the row store stays the source of truth, the vector
	// index catches up eventually.
	r.indexInstance(ctx, sess, e, created, path)

	return created, nil
}

// UpsertInstance is the idempotent variant used for schema-seeded rows. It
// uses the backend's upsert and creates no ownership rows.
func (r *SQLResolver) UpsertInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error) {
	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	exec := r.executor()

	if err := r.gate.Check(ctx, exec, sess, constant.OpCreate, e.Fq(), inst.ParentPath); err != nil {
		return nil, err
	}

	path := r.allocatePath(e, inst)

	inst = r.withPointerPlaceholders(e, inst)

	cols := r.entityColumns(e)
	values := r.rowValues(inst, path, sess, cols)

	var updates []string

	for _, col := range cols {
		if col == constant.ColumnPath {
			continue
		}

		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		catalog.ToTableReference(e.Module, e.Name),
		strings.Join(cols, ", "),
		r.placeholderList(len(values)),
		constant.ColumnPath,
		strings.Join(updates, ", "))

	if _, err := exec.ExecContext(ctx, q, values...); err != nil {
		return nil, mapBackendError(err, e.Name, path)
	}

	saved := inst.MergeAttributes(map[string]any{
		constant.PathAttributeName: path,
		constant.ColumnTenant:      sess.Tenant,
	})

	r.indexInstance(ctx, sess, e, saved, path)

	return saved, nil
}

// UpdateInstance applies the attribute map to the row identified by the
// instance's path and returns a fresh instance with the merged attributes.
func (r *SQLResolver) UpdateInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, newAttrs map[string]any) (*mmodel.Instance, error) {
	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	path := inst.Path()
	if path == "" {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidInstance, e.Name, constant.PathAttributeName)
	}

	exec := r.executor()

	if err := r.gate.Check(ctx, exec, sess, constant.OpUpdate, e.Fq(), path); err != nil {
		return nil, err
	}

	merged := inst.MergeAttributes(newAttrs)
	stringified := merged.AttributesWithStringifiedObjects()

	var (
		sets []string
		args []any
	)

	for _, a := range e.Attributes {
		if _, touched := newAttrs[a.Name]; !touched {
			continue
		}

		args = append(args, stringified[a.Name])
		sets = append(sets, fmt.Sprintf("%s = %s", strings.ToLower(a.Name), r.builder.Placeholder(len(args))))
	}

	if len(sets) == 0 {
		return merged, nil
	}

	args = append(args, path, sess.Tenant)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s AND %s = %s AND %s = false",
		catalog.ToTableReference(e.Module, e.Name),
		strings.Join(sets, ", "),
		constant.ColumnPath, r.builder.Placeholder(len(args)-1),
		constant.ColumnTenant, r.builder.Placeholder(len(args)),
		constant.ColumnDeleted)

	result, err := exec.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, mapBackendError(err, e.Name, path)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, pkg.ValidateBusinessError(constant.ErrEntityNotFound, e.Name)
	}

	if touchesFullText(e, newAttrs) {
		r.indexInstance(ctx, sess, e, merged, path)
	}

	return merged, nil
}

// DeleteInstance soft-deletes the row by default; with purge it removes the
// row entirely. The vector entry goes first so no dangling vector row
// survives a purge. Between rows are always purged.
func (r *SQLResolver) DeleteInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, purge bool) (*mmodel.Instance, error) {
	fq := inst.GetFqName()
	path := inst.Path()

	if path == "" {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidInstance, inst.Name, constant.PathAttributeName)
	}

	exec := r.executor()

	if r.catalog.IsBetween(fq) {
		rel, _ := r.catalog.LookupRelationship(fq)

		if err := r.gate.Check(ctx, exec, sess, constant.OpDelete, fq, path); err != nil {
			return nil, err
		}

		q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s = %s",
			catalog.ToTableReference(rel.Module, rel.Name),
			constant.ColumnPath, r.builder.Placeholder(1),
			constant.ColumnTenant, r.builder.Placeholder(2))

		if _, err := exec.ExecContext(ctx, q, path, sess.Tenant); err != nil {
			return nil, mapBackendError(err, rel.Name, path)
		}

		return inst, nil
	}

	e, err := r.lookupEntity(inst)
	if err != nil {
		return nil, err
	}

	if err := r.gate.Check(ctx, exec, sess, constant.OpDelete, e.Fq(), path); err != nil {
		return nil, err
	}

	r.deleteEmbedding(ctx, e, path)

	var q string
	if purge {
		q = fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s = %s",
			catalog.ToTableReference(e.Module, e.Name),
			constant.ColumnPath, r.builder.Placeholder(1),
			constant.ColumnTenant, r.builder.Placeholder(2))
	} else {
		q = fmt.Sprintf("UPDATE %s SET %s = true WHERE %s = %s AND %s = %s AND %s = false",
			catalog.ToTableReference(e.Module, e.Name),
			constant.ColumnDeleted,
			constant.ColumnPath, r.builder.Placeholder(1),
			constant.ColumnTenant, r.builder.Placeholder(2),
			constant.ColumnDeleted)
	}

	result, err := exec.ExecContext(ctx, q, path, sess.Tenant)
	if err != nil {
		return nil, mapBackendError(err, e.Name, path)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 && !purge {
		return nil, pkg.ValidateBusinessError(constant.ErrEntityNotFound, e.Name)
	}

	return inst, nil
}

// createBetween inserts one link row for an instance of a between
// relationship. The instance carries the two endpoint paths under the
// relationship's endpoint aliases.
func (r *SQLResolver) createBetween(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error) {
	rel, _ := r.catalog.LookupRelationship(inst.GetFqName())
	fromAlias, toAlias := rel.EndpointAliases()

	exec := r.executor()

	if err := r.gate.Check(ctx, exec, sess, constant.OpCreate, rel.Fq(), ""); err != nil {
		return nil, err
	}

	fromPath, _ := inst.GetAttribute(fromAlias)
	toPath, _ := inst.GetAttribute(toAlias)

	if fromPath == nil || toPath == nil {
		return nil, pkg.ValidateBusinessError(constant.ErrInvalidInstance, rel.Name, fromAlias+"/"+toAlias)
	}

	path := inst.Path()
	if path == "" {
		path = paths.NewRoot(rel.Module, rel.Name, uuid.New().String())
	}

	q := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s, %s) VALUES (%s)",
		catalog.ToTableReference(rel.Module, rel.Name),
		constant.ColumnPath, fromAlias, toAlias, constant.ColumnTenant, constant.ColumnDeleted,
		r.placeholderList(5))

	if _, err := exec.ExecContext(ctx, q, path, fromPath, toPath, sess.Tenant, false); err != nil {
		return nil, mapBackendError(err, rel.Name, path)
	}

	return inst.MergeAttributes(map[string]any{
		constant.PathAttributeName: path,
		constant.ColumnTenant:      sess.Tenant,
	}), nil
}

// withPointerPlaceholders ensures every one-to-one counterpart column is
// non-null on insert by assigning a random UUID placeholder when the caller
// left it unset.
func (r *SQLResolver) withPointerPlaceholders(e *mmodel.Entity, inst *mmodel.Instance) *mmodel.Instance {
	rels := r.catalog.OneToOneRelationshipsFor(e.Fq())
	if len(rels) == 0 {
		return inst
	}

	placeholders := map[string]any{}

	for _, rel := range rels {
		col := rel.PointerColumn()
		if _, ok := inst.GetAttribute(col); !ok {
			placeholders[col] = uuid.New().String()
		}
	}

	if len(placeholders) == 0 {
		return inst
	}

	return inst.MergeAttributes(placeholders)
}

// insertOwnerRow writes one (path, user) grant into the entity's owners
// table.
func (r *SQLResolver) insertOwnerRow(ctx context.Context, sess mmodel.Session, entityFq, path, userID string, flags OwnerFlags) error {
	grantType := flags.Type
	if grantType == "" {
		grantType = constant.GrantTypeOwner
	}

	table := catalog.OwnersTable(catalog.TableForFq(entityFq))

	q := fmt.Sprintf("INSERT INTO %s (id, path, user_id, type, c, r, u, d, %s) VALUES (%s)",
		table, constant.ColumnTenant, r.placeholderList(9))

	_, err := r.executor().ExecContext(ctx, q,
		uuid.New().String(), path, userID, grantType,
		flags.Create, flags.Read, flags.Update, flags.Delete, sess.Tenant)
	if err != nil {
		return mapBackendError(err, "Owners", path)
	}

	return nil
}

// GrantOwnership writes a grant row for the user on the path. The caller
// must hold the update permission on the entity.
func (r *SQLResolver) GrantOwnership(ctx context.Context, sess mmodel.Session, entityFq, path, userID string, flags OwnerFlags) error {
	if err := r.gate.Check(ctx, r.executor(), sess, constant.OpUpdate, entityFq, path); err != nil {
		return err
	}

	return r.insertOwnerRow(ctx, sess, entityFq, path, userID, flags)
}

// RevokeOwnership removes every grant row for the user on the path.
func (r *SQLResolver) RevokeOwnership(ctx context.Context, sess mmodel.Session, entityFq, path, userID string) error {
	if err := r.gate.Check(ctx, r.executor(), sess, constant.OpUpdate, entityFq, path); err != nil {
		return err
	}

	table := catalog.OwnersTable(catalog.TableForFq(entityFq))

	q := fmt.Sprintf("DELETE FROM %s WHERE path = %s AND user_id = %s AND %s = %s",
		table, r.builder.Placeholder(1), r.builder.Placeholder(2),
		constant.ColumnTenant, r.builder.Placeholder(3))

	if _, err := r.executor().ExecContext(ctx, q, path, userID, sess.Tenant); err != nil {
		return mapBackendError(err, "Owners", path)
	}

	return nil
}

func (r *SQLResolver) placeholderList(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = r.builder.Placeholder(i + 1)
	}

	return strings.Join(parts, ", ")
}

func touchesFullText(e *mmodel.Entity, attrs map[string]any) bool {
	if !e.HasFullText() {
		return false
	}

	for _, name := range e.FullTextAttributes() {
		if _, ok := attrs[name]; ok {
			return true
		}
	}

	return false
}
