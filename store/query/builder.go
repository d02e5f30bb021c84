package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
)

// Builder renders Specs for one backend dialect.
type Builder struct {
	Dialect string
}

// NewBuilder returns a builder for the dialect.
func NewBuilder(dialect string) *Builder {
	return &Builder{Dialect: dialect}
}

// PlaceholderFormat returns the bind-parameter style of the dialect.
func (b *Builder) PlaceholderFormat() squirrel.PlaceholderFormat {
	if b.Dialect == constant.DialectPostgres {
		return squirrel.Dollar
	}

	return squirrel.Question
}

// Placeholder renders the i-th (1-based) bind parameter for hand-built
// statements.
func (b *Builder) Placeholder(i int) string {
	if b.Dialect == constant.DialectPostgres {
		return fmt.Sprintf("$%d", i)
	}

	return "?"
}

// QuoteColumn renders a table-qualified, quoted column reference. Attributes
// already carrying a qualifier keep it; plain names are prefixed with the
// given table.
func QuoteColumn(table, attr string) string {
	if idx := strings.LastIndex(attr, "."); idx >= 0 {
		return `"` + strings.Trim(attr[:idx], `"`) + `"."` + strings.ToLower(strings.Trim(attr[idx+1:], `"`)) + `"`
	}

	return `"` + table + `"."` + strings.ToLower(attr) + `"`
}

// BuildSelect renders the spec into SQL and bind arguments.
func (b *Builder) BuildSelect(spec *Spec) (string, []any, error) {
	columns, err := b.selectList(spec)
	if err != nil {
		return "", nil, err
	}

	sel := squirrel.Select(columns...).From(spec.Table)

	if spec.Distinct {
		sel = sel.Distinct()
	}

	for _, j := range spec.Joins {
		sel = sel.InnerJoin(j.Expr, j.Args...)
	}

	if spec.Owner != nil {
		ownerExpr, ownerArgs := b.ownerJoin(spec.Table, spec.Owner)
		sel = sel.InnerJoin(ownerExpr, ownerArgs...)
	}

	sel, err = b.applyPredicates(sel, spec)
	if err != nil {
		return "", nil, err
	}

	// Soft-deleted rows are masked and reads are tenant-scoped on every
	// top-level select.
	sel = sel.Where(QuoteColumn(spec.Table, constant.ColumnDeleted) + " = false")
	sel = sel.Where(squirrel.Expr(QuoteColumn(spec.Table, constant.ColumnTenant)+" = ?", spec.Tenant))

	for _, w := range spec.Where {
		sel = sel.Where(squirrel.Expr(w.Expr, w.Args...))
	}

	if len(spec.GroupBy) > 0 {
		groups := make([]string, len(spec.GroupBy))
		for i, g := range spec.GroupBy {
			groups[i] = QuoteColumn(spec.Table, g)
		}

		sel = sel.GroupBy(groups...)
	}

	if len(spec.OrderBy) > 0 {
		direction := strings.ToUpper(spec.OrderDirection)
		if direction != "DESC" {
			direction = "ASC"
		}

		orders := make([]string, len(spec.OrderBy))
		for i, o := range spec.OrderBy {
			orders[i] = QuoteColumn(spec.Table, o) + " " + direction
		}

		sel = sel.OrderBy(orders...)
	}

	if spec.Limit > 0 {
		sel = sel.Limit(spec.Limit)
	}

	if spec.Offset > 0 {
		sel = sel.Offset(spec.Offset)
	}

	return sel.PlaceholderFormat(b.PlaceholderFormat()).ToSql()
}

// selectList builds the projection. With aggregates present the list comes
// from the aggregate map plus the into projection; with a bare into
// projection it is the into columns; otherwise the explicit columns or the
// full row.
func (b *Builder) selectList(spec *Spec) ([]string, error) {
	if len(spec.Aggregates) == 0 && len(spec.Into) == 0 {
		if len(spec.Columns) > 0 {
			cols := make([]string, len(spec.Columns))
			for i, c := range spec.Columns {
				cols[i] = QuoteColumn(spec.Table, c)
			}

			return cols, nil
		}

		return []string{`"` + spec.Table + `".*`}, nil
	}

	var cols []string

	for _, alias := range sortedKeys(spec.Aggregates) {
		cols = append(cols, fmt.Sprintf(`%s AS "%s"`, spec.Aggregates[alias], alias))
	}

	for _, alias := range sortedKeys(spec.Into) {
		cols = append(cols, fmt.Sprintf(`%s AS "%s"`, QuoteColumn(spec.Table, spec.Into[alias]), alias))
	}

	return cols, nil
}

// applyPredicates emits one clause per (attribute, operator, value) triple,
// composed with AND. Null values rewrite equality to IS NULL forms; any other
// operator on null is rejected.
func (b *Builder) applyPredicates(sel squirrel.SelectBuilder, spec *Spec) (squirrel.SelectBuilder, error) {
	for _, attr := range sortedKeys(spec.QueryOps) {
		op := strings.ToLower(strings.TrimSpace(spec.QueryOps[attr]))
		val := spec.QueryVals[attr]
		col := QuoteColumn(spec.Table, attr)

		if val == nil {
			switch op {
			case OpEq, OpIs:
				sel = sel.Where(col + " IS NULL")
			case OpNe, OpNeAlt, OpIsNot:
				sel = sel.Where(col + " IS NOT NULL")
			default:
				return sel, pkg.ValidateBusinessError(constant.ErrInvalidNullComparison, "Query", op)
			}

			continue
		}

		switch op {
		case OpEq, OpIs:
			sel = sel.Where(squirrel.Expr(col+" = ?", val))
		case OpNe, OpNeAlt, OpIsNot:
			sel = sel.Where(squirrel.Expr(col+" <> ?", val))
		case OpLt:
			sel = sel.Where(squirrel.Expr(col+" < ?", val))
		case OpLte:
			sel = sel.Where(squirrel.Expr(col+" <= ?", val))
		case OpGt:
			sel = sel.Where(squirrel.Expr(col+" > ?", val))
		case OpGte:
			sel = sel.Where(squirrel.Expr(col+" >= ?", val))
		case OpLike:
			sel = sel.Where(squirrel.Expr(col+" LIKE ?", val))
		case OpBetween:
			low, high, err := betweenBounds(val)
			if err != nil {
				return sel, err
			}

			sel = sel.Where(squirrel.Expr(col+" BETWEEN ? AND ?", low, high))
		default:
			return sel, pkg.ValidateBusinessError(constant.ErrUnknownOperator, "Query", op)
		}
	}

	return sel, nil
}

func (b *Builder) ownerJoin(rootTable string, scope *OwnerScope) (string, []any) {
	conds := []string{
		fmt.Sprintf(`%s ON "%s"."path" = %s`, scope.Table, scope.Table, QuoteColumn(rootTable, constant.ColumnPath)),
		fmt.Sprintf(`"%s"."user_id" = ?`, scope.Table),
		fmt.Sprintf(`"%s"."r" = true`, scope.Table),
	}

	for _, flag := range scope.Flags {
		conds = append(conds, fmt.Sprintf(`"%s"."%s" = true`, scope.Table, flag))
	}

	conds = append(conds, fmt.Sprintf(`"%s"."%s" = ?`, scope.Table, constant.ColumnTenant))

	return strings.Join(conds, " AND "), []any{scope.UserID, scope.Tenant}
}

func betweenBounds(val any) (any, any, error) {
	pair, ok := val.([]any)
	if !ok || len(pair) != 2 {
		return nil, nil, pkg.ValidateBusinessError(constant.ErrInvalidBetweenOperand, "Query")
	}

	return pair[0], pair[1], nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
