package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlang-ai/agentstore/pkg"
)

func TestBuildSelectScopesTenantAndSoftDelete(t *testing.T) {
	b := NewBuilder("postgres")

	sql, args, err := b.BuildSelect(&Spec{Table: "acme_person", Tenant: "T1"})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "acme_person".* FROM acme_person WHERE "acme_person"."__is_deleted__" = false AND "acme_person"."__tenant__" = $1`,
		sql)
	assert.Equal(t, []any{"T1"}, args)
}

func TestBuildSelectPredicates(t *testing.T) {
	b := NewBuilder("postgres")

	sql, args, err := b.BuildSelect(&Spec{
		Table:     "acme_person",
		Tenant:    "T1",
		QueryOps:  map[string]string{"age": ">=", "name": "like"},
		QueryVals: map[string]any{"age": 21, "name": "Jo%"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `"acme_person"."age" >= $1`)
	assert.Contains(t, sql, `"acme_person"."name" LIKE $2`)
	assert.Equal(t, []any{21, "Jo%", "T1"}, args)
}

func TestBuildSelectNullRewrites(t *testing.T) {
	b := NewBuilder("postgres")

	sql, _, err := b.BuildSelect(&Spec{
		Table:     "acme_person",
		Tenant:    "T1",
		QueryOps:  map[string]string{"age": "=", "name": "<>"},
		QueryVals: map[string]any{"age": nil, "name": nil},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `"acme_person"."age" IS NULL`)
	assert.Contains(t, sql, `"acme_person"."name" IS NOT NULL`)
}

func TestBuildSelectNullWithOrderingOperatorFails(t *testing.T) {
	b := NewBuilder("postgres")

	_, _, err := b.BuildSelect(&Spec{
		Table:     "acme_person",
		Tenant:    "T1",
		QueryOps:  map[string]string{"age": "<"},
		QueryVals: map[string]any{"age": nil},
	})
	require.Error(t, err)

	var validation pkg.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "0008", validation.Code)
}

func TestBuildSelectBetween(t *testing.T) {
	b := NewBuilder("postgres")

	sql, args, err := b.BuildSelect(&Spec{
		Table:     "acme_person",
		Tenant:    "T1",
		QueryOps:  map[string]string{"age": "between"},
		QueryVals: map[string]any{"age": []any{18, 65}},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `"acme_person"."age" BETWEEN $1 AND $2`)
	assert.Equal(t, []any{18, 65, "T1"}, args)
}

func TestBuildSelectBetweenRejectsNonPair(t *testing.T) {
	b := NewBuilder("postgres")

	for _, val := range []any{"18-65", []any{18}, []any{18, 65, 99}} {
		_, _, err := b.BuildSelect(&Spec{
			Table:     "acme_person",
			Tenant:    "T1",
			QueryOps:  map[string]string{"age": "between"},
			QueryVals: map[string]any{"age": val},
		})

		var validation pkg.ValidationError
		require.True(t, errors.As(err, &validation))
		assert.Equal(t, "0009", validation.Code)
	}
}

func TestBuildSelectUnknownOperator(t *testing.T) {
	b := NewBuilder("postgres")

	_, _, err := b.BuildSelect(&Spec{
		Table:     "acme_person",
		Tenant:    "T1",
		QueryOps:  map[string]string{"age": "~"},
		QueryVals: map[string]any{"age": 1},
	})

	var validation pkg.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "0015", validation.Code)
}

func TestBuildSelectOwnerJoin(t *testing.T) {
	b := NewBuilder("postgres")

	sql, args, err := b.BuildSelect(&Spec{
		Table:  "acme_person",
		Tenant: "T1",
		Owner: &OwnerScope{
			Table:  "acme_person_owners",
			UserID: "U1",
			Tenant: "T1",
			Flags:  []string{"u"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `INNER JOIN acme_person_owners ON "acme_person_owners"."path" = "acme_person"."__path__"`)
	assert.Contains(t, sql, `"acme_person_owners"."user_id" = $1`)
	assert.Contains(t, sql, `"acme_person_owners"."r" = true`)
	assert.Contains(t, sql, `"acme_person_owners"."u" = true`)
	assert.Contains(t, sql, `"acme_person_owners"."__tenant__" = $2`)
	assert.Equal(t, []any{"U1", "T1", "T1"}, args)
}

func TestBuildSelectAggregatesAndInto(t *testing.T) {
	b := NewBuilder("postgres")

	sql, _, err := b.BuildSelect(&Spec{
		Table:      "acme_person",
		Tenant:     "T1",
		Aggregates: map[string]string{"total": "count(*)"},
		Into:       map[string]string{"personName": "name"},
		GroupBy:    []string{"name"},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `count(*) AS "total"`)
	assert.Contains(t, sql, `"acme_person"."name" AS "personName"`)
	assert.Contains(t, sql, `GROUP BY "acme_person"."name"`)
}

func TestBuildSelectOrderingAndPaging(t *testing.T) {
	b := NewBuilder("postgres")

	sql, _, err := b.BuildSelect(&Spec{
		Table:          "acme_person",
		Tenant:         "T1",
		OrderBy:        []string{"age"},
		OrderDirection: "desc",
		Distinct:       true,
		Limit:          10,
		Offset:         20,
	})
	require.NoError(t, err)

	assert.Contains(t, sql, "SELECT DISTINCT")
	assert.Contains(t, sql, `ORDER BY "acme_person"."age" DESC`)
	assert.Contains(t, sql, "LIMIT 10")
	assert.Contains(t, sql, "OFFSET 20")
}

func TestPlaceholderPerDialect(t *testing.T) {
	assert.Equal(t, "$3", NewBuilder("postgres").Placeholder(3))
	assert.Equal(t, "?", NewBuilder("sqlite").Placeholder(3))
}

func TestSqliteDialectUsesQuestionMarks(t *testing.T) {
	b := NewBuilder("sqlite")

	sql, _, err := b.BuildSelect(&Spec{
		Table:     "acme_person",
		Tenant:    "T1",
		QueryOps:  map[string]string{"age": "="},
		QueryVals: map[string]any{"age": 23},
	})
	require.NoError(t, err)

	assert.Contains(t, sql, `"acme_person"."age" = ?`)
	assert.NotContains(t, sql, "$1")
}
