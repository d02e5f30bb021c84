package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
)

func containsRel() *mmodel.Relationship {
	return &mmodel.Relationship{
		Module: "acme", Name: "DeptTeams", Kind: mmodel.RelContains,
		From: "acme/Department", To: "acme/Team",
	}
}

func oneToOneRel() *mmodel.Relationship {
	return &mmodel.Relationship{
		Module: "acme", Name: "PassportOf", Kind: mmodel.RelOneToOne,
		From: "acme/Person", To: "acme/Passport",
	}
}

func betweenRel() *mmodel.Relationship {
	return &mmodel.Relationship{
		Module: "acme", Name: "EmploymentOf", Kind: mmodel.RelBetween,
		From: "acme/Person", To: "acme/Company",
	}
}

func TestProcessJoinInfoContains(t *testing.T) {
	root := &JoinInfo{
		EntityFq: "acme/Department",
		Children: []*JoinInfo{
			{EntityFq: "acme/Team", Relationship: containsRel()},
		},
	}

	joins, err := ProcessJoinInfo("acme/Department", root, "T1")
	require.NoError(t, err)
	require.Len(t, joins, 1)

	assert.Contains(t, joins[0].Expr, `acme_team ON "acme_team"."__parent__" = "acme_department"."__path__"`)
	assert.Contains(t, joins[0].Expr, `"acme_team"."__is_deleted__" = false`)
	assert.Contains(t, joins[0].Expr, `"acme_team"."__tenant__" = ?`)
	assert.Equal(t, []any{"T1"}, joins[0].Args)
}

func TestProcessJoinInfoContainsUpward(t *testing.T) {
	root := &JoinInfo{
		EntityFq: "acme/Team",
		Children: []*JoinInfo{
			{EntityFq: "acme/Department", Relationship: containsRel()},
		},
	}

	joins, err := ProcessJoinInfo("acme/Team", root, "T1")
	require.NoError(t, err)
	require.Len(t, joins, 1)

	assert.Contains(t, joins[0].Expr, `"acme_department"."__path__" = "acme_team"."__parent__"`)
}

func TestProcessJoinInfoOneToOne(t *testing.T) {
	root := &JoinInfo{
		EntityFq: "acme/Person",
		Children: []*JoinInfo{
			{EntityFq: "acme/Passport", Relationship: oneToOneRel()},
		},
	}

	joins, err := ProcessJoinInfo("acme/Person", root, "T1")
	require.NoError(t, err)
	require.Len(t, joins, 1)

	assert.Contains(t, joins[0].Expr, `"acme_passport"."passportof" = "acme_person"."__path__"`)
}

func TestProcessJoinInfoBetween(t *testing.T) {
	root := &JoinInfo{
		EntityFq: "acme/Person",
		Children: []*JoinInfo{
			{EntityFq: "acme/Company", Relationship: betweenRel()},
		},
	}

	joins, err := ProcessJoinInfo("acme/Person", root, "T1")
	require.NoError(t, err)
	require.Len(t, joins, 2)

	// link table first, matched on either endpoint
	assert.Contains(t, joins[0].Expr, "acme_employmentof ON")
	assert.Contains(t, joins[0].Expr, `"acme_employmentof"."a1" = "acme_person"."__path__" OR "acme_employmentof"."a2" = "acme_person"."__path__"`)

	// then the far endpoint through whichever side matched
	assert.Contains(t, joins[1].Expr, `"acme_company"."__path__" = "acme_employmentof"."a2"`)
	assert.Contains(t, joins[1].Expr, `"acme_company"."__path__" = "acme_employmentof"."a1"`)
}

func TestProcessJoinInfoRejectsUnrelatedEdge(t *testing.T) {
	root := &JoinInfo{
		EntityFq: "acme/Department",
		Children: []*JoinInfo{
			{EntityFq: "acme/Company", Relationship: containsRel()},
		},
	}

	_, err := ProcessJoinInfo("acme/Department", root, "T1")

	var validation pkg.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "0011", validation.Code)
}

func TestProcessRawJoinSpec(t *testing.T) {
	joins, err := ProcessRawJoinSpec("Person", "acme/Person", "acme_person", []RawJoinSpec{
		{Table: "acme_person_owners", LhsColumn: "path", Op: "=", Rhs: "Person.__path__"},
	})
	require.NoError(t, err)
	require.Len(t, joins, 1)

	assert.Equal(t, `acme_person_owners ON "acme_person_owners"."path" = "acme_person"."__path__"`, joins[0].Expr)
}

func TestProcessRawJoinSpecRejectsForeignRhs(t *testing.T) {
	_, err := ProcessRawJoinSpec("Person", "acme/Person", "acme_person", []RawJoinSpec{
		{Table: "acme_person_owners", LhsColumn: "path", Rhs: "Company.__path__"},
	})

	var validation pkg.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "0010", validation.Code)
}

func TestProcessRawJoinSpecRejectsUnqualifiedRhs(t *testing.T) {
	_, err := ProcessRawJoinSpec("Person", "acme/Person", "acme_person", []RawJoinSpec{
		{Table: "acme_person_owners", LhsColumn: "path", Rhs: "__path__"},
	})

	assert.Error(t, err)
}
