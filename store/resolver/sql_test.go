package resolver

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/embeddings"
	embmock "github.com/agentlang-ai/agentstore/pkg/embeddings/mock"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/authz"
	"github.com/agentlang-ai/agentstore/store/catalog"
	vecmock "github.com/agentlang-ai/agentstore/store/vector/mock"
)

// Compile-time interface checks.
var (
	_ Resolver = (*SQLResolver)(nil)
	_ Resolver = (*CallbackResolver)(nil)
)

func buildCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat := catalog.New()

	require.NoError(t, cat.AddEntity(&mmodel.Entity{
		Module: "acme",
		Name:   "Person",
		Attributes: []mmodel.Attribute{
			{Name: "id", Type: mmodel.TypeInt, Identity: true},
			{Name: "name", Type: mmodel.TypeString},
			{Name: "age", Type: mmodel.TypeInt, Optional: true},
		},
	}))

	require.NoError(t, cat.AddEntity(&mmodel.Entity{
		Module: "acme",
		Name:   "Company",
		Attributes: []mmodel.Attribute{
			{Name: "id", Type: mmodel.TypeInt, Identity: true},
			{Name: "name", Type: mmodel.TypeString},
		},
	}))

	require.NoError(t, cat.AddEntity(&mmodel.Entity{
		Module: "acme",
		Name:   "Doc",
		Attributes: []mmodel.Attribute{
			{Name: "id", Type: mmodel.TypeInt, Identity: true},
			{Name: "body", Type: mmodel.TypeString},
		},
		FtsAttributes: []string{"body"},
	}))

	require.NoError(t, cat.AddEntity(&mmodel.Entity{
		Module: "acme",
		Name:   "Secret",
		Attributes: []mmodel.Attribute{
			{Name: "id", Type: mmodel.TypeInt, Identity: true},
			{Name: "token", Type: mmodel.TypeString, WriteOnly: true},
		},
	}))

	require.NoError(t, cat.AddRelationship(&mmodel.Relationship{
		Module: "acme", Name: "EmploymentOf", Kind: mmodel.RelBetween,
		From: "acme/Person", To: "acme/Company",
	}))

	require.NoError(t, cat.AddRbacSpec(mmodel.RbacSpec{
		Role: "writer", Resource: "acme/*",
		Actions: []string{"create", "read", "update", "delete"},
	}))
	require.NoError(t, cat.AddRbacSpec(mmodel.RbacSpec{
		Role: "reader", Resource: "acme/Person",
		Actions: []string{"read"},
	}))
	require.NoError(t, cat.AddRoleBinding(mmodel.RoleBinding{UserID: "U1", Role: "writer"}))
	require.NoError(t, cat.AddRoleBinding(mmodel.RoleBinding{UserID: "U2", Role: "reader"}))

	cat.Seal()

	return cat
}

type fixture struct {
	resolver *SQLResolver
	mock     sqlmock.Sqlmock
	vectors  *vecmock.Store
	embedder *embmock.Provider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixtureWithCatalog(t, buildCatalog(t))
}

func newFixtureWithCatalog(t *testing.T, cat *catalog.Catalog) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gate, err := authz.NewGate(cat, "postgres")
	require.NoError(t, err)

	vectors := vecmock.NewStore()
	embedder := &embmock.Provider{EmbedResult: []float32{0.1, 0.2, 0.3}}

	r := NewSQLResolver(Options{
		DB:       db,
		Dialect:  "postgres",
		Catalog:  cat,
		Gate:     gate,
		Vectors:  vectors,
		Embedder: embedder,
		Chunker:  embeddings.NewChunker(2000, 200),
	})

	return &fixture{resolver: r, mock: mock, vectors: vectors, embedder: embedder}
}

func writerSession() mmodel.Session {
	return mmodel.UserSession("U1", "T1")
}

func TestCreateInstanceRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO acme_person (__path__, __tenant__, __is_deleted__, id, name, age) VALUES ($1, $2, $3, $4, $5, $6)`,
	)).
		WithArgs("acme$Person/101", "T1", false, 101, "Joe", 23).
		WillReturnResult(sqlmock.NewResult(0, 1))

	f.mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO acme_person_owners (id, path, user_id, type, c, r, u, d, __tenant__) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	)).
		WithArgs(sqlmock.AnyArg(), "acme$Person/101", "U1", "o", true, true, true, true, "T1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("id", 101)
	inst.SetAttribute("name", "Joe")
	inst.SetAttribute("age", 23)

	created, err := f.resolver.CreateInstance(context.Background(), writerSession(), inst)
	require.NoError(t, err)

	assert.Equal(t, "acme$Person/101", created.Path())

	tenant, _ := created.GetAttribute("__tenant__")
	assert.Equal(t, "T1", tenant)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateInstanceDeniedWithoutPermission(t *testing.T) {
	f := newFixture(t)

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("id", 1)

	_, err := f.resolver.CreateInstance(context.Background(), mmodel.UserSession("U2", "T1"), inst)

	var forbidden pkg.ForbiddenError
	require.True(t, errors.As(err, &forbidden))

	assert.NoError(t, f.mock.ExpectationsWereMet(), "no SQL may run for a denied create")
}

func TestCreateInstanceKernelSkipsOwnerRow(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_person`)).
		WithArgs("acme$Person/7", "T1", false, 7, "Root", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("id", 7)
	inst.SetAttribute("name", "Root")

	_, err := f.resolver.CreateInstance(context.Background(), mmodel.KernelSession("T1"), inst)
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateInstanceDuplicatePath(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_person`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("id", 101)
	inst.SetAttribute("name", "Joe")

	_, err := f.resolver.CreateInstance(context.Background(), writerSession(), inst)

	var conflict pkg.EntityConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "0002", conflict.Code)
}

func TestCreateContainedChildUsesParentPath(t *testing.T) {
	cat := catalog.New()
	require.NoError(t, cat.AddEntity(&mmodel.Entity{
		Module: "acme", Name: "Department",
		Attributes: []mmodel.Attribute{{Name: "id", Type: mmodel.TypeString, Identity: true}},
	}))
	require.NoError(t, cat.AddEntity(&mmodel.Entity{
		Module: "acme", Name: "Team",
		Attributes: []mmodel.Attribute{{Name: "id", Type: mmodel.TypeString, Identity: true}},
	}))
	require.NoError(t, cat.AddRelationship(&mmodel.Relationship{
		Module: "acme", Name: "DeptTeams", Kind: mmodel.RelContains,
		From: "acme/Department", To: "acme/Team",
	}))
	cat.Seal()

	f := newFixtureWithCatalog(t, cat)

	f.mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO acme_team (__path__, __tenant__, __is_deleted__, __parent__, id) VALUES ($1, $2, $3, $4, $5)`,
	)).
		WithArgs("acme$Department/D1/acme$Team/T9", "T1", false, "acme$Department/D1", "T9").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Team")
	inst.SetAttribute("id", "T9")
	inst.ParentPath = "acme$Department/D1"

	created, err := f.resolver.CreateInstance(context.Background(), mmodel.KernelSession("T1"), inst)
	require.NoError(t, err)
	assert.Equal(t, "acme$Department/D1/acme$Team/T9", created.Path())
}

func TestUpsertInstanceUsesOnConflict(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (__path__) DO UPDATE SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("id", 101)
	inst.SetAttribute("name", "Joe")

	saved, err := f.resolver.UpsertInstance(context.Background(), writerSession(), inst)
	require.NoError(t, err)
	assert.Equal(t, "acme$Person/101", saved.Path())

	// no owners insert is expected for upserts
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateInstance(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE acme_person SET age = $1 WHERE __path__ = $2 AND __tenant__ = $3 AND __is_deleted__ = false`,
	)).
		WithArgs(24, "acme$Person/101", "T1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("__path__", "acme$Person/101")
	inst.SetAttribute("name", "Joe")
	inst.SetAttribute("age", 23)

	updated, err := f.resolver.UpdateInstance(context.Background(), writerSession(), inst, map[string]any{"age": 24})
	require.NoError(t, err)

	age, _ := updated.GetAttribute("age")
	assert.Equal(t, 24, age)

	name, _ := updated.GetAttribute("name")
	assert.Equal(t, "Joe", name)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateInstanceNotFound(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(`UPDATE acme_person SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("__path__", "acme$Person/404")

	_, err := f.resolver.UpdateInstance(context.Background(), writerSession(), inst, map[string]any{"age": 1})

	var notFound pkg.EntityNotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestQueryInstancesByIdentifier(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "acme_person"."__path__", "acme_person"."__tenant__", "acme_person"."__is_deleted__", "acme_person"."id", "acme_person"."name", "acme_person"."age" FROM acme_person WHERE "acme_person"."id" = $1 AND "acme_person"."__is_deleted__" = false AND "acme_person"."__tenant__" = $2`,
	)).
		WithArgs(101, "T1").
		WillReturnRows(sqlmock.NewRows([]string{"__path__", "__tenant__", "__is_deleted__", "id", "name", "age"}).
			AddRow("acme$Person/101", "T1", false, int64(101), "Joe", int64(23)))

	inst := mmodel.NewInstance("acme", "Person")
	inst.AddQuery("id", "=", 101)

	results, err := f.resolver.QueryInstances(context.Background(), writerSession(), inst, false, false)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "acme$Person/101", got.Path())

	name, _ := got.GetAttribute("name")
	assert.Equal(t, "Joe", name)

	age, _ := got.GetAttribute("age")
	assert.Equal(t, int64(23), age)

	_, hasDeleted := got.GetAttribute("__is_deleted__")
	assert.False(t, hasDeleted, "the soft-delete flag is not part of the result")

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestQueryInstancesInjectsOwnerJoinWithoutGlobalRead(t *testing.T) {
	f := newFixture(t)

	// U2 holds a global read on Person only; a Company read gets the owner join.
	f.mock.ExpectQuery(`INNER JOIN acme_company_owners ON "acme_company_owners"."path" = "acme_company"."__path__"`).
		WithArgs("U2", "T1", "T1").
		WillReturnRows(sqlmock.NewRows([]string{"__path__", "__tenant__", "__is_deleted__", "id", "name"}))

	inst := mmodel.NewInstance("acme", "Company")

	_, err := f.resolver.QueryInstances(context.Background(), mmodel.UserSession("U2", "T1"), inst, true, false)
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestQueryInstancesStripsWriteOnlyAttributes(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta(`FROM acme_secret`)).
		WillReturnRows(sqlmock.NewRows([]string{"__path__", "__tenant__", "__is_deleted__", "id", "token"}).
			AddRow("acme$Secret/1", "T1", false, int64(1), "hunter2"))

	inst := mmodel.NewInstance("acme", "Secret")

	results, err := f.resolver.QueryInstances(context.Background(), writerSession(), inst, true, false)
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, hasToken := results[0].GetAttribute("token")
	assert.False(t, hasToken, "write-only attributes never appear in read results")
}

func TestQueryChildInstancesAddsPathPrefix(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(regexp.QuoteMeta(`"acme_person"."__path__" LIKE $2`)).
		WithArgs("T1", "acme$Department/D1/%").
		WillReturnRows(sqlmock.NewRows([]string{"__path__", "__tenant__", "__is_deleted__", "id", "name", "age"}))

	inst := mmodel.NewInstance("acme", "Person")

	_, err := f.resolver.QueryChildInstances(context.Background(), writerSession(), "acme$Department/D1", inst)
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteInstanceSoft(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE acme_person SET __is_deleted__ = true WHERE __path__ = $1 AND __tenant__ = $2 AND __is_deleted__ = false`,
	)).
		WithArgs("acme$Person/101", "T1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("__path__", "acme$Person/101")

	_, err := f.resolver.DeleteInstance(context.Background(), writerSession(), inst, false)
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteInstancePurgeRemovesVectorEntryFirst(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM acme_doc WHERE __path__ = $1 AND __tenant__ = $2`,
	)).
		WithArgs("acme$Doc/9", "T1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Doc")
	inst.SetAttribute("__path__", "acme$Doc/9")

	_, err := f.resolver.DeleteInstance(context.Background(), writerSession(), inst, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"acme$Doc/9"}, f.vectors.Deleted)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateFtsInstanceIndexesEmbedding(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_doc`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_doc_owners`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Doc")
	inst.SetAttribute("id", 9)
	inst.SetAttribute("body", "payment latency doc")

	_, err := f.resolver.CreateInstance(context.Background(), writerSession(), inst)
	require.NoError(t, err)

	require.Len(t, f.vectors.Added, 1)
	assert.Equal(t, "acme$Doc/9", f.vectors.Added[0].ID)
	assert.Equal(t, "T1", f.vectors.Added[0].Tenant)
	assert.Equal(t, []string{"payment latency doc"}, f.embedder.EmbeddedTexts)
}

func TestEmbeddingFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	f.embedder.Err = errors.New("provider down")

	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_doc`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_doc_owners`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst := mmodel.NewInstance("acme", "Doc")
	inst.SetAttribute("id", 10)
	inst.SetAttribute("body", "text")

	_, err := f.resolver.CreateInstance(context.Background(), writerSession(), inst)
	require.NoError(t, err)
	assert.Empty(t, f.vectors.Added)
}

func TestStartTransactionTwiceFails(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()

	id, err := f.resolver.StartTransaction(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = f.resolver.StartTransaction(context.Background())

	var unprocessable pkg.UnprocessableOperationError
	require.True(t, errors.As(err, &unprocessable))
	assert.Equal(t, "0007", unprocessable.Code)

	f.mock.ExpectRollback()

	_, err = f.resolver.RollbackTransaction(context.Background(), id)
	require.NoError(t, err)

	// a new transaction may start once the previous one is closed
	f.mock.ExpectBegin()

	_, err = f.resolver.StartTransaction(context.Background())
	require.NoError(t, err)
}

func TestTransactionScopesStatements(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_person`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_person_owners`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	id, err := f.resolver.StartTransaction(context.Background())
	require.NoError(t, err)

	inst := mmodel.NewInstance("acme", "Person")
	inst.SetAttribute("id", 5)
	inst.SetAttribute("name", "Ann")

	_, err = f.resolver.CreateInstance(context.Background(), writerSession(), inst)
	require.NoError(t, err)

	_, err = f.resolver.CommitTransaction(context.Background(), id)
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCommitUnknownTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.resolver.CommitTransaction(context.Background(), "missing")

	var notFound pkg.EntityNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "0006", notFound.Code)
}

func TestGrantOwnership(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO acme_person_owners`)).
		WithArgs(sqlmock.AnyArg(), "acme$Person/101", "U2", "o", false, true, false, false, "T1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := f.resolver.GrantOwnership(context.Background(), writerSession(), "acme/Person", "acme$Person/101", "U2", OwnerFlags{Read: true})
	require.NoError(t, err)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRevokeOwnership(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM acme_person_owners WHERE path = $1 AND user_id = $2 AND __tenant__ = $3`,
	)).
		WithArgs("acme$Person/101", "U2", "T1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := f.resolver.RevokeOwnership(context.Background(), writerSession(), "acme/Person", "acme$Person/101", "U2")
	require.NoError(t, err)
}

func TestUnknownEntityFails(t *testing.T) {
	f := newFixture(t)

	inst := mmodel.NewInstance("acme", "Ghost")

	_, err := f.resolver.CreateInstance(context.Background(), writerSession(), inst)

	var notFound pkg.EntityNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "0013", notFound.Code)
}
