// Package resolver implements the CRUD contract callers invoke. The SQL
// variant orchestrates permission checks, path allocation, embedding indexing
// and row ownership around the query builder; a callback variant routes every
// operation to user-supplied functions.
package resolver

import (
	"context"
	"database/sql"
	"sync"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/dbtx"
	"github.com/agentlang-ai/agentstore/pkg/embeddings"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/authz"
	"github.com/agentlang-ai/agentstore/store/catalog"
	"github.com/agentlang-ai/agentstore/store/query"
	"github.com/agentlang-ai/agentstore/store/txn"
	"github.com/agentlang-ai/agentstore/store/vector"
)

// SearchOptions tunes FullTextSearch.
type SearchOptions struct {
	// Limit bounds the number of returned paths; non-positive falls back to 5.
	Limit int
}

// OwnerFlags carries the CRUD grant columns of one owners row.
type OwnerFlags struct {
	Create bool
	Read   bool
	Update bool
	Delete bool
	// Type is the grant type, 'u' or 'o'. Empty defaults to 'o'.
	Type string
}

// FullAccess grants every operation as an owner-typed row.
func FullAccess() OwnerFlags {
	return OwnerFlags{Create: true, Read: true, Update: true, Delete: true, Type: constant.GrantTypeOwner}
}

// Resolver is the persistence contract. Every operation takes the explicit
// session identity; there is no ambient state.
type Resolver interface {
	CreateInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error)
	UpsertInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error)
	UpdateInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, newAttrs map[string]any) (*mmodel.Instance, error)
	QueryInstances(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, queryAll, distinct bool) ([]*mmodel.Instance, error)
	QueryChildInstances(ctx context.Context, sess mmodel.Session, parentPath string, inst *mmodel.Instance) ([]*mmodel.Instance, error)
	QueryConnectedInstances(ctx context.Context, sess mmodel.Session, rel *mmodel.Relationship, connected, inst *mmodel.Instance) ([]*mmodel.Instance, error)
	QueryByJoin(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, joinInfo *query.JoinInfo, intoSpec map[string]string, distinct bool, rawJoins []query.RawJoinSpec, wheres []query.Where) ([]map[string]any, error)
	DeleteInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, purge bool) (*mmodel.Instance, error)
	HandleInstancesLink(ctx context.Context, sess mmodel.Session, node1, node2 *mmodel.Instance, rel *mmodel.Relationship, orUpdate, inDeleteMode bool) (*mmodel.Instance, error)
	FullTextSearch(ctx context.Context, sess mmodel.Session, module, entity, text string, opts SearchOptions) ([]string, error)
	GrantOwnership(ctx context.Context, sess mmodel.Session, entityFq, path, userID string, flags OwnerFlags) error
	RevokeOwnership(ctx context.Context, sess mmodel.Session, entityFq, path, userID string) error
	StartTransaction(ctx context.Context) (string, error)
	CommitTransaction(ctx context.Context, id string) (string, error)
	RollbackTransaction(ctx context.Context, id string) (string, error)
}

// Options wires a SQLResolver.
type Options struct {
	DB      *sql.DB
	Dialect string
	Catalog *catalog.Catalog
	Gate    *authz.Gate
	// Vectors may be nil; embedding work is then short-circuited.
	Vectors vector.Store
	// Embedder may be nil when no semantic lookup is configured.
	Embedder embeddings.Provider
	Chunker  embeddings.Chunker
}

// SQLResolver is the concrete resolver over the relational backends. Each
// request is expected to hold its own resolver or one bound to its own
// context; the only mutable state is the active transaction id.
type SQLResolver struct {
	db       *sql.DB
	dialect  string
	catalog  *catalog.Catalog
	gate     *authz.Gate
	vectors  vector.Store
	embedder embeddings.Provider
	chunker  embeddings.Chunker
	builder  *query.Builder
	txns     *txn.Manager

	mu         sync.Mutex
	activeTxn  string
	cancelDone chan struct{}
}

// Ensure SQLResolver implements the Resolver interface.
var _ Resolver = (*SQLResolver)(nil)

// NewSQLResolver wires the resolver. A nil vector store degrades to the
// no-op adapter so FTS-enabled entities still CRUD normally.
func NewSQLResolver(opts Options) *SQLResolver {
	vectors := opts.Vectors
	if vectors == nil {
		vectors = vector.NopStore{}
	}

	return &SQLResolver{
		db:       opts.DB,
		dialect:  opts.Dialect,
		catalog:  opts.Catalog,
		gate:     opts.Gate,
		vectors:  vectors,
		embedder: opts.Embedder,
		chunker:  opts.Chunker,
		builder:  query.NewBuilder(opts.Dialect),
		txns:     txn.NewManager(opts.DB),
	}
}

// executor returns the active transaction's session when one is set, the
// pooled connection otherwise.
//
//nolint:ireturn
func (r *SQLResolver) executor() dbtx.Executor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeTxn != "" {
		if tx, ok := r.txns.Tx(r.activeTxn); ok {
			return tx
		}
	}

	return r.db
}

// StartTransaction opens a named transaction and binds it to this resolver.
// Only one transaction per resolver is active at a time. Cancellation of ctx
// while the transaction is still open triggers a rollback before the session
// is released.
func (r *SQLResolver) StartTransaction(ctx context.Context) (string, error) {
	r.mu.Lock()

	if r.activeTxn != "" {
		r.mu.Unlock()

		return "", pkg.ValidateBusinessError(constant.ErrTransactionAlreadyActive, "Transaction")
	}

	r.mu.Unlock()

	id, err := r.txns.Begin(ctx)
	if err != nil {
		return "", err
	}

	done := make(chan struct{})

	r.mu.Lock()
	r.activeTxn = id
	r.cancelDone = done
	r.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			//nolint:errcheck
			r.RollbackTransaction(context.WithoutCancel(ctx), id)
		case <-done:
		}
	}()

	return id, nil
}

// CommitTransaction commits the named transaction and unbinds it.
func (r *SQLResolver) CommitTransaction(ctx context.Context, id string) (string, error) {
	if err := r.txns.Commit(ctx, id); err != nil {
		return "", err
	}

	r.release(id)

	return id, nil
}

// RollbackTransaction rolls back the named transaction and unbinds it.
func (r *SQLResolver) RollbackTransaction(ctx context.Context, id string) (string, error) {
	if err := r.txns.Rollback(ctx, id); err != nil {
		return "", err
	}

	r.release(id)

	return id, nil
}

func (r *SQLResolver) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeTxn == id {
		r.activeTxn = ""

		if r.cancelDone != nil {
			close(r.cancelDone)
			r.cancelDone = nil
		}
	}
}
