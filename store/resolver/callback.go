package resolver

import (
	"context"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/query"
)

// Callbacks carries the user-supplied functions backing a CallbackResolver.
// Any nil entry leaves the corresponding operation unsupported.
type Callbacks struct {
	Create          func(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error)
	Upsert          func(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error)
	Update          func(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, newAttrs map[string]any) (*mmodel.Instance, error)
	Query           func(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, queryAll, distinct bool) ([]*mmodel.Instance, error)
	QueryChildren   func(ctx context.Context, sess mmodel.Session, parentPath string, inst *mmodel.Instance) ([]*mmodel.Instance, error)
	QueryConnected  func(ctx context.Context, sess mmodel.Session, rel *mmodel.Relationship, connected, inst *mmodel.Instance) ([]*mmodel.Instance, error)
	QueryByJoin     func(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, joinInfo *query.JoinInfo, intoSpec map[string]string, distinct bool, rawJoins []query.RawJoinSpec, wheres []query.Where) ([]map[string]any, error)
	Delete          func(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, purge bool) (*mmodel.Instance, error)
	Link            func(ctx context.Context, sess mmodel.Session, node1, node2 *mmodel.Instance, rel *mmodel.Relationship, orUpdate, inDeleteMode bool) (*mmodel.Instance, error)
	FtSearch        func(ctx context.Context, sess mmodel.Session, module, entity, text string, opts SearchOptions) ([]string, error)
	Grant           func(ctx context.Context, sess mmodel.Session, entityFq, path, userID string, flags OwnerFlags) error
	Revoke          func(ctx context.Context, sess mmodel.Session, entityFq, path, userID string) error
	StartTxn        func(ctx context.Context) (string, error)
	CommitTxn       func(ctx context.Context, id string) (string, error)
	RollbackTxn     func(ctx context.Context, id string) (string, error)
}

// CallbackResolver routes every resolver operation to user-supplied
// functions. It backs entities whose persistence is implemented outside the
// SQL engine, e.g. remote services registered by the platform.
type CallbackResolver struct {
	callbacks Callbacks
}

// Ensure CallbackResolver implements the Resolver interface.
var _ Resolver = (*CallbackResolver)(nil)

// NewCallbackResolver wraps the callback set.
func NewCallbackResolver(callbacks Callbacks) *CallbackResolver {
	return &CallbackResolver{callbacks: callbacks}
}

func unsupported(op string) error {
	return pkg.ValidateBusinessError(constant.ErrOperationNotSupported, "Resolver", op)
}

// CreateInstance implements Resolver.
func (r *CallbackResolver) CreateInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error) {
	if r.callbacks.Create == nil {
		return nil, unsupported("create")
	}

	return r.callbacks.Create(ctx, sess, inst)
}

// UpsertInstance implements Resolver.
func (r *CallbackResolver) UpsertInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance) (*mmodel.Instance, error) {
	if r.callbacks.Upsert == nil {
		return nil, unsupported("upsert")
	}

	return r.callbacks.Upsert(ctx, sess, inst)
}

// UpdateInstance implements Resolver.
func (r *CallbackResolver) UpdateInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, newAttrs map[string]any) (*mmodel.Instance, error) {
	if r.callbacks.Update == nil {
		return nil, unsupported("update")
	}

	return r.callbacks.Update(ctx, sess, inst, newAttrs)
}

// QueryInstances implements Resolver.
func (r *CallbackResolver) QueryInstances(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, queryAll, distinct bool) ([]*mmodel.Instance, error) {
	if r.callbacks.Query == nil {
		return nil, unsupported("query")
	}

	return r.callbacks.Query(ctx, sess, inst, queryAll, distinct)
}

// QueryChildInstances implements Resolver.
func (r *CallbackResolver) QueryChildInstances(ctx context.Context, sess mmodel.Session, parentPath string, inst *mmodel.Instance) ([]*mmodel.Instance, error) {
	if r.callbacks.QueryChildren == nil {
		return nil, unsupported("queryChildren")
	}

	return r.callbacks.QueryChildren(ctx, sess, parentPath, inst)
}

// QueryConnectedInstances implements Resolver.
func (r *CallbackResolver) QueryConnectedInstances(ctx context.Context, sess mmodel.Session, rel *mmodel.Relationship, connected, inst *mmodel.Instance) ([]*mmodel.Instance, error) {
	if r.callbacks.QueryConnected == nil {
		return nil, unsupported("queryConnected")
	}

	return r.callbacks.QueryConnected(ctx, sess, rel, connected, inst)
}

// QueryByJoin implements Resolver.
func (r *CallbackResolver) QueryByJoin(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, joinInfo *query.JoinInfo, intoSpec map[string]string, distinct bool, rawJoins []query.RawJoinSpec, wheres []query.Where) ([]map[string]any, error) {
	if r.callbacks.QueryByJoin == nil {
		return nil, unsupported("queryByJoin")
	}

	return r.callbacks.QueryByJoin(ctx, sess, inst, joinInfo, intoSpec, distinct, rawJoins, wheres)
}

// DeleteInstance implements Resolver.
func (r *CallbackResolver) DeleteInstance(ctx context.Context, sess mmodel.Session, inst *mmodel.Instance, purge bool) (*mmodel.Instance, error) {
	if r.callbacks.Delete == nil {
		return nil, unsupported("delete")
	}

	return r.callbacks.Delete(ctx, sess, inst, purge)
}

// HandleInstancesLink implements Resolver.
func (r *CallbackResolver) HandleInstancesLink(ctx context.Context, sess mmodel.Session, node1, node2 *mmodel.Instance, rel *mmodel.Relationship, orUpdate, inDeleteMode bool) (*mmodel.Instance, error) {
	if r.callbacks.Link == nil {
		return nil, unsupported("link")
	}

	return r.callbacks.Link(ctx, sess, node1, node2, rel, orUpdate, inDeleteMode)
}

// FullTextSearch implements Resolver.
func (r *CallbackResolver) FullTextSearch(ctx context.Context, sess mmodel.Session, module, entity, text string, opts SearchOptions) ([]string, error) {
	if r.callbacks.FtSearch == nil {
		return nil, unsupported("ftSearch")
	}

	return r.callbacks.FtSearch(ctx, sess, module, entity, text, opts)
}

// GrantOwnership implements Resolver.
func (r *CallbackResolver) GrantOwnership(ctx context.Context, sess mmodel.Session, entityFq, path, userID string, flags OwnerFlags) error {
	if r.callbacks.Grant == nil {
		return unsupported("grant")
	}

	return r.callbacks.Grant(ctx, sess, entityFq, path, userID, flags)
}

// RevokeOwnership implements Resolver.
func (r *CallbackResolver) RevokeOwnership(ctx context.Context, sess mmodel.Session, entityFq, path, userID string) error {
	if r.callbacks.Revoke == nil {
		return unsupported("revoke")
	}

	return r.callbacks.Revoke(ctx, sess, entityFq, path, userID)
}

// StartTransaction implements Resolver.
func (r *CallbackResolver) StartTransaction(ctx context.Context) (string, error) {
	if r.callbacks.StartTxn == nil {
		return "", unsupported("startTxn")
	}

	return r.callbacks.StartTxn(ctx)
}

// CommitTransaction implements Resolver.
func (r *CallbackResolver) CommitTransaction(ctx context.Context, id string) (string, error) {
	if r.callbacks.CommitTxn == nil {
		return "", unsupported("commitTxn")
	}

	return r.callbacks.CommitTxn(ctx, id)
}

// RollbackTransaction implements Resolver.
func (r *CallbackResolver) RollbackTransaction(ctx context.Context, id string) (string, error) {
	if r.callbacks.RollbackTxn == nil {
		return "", unsupported("rollbackTxn")
	}

	return r.callbacks.RollbackTxn(ctx, id)
}
