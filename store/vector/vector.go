// Package vector abstracts embedding upsert, search and delete over the two
// supported backends: a relational table with a vector column, and an
// embedded file-backed store. The vector store is an auxiliary index; the SQL
// row-store stays the source of truth, so adapter failures are logged and
// swallowed by callers rather than failing the originating operation.
package vector

import (
	"context"
)

// Ref addresses the vector space of one entity.
type Ref struct {
	Module string
	Entity string
}

// Fq returns the entity fully qualified name.
func (r Ref) Fq() string {
	return r.Module + "/" + r.Entity
}

// Record is one embedding row, keyed by the entity instance's path.
type Record struct {
	ID        string
	Embedding []float32
	Tenant    string
}

// Match is one search hit, closest first.
type Match struct {
	ID       string
	Distance float64
}

// OwnerScope restricts a search to rows the user owns. Only the relational
// backend can push it into the query; the embedded backend leaves owner
// filtering to the caller.
type OwnerScope struct {
	Table  string
	UserID string
}

// SearchOptions tunes one search call.
type SearchOptions struct {
	// Limit bounds the number of hits; non-positive falls back to 5.
	Limit int
	Owner *OwnerScope
}

// DefaultSearchLimit applies when SearchOptions.Limit is unset.
const DefaultSearchLimit = 5

// Store is the adapter surface the resolver talks to.
type Store interface {
	// IsSupported gates all embedding work; a false return short-circuits
	// indexing and search so FTS-enabled entities still CRUD normally on a
	// non-vector backend.
	IsSupported() bool

	AddEmbedding(ctx context.Context, ref Ref, rec Record) error
	Search(ctx context.Context, ref Ref, embedding []float32, tenant string, opts SearchOptions) ([]Match, error)
	Exists(ctx context.Context, ref Ref, id string) (bool, error)
	Delete(ctx context.Context, ref Ref, id string) error
}

// NopStore is the adapter used when no vector backend is configured.
type NopStore struct{}

// Ensure NopStore implements the Store interface.
var _ Store = (*NopStore)(nil)

// IsSupported implements Store.
func (NopStore) IsSupported() bool { return false }

// AddEmbedding implements Store.
func (NopStore) AddEmbedding(context.Context, Ref, Record) error { return nil }

// Search implements Store.
func (NopStore) Search(context.Context, Ref, []float32, string, SearchOptions) ([]Match, error) {
	return nil, nil
}

// Exists implements Store.
func (NopStore) Exists(context.Context, Ref, string) (bool, error) { return false, nil }

// Delete implements Store.
func (NopStore) Delete(context.Context, Ref, string) error { return nil }
