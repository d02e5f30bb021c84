package vector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/store/catalog"
)

// RelationalStore keeps embeddings in one `<table>_vec` table per entity with
// a pgvector column. Search orders by L2 distance and can push an owner join
// into the query for callers without a global read permission.
type RelationalStore struct {
	db *sql.DB
}

// Ensure RelationalStore implements the Store interface.
var _ Store = (*RelationalStore)(nil)

// NewRelationalStore returns a store over the given postgres pool.
func NewRelationalStore(db *sql.DB) *RelationalStore {
	return &RelationalStore{db: db}
}

// IsSupported implements Store.
func (s *RelationalStore) IsSupported() bool { return true }

func (s *RelationalStore) table(ref Ref) string {
	return catalog.VectorTable(catalog.ToTableReference(ref.Module, ref.Entity))
}

// AddEmbedding implements Store. Existing rows for the same id are replaced.
func (s *RelationalStore) AddEmbedding(ctx context.Context, ref Ref, rec Record) error {
	q := fmt.Sprintf(`INSERT INTO %s (id, embedding, %s, %s) VALUES ($1, $2, $3, false)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, %s = EXCLUDED.%s, %s = false`,
		s.table(ref), constant.ColumnTenant, constant.ColumnDeleted,
		constant.ColumnTenant, constant.ColumnTenant, constant.ColumnDeleted)

	if _, err := s.db.ExecContext(ctx, q, rec.ID, pgvector.NewVector(rec.Embedding), rec.Tenant); err != nil {
		return fmt.Errorf("vector: add embedding: %w", err)
	}

	return nil
}

// Search implements Store.
func (s *RelationalStore) Search(ctx context.Context, ref Ref, embedding []float32, tenant string, opts SearchOptions) ([]Match, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	args := []any{pgvector.NewVector(embedding), tenant}

	ownerJoin := ""
	if opts.Owner != nil {
		ownerJoin = fmt.Sprintf(` JOIN %s o ON o.path = v.id AND o.user_id = $3 AND o.r = true AND o.%s = $2`,
			opts.Owner.Table, constant.ColumnTenant)
		args = append(args, opts.Owner.UserID)
	}

	args = append(args, limit)

	q := fmt.Sprintf(`SELECT v.id, v.embedding <-> $1 AS distance FROM %s v%s
		WHERE v.%s = $2 AND v.%s = false ORDER BY distance LIMIT $%d`,
		s.table(ref), ownerJoin, constant.ColumnTenant, constant.ColumnDeleted, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vector: search: %w", err)
	}
	defer rows.Close()

	var matches []Match

	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Distance); err != nil {
			return nil, fmt.Errorf("vector: scan: %w", err)
		}

		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector: rows: %w", err)
	}

	return matches, nil
}

// Exists implements Store.
func (s *RelationalStore) Exists(ctx context.Context, ref Ref, id string) (bool, error) {
	q := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 AND %s = false`, s.table(ref), constant.ColumnDeleted)

	var one int

	err := s.db.QueryRowContext(ctx, q, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("vector: exists: %w", err)
	}

	return true, nil
}

// Delete implements Store. Vector rows are purged, never soft-deleted.
func (s *RelationalStore) Delete(ctx context.Context, ref Ref, id string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table(ref))

	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("vector: delete: %w", err)
	}

	return nil
}
