// Package txn manages named transactions keyed by opaque ids. The id is the
// only value callers pass around; the manager owns the underlying session.
package txn

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
)

// Manager maps opaque transaction ids to live sessions on the shared pool.
// Begin, Tx and the two closers share the map; it is guarded by a mutex.
type Manager struct {
	mu       sync.Mutex
	db       *sql.DB
	sessions map[string]*sql.Tx
}

// NewManager returns a manager issuing transactions from the given pool.
func NewManager(db *sql.DB) *Manager {
	return &Manager{
		db:       db,
		sessions: map[string]*sql.Tx{},
	}
}

// Begin opens a transaction on a fresh session and returns its opaque id.
func (m *Manager) Begin(ctx context.Context) (string, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()

	m.mu.Lock()
	m.sessions[id] = tx
	m.mu.Unlock()

	return id, nil
}

// Tx returns the live session for the id.
func (m *Manager) Tx(id string) (*sql.Tx, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.sessions[id]

	return tx, ok
}

// Commit commits and releases the session. The session is removed from the
// map on every exit path, success or failure.
func (m *Manager) Commit(ctx context.Context, id string) error {
	tx, err := m.take(id)
	if err != nil {
		return err
	}

	logger := pkg.NewLoggerFromContext(ctx)

	if err := tx.Commit(); err != nil {
		logger.Errorf("Failed to commit transaction %s: %v", id, err)

		return err
	}

	return nil
}

// Rollback rolls back and releases the session.
func (m *Manager) Rollback(ctx context.Context, id string) error {
	tx, err := m.take(id)
	if err != nil {
		return err
	}

	logger := pkg.NewLoggerFromContext(ctx)

	if err := tx.Rollback(); err != nil {
		logger.Errorf("Failed to rollback transaction %s: %v", id, err)

		return err
	}

	return nil
}

func (m *Manager) take(id string) (*sql.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.sessions[id]
	if !ok {
		return nil, pkg.ValidateBusinessError(constant.ErrTransactionNotFound, "Transaction", id)
	}

	delete(m.sessions, id)

	return tx, nil
}
