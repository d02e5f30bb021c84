// Package mock provides an in-memory test double for the vector.Store
// interface.
package mock

import (
	"context"
	"sync"

	"github.com/agentlang-ai/agentstore/store/vector"
)

// Ensure Store implements the vector.Store interface.
var _ vector.Store = (*Store)(nil)

// Store is a mock vector store recording every call. Search returns the
// pre-canned SearchResults in order.
type Store struct {
	mu sync.Mutex

	Supported     bool
	SearchResults []vector.Match
	// Err, when set, is returned by every mutating call and by Search.
	Err error

	Added   []vector.Record
	Deleted []string
}

// NewStore returns a supported mock store.
func NewStore() *Store {
	return &Store{Supported: true}
}

// IsSupported implements vector.Store.
func (s *Store) IsSupported() bool { return s.Supported }

// AddEmbedding implements vector.Store.
func (s *Store) AddEmbedding(_ context.Context, _ vector.Ref, rec vector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Added = append(s.Added, rec)

	return nil
}

// Search implements vector.Store.
func (s *Store) Search(_ context.Context, _ vector.Ref, _ []float32, tenant string, opts vector.SearchOptions) ([]vector.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = vector.DefaultSearchLimit
	}

	matches := s.SearchResults
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// Exists implements vector.Store.
func (s *Store) Exists(_ context.Context, _ vector.Ref, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.Added {
		if rec.ID == id {
			return true, nil
		}
	}

	return false, nil
}

// Delete implements vector.Store.
func (s *Store) Delete(_ context.Context, _ vector.Ref, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	s.Deleted = append(s.Deleted, id)

	return nil
}
