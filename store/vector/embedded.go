package vector

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

// record is the msgpack-encoded value stored per path in a bolt bucket.
type record struct {
	Embedding []float32 `msgpack:"embedding"`
	Tenant    string    `msgpack:"tenant"`
}

// EmbeddedStore keeps embeddings in one bolt file per module, opened lazily
// and cached by module name. Each entity gets its own bucket keyed by
// instance path; search is a brute-force scan ordered by L2 distance.
type EmbeddedStore struct {
	baseDir string

	mu    sync.Mutex
	cache map[string]*bolt.DB
}

// Ensure EmbeddedStore implements the Store interface.
var _ Store = (*EmbeddedStore)(nil)

// NewEmbeddedStore returns a store writing its files under baseDir.
func NewEmbeddedStore(baseDir string) *EmbeddedStore {
	return &EmbeddedStore{
		baseDir: baseDir,
		cache:   map[string]*bolt.DB{},
	}
}

// IsSupported implements Store.
func (s *EmbeddedStore) IsSupported() bool { return true }

// open returns the module's database, opening and caching it on first use.
// Cached handles are treated as immutable after creation.
func (s *EmbeddedStore) open(module string) (*bolt.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.cache[module]; ok {
		return db, nil
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("vector: mkdir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(s.baseDir, module+".vec.db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("vector: open %s: %w", module, err)
	}

	s.cache[module] = db

	return db, nil
}

// Close releases every cached module database.
func (s *EmbeddedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error

	for module, db := range s.cache {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		delete(s.cache, module)
	}

	return firstErr
}

// AddEmbedding implements Store. Existing entries for the same id are replaced.
func (s *EmbeddedStore) AddEmbedding(ctx context.Context, ref Ref, rec Record) error {
	db, err := s.open(ref.Module)
	if err != nil {
		return err
	}

	value, err := msgpack.Marshal(record{Embedding: rec.Embedding, Tenant: rec.Tenant})
	if err != nil {
		return fmt.Errorf("vector: encode: %w", err)
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ref.Fq()))
		if err != nil {
			return err
		}

		return bucket.Put([]byte(rec.ID), value)
	})
}

// Search implements Store. The embedded backend cannot push an owner join;
// owner filtering stays with the caller.
func (s *EmbeddedStore) Search(ctx context.Context, ref Ref, embedding []float32, tenant string, opts SearchOptions) ([]Match, error) {
	db, err := s.open(ref.Module)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var matches []Match

	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ref.Fq()))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var rec record
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return err
			}

			if rec.Tenant != tenant {
				return nil
			}

			matches = append(matches, Match{ID: string(k), Distance: l2Distance(embedding, rec.Embedding)})

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("vector: search: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// Exists implements Store.
func (s *EmbeddedStore) Exists(ctx context.Context, ref Ref, id string) (bool, error) {
	db, err := s.open(ref.Module)
	if err != nil {
		return false, err
	}

	var found bool

	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ref.Fq()))
		if bucket == nil {
			return nil
		}

		found = bucket.Get([]byte(id)) != nil

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("vector: exists: %w", err)
	}

	return found, nil
}

// Delete implements Store.
func (s *EmbeddedStore) Delete(ctx context.Context, ref Ref, id string) error {
	db, err := s.open(ref.Module)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ref.Fq()))
		if bucket == nil {
			return nil
		}

		return bucket.Delete([]byte(id))
	})
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64

	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum)
}
