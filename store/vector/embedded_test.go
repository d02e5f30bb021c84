package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *EmbeddedStore {
	t.Helper()

	s := NewEmbeddedStore(t.TempDir())
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestEmbeddedAddSearchRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ref := Ref{Module: "acme", Entity: "Doc"}

	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/1", Embedding: []float32{1, 0}, Tenant: "T1"}))
	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/2", Embedding: []float32{0, 1}, Tenant: "T1"}))
	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/3", Embedding: []float32{0.9, 0.1}, Tenant: "T1"}))

	matches, err := s.Search(ctx, ref, []float32{1, 0}, "T1", SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "acme$Doc/1", matches[0].ID)
	assert.Equal(t, "acme$Doc/3", matches[1].ID)
	assert.Less(t, matches[0].Distance, matches[1].Distance)
}

func TestEmbeddedSearchIsTenantScoped(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ref := Ref{Module: "acme", Entity: "Doc"}

	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/1", Embedding: []float32{1, 0}, Tenant: "T1"}))
	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/2", Embedding: []float32{1, 0}, Tenant: "T2"}))

	matches, err := s.Search(ctx, ref, []float32{1, 0}, "T1", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "acme$Doc/1", matches[0].ID)
}

func TestEmbeddedUpsertReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ref := Ref{Module: "acme", Entity: "Doc"}

	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/1", Embedding: []float32{1, 0}, Tenant: "T1"}))
	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/1", Embedding: []float32{0, 1}, Tenant: "T1"}))

	matches, err := s.Search(ctx, ref, []float32{0, 1}, "T1", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
}

func TestEmbeddedExistsAndDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	ref := Ref{Module: "acme", Entity: "Doc"}

	ok, err := s.Exists(ctx, ref, "acme$Doc/1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.AddEmbedding(ctx, ref, Record{ID: "acme$Doc/1", Embedding: []float32{1}, Tenant: "T1"}))

	ok, err = s.Exists(ctx, ref, "acme$Doc/1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, ref, "acme$Doc/1"))

	ok, err = s.Exists(ctx, ref, "acme$Doc/1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmbeddedEntitiesAreIsolated(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddEmbedding(ctx, Ref{Module: "acme", Entity: "Doc"}, Record{ID: "acme$Doc/1", Embedding: []float32{1}, Tenant: "T1"}))

	matches, err := s.Search(ctx, Ref{Module: "acme", Entity: "Note"}, []float32{1}, "T1", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestNopStore(t *testing.T) {
	var s NopStore

	assert.False(t, s.IsSupported())

	matches, err := s.Search(context.Background(), Ref{}, nil, "T1", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
