package embeddings_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentlang-ai/agentstore/pkg/embeddings"
	"github.com/agentlang-ai/agentstore/pkg/embeddings/mock"
)

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	c := embeddings.NewChunker(100, 10)

	chunks := c.Split("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitOverlaps(t *testing.T) {
	c := embeddings.NewChunker(10, 4)

	chunks := c.Split("abcdefghijklmnopqrst")
	require.True(t, len(chunks) > 1)

	// consecutive chunks share the overlap
	assert.Equal(t, chunks[0][6:], chunks[1][:4])

	joined := strings.Join(chunks, "")
	assert.Contains(t, joined, "abcdefghij")
}

func TestNewChunkerClampsOverlap(t *testing.T) {
	c := embeddings.NewChunker(10, 50)
	assert.Equal(t, 5, c.Overlap)

	c = embeddings.NewChunker(0, 0)
	assert.Equal(t, 2000, c.Size)
}

func TestEmbedTextSingleChunk(t *testing.T) {
	provider := &mock.Provider{EmbedResult: []float32{1, 2, 3}}
	c := embeddings.NewChunker(100, 10)

	vec, err := c.EmbedText(context.Background(), provider, "short")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, []string{"short"}, provider.EmbeddedTexts)
}

func TestEmbedTextAveragesChunks(t *testing.T) {
	provider := &mock.Provider{EmbedBatchResults: [][]float32{{1, 0}, {3, 2}}}
	c := embeddings.NewChunker(4, 0)

	vec, err := c.EmbedText(context.Background(), provider, "abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 1}, vec)
}

func TestAverage(t *testing.T) {
	assert.Nil(t, embeddings.Average(nil))
	assert.Equal(t, []float32{2, 3}, embeddings.Average([][]float32{{1, 2}, {3, 4}}))
}
