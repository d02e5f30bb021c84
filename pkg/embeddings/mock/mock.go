// Package mock provides a test double for the embeddings.Provider interface.
//
// Use Provider to return pre-canned embedding vectors without a live model
// and to verify which texts were submitted for embedding.
package mock

import (
	"context"
	"sync"

	"github.com/agentlang-ai/agentstore/pkg/embeddings"
)

// Ensure Provider implements the embeddings.Provider interface.
var _ embeddings.Provider = (*Provider)(nil)

// Provider is a mock implementation of embeddings.Provider.
type Provider struct {
	mu sync.Mutex

	// EmbedResult is returned by Embed; EmbedBatch repeats it per input
	// unless EmbedBatchResults is set.
	EmbedResult       []float32
	EmbedBatchResults [][]float32
	// Err, when set, is returned by both Embed and EmbedBatch.
	Err error

	DimensionsValue int
	ModelIDValue    string

	// EmbeddedTexts records every text submitted through either method.
	EmbeddedTexts []string
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EmbeddedTexts = append(p.EmbeddedTexts, text)

	if p.Err != nil {
		return nil, p.Err
	}

	return p.EmbedResult, nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.EmbeddedTexts = append(p.EmbeddedTexts, texts...)

	if p.Err != nil {
		return nil, p.Err
	}

	if p.EmbedBatchResults != nil {
		return p.EmbedBatchResults, nil
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = p.EmbedResult
	}

	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	if p.DimensionsValue != 0 {
		return p.DimensionsValue
	}

	return len(p.EmbedResult)
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	if p.ModelIDValue == "" {
		return "mock-embed"
	}

	return p.ModelIDValue
}
