package embeddings

import "context"

// Chunker splits row text into overlapping windows before embedding. When the
// text fits in a single window it is embedded directly; otherwise each chunk
// is embedded and the dimension-wise average is returned.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker returns a chunker with sane bounds applied: a non-positive size
// falls back to 2000 runes, and the overlap is clamped below the size.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 2000
	}

	if overlap < 0 {
		overlap = 0
	}

	if overlap >= size {
		overlap = size / 2
	}

	return Chunker{Size: size, Overlap: overlap}
}

// Split cuts text into windows of Size runes advancing by Size-Overlap.
func (c Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.Size {
		return []string{text}
	}

	step := c.Size - c.Overlap

	var chunks []string

	for start := 0; start < len(runes); start += step {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, string(runes[start:end]))

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// EmbedText embeds the text through the provider, chunking and averaging when
// it exceeds a single window.
func (c Chunker) EmbedText(ctx context.Context, provider Provider, text string) ([]float32, error) {
	chunks := c.Split(text)
	if len(chunks) == 1 {
		return provider.Embed(ctx, chunks[0])
	}

	vectors, err := provider.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}

	return Average(vectors), nil
}

// Average returns the dimension-wise mean of the vectors. Vectors shorter
// than the first one are ignored beyond their length.
func Average(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}

	dims := len(vectors[0])
	out := make([]float32, dims)

	for _, vec := range vectors {
		for i := 0; i < dims && i < len(vec); i++ {
			out[i] += vec[i]
		}
	}

	for i := range out {
		out[i] /= float32(len(vectors))
	}

	return out
}
