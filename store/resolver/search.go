package resolver

import (
	"context"
	"strings"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/embeddings"
	"github.com/agentlang-ai/agentstore/pkg/mmodel"
	"github.com/agentlang-ai/agentstore/store/vector"
)

// vectorRef addresses the entity's vector space.
func vectorRef(e *mmodel.Entity) vector.Ref {
	return vector.Ref{Module: e.Module, Entity: e.Name}
}

// chunkerFor applies the entity's own embedding settings over the
// environment defaults.
func (r *SQLResolver) chunkerFor(e *mmodel.Entity) embeddings.Chunker {
	if e.Embedding != nil && e.Embedding.ChunkSize > 0 {
		return embeddings.NewChunker(e.Embedding.ChunkSize, e.Embedding.ChunkOverlap)
	}

	if r.chunker.Size > 0 {
		return r.chunker
	}

	return embeddings.NewChunker(0, 0)
}

// ftsText concatenates the values of the entity's full-text attributes.
func ftsText(e *mmodel.Entity, inst *mmodel.Instance) string {
	var parts []string

	for _, name := range e.FullTextAttributes() {
		if v, ok := inst.GetAttribute(name); ok && v != nil {
			if s, ok := v.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
	}

	return strings.Join(parts, "\n")
}

// indexInstance embeds the row's full-text attributes and upserts the vector
// entry. Failures log a warning and never fail the originating write.
func (r *SQLResolver) indexInstance(ctx context.Context, sess mmodel.Session, e *mmodel.Entity, inst *mmodel.Instance, path string) {
	if !e.HasFullText() || !r.vectors.IsSupported() || r.embedder == nil {
		return
	}

	logger := pkg.NewLoggerFromContext(ctx)

	text := ftsText(e, inst)
	if text == "" {
		return
	}

	embedding, err := r.chunkerFor(e).EmbedText(ctx, r.embedder, text)
	if err != nil {
		logger.Warnf("Failed to embed %s: %v", path, err)

		return
	}

	err = r.vectors.AddEmbedding(ctx, vectorRef(e), vector.Record{
		ID:        path,
		Embedding: embedding,
		Tenant:    sess.Tenant,
	})
	if err != nil {
		logger.Warnf("Failed to index embedding for %s: %v", path, err)
	}
}

// deleteEmbedding removes the row's vector entry, logging failures.
func (r *SQLResolver) deleteEmbedding(ctx context.Context, e *mmodel.Entity, path string) {
	if !e.HasFullText() || !r.vectors.IsSupported() {
		return
	}

	if err := r.vectors.Delete(ctx, vectorRef(e), path); err != nil {
		pkg.NewLoggerFromContext(ctx).Warnf("Failed to delete embedding for %s: %v", path, err)
	}
}

// vectorScope derives the vector-store owner filter from the read scope.
func (r *SQLResolver) vectorScope(sess mmodel.Session, entityFq string) (*vector.OwnerScope, error) {
	scope, err := r.gate.ReadScope(sess, entityFq)
	if err != nil {
		return nil, err
	}

	if scope == nil {
		return nil, nil
	}

	return &vector.OwnerScope{Table: scope.Table, UserID: scope.UserID}, nil
}

// FullTextSearch embeds the query text and returns the nearest rows' paths,
// closest first.
func (r *SQLResolver) FullTextSearch(ctx context.Context, sess mmodel.Session, module, entity, text string, opts SearchOptions) ([]string, error) {
	e, ok := r.catalog.LookupEntity(module + "/" + entity)
	if !ok {
		return nil, pkg.ValidateBusinessError(constant.ErrUnknownEntity, entity, module+"/"+entity)
	}

	matches, err := r.searchEmbeddings(ctx, sess, e, text, opts.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ID
	}

	return out, nil
}

// searchEmbeddings runs one vector search for the entity.
func (r *SQLResolver) searchEmbeddings(ctx context.Context, sess mmodel.Session, e *mmodel.Entity, text string, limit int) ([]vector.Match, error) {
	if !r.vectors.IsSupported() {
		return nil, pkg.ValidateBusinessError(constant.ErrVectorStoreUnavailable, e.Name)
	}

	if r.embedder == nil {
		return nil, pkg.ValidateBusinessError(constant.ErrEmbeddingProviderUnavailable, e.Name)
	}

	// Reads are scoped rather than denied: callers without a global read
	// permission get the owner filter pushed into the search.
	embedding, err := r.chunkerFor(e).EmbedText(ctx, r.embedder, text)
	if err != nil {
		return nil, err
	}

	owner, err := r.vectorScope(sess, e.Fq())
	if err != nil {
		return nil, err
	}

	return r.vectors.Search(ctx, vectorRef(e), embedding, sess.Tenant, vector.SearchOptions{
		Limit: limit,
		Owner: owner,
	})
}
