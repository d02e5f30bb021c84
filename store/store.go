// Package store wires the configuration surface into a ready resolver: the
// row-store connection, the auth gate, the vector backend and the embedding
// provider.
package store

import (
	"database/sql"
	"fmt"

	"github.com/agentlang-ai/agentstore/pkg/config"
	"github.com/agentlang-ai/agentstore/pkg/constant"
	"github.com/agentlang-ai/agentstore/pkg/embeddings"
	"github.com/agentlang-ai/agentstore/pkg/embeddings/factory"
	"github.com/agentlang-ai/agentstore/pkg/mlog"
	"github.com/agentlang-ai/agentstore/pkg/mpostgres"
	"github.com/agentlang-ai/agentstore/pkg/msqlite"
	"github.com/agentlang-ai/agentstore/store/authz"
	"github.com/agentlang-ai/agentstore/store/catalog"
	"github.com/agentlang-ai/agentstore/store/resolver"
	"github.com/agentlang-ai/agentstore/store/vector"
)

// Open connects the configured row-store backend, builds the auth gate and
// the vector adapter, and returns the wired resolver. The returned closer
// releases the connection pool and any embedded vector stores.
func Open(cfg *config.Config, cat *catalog.Catalog, logger mlog.Logger) (*resolver.SQLResolver, func() error, error) {
	var (
		db      *sql.DB
		dialect string
		err     error
	)

	switch cfg.Store.Type {
	case config.StorePostgres:
		dialect = constant.DialectPostgres
		db, err = mpostgres.NewPostgresConnection(cfg.Store, logger).GetDB()
	case config.StoreSqlite:
		dialect = constant.DialectSqlite
		db, err = msqlite.NewSqliteConnection(cfg.Store, cfg.Sqlite, logger).GetDB()
	default:
		return nil, nil, fmt.Errorf("store: unknown backend %q", cfg.Store.Type)
	}

	if err != nil {
		return nil, nil, err
	}

	gate, err := authz.NewGate(cat, dialect)
	if err != nil {
		return nil, nil, err
	}

	var (
		vectors  vector.Store
		embedded *vector.EmbeddedStore
	)

	switch cfg.VectorStore.Type {
	case config.VectorStoreRelational:
		if dialect != constant.DialectPostgres {
			return nil, nil, fmt.Errorf("store: the relational vector backend requires postgres")
		}

		vectors = vector.NewRelationalStore(db)
	case config.VectorStoreEmbedded:
		embedded = vector.NewEmbeddedStore(cfg.Store.DataDir)
		vectors = embedded
	case config.VectorStoreNone, "":
		vectors = vector.NopStore{}
	default:
		return nil, nil, fmt.Errorf("store: unknown vector backend %q", cfg.VectorStore.Type)
	}

	var embedder embeddings.Provider

	if vectors.IsSupported() {
		embedder, err = factory.FromConfig(cfg.Embedding)
		if err != nil {
			logger.Warnf("No embedding provider available, semantic lookup disabled: %v", err)

			embedder = nil
		}
	}

	r := resolver.NewSQLResolver(resolver.Options{
		DB:       db,
		Dialect:  dialect,
		Catalog:  cat,
		Gate:     gate,
		Vectors:  vectors,
		Embedder: embedder,
		Chunker:  embeddings.NewChunker(cfg.Embedding.ChunkSize, cfg.Embedding.ChunkOverlap),
	})

	closer := func() error {
		if embedded != nil {
			if err := embedded.Close(); err != nil {
				return err
			}
		}

		return db.Close()
	}

	return r, closer, nil
}
