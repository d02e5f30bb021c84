// Package config loads the storage-core configuration surface from the
// environment. Only the options listed here are recognized; everything else is
// owned by the outer platform layers.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Store backend kinds.
const (
	StorePostgres = "postgres"
	StoreSqlite   = "sqlite"
)

// Vector backend kinds.
const (
	VectorStoreRelational = "relational-vector"
	VectorStoreEmbedded   = "embedded-vector"
	VectorStoreNone       = "none"
)

// StoreConfig describes the row-store backend connection.
type StoreConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	// DataDir holds the sqlite database file and the embedded vector stores.
	DataDir string `mapstructure:"data_dir"`
}

// SqliteConfig carries engine tuning flags for the embedded relational backend.
type SqliteConfig struct {
	JournalMode   string `mapstructure:"journal_mode"`
	BusyTimeoutMs int    `mapstructure:"busy_timeout_ms"`
	CacheSize     int    `mapstructure:"cache_size"`
	TempStore     string `mapstructure:"temp_store"`
	Synchronous   string `mapstructure:"synchronous"`
}

// VectorStoreConfig selects the vector backend.
type VectorStoreConfig struct {
	Type string `mapstructure:"type"`
}

// EmbeddingConfig selects the embedding provider and its chunking parameters.
type EmbeddingConfig struct {
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

// Config is the root of the recognized configuration surface.
type Config struct {
	Store       StoreConfig       `mapstructure:"store"`
	Sqlite      SqliteConfig      `mapstructure:"sqlite"`
	VectorStore VectorStoreConfig `mapstructure:"vectorstore"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
}

// Load reads the configuration from environment variables (STORE_TYPE,
// VECTORSTORE_TYPE, EMBEDDING_PROVIDER, ...) applying defaults for anything
// unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.type", StorePostgres)
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.username", "postgres")
	v.SetDefault("store.password", "")
	v.SetDefault("store.dbname", "agentstore")
	v.SetDefault("store.data_dir", "./data")

	v.SetDefault("sqlite.journal_mode", "WAL")
	v.SetDefault("sqlite.busy_timeout_ms", 5000)
	v.SetDefault("sqlite.cache_size", -64000)
	v.SetDefault("sqlite.temp_store", "MEMORY")
	v.SetDefault("sqlite.synchronous", "NORMAL")

	v.SetDefault("vectorstore.type", VectorStoreNone)

	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.chunk_size", 2000)
	v.SetDefault("embedding.chunk_overlap", 200)

	// AutomaticEnv alone does not populate Unmarshal; bind each known key.
	for _, key := range []string{
		"store.type", "store.host", "store.port", "store.username",
		"store.password", "store.dbname", "store.data_dir",
		"sqlite.journal_mode", "sqlite.busy_timeout_ms", "sqlite.cache_size",
		"sqlite.temp_store", "sqlite.synchronous",
		"vectorstore.type",
		"embedding.provider", "embedding.model", "embedding.api_key",
		"embedding.base_url", "embedding.chunk_size", "embedding.chunk_overlap",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
