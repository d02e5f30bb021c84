// Package msqlite is a hub which deal with the embedded sqlite backend.
package msqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/agentlang-ai/agentstore/pkg/config"
	"github.com/agentlang-ai/agentstore/pkg/mlog"
)

// SqliteConnection is a hub which deal with the embedded sqlite database file.
type SqliteConnection struct {
	DatabasePath string
	Tuning       config.SqliteConfig
	ConnectionDB *sql.DB
	Connected    bool
	Logger       mlog.Logger
}

// NewSqliteConnection builds a connection hub for the database file under the
// configured data directory.
func NewSqliteConnection(cfg config.StoreConfig, tuning config.SqliteConfig, logger mlog.Logger) *SqliteConnection {
	return &SqliteConnection{
		DatabasePath: filepath.Join(cfg.DataDir, cfg.DBName+".db"),
		Tuning:       tuning,
		Logger:       logger,
	}
}

// Connect opens the database file and applies the engine tuning pragmas.
func (sc *SqliteConnection) Connect() error {
	sc.Logger.Info("Connecting to sqlite...")

	db, err := sql.Open("sqlite", sc.DatabasePath)
	if err != nil {
		sc.Logger.Fatal("failed to open connect to database", err)

		return err
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", sc.Tuning.JournalMode),
		fmt.Sprintf("PRAGMA busy_timeout = %d", sc.Tuning.BusyTimeoutMs),
		fmt.Sprintf("PRAGMA cache_size = %d", sc.Tuning.CacheSize),
		fmt.Sprintf("PRAGMA temp_store = %s", sc.Tuning.TempStore),
		fmt.Sprintf("PRAGMA synchronous = %s", sc.Tuning.Synchronous),
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			sc.Logger.Errorf("failed to apply %q: %v", pragma, err)

			return err
		}
	}

	if err := db.Ping(); err != nil {
		sc.Logger.Errorf("SqliteConnection.Ping %v", err)

		return err
	}

	sc.Connected = true
	sc.ConnectionDB = db

	sc.Logger.Info("Connected to sqlite ✅ ")

	return nil
}

// GetDB returns a pointer to the sqlite connection, initializing it if necessary.
func (sc *SqliteConnection) GetDB() (*sql.DB, error) {
	if sc.ConnectionDB == nil {
		if err := sc.Connect(); err != nil {
			sc.Logger.Errorf("ERRCONECT %s", err)

			return nil, err
		}
	}

	return sc.ConnectionDB, nil
}
