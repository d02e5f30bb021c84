// Package mpostgres is a hub which deal with postgres connections.
package mpostgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/agentlang-ai/agentstore/pkg/config"
	"github.com/agentlang-ai/agentstore/pkg/mlog"
)

// PostgresConnection is a hub which deal with postgres connections.
type PostgresConnection struct {
	ConnectionString string
	DBName           string
	ConnectionDB     *sql.DB
	Connected        bool
	Logger           mlog.Logger
}

// NewPostgresConnection builds a connection hub from the store configuration.
func NewPostgresConnection(cfg config.StoreConfig, logger mlog.Logger) *PostgresConnection {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	return &PostgresConnection{
		ConnectionString: connStr,
		DBName:           cfg.DBName,
		Logger:           logger,
	}
}

// Connect keeps a singleton connection with postgres.
func (pc *PostgresConnection) Connect() error {
	pc.Logger.Info("Connecting to postgres...")

	db, err := sql.Open("pgx", pc.ConnectionString)
	if err != nil {
		pc.Logger.Fatal("failed to open connect to database", err)

		return err
	}

	if err := db.Ping(); err != nil {
		pc.Logger.Errorf("PostgresConnection.Ping %v", err)

		return err
	}

	pc.Connected = true
	pc.ConnectionDB = db

	pc.Logger.Info("Connected to postgres ✅ ")

	return nil
}

// GetDB returns a pointer to the postgres connection, initializing it if necessary.
func (pc *PostgresConnection) GetDB() (*sql.DB, error) {
	if pc.ConnectionDB == nil {
		if err := pc.Connect(); err != nil {
			pc.Logger.Errorf("ERRCONECT %s", err)

			return nil, err
		}
	}

	return pc.ConnectionDB, nil
}
