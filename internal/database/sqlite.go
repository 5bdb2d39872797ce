// Package database provides SQLite persistence for user accounts.
package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"git.sr.ht/~jakintosh/loginhandler/internal/service"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	// every connection to ":memory:" is its own database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store, err := NewSQLiteStoreFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("path", dbPath).Msg("database ready")
	return store, nil
}

// NewSQLiteStoreFromDB prepares the schema on an already open sqlite
// handle. Closing the store closes db.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("failed to init database: %v", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping() error {
	return s.db.Ping()
}

// UserStore returns the store as a service.UserStore.
func (s *SQLiteStore) UserStore() service.UserStore {
	return s
}

func initSchema(db *sql.DB) error {
	return initTable(db, "account", `
		CREATE TABLE IF NOT EXISTS account (
			id          INTEGER PRIMARY KEY,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL UNIQUE,
			secret      BLOB,
			status      INTEGER NOT NULL DEFAULT 1,
			created     INTEGER NOT NULL
		);`,
	)
}

func initTable(
	db *sql.DB,
	name string,
	sql string,
) error {
	if _, err := db.Exec(sql); err != nil {
		return fmt.Errorf("failed to init '%s' table schema: %v", name, err)
	}
	return nil
}
