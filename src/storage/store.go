package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	"finance-pipeline/src/helpers"
	"finance-pipeline/src/logger"
	"finance-pipeline/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// Store owns the single SQLite connection shared by every component.
// It is handed to each component's constructor; there is one logical writer
// and no pooling.
type Store struct {
	Config *models.MConfig
	Logger *logger.Logger
	db     *sql.DB
}

// -----------------------------------------------------------------------------

func NewStore(cfg *models.MConfig, log *logger.Logger) *Store {
	return &Store{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// Connect opens the store, creating parent directories as needed. Repeated
// calls return the existing connection.
func (s *Store) Connect() error {
	if s.db != nil {
		return nil
	}

	path := s.Config.Database.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return helpers.NewConnectionError("failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return helpers.NewConnectionError("failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewConnectionError("database unreachable", err)
	}

	// Single logical writer; a second in-process handle would defeat that.
	db.SetMaxOpenConns(1)

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		s.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		s.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	s.db = db
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect releases the connection. Safe to call when not connected.
func (s *Store) Disconnect() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// -----------------------------------------------------------------------------

// DB exposes the underlying handle for components that need transactions.
// Connect must have succeeded first.
func (s *Store) DB() *sql.DB {
	return s.db
}

// -----------------------------------------------------------------------------

// Path returns the store's file location.
func (s *Store) Path() string {
	return s.Config.Database.Path
}

// -----------------------------------------------------------------------------

// Execute runs an arbitrary read or write statement and returns a tabular
// result. Parameters are bound positionally; caller-supplied values must
// never be concatenated into the statement text.
func (s *Store) Execute(sqlText string, params ...any) (*models.MQueryResult, error) {
	if err := s.Connect(); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(sqlText, params...)
	if err != nil {
		return nil, helpers.NewQueryError("query failed", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, helpers.NewQueryError("failed to read columns", err)
	}

	result := &models.MQueryResult{Columns: cols}

	for rows.Next() {
		values := make([]any, len(cols))
		scanArgs := make([]any, len(cols))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, helpers.NewQueryError("failed to scan row", err)
		}

		// Raw byte slices are only valid until the next Next call
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, helpers.NewQueryError("row iteration failed", err)
	}

	return result, nil
}
