// Package store caches parse results in SQLite so batch runs can skip
// re-parsing files whose content hasn't changed.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	menderrors "mender/internal/errors"
	"mender/internal/model"
)

// Store is a content-addressed cache of SourceModels.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens or creates the cache database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, menderrors.New(menderrors.StoreFailure, "failed to create state directory", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, menderrors.New(menderrors.StoreFailure, "failed to open model cache", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, menderrors.New(menderrors.StoreFailure, "failed to set pragma", err)
		}
	}

	s := &Store{conn: conn, logger: logger, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS parse_models (
			path         TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			model_json   TEXT NOT NULL,
			created_at   TEXT NOT NULL
		)
	`)
	if err != nil {
		return menderrors.New(menderrors.StoreFailure, "failed to initialize schema", err)
	}
	return nil
}

// ContentHash returns the cache key for file content.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// Get returns the cached model for path when the content hash still
// matches; a stale entry is a miss.
func (s *Store) Get(path, contentHash string) (*model.SourceModel, bool, error) {
	var storedHash, modelJSON string
	err := s.conn.QueryRow(`
		SELECT content_hash, model_json FROM parse_models WHERE path = ?
	`, path).Scan(&storedHash, &modelJSON)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, menderrors.New(menderrors.StoreFailure, "cache lookup failed", err)
	}
	if storedHash != contentHash {
		return nil, false, nil
	}

	var m model.SourceModel
	if err := json.Unmarshal([]byte(modelJSON), &m); err != nil {
		// A corrupt row is treated as a miss and overwritten on Put.
		s.logger.Warn("dropping corrupt cache entry", "path", path, "error", err)
		return nil, false, nil
	}
	return &m, true, nil
}

// Put stores a model under its path and content hash.
func (s *Store) Put(m *model.SourceModel, contentHash string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return menderrors.New(menderrors.StoreFailure, "cannot encode model", err)
	}

	_, err = s.conn.Exec(`
		INSERT OR REPLACE INTO parse_models (path, content_hash, model_json, created_at)
		VALUES (?, ?, ?, ?)
	`, m.Path, contentHash, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return menderrors.New(menderrors.StoreFailure, "cache write failed", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
