package embedding

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed embedding cache. Unlike FileStore it is
// write-through: Put persists immediately, so Save is a no-op kept for
// Store compatibility.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens or creates a SQLite embedding cache.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// newSQLiteStoreWithDB wraps an existing connection; used by tests.
func newSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// createSchema creates the embeddings table and index.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		key TEXT PRIMARY KEY,
		vector TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_created_at ON embeddings(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Get returns the cached vector for a key. Corrupted rows read as misses.
func (s *SQLiteStore) Get(key string) ([]float32, bool) {
	var raw string
	err := s.db.QueryRow("SELECT vector FROM embeddings WHERE key = ?", key).Scan(&raw)
	if err != nil {
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Put upserts a vector. Persistence failures are swallowed; the cache is
// an optimization and a failed write only costs a future provider call.
func (s *SQLiteStore) Put(key string, vector []float32) {
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	s.db.Exec(
		"INSERT INTO embeddings (key, vector) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET vector = excluded.vector",
		key, string(raw),
	)
}

// Len returns the number of cached entries.
func (s *SQLiteStore) Len() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM embeddings").Scan(&count); err != nil {
		return 0
	}
	return count
}

// Save is a no-op; writes are already durable.
func (s *SQLiteStore) Save() error {
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
