package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
	_ "modernc.org/sqlite"
)

const settingsSchema = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStore keeps credentials as rows of a settings table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create credentials dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open credentials db: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (domain.Credentials, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE key IN (?, ?, ?)`,
		KeyAPIKey, KeyProvider, KeyModel,
	)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var creds domain.Credentials
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Credentials{}, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case KeyAPIKey:
			creds.APIKey = value
		case KeyProvider:
			creds.Provider = value
		case KeyModel:
			creds.Model = value
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Credentials{}, fmt.Errorf("iterate settings: %w", err)
	}
	return creds.WithDefaults(), nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, creds domain.Credentials) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	upsert := `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	for key, value := range map[string]string{
		KeyAPIKey:   creds.APIKey,
		KeyProvider: creds.Provider,
		KeyModel:    creds.Model,
	} {
		if value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, upsert, key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, KeyAPIKey); err != nil {
		return fmt.Errorf("clear api key: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
