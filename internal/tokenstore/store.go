// Package tokenstore keeps the session token in durable client storage.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// TokenKey is the single row the session token lives in.
const TokenKey = "auth_token"

type tokenRow struct {
	bun.BaseModel `bun:"table:session_tokens"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SQLite stores the token in a sqlite database through bun.
type SQLite struct {
	db *bun.DB
}

// Open opens (creating if needed) the sqlite database at path and prepares the table.
// The parent directory is created when missing.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create token store directory: %w", err)
		}
	}

	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open token store %s: %w", path, err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := db.NewCreateTable().Model((*tokenRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session_tokens table: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Load returns the stored token. ok is false when no token is stored.
func (s *SQLite) Load(ctx context.Context) (string, bool, error) {
	var row tokenRow
	err := s.db.NewSelect().Model(&row).Where("key = ?", TokenKey).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load session token: %w", err)
	}
	return row.Value, true, nil
}

// Save stores token, replacing any previous one.
func (s *SQLite) Save(ctx context.Context, token string) error {
	row := &tokenRow{Key: TokenKey, Value: token, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.NewDelete().Model((*tokenRow)(nil)).Where("key = ?", TokenKey).Exec(ctx); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Memory is a process local store, used in tests and when persistence is disabled.
type Memory struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.set, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = token, true
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = "", false
	return nil
}
