package memoryinfra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/memorai/memorai/pkg/errx"
	"github.com/memorai/memorai/pkg/memory"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

var historySchema = map[Dialect]string{
	DialectPostgres: `
		CREATE TABLE IF NOT EXISTS history (
			seq        BIGSERIAL PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			memory_id  TEXT NOT NULL,
			old_memory TEXT,
			new_memory TEXT,
			event      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			actor_id   TEXT,
			role       TEXT
		)`,
	DialectSQLite: `
		CREATE TABLE IF NOT EXISTS history (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			memory_id  TEXT NOT NULL,
			old_memory TEXT,
			new_memory TEXT,
			event      TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			actor_id   TEXT,
			role       TEXT
		)`,
}

const historyIndex = `CREATE INDEX IF NOT EXISTS idx_history_memory_id ON history (memory_id)`

// SQLHistoryStore implements memory.HistoryStore on Postgres or SQLite
type SQLHistoryStore struct {
	db *sqlx.DB
}

var _ memory.HistoryStore = (*SQLHistoryStore)(nil)

// NewSQLHistoryStore migrates the history table on an open connection
func NewSQLHistoryStore(ctx context.Context, db *sqlx.DB, dialect Dialect) (*SQLHistoryStore, error) {
	schema, ok := historySchema[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported history dialect %q", dialect)
	}
	for _, stmt := range []string{schema, historyIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, errx.Wrap(err, "failed to migrate history table", errx.TypeInternal).
				WithDetail("dialect", string(dialect))
		}
	}
	return &SQLHistoryStore{db: db}, nil
}

// OpenSQLiteHistory opens (creating if needed) the SQLite file at path
func OpenSQLiteHistory(ctx context.Context, path string) (*SQLHistoryStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite wal mode: %w", err)
	}
	store, err := NewSQLHistoryStore(ctx, db, DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenPostgresHistory connects to dsn and migrates the history table
func OpenPostgresHistory(ctx context.Context, dsn string, maxOpen, maxIdle int) (*SQLHistoryStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	store, err := NewSQLHistoryStore(ctx, db, DialectPostgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

type historyRow struct {
	ID        string  `db:"id"`
	MemoryID  string  `db:"memory_id"`
	OldMemory *string `db:"old_memory"`
	NewMemory *string `db:"new_memory"`
	Event     string  `db:"event"`
	CreatedAt string  `db:"created_at"`
	UpdatedAt *string `db:"updated_at"`
	IsDeleted int     `db:"is_deleted"`
	ActorID   *string `db:"actor_id"`
	Role      *string `db:"role"`
}

func (r historyRow) toEntry() memory.HistoryEntry {
	return memory.HistoryEntry{
		ID:        r.ID,
		MemoryID:  r.MemoryID,
		OldMemory: r.OldMemory,
		NewMemory: r.NewMemory,
		Event:     memory.Event(r.Event),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		IsDeleted: r.IsDeleted != 0,
		ActorID:   r.ActorID,
		Role:      r.Role,
	}
}

func (s *SQLHistoryStore) Add(ctx context.Context, e memory.HistoryEntry) error {
	row := historyRow{
		ID:        e.ID,
		MemoryID:  e.MemoryID,
		OldMemory: e.OldMemory,
		NewMemory: e.NewMemory,
		Event:     string(e.Event),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		ActorID:   e.ActorID,
		Role:      e.Role,
	}
	if e.IsDeleted {
		row.IsDeleted = 1
	}

	query := `
		INSERT INTO history
			(id, memory_id, old_memory, new_memory, event, created_at, updated_at, is_deleted, actor_id, role)
		VALUES
			(:id, :memory_id, :old_memory, :new_memory, :event, :created_at, :updated_at, :is_deleted, :actor_id, :role)`

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return errx.Wrap(err, "failed to insert history", errx.TypeInternal).
			WithDetail("memory_id", e.MemoryID)
	}
	return nil
}

func (s *SQLHistoryStore) List(ctx context.Context, memoryID string) ([]memory.HistoryEntry, error) {
	query := s.db.Rebind(`
		SELECT id, memory_id, old_memory, new_memory, event, created_at, updated_at, is_deleted, actor_id, role
		FROM history
		WHERE memory_id = ?
		ORDER BY created_at ASC, seq ASC`)

	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, query, memoryID); err != nil {
		return nil, errx.Wrap(err, "failed to list history", errx.TypeInternal).
			WithDetail("memory_id", memoryID)
	}

	out := make([]memory.HistoryEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toEntry()
	}
	return out, nil
}

func (s *SQLHistoryStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return errx.Wrap(err, "failed to reset history", errx.TypeInternal)
	}
	return nil
}

// Ping checks the underlying connection
func (s *SQLHistoryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLHistoryStore) Close() error {
	return s.db.Close()
}
