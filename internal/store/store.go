// Package store applies synthesized partition DDL to a SQLite database
// and keeps a log of what was created. This is the physical half of
// partition creation; the engine itself never touches the database.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added UNIQUE index on tessera_partition_log.table_name
const currentSchemaVersion = 1

// Store wraps a SQLite database targeted by partition creation.
// Uses WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and bookkeeping migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// HasTable reports whether a table with the given name exists.
func (s *Store) HasTable(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %q: %w", name, err)
	}
	return true, nil
}

// CreateTable is one synthesized partition table to apply.
type CreateTable struct {
	Entity string // template entity name
	Key    string // partition key
	Table  string // storage-table name
	SQL    string // CREATE TABLE statement
}

// ApplyResult summarizes one apply run.
type ApplyResult struct {
	RunID   string   // UUIDv7 token shared by all log rows of this run
	Created []string // table names actually created
	Skipped []string // table names that already existed
}

// Apply executes the given CREATE TABLE statements in one transaction
// and records a log row per created table. Tables that already exist are
// skipped, so the log reflects real creations only. A failure rolls back
// the whole run - partial physical application is never left behind.
func (s *Store) Apply(ctx context.Context, tables []CreateTable) (*ApplyResult, error) {
	result := &ApplyResult{RunID: uuid.Must(uuid.NewV7()).String()}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin apply: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		var found string
		err := tx.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", t.Table,
		).Scan(&found)
		if err == nil {
			result.Skipped = append(result.Skipped, t.Table)
			continue
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("check table %q: %w", t.Table, err)
		}

		if _, err := tx.ExecContext(ctx, t.SQL); err != nil {
			return nil, fmt.Errorf("create table %q: %w", t.Table, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tessera_partition_log (run_id, entity, partition_key, table_name) VALUES (?, ?, ?, ?)",
			result.RunID, t.Entity, t.Key, t.Table,
		); err != nil {
			return nil, fmt.Errorf("log table %q: %w", t.Table, err)
		}
		result.Created = append(result.Created, t.Table)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit apply: %w", err)
	}
	return result, nil
}

// LogEntry is one recorded partition creation.
type LogEntry struct {
	RunID     string
	Entity    string
	Key       string
	Table     string
	CreatedAt string
}

// Partitions returns the recorded partitions of a template entity in
// creation order.
func (s *Store) Partitions(ctx context.Context, entity string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, entity, partition_key, table_name, created_at
		 FROM tessera_partition_log WHERE entity = ? ORDER BY id ASC`, entity)
	if err != nil {
		return nil, fmt.Errorf("query partitions of %q: %w", entity, err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.RunID, &e.Entity, &e.Key, &e.Table, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan partition row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PhysicalPartitions scans sqlite_master for partition tables of a
// template entity, keyed by the storage-name prefix convention
// (lower-cased entity plus underscore). This covers tables created
// outside an Apply run, or databases that predate the partition log;
// entries recovered this way carry the key parsed off the table name
// and no run token or creation time.
func (s *Store) PhysicalPartitions(ctx context.Context, entity string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("scan tables for %q: %w", entity, err)
	}
	defer rows.Close()

	prefix := strings.ToLower(entity) + "_"
	var entries []LogEntry
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if name == "tessera_partition_log" || !strings.HasPrefix(name, prefix) {
			continue
		}
		entries = append(entries, LogEntry{
			Entity: entity,
			Key:    strings.TrimPrefix(name, prefix),
			Table:  name,
		})
	}
	return entries, rows.Err()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the bookkeeping tables and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 enforces that a physical table is logged at most once.
// Skipped (already existing) tables are never re-logged by Apply, so the
// unique index holds for new and migrated databases alike.
func migrateToV1(db *sql.DB) error {
	if _, err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_partition_log_table ON tessera_partition_log(table_name)",
	); err != nil {
		return fmt.Errorf("migration v1: %w", err)
	}
	return nil
}
