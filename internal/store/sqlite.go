package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/harborops/opsdash/internal/model"
)

// SQLiteStore implements KV and ProgrammingStore using a local SQLite
// database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Get returns the value stored under key, with found=false when the
// key is absent.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		"SELECT value FROM kv_entries WHERE key = ?", key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting kv entry %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting kv entry %s: %w", key, err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("removing kv entry %s: %w", key, err)
	}
	return nil
}

// UpsertProgramming inserts or replaces a batch of programming records.
func (s *SQLiteStore) UpsertProgramming(
	ctx context.Context,
	records []model.ProgrammingRecord,
) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO programming (
			id, scheduled_date, scheduled_time, status,
			service, reference, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err = stmt.ExecContext(ctx,
			r.ID, r.ScheduledDate, r.ScheduledTime, r.Status,
			r.Service, r.Reference, r.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting programming record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// GetProgramming retrieves programming records matching the filter,
// ordered by scheduled date then time.
func (s *SQLiteStore) GetProgramming(
	ctx context.Context,
	filter ProgrammingFilter,
) ([]model.ProgrammingRecord, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}

	query := "SELECT * FROM programming"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY scheduled_date, scheduled_time"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying programming: %w", err)
	}
	defer rows.Close()

	var records []model.ProgrammingRecord
	for rows.Next() {
		var r model.ProgrammingRecord
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scanning programming row: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
