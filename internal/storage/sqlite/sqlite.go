package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/michaelbrown/proctor/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements storage.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *storage.Record) error {
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, roll_number, question, outcome, status, exit_code, compile_error, marks, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RollNumber, rec.Question, rec.Outcome, rec.Status,
		rec.ExitCode, rec.CompileError, rec.Marks, rec.Feedback,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*storage.Record, error) {
	// Try exact match first, then prefix match
	rec, err := s.getRecordExact(ctx, id)
	if err == nil {
		return rec, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, roll_number, question, outcome, status, exit_code, compile_error, marks, feedback, created_at
		FROM results WHERE id LIKE ? || '%'`, id)
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	defer rows.Close()

	var matches []*storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("record not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous record prefix %q matches %d records", id, len(matches))
	}
}

func (s *SQLiteStore) getRecordExact(ctx context.Context, id string) (*storage.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, roll_number, question, outcome, status, exit_code, compile_error, marks, feedback, created_at
		FROM results WHERE id = ?`, id)
	return scanRecord(row)
}

func (s *SQLiteStore) ListRecords(ctx context.Context, opts storage.ListOptions) ([]storage.Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, roll_number, question, outcome, status, exit_code, compile_error, marks, feedback, created_at FROM results`
	var args []any

	if opts.RollNumber != "" {
		query += ` WHERE roll_number = ?`
		args = append(args, opts.RollNumber)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context, id string) error {
	// Resolve prefix first
	rec, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, rec.ID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner works with both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*storage.Record, error) {
	var rec storage.Record
	var createdAt string
	err := s.Scan(&rec.ID, &rec.RollNumber, &rec.Question, &rec.Outcome,
		&rec.Status, &rec.ExitCode, &rec.CompileError, &rec.Marks,
		&rec.Feedback, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}
