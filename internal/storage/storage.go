package storage

import (
	"context"
	"time"
)

// Record is one persisted evaluation outcome: a single (roll number,
// question) run with the marks and feedback the evaluator assigned.
// The transcript excerpt is deliberately not stored; the per-student
// JSON log and the live display are where output is surfaced.
type Record struct {
	ID           string    `json:"id"`
	RollNumber   string    `json:"roll_number"`
	Question     string    `json:"question"`
	Outcome      string    `json:"outcome"`
	Status       string    `json:"status,omitempty"`
	ExitCode     int       `json:"exit_code"`
	CompileError string    `json:"compile_error,omitempty"`
	Marks        float64   `json:"marks"`
	Feedback     string    `json:"feedback,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListOptions controls filtering and pagination for ListRecords.
type ListOptions struct {
	RollNumber string
	Limit      int
	Offset     int
}

// Store is the persistence interface for evaluation records.
type Store interface {
	// SaveRecord inserts a new record. The ID field must be set by the caller.
	SaveRecord(ctx context.Context, r *Record) error

	// GetRecord returns a record by ID or ID prefix.
	GetRecord(ctx context.Context, id string) (*Record, error)

	// ListRecords returns records ordered by created_at descending.
	ListRecords(ctx context.Context, opts ListOptions) ([]Record, error)

	// DeleteRecord removes a record.
	DeleteRecord(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
