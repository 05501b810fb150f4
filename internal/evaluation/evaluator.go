// Package evaluation ties the grading workflow together: locate a
// student's archive, extract it, run the requested question's source
// file in the sandbox, and persist the evaluator's marks and feedback
// to the per-student JSON log and the results store.
package evaluation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/michaelbrown/proctor/internal/runner"
	"github.com/michaelbrown/proctor/internal/storage"
	"github.com/michaelbrown/proctor/internal/submission"
)

// Evaluator grades one (roll number, question) pair at a time. Sessions
// share the invoking terminal, so evaluations are strictly sequential.
type Evaluator struct {
	SubmissionsDir string
	OutputDir      string
	Runner         *runner.Runner
	Store          storage.Store // optional; nil disables the results store
}

// HasSubmission reports whether an archive exists for the roll number.
func (e *Evaluator) HasSubmission(rollNumber string) bool {
	_, err := submission.FindArchive(e.SubmissionsDir, rollNumber)
	return err == nil
}

// RunSubmission extracts the student's archive and executes the source
// file for the question interactively. The extraction directory is
// removed before returning, success or not; only the sandboxed copy is
// ever compiled or run.
func (e *Evaluator) RunSubmission(rollNumber, question string, timeout time.Duration) (runner.Result, error) {
	zipPath, err := submission.FindArchive(e.SubmissionsDir, rollNumber)
	if err != nil {
		return runner.Result{}, err
	}

	studentDir := filepath.Join(e.OutputDir, rollNumber)
	defer os.RemoveAll(studentDir)

	if err := submission.Extract(zipPath, e.OutputDir); err != nil {
		return runner.Result{}, fmt.Errorf("extracting %s: %w", zipPath, err)
	}

	src, err := submission.MatchSource(studentDir, question)
	if err != nil {
		return runner.Result{}, err
	}

	return e.Runner.Execute(runner.Request{SourcePath: src, Timeout: timeout}), nil
}

// Record persists one graded evaluation: the per-student JSON log is
// updated first, then a row is added to the results store.
func (e *Evaluator) Record(ctx context.Context, rollNumber, question string, res runner.Result, marks float64, feedback string) error {
	if err := appendStudentLog(e.OutputDir, rollNumber, question, res, marks, feedback); err != nil {
		return fmt.Errorf("writing student log: %w", err)
	}

	if e.Store == nil {
		return nil
	}

	rec := &storage.Record{
		ID:           uuid.NewString(),
		RollNumber:   rollNumber,
		Question:     question,
		Outcome:      string(res.Kind),
		Status:       string(res.Status),
		ExitCode:     res.ExitCode,
		CompileError: res.CompileError,
		Marks:        marks,
		Feedback:     feedback,
	}
	if err := e.Store.SaveRecord(ctx, rec); err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}
