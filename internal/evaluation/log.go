package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/michaelbrown/proctor/internal/runner"
)

// StudentLog is the per-student evaluation log, one JSON file per roll
// number, accumulated across tool runs. Transcripts are excluded: the
// log records outcomes and grades, not program output.
type StudentLog struct {
	RollNumber  string                       `json:"roll_number"`
	Submissions map[string]SubmissionEntry `json:"submissions"`
}

// SubmissionEntry is one graded question inside a StudentLog.
type SubmissionEntry struct {
	Timestamp string  `json:"timestamp"`
	Details   Details `json:"details"`
	Marks     float64 `json:"marks"`
	Feedback  string  `json:"feedback"`
}

// Details is the execution outcome kept in the log.
type Details struct {
	Outcome      string `json:"outcome"`
	Status       string `json:"status,omitempty"`
	ExitCode     int    `json:"exit_code"`
	CompileError string `json:"compile_error,omitempty"`
}

func logPath(outputDir, rollNumber string) string {
	return filepath.Join(outputDir, rollNumber+"_evaluation_log.json")
}

// appendStudentLog merges one graded question into the student's log
// file, creating it if needed. Re-evaluating a question overwrites its
// previous entry. An unreadable existing log is started over rather
// than blocking the grade from being saved.
func appendStudentLog(outputDir, rollNumber, question string, res runner.Result, marks float64, feedback string) error {
	log := loadStudentLog(outputDir, rollNumber)

	log.Submissions[question] = SubmissionEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Details: Details{
			Outcome:      string(res.Kind),
			Status:       string(res.Status),
			ExitCode:     res.ExitCode,
			CompileError: res.CompileError,
		},
		Marks:    marks,
		Feedback: feedback,
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}
	if err := os.WriteFile(logPath(outputDir, rollNumber), data, 0o644); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

func loadStudentLog(outputDir, rollNumber string) *StudentLog {
	log := &StudentLog{
		RollNumber:  rollNumber,
		Submissions: map[string]SubmissionEntry{},
	}

	data, err := os.ReadFile(logPath(outputDir, rollNumber))
	if err != nil {
		return log
	}

	var existing StudentLog
	if err := json.Unmarshal(data, &existing); err != nil || existing.Submissions == nil {
		return log
	}
	existing.RollNumber = rollNumber
	return &existing
}
