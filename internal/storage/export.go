package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportMarkdown renders a student's evaluation records as a markdown
// grade report.
func ExportMarkdown(rollNumber string, records []Record) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Evaluation Report: %s\n\n", rollNumber))

	var total float64
	for _, r := range records {
		total += r.Marks
	}
	b.WriteString(fmt.Sprintf("- **Evaluations:** %d\n", len(records)))
	b.WriteString(fmt.Sprintf("- **Total Marks:** %g\n", total))
	b.WriteString("\n---\n\n")

	for _, r := range records {
		b.WriteString(fmt.Sprintf("## Question %s\n\n", r.Question))
		b.WriteString(fmt.Sprintf("- **Outcome:** %s\n", r.Outcome))
		if r.Status != "" {
			b.WriteString(fmt.Sprintf("- **Status:** %s\n", r.Status))
			b.WriteString(fmt.Sprintf("- **Exit Code:** %d\n", r.ExitCode))
		}
		b.WriteString(fmt.Sprintf("- **Marks:** %g\n", r.Marks))
		b.WriteString(fmt.Sprintf("- **Evaluated:** %s\n", r.CreatedAt.Format("2006-01-02 15:04:05")))
		if r.CompileError != "" {
			b.WriteString(fmt.Sprintf("\n```\n%s\n```\n", r.CompileError))
		}
		if r.Feedback != "" {
			b.WriteString(fmt.Sprintf("\n> %s\n", r.Feedback))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ExportJSON renders a student's evaluation records as formatted JSON.
func ExportJSON(rollNumber string, records []Record) ([]byte, error) {
	export := struct {
		RollNumber string   `json:"roll_number"`
		Records    []Record `json:"records"`
	}{
		RollNumber: rollNumber,
		Records:    records,
	}
	return json.MarshalIndent(export, "", "  ")
}
