package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/proctor/internal/config"
	"github.com/michaelbrown/proctor/internal/storage"
	"github.com/michaelbrown/proctor/internal/storage/sqlite"
)

var (
	rollFilter   string
	limitFlag    int
	exportFormat string
	exportOutput string
	forceFlag    bool
)

var resultsCmd = &cobra.Command{
	Use:     "results",
	Aliases: []string{"result", "r"},
	Short:   "Inspect saved evaluation results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved evaluation results",
	RunE:  runResultsList,
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <result-id>",
	Short: "Show one evaluation result in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsShow,
}

var resultsDeleteCmd = &cobra.Command{
	Use:   "delete <result-id>",
	Short: "Delete an evaluation result",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsDelete,
}

var resultsExportCmd = &cobra.Command{
	Use:   "export <roll-number>",
	Short: "Export a student's results as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsExport,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd, resultsShowCmd, resultsDeleteCmd, resultsExportCmd)

	resultsListCmd.Flags().StringVar(&rollFilter, "roll", "", "Filter by roll number")
	resultsListCmd.Flags().IntVar(&limitFlag, "limit", 20, "Max results to show")

	resultsExportCmd.Flags().StringVar(&exportFormat, "format", "md", "Export format: md or json")
	resultsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	resultsDeleteCmd.Flags().BoolVar(&forceFlag, "force", false, "Skip confirmation")
}

func openStore() (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return sqlite.Open(cfg.Storage.DBPath)
}

func runResultsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := storage.ListOptions{
		RollNumber: rollFilter,
		Limit:      limitFlag,
	}

	records, err := store.ListRecords(context.Background(), opts)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	// Header
	fmt.Printf("%-10s %-10s %-4s %-14s %-6s %s\n", "ID", "ROLL", "Q", "OUTCOME", "MARKS", "WHEN")
	fmt.Println(strings.Repeat("─", 60))

	for _, r := range records {
		outcome := r.Outcome
		if r.Status != "" && r.Status != "completed" {
			outcome = r.Status
		}

		fmt.Printf("%-10s %-10s %-4s %-14s %-6g %s\n",
			shortID(r.ID), r.RollNumber, r.Question, outcome, r.Marks, timeAgo(r.CreatedAt))
	}

	return nil
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.GetRecord(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:        %s\n", r.ID)
	fmt.Printf("Roll:      %s\n", r.RollNumber)
	fmt.Printf("Question:  %s\n", r.Question)
	fmt.Printf("Outcome:   %s\n", r.Outcome)
	if r.Status != "" {
		fmt.Printf("Status:    %s\n", r.Status)
		fmt.Printf("Exit code: %d\n", r.ExitCode)
	}
	fmt.Printf("Marks:     %g\n", r.Marks)
	if r.Feedback != "" {
		fmt.Printf("Feedback:  %s\n", r.Feedback)
	}
	if r.CompileError != "" {
		fmt.Printf("\nCompiler output:\n%s\n", r.CompileError)
	}
	fmt.Printf("Evaluated: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runResultsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	r, err := store.GetRecord(ctx, args[0])
	if err != nil {
		return err
	}

	if !forceFlag {
		fmt.Printf("Delete result %s (%s question %s)? [y/N] ", shortID(r.ID), r.RollNumber, r.Question)
		var confirm string
		fmt.Scanln(&confirm)
		if strings.ToLower(confirm) != "y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.DeleteRecord(ctx, r.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted result %s\n", shortID(r.ID))
	return nil
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	roll := args[0]
	records, err := store.ListRecords(context.Background(), storage.ListOptions{RollNumber: roll})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no results for %s", roll)
	}

	var out []byte
	switch exportFormat {
	case "md", "markdown":
		out = []byte(storage.ExportMarkdown(roll, records))
	case "json":
		out, err = storage.ExportJSON(roll, records)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (use md or json)", exportFormat)
	}

	if exportOutput == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.WriteFile(exportOutput, out, 0o644); err != nil {
		return err
	}
	fmt.Printf("Exported %d results to %s\n", len(records), exportOutput)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
