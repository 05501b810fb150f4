package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/proctor/internal/config"
	"github.com/michaelbrown/proctor/internal/evaluation"
	"github.com/michaelbrown/proctor/internal/rubric"
	"github.com/michaelbrown/proctor/internal/runner"
	"github.com/michaelbrown/proctor/internal/storage/sqlite"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Interactively grade student submissions",
	Long: `Start the interactive grading loop. You are prompted for a roll
number and a question number; the matching submission is extracted,
compiled, and run attached to your terminal. Afterwards you are asked
for marks and optional feedback, which are saved to the student's JSON
log and the results database.

Type 'exit' at the roll prompt to quit and 'back' at the question
prompt to pick another student.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	rb := rubric.Default()
	if cfg.RubricPath != "" {
		rb, err = rubric.Load(cfg.RubricPath)
		if err != nil {
			return fmt.Errorf("loading rubric: %w", err)
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening results db: %w", err)
	}
	defer store.Close()

	run := runner.New(cfg.OutputDir)
	run.Compiler = cfg.Compiler.Command
	run.StdFlag = cfg.Compiler.StdFlag

	ev := &evaluation.Evaluator{
		SubmissionsDir: cfg.SubmissionsDir,
		OutputDir:      cfg.OutputDir,
		Runner:         run,
		Store:          store,
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeoutFlag > 0 {
		timeout = time.Duration(timeoutFlag) * time.Second
	}

	if rb.Assignment != "" {
		fmt.Printf("Assignment: %s\n", rb.Assignment)
	}
	fmt.Printf("Submissions: %s | Timeout: %s\n\n", cfg.SubmissionsDir, timeout)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "roll> ",
		HistoryFile:     "/tmp/proctor_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	for {
		rl.SetPrompt("roll> ")
		roll, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("Goodbye!")
				return nil
			}
			return err
		}

		roll = strings.TrimSpace(roll)
		if roll == "" {
			continue
		}
		if strings.EqualFold(roll, "exit") {
			fmt.Println("Goodbye!")
			return nil
		}

		if !rb.ValidRollNumber(roll) {
			fmt.Printf("Invalid roll number format: %s\n", roll)
			continue
		}
		if !ev.HasSubmission(roll) {
			fmt.Printf("No submission found for roll number: %s\n", roll)
			continue
		}

		if err := evaluateStudent(rl, ev, rb, roll, timeout); err != nil {
			return err
		}
	}
}

// evaluateStudent is the inner question loop for one student.
func evaluateStudent(rl *readline.Instance, ev *evaluation.Evaluator, rb *rubric.Rubric, roll string, timeout time.Duration) error {
	for {
		rl.SetPrompt(fmt.Sprintf("%s question> ", roll))
		question, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}

		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "back") {
			return nil
		}

		maxMarks, ok := rb.QuestionMarks(question)
		if !ok {
			fmt.Printf("Question %s is not in the rubric\n", question)
			continue
		}

		res, err := ev.RunSubmission(roll, question, timeout)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		printResult(res)

		marks, feedback, err := promptGrade(rl, maxMarks)
		if err != nil {
			return err
		}

		if err := ev.Record(context.Background(), roll, question, res, marks, feedback); err != nil {
			fmt.Printf("Error saving evaluation: %v\n", err)
			continue
		}
		fmt.Printf("✓ Marks (%g) and feedback saved for %s question %s\n\n", marks, roll, question)
	}
}

// promptGrade asks for marks (a non-negative number, re-asked until
// valid) and optional one-line feedback.
func promptGrade(rl *readline.Instance, maxMarks float64) (float64, string, error) {
	for {
		if maxMarks > 0 {
			rl.SetPrompt(fmt.Sprintf("marks (max %g)> ", maxMarks))
		} else {
			rl.SetPrompt("marks> ")
		}
		line, err := rl.Readline()
		if err != nil {
			return 0, "", err
		}

		marks, convErr := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if convErr != nil {
			fmt.Println("Please enter a valid number")
			continue
		}
		if marks < 0 {
			fmt.Println("Marks must be non-negative")
			continue
		}

		rl.SetPrompt("feedback (optional)> ")
		feedback, err := rl.Readline()
		if err != nil {
			return 0, "", err
		}
		return marks, strings.TrimSpace(feedback), nil
	}
}

func printResult(res runner.Result) {
	switch res.Kind {
	case runner.KindCompleted:
		fmt.Printf("\nStatus: %s | Exit code: %d\n", res.Status, res.ExitCode)
	case runner.KindCompileError:
		fmt.Printf("\nCompilation failed:\n%s\n", res.CompileError)
	case runner.KindUnsupported:
		fmt.Println("\nUnsupported file type (only .c and .cpp are graded)")
	case runner.KindSystemError:
		fmt.Printf("\nSystem error: %s\n", res.Message)
	}
}
