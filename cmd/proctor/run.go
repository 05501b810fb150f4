package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/proctor/internal/config"
	"github.com/michaelbrown/proctor/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run <source-file>",
	Short: "Compile and run a single source file in the sandbox",
	Long: `Compile and run one C/C++ source file in an interactive sandbox
session, without the grading workflow around it. Useful for spot-checking
a file or testing the sandbox itself.

Examples:
  proctor run Q1.c
  proctor run solution.cpp --timeout 30`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	r := runner.New(cfg.OutputDir)
	r.Compiler = cfg.Compiler.Command
	r.StdFlag = cfg.Compiler.StdFlag

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeoutFlag > 0 {
		timeout = time.Duration(timeoutFlag) * time.Second
	}

	res := r.Execute(runner.Request{SourcePath: args[0], Timeout: timeout})

	switch res.Kind {
	case runner.KindCompleted:
		fmt.Printf("Status: %s | Exit code: %d\n", res.Status, res.ExitCode)
	case runner.KindCompileError:
		fmt.Printf("Compilation failed:\n%s\n", res.CompileError)
		os.Exit(1)
	case runner.KindUnsupported:
		fmt.Println("Unsupported file type (only .c and .cpp can be run)")
		os.Exit(1)
	case runner.KindSystemError:
		fmt.Printf("System error: %s\n", res.Message)
		os.Exit(1)
	}
	return nil
}
