package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var timeoutFlag int

var rootCmd = &cobra.Command{
	Use:   "proctor",
	Short: "Proctor - interactive sandbox for grading student code",
	Long: `Proctor compiles and runs student-submitted C/C++ programs in a
throwaway sandbox, attached to your terminal through a pseudo-terminal:
you type into the running program and see its output live, and a stuck
or runaway program can always be stopped with Ctrl-C or the timeout.

Evaluation results are written to per-student JSON logs and a local
results database for later review.`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 0, "Execution timeout in seconds (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
