package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeScript drops an executable shell script into a temp dir so the
// session can run a real pty-attached process without needing a compiler.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	requirePTY(t)

	path := filepath.Join(t.TempDir(), "program")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func requirePTY(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/ptmx"); err != nil {
		t.Skip("no /dev/ptmx on this system")
	}
}

// runScript executes the script with a pipe as operator input. input is
// written before the session starts so it is already readable on the
// first multiplex wait.
func runScript(t *testing.T, body string, input []byte, timeout time.Duration) (Outcome, *bytes.Buffer) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	if len(input) > 0 {
		if _, err := w.Write(input); err != nil {
			t.Fatalf("writing input: %v", err)
		}
	}

	display := &bytes.Buffer{}
	out, err := Run(writeScript(t, body), timeout, Config{
		Input:   r,
		Display: display,
		Grace:   2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out, display
}

func TestRunSilentExit(t *testing.T) {
	out, _ := runScript(t, "exit 0", nil, 10*time.Second)

	if out.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", out.Status, StatusCompleted)
	}
	if out.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", out.ExitCode)
	}
	if out.Transcript != "" {
		t.Errorf("transcript = %q, want empty", out.Transcript)
	}
}

func TestRunExitCodePassthrough(t *testing.T) {
	out, _ := runScript(t, "exit 7", nil, 10*time.Second)

	if out.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", out.ExitCode)
	}
	if out.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", out.Status, StatusCompleted)
	}
}

func TestRunCapturesOutput(t *testing.T) {
	out, display := runScript(t, `echo "hello from the sandbox"`, nil, 10*time.Second)

	if !strings.Contains(out.Transcript, "hello from the sandbox") {
		t.Errorf("transcript = %q, want program output in it", out.Transcript)
	}
	if !strings.Contains(display.String(), "hello from the sandbox") {
		t.Error("output should stream to the display as well")
	}
	if !strings.Contains(display.String(), "PROGRAM EXECUTION START") {
		t.Error("display missing start banner")
	}
}

func TestRunTranscriptKeepsLastKilobyte(t *testing.T) {
	// 2000 bytes of output with a distinct head and tail.
	body := `i=0
while [ $i -lt 100 ]; do printf 'HEAD456789'; i=$((i+1)); done
i=0
while [ $i -lt 100 ]; do printf 'TAIL456789'; i=$((i+1)); done`
	out, _ := runScript(t, body, nil, 10*time.Second)

	if len(out.Transcript) != transcriptLimit {
		t.Fatalf("transcript length = %d, want %d", len(out.Transcript), transcriptLimit)
	}
	if strings.Contains(out.Transcript, "HEAD") {
		t.Error("transcript kept the oldest output instead of the most recent")
	}
	if !strings.Contains(out.Transcript, "TAIL") {
		t.Error("transcript missing the most recent output")
	}
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	out, _ := runScript(t, "sleep 30", nil, 1*time.Second)

	if out.Status != StatusTimeout {
		t.Errorf("status = %q, want %q", out.Status, StatusTimeout)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("session took %v, want well under the program's own runtime", elapsed)
	}
	if !strings.Contains(out.Transcript, "timed out after 1 seconds") {
		t.Errorf("transcript = %q, want timeout annotation", out.Transcript)
	}
}

func TestRunInterrupt(t *testing.T) {
	out, _ := runScript(t, "sleep 30", []byte{interruptByte}, 10*time.Second)

	if out.Status != StatusInterrupted {
		t.Errorf("status = %q, want %q", out.Status, StatusInterrupted)
	}
	if !strings.Contains(out.Transcript, "[stopped by user]") {
		t.Errorf("transcript = %q, want interrupt annotation", out.Transcript)
	}
}

func TestRunInputReachesProgram(t *testing.T) {
	out, _ := runScript(t, `read line; echo "got: $line"`, []byte("apple\r"), 10*time.Second)

	if out.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", out.Status, StatusCompleted)
	}
	if !strings.Contains(out.Transcript, "got: apple") {
		t.Errorf("transcript = %q, want echoed input", out.Transcript)
	}
}

func TestRunForcedKill(t *testing.T) {
	// Ignore SIGTERM so draining has to escalate to SIGKILL.
	out, _ := runScript(t, "trap '' TERM\nsleep 30", []byte{interruptByte}, 10*time.Second)

	if out.Status != StatusKilled {
		t.Errorf("status = %q, want %q", out.Status, StatusKilled)
	}
	if out.ExitCode != KilledExitCode {
		t.Errorf("exit code = %d, want sentinel %d", out.ExitCode, KilledExitCode)
	}
	if !strings.Contains(out.Transcript, "[killed after grace period]") {
		t.Errorf("transcript = %q, want kill annotation", out.Transcript)
	}
}

func TestRunMissingBinary(t *testing.T) {
	requirePTY(t)

	_, err := Run(filepath.Join(t.TempDir(), "nope"), time.Second, Config{
		Display: &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
}
