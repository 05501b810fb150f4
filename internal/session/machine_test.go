package session

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func testMachine() (*machine, *bytes.Buffer, *bytes.Buffer) {
	display := &bytes.Buffer{}
	program := &bytes.Buffer{}
	return newMachine(display, program, 2*time.Second), display, program
}

func TestMachineForwardsOutput(t *testing.T) {
	m, display, _ := testMachine()

	m.step(event{kind: eventOutput, data: []byte("hello ")})
	m.step(event{kind: eventOutput, data: []byte("world")})

	if got := display.String(); got != "hello world" {
		t.Errorf("display = %q, want %q", got, "hello world")
	}
	if got := m.transcript.String(); got != "hello world" {
		t.Errorf("transcript = %q, want %q", got, "hello world")
	}
	if m.done {
		t.Error("machine should still be running")
	}
}

func TestMachineEmptyOutputEndsSession(t *testing.T) {
	m, _, _ := testMachine()

	m.step(event{kind: eventOutput, data: nil})

	if !m.done {
		t.Fatal("empty read should end the session")
	}
	if m.status != StatusCompleted {
		t.Errorf("status = %q, want %q", m.status, StatusCompleted)
	}
}

func TestMachineForwardsInputToProgram(t *testing.T) {
	m, _, program := testMachine()

	m.step(event{kind: eventInput, key: 'x'})
	m.step(event{kind: eventInput, key: '\r'})

	if got := program.String(); got != "x\r" {
		t.Errorf("program input = %q, want %q", got, "x\r")
	}
	if m.done {
		t.Error("ordinary input should not end the session")
	}
}

func TestMachineInterrupt(t *testing.T) {
	m, _, program := testMachine()

	m.step(event{kind: eventOutput, data: []byte("running\r\n")})
	m.step(event{kind: eventInput, key: interruptByte})

	if !m.done {
		t.Fatal("interrupt should end the session")
	}
	if m.status != StatusInterrupted {
		t.Errorf("status = %q, want %q", m.status, StatusInterrupted)
	}
	if program.Len() != 0 {
		t.Errorf("interrupt byte must not reach the program, got %q", program.String())
	}
	if !strings.Contains(m.transcript.String(), "[stopped by user]") {
		t.Errorf("transcript missing interrupt annotation: %q", m.transcript.String())
	}
}

func TestMachineDeadline(t *testing.T) {
	m, display, _ := testMachine()

	m.step(event{kind: eventDeadline})

	if !m.done {
		t.Fatal("deadline should end the session")
	}
	if m.status != StatusTimeout {
		t.Errorf("status = %q, want %q", m.status, StatusTimeout)
	}
	want := "[timed out after 2 seconds]"
	if !strings.Contains(m.transcript.String(), want) {
		t.Errorf("transcript = %q, want it to contain %q", m.transcript.String(), want)
	}
	if !strings.Contains(display.String(), want) {
		t.Errorf("display = %q, want it to contain %q", display.String(), want)
	}
}

func TestMachineSourceFailureIsNormalEnd(t *testing.T) {
	m, _, _ := testMachine()

	m.step(event{kind: eventOutput, data: []byte("partial")})
	m.step(event{kind: eventSourceFailed})

	if !m.done {
		t.Fatal("source failure should end the session")
	}
	if m.status != StatusCompleted {
		t.Errorf("status = %q, want %q", m.status, StatusCompleted)
	}
	if got := m.transcript.String(); got != "partial" {
		t.Errorf("transcript = %q, want %q", got, "partial")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestMachineInputWriteFailureEndsSession(t *testing.T) {
	display := &bytes.Buffer{}
	m := newMachine(display, failingWriter{}, 2*time.Second)

	m.step(event{kind: eventInput, key: 'x'})

	if !m.done {
		t.Fatal("a failed input write should end the session")
	}
	if m.status != StatusCompleted {
		t.Errorf("status = %q, want %q", m.status, StatusCompleted)
	}
	m.step(event{kind: eventOutput, data: []byte("late")})
	if display.Len() != 0 {
		t.Error("output after session end should be dropped")
	}
}

func TestMachineIgnoresEventsAfterDone(t *testing.T) {
	m, display, _ := testMachine()

	m.step(event{kind: eventInput, key: interruptByte})
	m.step(event{kind: eventOutput, data: []byte("late")})

	if strings.Contains(display.String(), "late") {
		t.Error("output after session end should be dropped")
	}
	if m.status != StatusInterrupted {
		t.Errorf("status = %q, want %q", m.status, StatusInterrupted)
	}
}

func TestMachineTranscriptKeepsTail(t *testing.T) {
	m, _, _ := testMachine()

	chunk := bytes.Repeat([]byte("0123456789"), 30) // 300 bytes
	for i := 0; i < 5; i++ {
		m.step(event{kind: eventOutput, data: chunk})
	}

	got := m.transcript.String()
	if len(got) != transcriptLimit {
		t.Fatalf("transcript length = %d, want %d", len(got), transcriptLimit)
	}
}
