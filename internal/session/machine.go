package session

import (
	"fmt"
	"io"
	"time"
)

// Status classifies how a session ended.
type Status string

const (
	// StatusCompleted means the program exited on its own.
	StatusCompleted Status = "completed"
	// StatusTimeout means the wall-clock budget expired.
	StatusTimeout Status = "timeout"
	// StatusInterrupted means the operator pressed Ctrl-C.
	StatusInterrupted Status = "interrupted"
	// StatusKilled means the program ignored the termination signal and
	// was forcibly killed after the grace period.
	StatusKilled Status = "killed"
)

// interruptByte is the operator's stop request (Ctrl-C in raw mode).
const interruptByte = 0x03

// outputChunkSize bounds a single read from the pty master.
const outputChunkSize = 1024

type eventKind int

const (
	// eventOutput carries a chunk of program output. An empty chunk means
	// the program closed its side of the pty.
	eventOutput eventKind = iota
	// eventInput carries one operator keystroke.
	eventInput
	// eventDeadline fires when the remaining timeout budget is exhausted.
	eventDeadline
	// eventSourceFailed reports an I/O error on either descriptor. The pty
	// master returns EIO once the child hangs up, so this is a normal end
	// of session, not a fault.
	eventSourceFailed
)

type event struct {
	kind eventKind
	data []byte
	key  byte
}

// machine is the transition logic for the Running state of a session.
// It consumes readiness events one at a time and owns the transcript,
// so there is no concurrent access to shared state: output interleaves
// with input exactly as the pty delivers it.
type machine struct {
	display    io.Writer // operator's screen, written in real time
	program    io.Writer // pty master, i.e. the program's input
	transcript *tailBuffer
	timeout    time.Duration

	status Status
	done   bool
}

func newMachine(display, program io.Writer, timeout time.Duration) *machine {
	return &machine{
		display:    display,
		program:    program,
		transcript: newTailBuffer(transcriptLimit),
		timeout:    timeout,
		status:     StatusCompleted,
	}
}

func (m *machine) step(ev event) {
	if m.done {
		return
	}

	switch ev.kind {
	case eventOutput:
		if len(ev.data) == 0 {
			m.done = true
			return
		}
		m.display.Write(ev.data)
		m.transcript.Write(ev.data)

	case eventInput:
		if ev.key == interruptByte {
			m.annotate("[stopped by user]")
			m.status = StatusInterrupted
			m.done = true
			return
		}
		if _, err := m.program.Write([]byte{ev.key}); err != nil {
			// Writing to the master fails with EIO once the child hangs
			// up, the same way reads do: end the session on that path.
			m.step(event{kind: eventSourceFailed})
		}

	case eventDeadline:
		m.annotate(fmt.Sprintf("[timed out after %d seconds]", int(m.timeout.Seconds())))
		m.status = StatusTimeout
		m.done = true

	case eventSourceFailed:
		m.done = true
	}
}

// annotate records a session marker in both the transcript and the live
// display. Markers use \r\n because the terminal is in raw mode.
func (m *machine) annotate(note string) {
	line := "\r\n" + note + "\r\n"
	m.display.Write([]byte(line))
	m.transcript.WriteString(line)
}
