// Package session runs one compiled program to completion attached to a
// pseudo-terminal, relaying bytes between the operator's terminal and
// the program in both directions. The operator types directly into the
// program; the program's output streams to the screen in real time. A
// wall-clock timeout and the operator's Ctrl-C both end the session
// through the same terminate-then-kill escalation.
package session

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// KilledExitCode is reported when the program had to be forcibly killed.
// It is below the valid 0-255 range so it can never collide with a real
// exit code.
const KilledExitCode = -1

// defaultGrace is how long a signaled program gets to exit voluntarily
// before it is killed.
const defaultGrace = 5 * time.Second

// Config adjusts where a session reads operator input and writes live
// output. The zero value attaches to the invoking terminal.
type Config struct {
	Input   *os.File      // operator input; defaults to os.Stdin
	Display io.Writer     // live program output; defaults to os.Stdout
	Grace   time.Duration // voluntary-exit window while draining; defaults to 5s
}

// Outcome describes how a session ended. Transcript holds only the most
// recent output bytes; callers must not assume it is complete.
type Outcome struct {
	Transcript string
	ExitCode   int
	Status     Status
}

// Run starts binaryPath attached to a fresh pty and relays I/O until the
// program exits, the timeout expires, or the operator interrupts it. The
// invoking terminal is put into raw mode for the duration and restored
// on every exit path. A returned error means session setup or the
// multiplex wait itself failed; timeout and interrupt are not errors,
// they are ordinary statuses in the Outcome.
func Run(binaryPath string, timeout time.Duration, cfg Config) (Outcome, error) {
	input := cfg.Input
	if input == nil {
		input = os.Stdin
	}
	display := cfg.Display
	if display == nil {
		display = os.Stdout
	}
	grace := cfg.Grace
	if grace <= 0 {
		grace = defaultGrace
	}

	master, slavePath, err := openPTY()
	if err != nil {
		return Outcome{}, fmt.Errorf("allocate pty: %w", err)
	}

	slave, err := os.OpenFile(slavePath, os.O_RDWR, 0)
	if err != nil {
		master.Close()
		return Outcome{}, fmt.Errorf("open pty slave %s: %w", slavePath, err)
	}

	cmd := exec.Command(binaryPath)
	cmd.Dir = filepath.Dir(binaryPath)
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0, // fd 0 in child = slave pty
	}

	printBanner(display, " PROGRAM EXECUTION START ")

	if err := cmd.Start(); err != nil {
		slave.Close()
		master.Close()
		return Outcome{}, fmt.Errorf("start program: %w", err)
	}
	// Close slave in this process — the child has its own copy via fd 0/1/2.
	slave.Close()

	guard, err := makeRaw(int(input.Fd()))
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		master.Close()
		return Outcome{}, err
	}

	outcome, err := func() (Outcome, error) {
		// The child is signaled and reaped by drain before these run, so
		// the master never closes under a live process.
		defer master.Close()
		defer guard.Restore()

		m := newMachine(display, master, timeout)
		pollErr := multiplex(master, input, m, time.Now().Add(timeout))
		out := drain(cmd, m, grace)
		return out, pollErr
	}()

	printBanner(display, " PROGRAM EXECUTION END ")
	return outcome, err
}

// multiplex is the Running state: one blocking wait over exactly three
// event sources — program output, operator input, and the deadline —
// feeding the state machine until it reports the session is over.
func multiplex(master, input *os.File, m *machine, deadline time.Time) error {
	fds := []unix.PollFd{
		{Fd: int32(master.Fd()), Events: unix.POLLIN},
		{Fd: int32(input.Fd()), Events: unix.POLLIN},
	}
	inputOpen := true
	buf := make([]byte, outputChunkSize)

	for !m.done {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			m.step(event{kind: eventDeadline})
			break
		}

		active := fds
		if !inputOpen {
			active = fds[:1]
		}
		for i := range active {
			active[i].Revents = 0
		}

		n, err := unix.Poll(active, int(remaining/time.Millisecond)+1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		if n == 0 {
			m.step(event{kind: eventDeadline})
			continue
		}

		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			nr, err := master.Read(buf)
			if err != nil {
				// EIO here means the child hung up its side: end of session.
				m.step(event{kind: eventSourceFailed})
			} else {
				m.step(event{kind: eventOutput, data: buf[:nr]})
			}
		}

		if m.done || !inputOpen || fds[1].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
			continue
		}
		var key [1]byte
		nr, err := input.Read(key[:])
		if err != nil || nr == 0 {
			// Operator input closed (piped stdin ran out). Keep relaying
			// program output until it exits or times out.
			inputOpen = false
			continue
		}
		m.step(event{kind: eventInput, key: key[0]})
	}

	return nil
}

// drain is the two-phase termination policy: ask nicely, wait out the
// grace period, then kill. If the program already exited the signal is a
// no-op and Wait returns its real status immediately.
func drain(cmd *exec.Cmd, m *machine, grace time.Duration) Outcome {
	cmd.Process.Signal(syscall.SIGTERM)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	exitCode := 0
	select {
	case <-waitCh:
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}
	case <-time.After(grace):
		cmd.Process.Kill()
		<-waitCh
		m.annotate("[killed after grace period]")
		m.status = StatusKilled
		exitCode = KilledExitCode
	}

	return Outcome{
		Transcript: m.transcript.String(),
		ExitCode:   exitCode,
		Status:     m.status,
	}
}

const bannerWidth = 60

func printBanner(w io.Writer, title string) {
	line := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(w, "\r\n%s\r\n%s\r\n%s\r\n", line, centerPad(title, bannerWidth), line)
}

func centerPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat("=", left) + s + strings.Repeat("=", right)
}
