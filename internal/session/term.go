package session

import (
	"fmt"

	"golang.org/x/term"
)

// termGuard saves a terminal's mode on creation and restores it exactly
// once, no matter how many times Restore is called. When the descriptor
// is not a terminal (tests, piped stdin) the guard is a no-op so the
// session can still run non-interactively.
type termGuard struct {
	fd       int
	state    *term.State
	restored bool
}

// makeRaw puts the terminal on fd into raw mode so individual keystrokes
// are forwarded immediately, without local echo or line buffering.
func makeRaw(fd int) (*termGuard, error) {
	if !term.IsTerminal(fd) {
		return &termGuard{fd: -1, restored: true}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set terminal raw mode: %w", err)
	}
	return &termGuard{fd: fd, state: state}, nil
}

// Restore puts the terminal back into its saved mode. Safe to call more
// than once; only the first call touches the terminal.
func (g *termGuard) Restore() {
	if g.restored {
		return
	}
	g.restored = true
	term.Restore(g.fd, g.state)
}
