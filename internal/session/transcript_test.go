package session

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTailBufferUnderLimit(t *testing.T) {
	b := newTailBuffer(10)
	b.WriteString("abc")
	b.WriteString("def")

	if got := b.String(); got != "abcdef" {
		t.Errorf("got %q, want %q", got, "abcdef")
	}
}

func TestTailBufferEvictsOldest(t *testing.T) {
	b := newTailBuffer(5)
	b.WriteString("abcdefghij")

	if got := b.String(); got != "fghij" {
		t.Errorf("got %q, want %q", got, "fghij")
	}
}

func TestTailBufferExactTail(t *testing.T) {
	b := newTailBuffer(transcriptLimit)
	full := strings.Repeat("x", 400) + strings.Repeat("y", 800)
	b.WriteString(full)

	want := full[len(full)-transcriptLimit:]
	if got := b.String(); got != want {
		t.Errorf("tail mismatch: got %d bytes starting %q", len(got), got[:10])
	}
}

func TestTailBufferSingleOversizedWrite(t *testing.T) {
	b := newTailBuffer(4)
	b.Write([]byte("0123456789"))

	if got := b.String(); got != "6789" {
		t.Errorf("got %q, want %q", got, "6789")
	}
}

func TestTailBufferNeverSplitsRune(t *testing.T) {
	b := newTailBuffer(3)
	b.WriteString("a€b") // eviction lands inside the three-byte €

	if got := b.String(); got != "b" {
		t.Errorf("got %q, want %q", got, "b")
	}
	if !utf8.ValidString(b.String()) {
		t.Errorf("tail %q is not valid UTF-8", b.String())
	}

	b = newTailBuffer(4)
	b.WriteString("€€")

	if got := b.String(); got != "€" {
		t.Errorf("got %q, want %q", got, "€")
	}
}
