package session

import "unicode/utf8"

// transcriptLimit is the number of most recent transcript bytes retained.
// The transcript is a diagnostic excerpt for the evaluation log, not a
// full capture; the live output always goes to the display in full.
const transcriptLimit = 1000

// tailBuffer keeps the most recent limit bytes written to it. Older
// content is evicted, not retained.
type tailBuffer struct {
	limit int
	data  []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	if len(b.data) > b.limit {
		cut := len(b.data) - b.limit
		// Never start mid-rune: evict the continuation bytes of a rune
		// whose start byte was already dropped.
		for cut < len(b.data) && !utf8.RuneStart(b.data[cut]) {
			cut++
		}
		b.data = b.data[cut:]
	}
	return len(p), nil
}

func (b *tailBuffer) WriteString(s string) {
	b.Write([]byte(s))
}

func (b *tailBuffer) String() string {
	return string(b.data)
}
