package runner

import (
	"unicode/utf8"

	"github.com/michaelbrown/proctor/internal/session"
)

// Kind tags which variant of Result is populated.
type Kind string

const (
	// KindCompleted means the program was compiled and run; Status,
	// ExitCode and Transcript describe the session.
	KindCompleted Kind = "completed"
	// KindCompileError means the compiler rejected the source.
	KindCompileError Kind = "compile_error"
	// KindUnsupported means the file's extension has no execution strategy.
	KindUnsupported Kind = "unsupported"
	// KindSystemError means setup or teardown failed unexpectedly.
	KindSystemError Kind = "system_error"
)

// excerptLimit caps the compiler/system error text kept in a Result.
// Truncation is deliberate: the excerpt is a grading signal, not a log.
const excerptLimit = 500

// Result is the sole value Execute returns. Exactly one variant is
// meaningful, selected by Kind; it is immutable once constructed and is
// the only artifact that outlives the request.
type Result struct {
	Kind Kind `json:"kind"`

	// KindCompleted
	Status     session.Status `json:"status,omitempty"`
	ExitCode   int            `json:"exit_code,omitempty"`
	Transcript string         `json:"transcript,omitempty"`

	// KindCompileError
	CompileError string `json:"compile_error,omitempty"`

	// KindSystemError
	Message string `json:"message,omitempty"`
}

func completed(out session.Outcome) Result {
	return Result{
		Kind:       KindCompleted,
		Status:     out.Status,
		ExitCode:   out.ExitCode,
		Transcript: out.Transcript,
	}
}

func compileError(stderr string) Result {
	return Result{Kind: KindCompileError, CompileError: truncate(stderr, excerptLimit)}
}

func unsupported() Result {
	return Result{Kind: KindUnsupported}
}

func systemError(err error) Result {
	return Result{Kind: KindSystemError, Message: truncate(err.Error(), excerptLimit)}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	// Back the cut up to a rune boundary so the excerpt never ends with
	// a partial multi-byte character.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
