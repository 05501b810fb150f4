// Package runner turns a single untrusted source file into a running,
// pty-attached process inside a throwaway sandbox directory, or a
// definitive compilation failure, with guaranteed cleanup either way.
// The sandbox is a plain ephemeral directory that isolates the build
// artifacts, not a security boundary.
package runner

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/michaelbrown/proctor/internal/session"
)

// supportedExtensions are the file types with an execution strategy.
var supportedExtensions = map[string]bool{
	".c":   true,
	".cpp": true,
}

// Request is one evaluation attempt: a source file and a wall-clock
// budget for the interactive run.
type Request struct {
	SourcePath string
	Timeout    time.Duration
}

// Runner compiles and executes submissions. Workspaces are created under
// OutputDir with a unique name per request and never outlive the request.
type Runner struct {
	OutputDir string
	Compiler  string // compiler command, e.g. "g++"
	StdFlag   string // language-standard flag, e.g. "-std=c++11"
	Session   session.Config
}

// New returns a Runner with the conservative defaults the evaluation
// workflow uses: g++ with a fixed c++11 standard flag.
func New(outputDir string) *Runner {
	return &Runner{
		OutputDir: outputDir,
		Compiler:  "g++",
		StdFlag:   "-std=c++11",
	}
}

// Execute compiles req.SourcePath and runs it in an interactive pty
// session. All failure kinds are folded into the Result; no error
// escapes to the caller. The sandbox workspace is removed on every exit
// path, and removal failures never mask the underlying result.
func (r *Runner) Execute(req Request) Result {
	workspace := filepath.Join(r.OutputDir, "sandbox_"+hex.EncodeToString(uuidBytes()))
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return systemError(fmt.Errorf("creating sandbox: %w", err))
	}
	defer os.RemoveAll(workspace)

	// Work on a private copy so a concurrent overwrite of the original
	// cannot race the compile.
	srcCopy := filepath.Join(workspace, filepath.Base(req.SourcePath))
	if err := copyFile(req.SourcePath, srcCopy); err != nil {
		return systemError(fmt.Errorf("copying source: %w", err))
	}

	if !supportedExtensions[strings.ToLower(filepath.Ext(srcCopy))] {
		return unsupported()
	}

	binary := filepath.Join(workspace, "program")
	if stderr, err := r.compile(srcCopy, binary); err != nil {
		if _, isExit := err.(*exec.ExitError); isExit {
			return compileError(stderr)
		}
		return systemError(fmt.Errorf("invoking compiler: %w", err))
	}

	out, err := session.Run(binary, req.Timeout, r.Session)
	if err != nil {
		return systemError(err)
	}
	return completed(out)
}

// compile runs the compiler synchronously and returns its stderr text
// alongside any invocation or non-zero-exit error.
func (r *Runner) compile(srcPath, binPath string) (string, error) {
	cmd := exec.Command(r.Compiler, r.StdFlag, "-o", binPath, srcPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.String(), err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func uuidBytes() []byte {
	u := uuid.New()
	return u[:]
}
