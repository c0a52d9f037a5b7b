package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Request describes one script execution.
type Request struct {
	Script      string
	Interpreter string // empty or blank selects the configured default
	Environment map[string]string
	// WorkingDirectory is relative to the shared root.
	WorkingDirectory string
}

// Outcome is the result reported back to the build server. ExitCode is
// kept for callers inside this process only.
type Outcome struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	ExitCode int    `json:"-"`
}

// FailedToRun is the exit code reported when no process exit status exists.
const FailedToRun = -1

// ScriptFilePermission is the mode the script file is written with before
// chmod u+x is applied.
const ScriptFilePermission = 0o644

// ScriptExtension is appended to every generated script file name.
const ScriptExtension = ".sh"

// signalExitBase is added to the signal number of a child killed by a
// signal, as shells report it.
const signalExitBase = 128

// DefaultWaitDelay bounds how long output is still collected once the child
// has exited while something it started keeps the streams open.
const DefaultWaitDelay = time.Second

// Process is a started child process. Stdout and Stderr must be read while
// Wait blocks; both reach end-of-stream once Wait has returned.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits. A non-zero exit status is not an
	// error; err is reserved for failures to observe the process at all.
	Wait() (exitCode int, err error)
}

// CommandRunner starts system commands.
type CommandRunner interface {
	Start(ctx context.Context, dir string, args []string) (Process, error)
}

// RealCommandRunner implements CommandRunner using os/exec
type RealCommandRunner struct {
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

// Start launches args[0] with the remaining arguments in dir.
func (r RealCommandRunner) Start(ctx context.Context, dir string, args []string) (Process, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // arguments are built by this package
	cmd.Dir = dir
	cmd.WaitDelay = DefaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		_ = stdoutW.Close()
		_ = stderrW.Close()
		return nil, err
	}

	return &osProcess{
		cmd:     cmd,
		stdout:  stdoutR,
		stderr:  stderrR,
		writers: []*io.PipeWriter{stdoutW, stderrW},
	}, nil
}

type osProcess struct {
	cmd     *exec.Cmd
	stdout  io.Reader
	stderr  io.Reader
	writers []*io.PipeWriter
}

func (p *osProcess) Stdout() io.Reader { return p.stdout }
func (p *osProcess) Stderr() io.Reader { return p.stderr }

// Wait returns when the process has exited and its output was copied, or
// WaitDelay after the exit if a descendant still holds the streams.
func (p *osProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	for _, w := range p.writers {
		_ = w.Close()
	}

	if err == nil {
		return 0, nil
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		return p.cmd.ProcessState.ExitCode(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitStatus(exitErr), nil
	}
	return FailedToRun, err
}

func exitStatus(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return signalExitBase + int(ws.Signal())
	}
	return exitErr.ExitCode()
}

// FileSystem defines the file operations the script manager needs
type FileSystem interface {
	WriteFile(filename string, data []byte, perm os.FileMode) error
	Remove(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) Remove(path string) error {
	return os.Remove(path)
}
