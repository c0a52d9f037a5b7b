package executor

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNamespaceExecutorBuildArgs(t *testing.T) {
	n := NewNamespaceExecutor(zaptest.NewLogger(t), &MockCommandRunner{}, "nsenter", 0)

	t.Run("WithPreamble", func(t *testing.T) {
		args := n.BuildArgs(RunSpec{
			WorkingDir:   "/shared/pipelines/build",
			ContainerPID: "4242",
			Interpreter:  "bash",
			Script:       NewScriptFile("/shared", "/workspace", "abc.sh"),
			EnvPreamble:  "export FOO='bar'; ",
		})

		assert.Equal(t, []string{
			"nsenter",
			"--target", "4242",
			"--all",
			"--wdns=/shared/pipelines/build",
			"-e",
			"--",
			"bash",
			"-c",
			"export FOO='bar';  bash /workspace/abc.sh",
		}, args)
	})

	t.Run("EmptyPreamble", func(t *testing.T) {
		args := n.BuildArgs(RunSpec{
			WorkingDir:   "/shared",
			ContainerPID: "1",
			Interpreter:  "sh",
			Script:       NewScriptFile("/shared", "/workspace/", "abc.sh"),
		})
		assert.Equal(t, " sh /workspace/abc.sh", args[len(args)-1])
	})

	t.Run("CustomBinary", func(t *testing.T) {
		custom := NewNamespaceExecutor(zaptest.NewLogger(t), &MockCommandRunner{}, "/usr/bin/nsenter", 0)
		args := custom.BuildArgs(RunSpec{Interpreter: "sh", Script: NewScriptFile("/shared", "/workspace", "a.sh")})
		assert.Equal(t, "/usr/bin/nsenter", args[0])
	})
}

func TestNamespaceExecutorRun(t *testing.T) {
	logger := zaptest.NewLogger(t)
	spec := RunSpec{
		WorkingDir:   "/shared",
		ContainerPID: "4242",
		Interpreter:  "sh",
		Script:       NewScriptFile("/shared", "/workspace", "abc.sh"),
	}

	t.Run("ReturnsExitCodeVerbatim", func(t *testing.T) {
		for _, code := range []int{0, 1, 7, 127, 255} {
			runner := &MockCommandRunner{processes: map[string]*MockProcess{
				"nsenter": {exitCode: code},
			}}
			n := NewNamespaceExecutor(logger, runner, "nsenter", 0)

			got, err := n.Run(context.Background(), spec, Discard)
			require.NoError(t, err)
			assert.Equal(t, code, got)
		}
	})

	t.Run("RelaysOutput", func(t *testing.T) {
		runner := &MockCommandRunner{processes: map[string]*MockProcess{
			"nsenter": {stdout: "hi\n", stderr: "warn\n"},
		}}
		n := NewNamespaceExecutor(logger, runner, "nsenter", 0)
		console := &BufferConsole{}

		_, err := n.Run(context.Background(), spec, console)
		require.NoError(t, err)
		assert.Equal(t, []string{"hi"}, console.Stdout())
		assert.Equal(t, []string{"warn"}, console.Stderr())
	})

	t.Run("SpawnFailure", func(t *testing.T) {
		runner := &MockCommandRunner{startErrors: map[string]error{"nsenter": errBoom}}
		n := NewNamespaceExecutor(logger, runner, "nsenter", 0)

		code, err := n.Run(context.Background(), spec, Discard)
		require.ErrorIs(t, err, ErrProcessSpawn)
		assert.Equal(t, FailedToRun, code)
		assert.Len(t, runner.callsTo("nsenter"), 1, "spawn failures are not retried")
	})

	t.Run("WaitFailure", func(t *testing.T) {
		runner := &MockCommandRunner{processes: map[string]*MockProcess{
			"nsenter": {waitErr: errBoom},
		}}
		n := NewNamespaceExecutor(logger, runner, "nsenter", 0)

		_, err := n.Run(context.Background(), spec, Discard)
		require.ErrorIs(t, err, errBoom)
	})

	t.Run("MissingBinary", func(t *testing.T) {
		n := NewNamespaceExecutor(logger, RealCommandRunner{}, "/nonexistent/nsenter", 0)

		_, err := n.Run(context.Background(), spec, Discard)
		require.ErrorIs(t, err, ErrProcessSpawn)
	})
}

func TestNamespaceExecutorTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	// The helper's child keeps the output pipes open after the helper is
	// killed.
	helper := writeFakeNsenter(t, "echo started\nsleep 30\n")
	n := NewNamespaceExecutor(zaptest.NewLogger(t), RealCommandRunner{}, helper, 200*time.Millisecond)
	console := &BufferConsole{}

	start := time.Now()
	code, err := n.Run(context.Background(), RunSpec{Interpreter: "sh", Script: NewScriptFile("/shared", "/workspace", "a.sh")}, console)

	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, FailedToRun, code)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, []string{"started"}, console.Stdout())
}

func TestNamespaceExecutorCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	helper := writeFakeNsenter(t, "sleep 30\n")
	n := NewNamespaceExecutor(zaptest.NewLogger(t), RealCommandRunner{}, helper, 0)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := n.Run(ctx, RunSpec{Interpreter: "sh", Script: NewScriptFile("/shared", "/workspace", "a.sh")}, Discard)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestNamespaceExecutorBackgroundChild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	// The backgrounded sleep inherits stdout and outlives the helper.
	helper := writeFakeNsenter(t, "sleep 30 &\necho started\nexit 0\n")
	n := NewNamespaceExecutor(zaptest.NewLogger(t), RealCommandRunner{WaitDelay: 100 * time.Millisecond}, helper, 0)
	console := &BufferConsole{}

	start := time.Now()
	code, err := n.Run(context.Background(), RunSpec{Interpreter: "sh", Script: NewScriptFile("/shared", "/workspace", "a.sh")}, console)

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Less(t, time.Since(start), 10*time.Second, "the run ends when the process exits")
	assert.Equal(t, []string{"started"}, console.Stdout())
}

func TestNamespaceExecutorKilledBySignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	tests := []struct {
		name   string
		signal string
		want   int
	}{
		{"SIGKILL", "KILL", 128 + 9},
		{"SIGTERM", "TERM", 128 + 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper := writeFakeNsenter(t, "kill -"+tt.signal+" $$\n")
			n := NewNamespaceExecutor(zaptest.NewLogger(t), RealCommandRunner{}, helper, 0)

			code, err := n.Run(context.Background(), RunSpec{Interpreter: "sh", Script: NewScriptFile("/shared", "/workspace", "a.sh")}, Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}
