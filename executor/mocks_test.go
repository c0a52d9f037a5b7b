package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// MockProcess implements Process with canned output
type MockProcess struct {
	stdout   string
	stderr   string
	exitCode int
	waitErr  error
}

func (p *MockProcess) Stdout() io.Reader { return strings.NewReader(p.stdout) }
func (p *MockProcess) Stderr() io.Reader { return strings.NewReader(p.stderr) }
func (p *MockProcess) Wait() (int, error) {
	if p.waitErr != nil {
		return FailedToRun, p.waitErr
	}
	return p.exitCode, nil
}

type mockCall struct {
	dir  string
	args []string
}

// MockCommandRunner implements CommandRunner for testing. Results are keyed
// by the binary name (args[0]).
type MockCommandRunner struct {
	mu          sync.Mutex
	calls       []mockCall
	processes   map[string]*MockProcess
	startErrors map[string]error
	// onStart runs before a process is returned, e.g. to inspect files.
	onStart func(args []string)
}

func (m *MockCommandRunner) Start(_ context.Context, dir string, args []string) (Process, error) {
	m.mu.Lock()
	m.calls = append(m.calls, mockCall{dir: dir, args: append([]string(nil), args...)})
	m.mu.Unlock()

	if m.onStart != nil {
		m.onStart(args)
	}
	if err, exists := m.startErrors[args[0]]; exists {
		return nil, err
	}
	if p, exists := m.processes[args[0]]; exists {
		return p, nil
	}
	return &MockProcess{}, nil
}

func (m *MockCommandRunner) callsTo(name string) []mockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockCall
	for _, c := range m.calls {
		if c.args[0] == name {
			out = append(out, c)
		}
	}
	return out
}

// MockFileSystem implements FileSystem in memory
type MockFileSystem struct {
	mu          sync.Mutex
	files       map[string][]byte
	perms       map[string]os.FileMode
	written     []string
	writeErrors map[string]error
	removeErr   error
}

func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files: make(map[string][]byte),
		perms: make(map[string]os.FileMode),
	}
}

func (m *MockFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, exists := m.writeErrors[filename]; exists {
		return err
	}
	m.files[filename] = data
	m.perms[filename] = perm
	m.written = append(m.written, filename)
	return nil
}

func (m *MockFileSystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removeErr != nil {
		return m.removeErr
	}
	if _, exists := m.files[path]; !exists {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}
	delete(m.files, path)
	return nil
}

func (m *MockFileSystem) hasFile(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.files[path]
	return exists
}

func (m *MockFileSystem) fileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

var errBoom = errors.New("boom")

// writeFakeNsenter installs a stand-in for nsenter that skips the namespace
// flags and runs the interpreter on the host. It lets the whole pipeline run
// without privileges.
func writeFakeNsenter(t *testing.T, body string) string {
	t.Helper()
	if body == "" {
		body = `while [ "$1" != "--" ]; do shift; done
shift
exec "$@"
`
	}
	path := filepath.Join(t.TempDir(), "fake-nsenter")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)) //nolint:gosec // test helper must be executable
	return path
}

// listDir returns the names in dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
