package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// lineSeparator is the native line terminator of the platforms we run on.
const lineSeparator = "\n"

var lineEndings = strings.NewReplacer("\r\n", lineSeparator, "\r", lineSeparator)

// NormalizeLineEndings rewrites CRLF, CR and LF terminators to the native
// separator.
func NormalizeLineEndings(body string) string {
	return lineEndings.Replace(body)
}

// ScriptFile is a transient script reachable from both sides of the
// namespace boundary.
type ScriptFile struct {
	Name          string
	HostPath      string
	ContainerPath string
}

// NewScriptFile names a fresh script under the given roots.
func NewScriptFile(hostRoot, containerRoot, name string) ScriptFile {
	return ScriptFile{
		Name:          name,
		HostPath:      filepath.Join(hostRoot, name),
		ContainerPath: filepath.Join(containerRoot, name),
	}
}

// GenerateScriptName returns a collision-resistant file name.
func GenerateScriptName() string {
	return uuid.NewString() + ScriptExtension
}

// ScriptManager materializes scripts in the shared root and removes them.
type ScriptManager struct {
	logger    *zap.Logger
	fs        FileSystem
	cmdRunner CommandRunner
	chmodPath string
}

// NewScriptManager creates a ScriptManager using chmodPath to mark scripts
// executable.
func NewScriptManager(logger *zap.Logger, fs FileSystem, cmdRunner CommandRunner, chmodPath string) *ScriptManager {
	return &ScriptManager{
		logger:    logger.Named("script"),
		fs:        fs,
		cmdRunner: cmdRunner,
		chmodPath: chmodPath,
	}
}

// Create writes body to the script's host path with normalized line endings
// and runs "chmod u+x NAME" in its directory. chmod's stderr goes to the
// console. A non-zero chmod exit is only logged.
func (m *ScriptManager) Create(ctx context.Context, script ScriptFile, body string, console Console) error {
	if err := m.fs.WriteFile(script.HostPath, []byte(NormalizeLineEndings(body)), ScriptFilePermission); err != nil {
		return fmt.Errorf("%w: %w", ErrScriptWrite, err)
	}

	proc, err := m.cmdRunner.Start(ctx, filepath.Dir(script.HostPath), []string{m.chmodPath, "u+x", script.Name})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScriptWrite, m.chmodPath, err)
	}

	// Only chmod's stderr is of interest; stdout is drained and dropped.
	relay := StartRelay(m.logger, proc.Stdout(), proc.Stderr(), stderrOnly{console})
	exitCode, err := proc.Wait()
	relay.Wait()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScriptWrite, m.chmodPath, err)
	}
	if exitCode != 0 {
		m.logger.Warn("chmod exited with non-zero status",
			zap.String("file", script.HostPath),
			zap.Int("exit_code", exitCode))
	}

	m.logger.Debug("script file created", zap.String("file", script.HostPath), zap.Int("bytes", len(body)))
	return nil
}

type stderrOnly struct{ Console }

func (stderrOnly) Output(string) {}

// Delete removes the script's host file. Errors are never reported.
func (m *ScriptManager) Delete(script ScriptFile) {
	if script.Name == "" {
		return
	}
	if err := m.fs.Remove(script.HostPath); err != nil {
		m.logger.Debug("failed to remove script file", zap.String("file", script.HostPath), zap.Error(err))
	}
}
