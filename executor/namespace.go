package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RunSpec addresses one script inside the target container.
type RunSpec struct {
	// WorkingDir is the working directory inside the entered namespaces.
	WorkingDir   string
	ContainerPID string
	Interpreter  string
	Script       ScriptFile
	EnvPreamble  string
}

// NamespaceExecutor runs scripts inside another process's namespaces
// through nsenter.
type NamespaceExecutor struct {
	logger      *zap.Logger
	cmdRunner   CommandRunner
	nsenterPath string
	timeout     time.Duration
}

// NewNamespaceExecutor creates a NamespaceExecutor. A zero timeout lets
// scripts run until they exit.
func NewNamespaceExecutor(logger *zap.Logger, cmdRunner CommandRunner, nsenterPath string, timeout time.Duration) *NamespaceExecutor {
	return &NamespaceExecutor{
		logger:      logger.Named("nsenter"),
		cmdRunner:   cmdRunner,
		nsenterPath: nsenterPath,
		timeout:     timeout,
	}
}

// BuildArgs returns the full nsenter argument vector, binary first:
//
//	nsenter --target PID --all --wdns=DIR -e -- SH -c "PREAMBLE SH PATH"
//
// The interpreter runs twice so the exported preamble and the script share
// one shell process.
func (n *NamespaceExecutor) BuildArgs(spec RunSpec) []string {
	inner := fmt.Sprintf("%s %s %s", spec.EnvPreamble, spec.Interpreter, spec.Script.ContainerPath)
	return []string{
		n.nsenterPath,
		"--target", spec.ContainerPID,
		"--all",
		fmt.Sprintf("--wdns=%s", spec.WorkingDir),
		"-e",
		"--",
		spec.Interpreter,
		"-c",
		inner,
	}
}

// Run executes the script and returns its exit status verbatim. Output is
// relayed to console while the script runs.
func (n *NamespaceExecutor) Run(ctx context.Context, spec RunSpec, console Console) (int, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	n.logger.Info("entering container namespaces",
		zap.String("pid", spec.ContainerPID),
		zap.String("workdir", spec.WorkingDir),
		zap.String("interpreter", spec.Interpreter),
		zap.String("script", spec.Script.ContainerPath))

	proc, err := n.cmdRunner.Start(ctx, "", n.BuildArgs(spec))
	if err != nil {
		return FailedToRun, fmt.Errorf("%w: %s: %w", ErrProcessSpawn, n.nsenterPath, err)
	}

	// The run ends when the process exits. Its streams end with Wait even
	// if a backgrounded child still holds them.
	relay := StartRelay(n.logger, proc.Stdout(), proc.Stderr(), console)
	exitCode, err := proc.Wait()
	relay.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && n.timeout > 0 {
			return FailedToRun, fmt.Errorf("%w after %s", ErrTimeout, n.timeout)
		}
		return FailedToRun, fmt.Errorf("script aborted: %w", ctxErr)
	}
	if err != nil {
		return FailedToRun, fmt.Errorf("failed waiting for %s: %w", n.nsenterPath, err)
	}

	n.logger.Info("script finished", zap.Int("exit_code", exitCode))
	return exitCode, nil
}
