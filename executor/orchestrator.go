package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

const messagePrefix = "[k8s-executor]"

// Config holds everything the orchestrator needs besides the request. It is
// read once at construction; nothing is looked up from the process
// environment mid-execution.
type Config struct {
	// SharedRoot is the host-side directory the container also sees.
	SharedRoot string
	// ContainerPID is the target container's PID in the host PID namespace.
	ContainerPID string
	// ContainerRoot is where the container sees SharedRoot.
	ContainerRoot string

	// Platform is an operating system name; empty means runtime.GOOS.
	Platform string

	DefaultInterpreter string
	// Interpreters lists the accepted interpreters. Empty accepts any.
	Interpreters []string

	// Timeout bounds a script run. Zero disables it.
	Timeout time.Duration

	NsenterPath string
	ChmodPath   string
}

// Orchestrator drives one script through create, execute and cleanup and
// turns whatever happens into an Outcome.
type Orchestrator struct {
	logger    *zap.Logger
	config    Config
	cmdRunner CommandRunner
	fs        FileSystem
	newName   func() string

	scripts   *ScriptManager
	namespace *NamespaceExecutor
}

// Option defines a functional option for Orchestrator
type Option func(*Orchestrator)

// WithCommandRunner sets the CommandRunner used for chmod and nsenter
func WithCommandRunner(cmdRunner CommandRunner) Option {
	return func(o *Orchestrator) {
		o.cmdRunner = cmdRunner
	}
}

// WithFileSystem sets the FileSystem used for script files
func WithFileSystem(fs FileSystem) Option {
	return func(o *Orchestrator) {
		o.fs = fs
	}
}

// WithNameGenerator replaces the script file name generator
func WithNameGenerator(newName func() string) Option {
	return func(o *Orchestrator) {
		o.newName = newName
	}
}

// New creates an Orchestrator with default implementations and optional interfaces
func New(logger *zap.Logger, config Config, opts ...Option) *Orchestrator {
	if config.DefaultInterpreter == "" {
		config.DefaultInterpreter = "sh"
	}
	if config.NsenterPath == "" {
		config.NsenterPath = "nsenter"
	}
	if config.ChmodPath == "" {
		config.ChmodPath = "chmod"
	}
	if config.Platform == "" {
		config.Platform = runtime.GOOS
	}

	o := &Orchestrator{
		logger:    logger.Named("executor"),
		config:    config,
		cmdRunner: &RealCommandRunner{},
		fs:        &RealFileSystem{},
		newName:   GenerateScriptName,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.scripts = NewScriptManager(o.logger, o.fs, o.cmdRunner, config.ChmodPath)
	o.namespace = NewNamespaceExecutor(o.logger, o.cmdRunner, config.NsenterPath, config.Timeout)

	return o
}

// ExecutePayload parses an execute request body and runs it. It never
// fails; every problem is reported in the Outcome.
func (o *Orchestrator) ExecutePayload(ctx context.Context, body []byte, console Console) Outcome {
	if o.unsupportedPlatform() {
		return o.rejectPlatform()
	}

	req, err := ParsePayload(body)
	if err != nil {
		return o.interrupted(err)
	}

	return o.execute(ctx, req, console)
}

// Execute runs req inside the target container. It never fails; every
// problem is reported in the Outcome.
func (o *Orchestrator) Execute(ctx context.Context, req Request, console Console) Outcome {
	if o.unsupportedPlatform() {
		return o.rejectPlatform()
	}

	return o.execute(ctx, req, console)
}

func (o *Orchestrator) execute(ctx context.Context, req Request, console Console) Outcome {
	if console == nil {
		console = Discard
	}

	if err := o.checkPreconditions(); err != nil {
		return o.interrupted(err)
	}

	interpreter, err := o.resolveInterpreter(req.Interpreter)
	if err != nil {
		return o.interrupted(err)
	}

	script := NewScriptFile(o.config.SharedRoot, o.config.ContainerRoot, o.newName())
	defer o.scripts.Delete(script)

	if err := o.scripts.Create(ctx, script, req.Script, console); err != nil {
		return o.interrupted(err)
	}

	preamble, invalid := buildEnvPreamble(req.Environment)
	logInvalidEnvNames(o.logger, invalid)

	spec := RunSpec{
		WorkingDir:   filepath.Join(o.config.SharedRoot, req.WorkingDirectory),
		ContainerPID: o.config.ContainerPID,
		Interpreter:  interpreter,
		Script:       script,
		EnvPreamble:  preamble,
	}

	exitCode, err := o.namespace.Run(ctx, spec, console)
	if err != nil {
		return o.interrupted(err)
	}

	return o.classify(exitCode)
}

func (o *Orchestrator) classify(exitCode int) Outcome {
	if exitCode == 0 {
		o.logger.Info("script completed successfully")
		return Outcome{
			Success: true,
			Message: messagePrefix + " Script completed successfully.",
		}
	}

	o.logger.Info("script completed with failure", zap.Int("exit_code", exitCode))
	return Outcome{
		Success:  false,
		Message:  fmt.Sprintf("%s Script completed with exit code: %d.", messagePrefix, exitCode),
		ExitCode: exitCode,
	}
}

func (o *Orchestrator) interrupted(err error) Outcome {
	o.logger.Error("script execution interrupted", zap.Error(err))
	return Outcome{
		Success:  false,
		Message:  fmt.Sprintf("%s Script execution interrupted. Reason: %v", messagePrefix, err),
		ExitCode: FailedToRun,
	}
}

func (o *Orchestrator) unsupportedPlatform() bool {
	return strings.Contains(strings.ToLower(o.config.Platform), "windows")
}

func (o *Orchestrator) rejectPlatform() Outcome {
	o.logger.Warn("rejecting execution", zap.String("platform", o.config.Platform), zap.Error(ErrPlatformUnsupported))
	return Outcome{
		Success:  false,
		Message:  messagePrefix + " Windows is not supported.",
		ExitCode: FailedToRun,
	}
}

func (o *Orchestrator) checkPreconditions() error {
	var missing []string
	if o.config.SharedRoot == "" {
		missing = append(missing, "shared root")
	}
	if o.config.ContainerPID == "" {
		missing = append(missing, "container pid")
	}
	if o.config.ContainerRoot == "" {
		missing = append(missing, "container root")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrPreconditions, strings.Join(missing, ", "))
	}
	return nil
}

func (o *Orchestrator) resolveInterpreter(requested string) (string, error) {
	interpreter := strings.TrimSpace(requested)
	if interpreter == "" {
		return o.config.DefaultInterpreter, nil
	}
	if len(o.config.Interpreters) > 0 && !slices.Contains(o.config.Interpreters, interpreter) {
		return "", fmt.Errorf("%w: unsupported interpreter %q, must be one of: %s",
			ErrPayload, interpreter, strings.Join(o.config.Interpreters, ", "))
	}
	return interpreter, nil
}
