package executor

import (
	"go.uber.org/zap"

	"github.com/isdmx/k8sexec/config"
)

// NewFromConfig creates an Orchestrator from the application configuration
func NewFromConfig(logger *zap.Logger, cfg *config.Config) *Orchestrator {
	return New(logger, Config{
		SharedRoot:         cfg.Container.SharedRoot,
		ContainerPID:       cfg.Container.PID,
		ContainerRoot:      cfg.Container.Root,
		Platform:           cfg.Executor.Platform,
		DefaultInterpreter: cfg.Executor.DefaultInterpreter,
		Interpreters:       cfg.Executor.Interpreters,
		Timeout:            cfg.GetTimeout(),
		NsenterPath:        cfg.Executor.NsenterPath,
		ChmodPath:          cfg.Executor.ChmodPath,
	})
}
