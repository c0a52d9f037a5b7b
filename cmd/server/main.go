// Package main is the entry point for the k8s-executor MCP server.
//
// The server runs shell scripts inside the container of a Kubernetes build
// job by entering its namespaces with nsenter. It answers the build server's
// task-plugin requests and exposes the same functionality as MCP tools over
// stdio or HTTP.
//
// The application uses Uber's fx framework for dependency injection and lifecycle
// management, with zap for structured logging and viper for configuration.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/k8sexec/config"
	"github.com/isdmx/k8sexec/executor"
	"github.com/isdmx/k8sexec/logger"
	"github.com/isdmx/k8sexec/mcpserver"
	"github.com/isdmx/k8sexec/plugin"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Script orchestrator based on config, also serving the
			// plugin and MCP executor interfaces
			executor.NewFromConfig,
			func(o *executor.Orchestrator) plugin.TaskExecutor { return o },
			func(o *executor.Orchestrator) mcpserver.ScriptExecutor { return o },

			// Task plugin handler
			func(log *zap.Logger, exec plugin.TaskExecutor) *plugin.Handler {
				return plugin.NewHandler(log, exec)
			},

			// MCP Server
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, server *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "stdio":
					// Use fx to run this as a background task
					go func() {
						if err := server.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := server.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}
