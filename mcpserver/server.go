// Package mcpserver exposes the script executor over the Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/k8sexec/config"
	"github.com/isdmx/k8sexec/executor"
	"github.com/isdmx/k8sexec/plugin"
)

// Tool names
const (
	ToolExecuteScript = "execute_script"
	ToolPluginRequest = "plugin_request"
)

// ScriptExecutor runs a script request inside the target container
type ScriptExecutor interface {
	Execute(ctx context.Context, req executor.Request, console executor.Console) executor.Outcome
}

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	scripts   ScriptExecutor
	plugin    *plugin.Handler
	mcpServer *server.MCPServer
}

// executeResult is the execute_script tool's JSON payload.
type executeResult struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	ExitCode int             `json:"exit_code"`
	Output   []executor.Line `json:"output"`
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, scripts ScriptExecutor, handler *plugin.Handler) (*MCPServer, error) {
	s := &MCPServer{
		config:  cfg,
		logger:  logger.Named("mcp"),
		scripts: scripts,
		plugin:  handler,
	}

	// Log configuration parameters on startup
	s.logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("executor.default_interpreter", cfg.Executor.DefaultInterpreter),
		zap.Strings("executor.interpreters", cfg.Executor.Interpreters),
		zap.Int("executor.timeout_sec", cfg.Executor.TimeoutSec),
		zap.String("executor.nsenter_path", cfg.Executor.NsenterPath),
		zap.String("container.shared_root", cfg.Container.SharedRoot),
		zap.String("container.pid", cfg.Container.PID),
		zap.String("container.root", cfg.Container.Root),
	)

	s.mcpServer = server.NewMCPServer("k8s-executor", "1.0.0")

	s.registerExecuteScriptTool()
	s.registerPluginRequestTool()

	return s, nil
}

// registerExecuteScriptTool registers the execute_script tool
func (s *MCPServer) registerExecuteScriptTool() {
	tool := mcp.Tool{
		Name:        ToolExecuteScript,
		Description: "Run a shell script inside the build job's container",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"script": map[string]any{
					"type":        "string",
					"description": "Script body",
				},
				"shtype": map[string]any{
					"type":        "string",
					"description": "Interpreter",
					"enum":        s.config.Executor.Interpreters,
				},
				"working_directory": map[string]any{
					"type":        "string",
					"description": "Working directory relative to the shared root (default \".\")",
				},
				"environment_variables": map[string]any{
					"type":                 "object",
					"description":          "Variables exported before the script runs",
					"additionalProperties": map[string]any{"type": "string"},
				},
			},
			Required: []string{"script"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleExecuteScript)
}

// registerPluginRequestTool registers the plugin_request tool
func (s *MCPServer) registerPluginRequestTool() {
	tool := mcp.Tool{
		Name:        ToolPluginRequest,
		Description: "Send a raw task-plugin request (configuration, validate, view, execute)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"request_name": map[string]any{
					"type":        "string",
					"description": "Plugin request name",
				},
				"request_body": map[string]any{
					"type":        "string",
					"description": "JSON request body",
				},
			},
			Required: []string{"request_name"},
		},
	}

	s.mcpServer.AddTool(tool, s.handlePluginRequest)
}

// handleExecuteScript handles the execute_script tool
func (s *MCPServer) handleExecuteScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	script, err := request.RequireString("script")
	if err != nil {
		return nil, fmt.Errorf("script parameter is required: %w", err)
	}

	env, err := environmentArgument(request.GetArguments())
	if err != nil {
		return nil, err
	}

	req := executor.Request{
		Script:           script,
		Interpreter:      request.GetString("shtype", ""),
		Environment:      env,
		WorkingDirectory: request.GetString("working_directory", "."),
	}

	s.logger.Info("script execution requested",
		zap.String("interpreter", req.Interpreter),
		zap.String("working_directory", req.WorkingDirectory),
		zap.Int("env_count", len(env)))

	buffer := &executor.BufferConsole{}
	outcome := s.scripts.Execute(ctx, req, executor.Tee(buffer, executor.NewLoggerConsole(s.logger)))

	payload, err := json.Marshal(executeResult{
		Success:  outcome.Success,
		Message:  outcome.Message,
		ExitCode: outcome.ExitCode,
		Output:   buffer.Lines(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(payload),
			},
		},
		IsError: !outcome.Success,
	}, nil
}

// handlePluginRequest handles the plugin_request tool
func (s *MCPServer) handlePluginRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("request_name")
	if err != nil {
		return nil, fmt.Errorf("request_name parameter is required: %w", err)
	}
	body := request.GetString("request_body", "")

	resp, err := s.plugin.HandleWithConsole(ctx, name, []byte(body), executor.NewLoggerConsole(s.logger))
	if err != nil {
		if errors.Is(err, plugin.ErrUnknownRequest) {
			s.logger.Warn("unknown plugin request", zap.String("request", name))
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Request failed: %v", err),
				},
			},
			IsError: true,
		}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: resp.Body,
			},
		},
		IsError: resp.Code != plugin.SuccessResponseCode,
	}, nil
}

func environmentArgument(args map[string]any) (map[string]string, error) {
	env := make(map[string]string)
	raw, ok := args["environment_variables"]
	if !ok || raw == nil {
		return env, nil
	}

	values, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("environment_variables must be an object, got %T", raw)
	}
	for k, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("environment variable %s must be a string, got %T", k, v)
		}
		env[k] = str
	}
	return env, nil
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
