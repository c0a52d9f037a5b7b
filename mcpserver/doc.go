// Package mcpserver exposes the script executor over the Model Context Protocol.
//
// Two tools are registered with the mark3labs/mcp-go server:
//
//   - execute_script runs a script in the target container and returns the
//     outcome together with the captured output lines.
//   - plugin_request forwards a raw task-plugin request (configuration,
//     validate, view or execute) and returns the plugin's response body.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(cfg, logger, orchestrator, handler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
