// Package main is the entry point for the k8s-executor MCP server.
//
// Configuration is read from config.yaml in the working directory or
// ./config, then overridden by K8S_EXECUTOR_* environment variables. The
// target container is located through GO_K8S_CONTAINER_SHARED_ROOT,
// GO_K8S_CONTAINER_PID and GO_K8S_CONTAINER_ROOT.
package main
