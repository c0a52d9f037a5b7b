// Package config provides application configuration management.
//
// The config package loads the executor's configuration from an optional
// YAML file, overlays environment variables, and validates the result. The
// target container's coordinates are read from the environment variables
// published by the container-provisioning layer (GO_K8S_CONTAINER_*); every
// other key can be overridden with a K8S_EXECUTOR_ prefixed variable.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Container PID: %s\n", cfg.Container.PID)
package config
