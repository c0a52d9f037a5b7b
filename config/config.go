package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Environment variables published by the container-provisioning layer.
const (
	EnvSharedRoot    = "GO_K8S_CONTAINER_SHARED_ROOT"
	EnvContainerPID  = "GO_K8S_CONTAINER_PID"
	EnvContainerRoot = "GO_K8S_CONTAINER_ROOT"
)

// EnvPrefix prefixes environment overrides of config keys, e.g.
// K8S_EXECUTOR_SERVER_TRANSPORT for server.transport.
const EnvPrefix = "K8S_EXECUTOR"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Executor  ExecutorConfig  `mapstructure:"executor"`
	Container ContainerConfig `mapstructure:"container"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// ExecutorConfig holds script execution settings
type ExecutorConfig struct {
	DefaultInterpreter string   `mapstructure:"default_interpreter"`
	Interpreters       []string `mapstructure:"interpreters"`
	TimeoutSec         int      `mapstructure:"timeout_sec"`
	NsenterPath        string   `mapstructure:"nsenter_path"`
	ChmodPath          string   `mapstructure:"chmod_path"`
	// Platform overrides the detected operating system. Empty means runtime.GOOS.
	Platform string `mapstructure:"platform"`
}

// ContainerConfig holds the coordinates of the target container as seen
// from the host namespace.
type ContainerConfig struct {
	SharedRoot string `mapstructure:"shared_root"`
	PID        string `mapstructure:"pid"`
	Root       string `mapstructure:"root"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	return Load(".", "./config")
}

// Load reads config.yaml from the first of paths that has one, applies
// defaults and environment overrides, and validates the result.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The container coordinates keep the names the provisioning layer uses.
	bindings := map[string]string{
		"container.shared_root": EnvSharedRoot,
		"container.pid":         EnvContainerPID,
		"container.root":        EnvContainerRoot,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)

	v.SetDefault("logging.mode", "production")
	v.SetDefault("logging.level", "info")

	v.SetDefault("executor.default_interpreter", "sh")
	v.SetDefault("executor.interpreters", []string{"sh", "bash", "dash", "ash", "ksh", "zsh"})
	v.SetDefault("executor.timeout_sec", 0)
	v.SetDefault("executor.nsenter_path", "nsenter")
	v.SetDefault("executor.chmod_path", "chmod")
	v.SetDefault("executor.platform", "")
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.Transport == "http" && (c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535) {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	if c.Executor.TimeoutSec < 0 {
		return fmt.Errorf("executor.timeout_sec must not be negative, got: %d", c.Executor.TimeoutSec)
	}

	if len(c.Executor.Interpreters) == 0 {
		return fmt.Errorf("executor.interpreters must not be empty")
	}

	if !slices.Contains(c.Executor.Interpreters, c.Executor.DefaultInterpreter) {
		return fmt.Errorf("executor.default_interpreter %q is not listed in executor.interpreters", c.Executor.DefaultInterpreter)
	}

	if c.Executor.NsenterPath == "" {
		return fmt.Errorf("executor.nsenter_path must be set")
	}

	if c.Executor.ChmodPath == "" {
		return fmt.Errorf("executor.chmod_path must be set")
	}

	return nil
}

// GetTimeout returns the execution timeout as a duration. Zero means the
// script may run indefinitely.
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Executor.TimeoutSec) * time.Second
}
