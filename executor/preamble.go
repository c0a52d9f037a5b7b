package executor

import (
	"slices"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/syntax"
)

// lastCommandVar is the shell's "last command path" variable; it describes
// the agent's own shell and must not leak into the container.
const lastCommandVar = "_"

// BuildEnvPreamble renders env as "export KEY='VALUE'; " statements in key
// order, one per entry except "_". Embedded single quotes are closed,
// escaped and reopened.
func BuildEnvPreamble(env map[string]string) string {
	preamble, _ := buildEnvPreamble(env)
	return preamble
}

// buildEnvPreamble also reports the keys that are not valid shell names.
// They are exported all the same and the shell rejects them.
func buildEnvPreamble(env map[string]string) (string, []string) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	var invalid []string
	for _, k := range keys {
		if k == lastCommandVar {
			continue
		}
		if !syntax.ValidName(k) {
			invalid = append(invalid, k)
		}
		b.WriteString("export ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(singleQuote(env[k]))
		b.WriteString("; ")
	}
	return b.String(), invalid
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func logInvalidEnvNames(logger *zap.Logger, invalid []string) {
	if len(invalid) == 0 {
		return
	}
	logger.Warn("environment variables are not valid shell names, the script will fail",
		zap.Strings("keys", invalid))
}
