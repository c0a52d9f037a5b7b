package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// taskPayload mirrors the execute request body sent by the build server:
//
//	{
//	  "config":  {"script": {"value": "..."}, "shtype": {"value": "bash"}},
//	  "context": {"environmentVariables": {...}, "workingDirectory": "..."}
//	}
type taskPayload struct {
	Config  *taskConfig  `json:"config"`
	Context *taskContext `json:"context"`
}

type taskConfig struct {
	Script *configValue `json:"script"`
	ShType *configValue `json:"shtype"`
}

type configValue struct {
	Value *string `json:"value"`
}

type taskContext struct {
	EnvironmentVariables map[string]string `json:"environmentVariables"`
	WorkingDirectory     *string           `json:"workingDirectory"`
}

// ParsePayload decodes an execute request body. Every error wraps ErrPayload.
func ParsePayload(body []byte) (Request, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Request{}, fmt.Errorf("%w: empty request body", ErrPayload)
	}

	var p taskPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrPayload, err)
	}

	switch {
	case p.Config == nil:
		return Request{}, fmt.Errorf("%w: missing config", ErrPayload)
	case p.Config.Script == nil || p.Config.Script.Value == nil:
		return Request{}, fmt.Errorf("%w: missing config.script.value", ErrPayload)
	case p.Context == nil:
		return Request{}, fmt.Errorf("%w: missing context", ErrPayload)
	case p.Context.EnvironmentVariables == nil:
		return Request{}, fmt.Errorf("%w: missing context.environmentVariables", ErrPayload)
	case p.Context.WorkingDirectory == nil:
		return Request{}, fmt.Errorf("%w: missing context.workingDirectory", ErrPayload)
	}

	req := Request{
		Script:           *p.Config.Script.Value,
		Environment:      p.Context.EnvironmentVariables,
		WorkingDirectory: *p.Context.WorkingDirectory,
	}
	// shtype is optional; the orchestrator applies the default.
	if p.Config.ShType != nil && p.Config.ShType.Value != nil {
		req.Interpreter = *p.Config.ShType.Value
	}

	return req, nil
}
