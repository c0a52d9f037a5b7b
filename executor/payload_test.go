package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	t.Run("FullPayload", func(t *testing.T) {
		req, err := ParsePayload([]byte(`{
			"config": {"script": {"value": "echo hi"}, "shtype": {"value": "bash"}},
			"context": {"environmentVariables": {"FOO": "bar"}, "workingDirectory": "pipelines/build"}
		}`))
		require.NoError(t, err)

		assert.Equal(t, Request{
			Script:           "echo hi",
			Interpreter:      "bash",
			Environment:      map[string]string{"FOO": "bar"},
			WorkingDirectory: "pipelines/build",
		}, req)
	})

	t.Run("ShTypeOptional", func(t *testing.T) {
		for name, body := range map[string]string{
			"Absent":    `{"config": {"script": {"value": "x"}}, "context": {"environmentVariables": {}, "workingDirectory": "."}}`,
			"NullValue": `{"config": {"script": {"value": "x"}, "shtype": {"value": null}}, "context": {"environmentVariables": {}, "workingDirectory": "."}}`,
			"NoValue":   `{"config": {"script": {"value": "x"}, "shtype": {}}, "context": {"environmentVariables": {}, "workingDirectory": "."}}`,
		} {
			t.Run(name, func(t *testing.T) {
				req, err := ParsePayload([]byte(body))
				require.NoError(t, err)
				assert.Empty(t, req.Interpreter)
			})
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name    string
			body    string
			message string
		}{
			{"Empty", ``, "empty request body"},
			{"NotJSON", `not json`, "invalid character"},
			{"MissingConfig", `{"context": {"environmentVariables": {}, "workingDirectory": "."}}`, "missing config"},
			{"MissingScript", `{"config": {}, "context": {"environmentVariables": {}, "workingDirectory": "."}}`, "missing config.script.value"},
			{"MissingScriptValue", `{"config": {"script": {}}, "context": {"environmentVariables": {}, "workingDirectory": "."}}`, "missing config.script.value"},
			{"MissingContext", `{"config": {"script": {"value": "x"}}}`, "missing context"},
			{"MissingEnvironment", `{"config": {"script": {"value": "x"}}, "context": {"workingDirectory": "."}}`, "missing context.environmentVariables"},
			{"NullEnvironment", `{"config": {"script": {"value": "x"}}, "context": {"environmentVariables": null, "workingDirectory": "."}}`, "missing context.environmentVariables"},
			{"MissingWorkingDirectory", `{"config": {"script": {"value": "x"}}, "context": {"environmentVariables": {}}}`, "missing context.workingDirectory"},
			{"WrongEnvironmentType", `{"config": {"script": {"value": "x"}}, "context": {"environmentVariables": ["A"], "workingDirectory": "."}}`, "cannot unmarshal"},
			{"WrongScriptType", `{"config": {"script": {"value": 42}}, "context": {"environmentVariables": {}, "workingDirectory": "."}}`, "cannot unmarshal"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParsePayload([]byte(tt.body))
				require.ErrorIs(t, err, ErrPayload)
				assert.Contains(t, err.Error(), tt.message)
			})
		}
	})
}
