package plugin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/isdmx/k8sexec/executor"
)

// ExtensionName is the build-server extension point this plugin implements.
const ExtensionName = "task"

// SupportedAPIVersions lists the extension API versions understood.
var SupportedAPIVersions = []string{"1.0"}

// Request names. Each setting request has a legacy and a current name.
const (
	RequestConfiguration  = "configuration"
	RequestConfiguration2 = "go.plugin-settings.get-configuration"
	RequestValidation     = "validate"
	RequestValidation2    = "go.plugin-settings.validate-configuration"
	RequestTaskView       = "view"
	RequestTaskView2      = "go.plugin-settings.get-view"
	RequestExecution      = "execute"
)

// Response codes
const (
	SuccessResponseCode       = 200
	InternalErrorResponseCode = 500
)

const (
	viewTemplatePath = "views/task.template.html"
	viewDisplayValue = "Script Executor"
)

//go:embed views/task.template.html
var views embed.FS

// ErrUnknownRequest is returned for request names the plugin does not serve.
var ErrUnknownRequest = errors.New("unknown request")

// Identifier names the extension and its API versions.
type Identifier struct {
	Extension string
	Versions  []string
}

// Response is what goes back to the build server.
type Response struct {
	Code int
	Body string
}

// Field describes one task configuration field.
type Field struct {
	DisplayName  string  `json:"display-name"`
	DefaultValue *string `json:"default-value"`
	Required     bool    `json:"required"`
	Secure       bool    `json:"secure"`
	DisplayOrder string  `json:"display-order"`
}

// View is the task configuration form.
type View struct {
	DisplayValue string `json:"displayValue"`
	Template     string `json:"template"`
}

// TaskExecutor runs an execute request body.
type TaskExecutor interface {
	ExecutePayload(ctx context.Context, body []byte, console executor.Console) executor.Outcome
}

// Handler dispatches build-server requests.
type Handler struct {
	logger    *zap.Logger
	executor  TaskExecutor
	templates fs.FS
	console   executor.Console
}

// Option defines a functional option for Handler
type Option func(*Handler)

// WithTemplates replaces the embedded view templates
func WithTemplates(templates fs.FS) Option {
	return func(h *Handler) {
		h.templates = templates
	}
}

// WithConsole sets where script output of execute requests goes
func WithConsole(console executor.Console) Option {
	return func(h *Handler) {
		h.console = console
	}
}

// NewHandler creates a Handler. Script output is logged unless WithConsole
// says otherwise.
func NewHandler(logger *zap.Logger, exec TaskExecutor, opts ...Option) *Handler {
	h := &Handler{
		logger:    logger.Named("plugin"),
		executor:  exec,
		templates: views,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.console == nil {
		h.console = executor.NewLoggerConsole(logger)
	}
	return h
}

// Identifier returns the plugin's extension identifier.
func (*Handler) Identifier() Identifier {
	return Identifier{Extension: ExtensionName, Versions: SupportedAPIVersions}
}

// Handle serves one request.
func (h *Handler) Handle(ctx context.Context, requestName string, body []byte) (Response, error) {
	return h.handle(ctx, requestName, body, h.console)
}

// HandleWithConsole is Handle with script output sent to console.
func (h *Handler) HandleWithConsole(ctx context.Context, requestName string, body []byte, console executor.Console) (Response, error) {
	return h.handle(ctx, requestName, body, console)
}

func (h *Handler) handle(ctx context.Context, requestName string, body []byte, console executor.Console) (Response, error) {
	h.logger.Debug("handling request", zap.String("request", requestName))

	switch requestName {
	case RequestConfiguration, RequestConfiguration2:
		return h.handleConfiguration()
	case RequestValidation, RequestValidation2:
		return h.handleValidation()
	case RequestTaskView, RequestTaskView2:
		return h.handleView()
	case RequestExecution:
		return h.handleExecute(ctx, body, console)
	default:
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownRequest, requestName)
	}
}

func (*Handler) handleConfiguration() (Response, error) {
	bash := "bash"
	return renderJSON(SuccessResponseCode, map[string]Field{
		"script": {DisplayName: "Script", Required: true, DisplayOrder: "0"},
		"shtype": {DisplayName: "Shell", DefaultValue: &bash, Required: true, DisplayOrder: "1"},
	})
}

func (*Handler) handleValidation() (Response, error) {
	return renderJSON(SuccessResponseCode, map[string]any{})
}

func (h *Handler) handleView() (Response, error) {
	template, err := fs.ReadFile(h.templates, viewTemplatePath)
	if err != nil {
		h.logger.Error("failed to load view template", zap.Error(err))
		return renderJSON(InternalErrorResponseCode, "Failed to find template: "+err.Error())
	}
	return renderJSON(SuccessResponseCode, View{
		DisplayValue: viewDisplayValue,
		Template:     string(template),
	})
}

// handleExecute always answers with SuccessResponseCode; the outcome
// carries success or failure.
func (h *Handler) handleExecute(ctx context.Context, body []byte, console executor.Console) (Response, error) {
	outcome := h.executor.ExecutePayload(ctx, body, console)
	return renderJSON(SuccessResponseCode, outcome)
}

func renderJSON(code int, v any) (Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode response: %w", err)
	}
	return Response{Code: code, Body: string(data)}, nil
}
