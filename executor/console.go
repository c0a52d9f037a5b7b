package executor

import (
	"sync"

	"go.uber.org/zap"
)

// Console receives a child process's output line by line. Implementations
// must be safe for concurrent use: stdout and stderr are relayed from
// separate goroutines.
type Console interface {
	Output(line string)
	Error(line string)
}

// LoggerConsole writes script output through a zap logger.
type LoggerConsole struct {
	logger *zap.Logger
}

// NewLoggerConsole returns a Console logging to logger.Named("console").
func NewLoggerConsole(logger *zap.Logger) *LoggerConsole {
	return &LoggerConsole{logger: logger.Named("console")}
}

func (c *LoggerConsole) Output(line string) {
	c.logger.Info(line, zap.String("stream", "stdout"))
}

func (c *LoggerConsole) Error(line string) {
	c.logger.Info(line, zap.String("stream", "stderr"))
}

// Line is one captured line of output.
type Line struct {
	Stream string `json:"stream"`
	Text   string `json:"text"`
}

// BufferConsole keeps every line in arrival order.
type BufferConsole struct {
	mu    sync.Mutex
	lines []Line
}

func (c *BufferConsole) Output(line string) { c.add("stdout", line) }
func (c *BufferConsole) Error(line string)  { c.add("stderr", line) }

func (c *BufferConsole) add(stream, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, Line{Stream: stream, Text: text})
}

// Lines returns a copy of the captured lines.
func (c *BufferConsole) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Stdout returns only the lines written to standard output.
func (c *BufferConsole) Stdout() []string {
	return c.stream("stdout")
}

// Stderr returns only the lines written to standard error.
func (c *BufferConsole) Stderr() []string {
	return c.stream("stderr")
}

func (c *BufferConsole) stream(name string) []string {
	var out []string
	for _, l := range c.Lines() {
		if l.Stream == name {
			out = append(out, l.Text)
		}
	}
	return out
}

type teeConsole []Console

// Tee fans every line out to all consoles in order.
func Tee(consoles ...Console) Console {
	return teeConsole(consoles)
}

func (t teeConsole) Output(line string) {
	for _, c := range t {
		c.Output(line)
	}
}

func (t teeConsole) Error(line string) {
	for _, c := range t {
		c.Error(line)
	}
}

// Discard drops everything.
var Discard Console = discardConsole{}

type discardConsole struct{}

func (discardConsole) Output(string) {}
func (discardConsole) Error(string)  {}
