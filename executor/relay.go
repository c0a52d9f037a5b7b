package executor

import (
	"bufio"
	"io"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// maxLineSize bounds a single relayed line.
const maxLineSize = 1024 * 1024

// Relay drains a child's stdout and stderr into a Console.
type Relay struct {
	wg conc.WaitGroup
}

// StartRelay starts one reader per stream. Either stream may be nil. The
// relay must be started before the child is waited on, or a full pipe
// blocks the child forever.
func StartRelay(logger *zap.Logger, stdout, stderr io.Reader, console Console) *Relay {
	r := &Relay{}
	if stdout != nil {
		r.wg.Go(func() { relayLines(logger, "stdout", stdout, console.Output) })
	}
	if stderr != nil {
		r.wg.Go(func() { relayLines(logger, "stderr", stderr, console.Error) })
	}
	return r
}

// Wait blocks until both streams reached end-of-stream.
func (r *Relay) Wait() {
	r.wg.Wait()
}

func relayLines(logger *zap.Logger, stream string, src io.Reader, emit func(string)) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		emit(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("output relay stopped", zap.String("stream", stream), zap.Error(err))
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, src)
	}
}
