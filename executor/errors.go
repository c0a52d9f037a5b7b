package executor

import "errors"

// Failure classes. Every one of them ends up as a failed Outcome; none is
// returned to the transport.
var (
	ErrPlatformUnsupported = errors.New("platform not supported")
	ErrPayload             = errors.New("invalid task payload")
	ErrPreconditions       = errors.New("container coordinates missing")
	ErrScriptWrite         = errors.New("failed to create script file")
	ErrProcessSpawn        = errors.New("failed to start process")
	ErrTimeout             = errors.New("script execution timed out")
)
