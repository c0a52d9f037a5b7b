// Package executor runs build scripts inside a container from outside it.
//
// The plugin process lives outside the target container; the only way in is
// nsenter. A script is written into a directory shared by host and
// container, nsenter enters every namespace of the container's init process
// and re-invokes the interpreter on the container-side path of the file, and
// the file is removed afterwards whatever happened.
//
// The pieces, leaf first:
//
//   - ScriptManager writes the script (normalizing line endings), runs
//     chmod u+x on it and deletes it.
//   - NamespaceExecutor builds the nsenter command line and runs it.
//   - Relay drains stdout and stderr into a Console while the child runs.
//   - Orchestrator validates, drives the sequence and maps the result to an
//     Outcome. It never returns an error.
//
// Usage:
//
//	orch := executor.New(logger, executor.Config{
//	    SharedRoot:    "/shared",
//	    ContainerPID:  "4242",
//	    ContainerRoot: "/workspace",
//	})
//	outcome := orch.Execute(ctx, executor.Request{
//	    Script:           "echo hi",
//	    Environment:      map[string]string{"FOO": "bar"},
//	    WorkingDirectory: ".",
//	}, executor.NewLoggerConsole(logger))
package executor
