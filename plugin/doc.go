// Package plugin answers the build server's task-extension requests.
//
// The build server drives a task plugin with named requests: it asks for
// the configuration fields and the configuration form when a pipeline is
// edited, validates the entered values, and sends "execute" when a job runs
// the task. Execute requests are handed to the executor; their outcome is
// always returned with a success status code, failures included.
package plugin
