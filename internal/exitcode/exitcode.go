// Package exitcode defines the process exit codes of todoctl.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad input: invalid args, a task number out of range,
	// a blank title, or a 400/404 from the backend.
	UserError = 1

	// AuthError indicates a missing or rejected session, or missing configuration.
	AuthError = 2

	// BackendError indicates the backend failed or could not be reached.
	BackendError = 3
)
