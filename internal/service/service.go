// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All REST API calls go through this interface.
// Commands and the view controller never build HTTP requests directly.
type Service interface {
	// Login exchanges credentials for a session token.
	// On success the token is persisted by the implementation.
	Login(ctx context.Context, creds Credentials) (LoginResult, error)

	// Register creates a new user account.
	Register(ctx context.Context, reg Registration) (RegisterResult, error)

	// ListTasks returns the user's tasks matching the filter,
	// in server order (no client-side sorting).
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)

	// CreateTask creates a task and returns the stored record.
	CreateTask(ctx context.Context, draft TaskDraft) (Task, error)

	// UpdateTask updates the set fields of a task and returns the stored record.
	UpdateTask(ctx context.Context, id string, update TaskUpdate) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error

	// ToggleComplete sets the completion flag of a task.
	ToggleComplete(ctx context.Context, id string, completed bool) (Task, error)

	// Health reports backend status. Does not require a session.
	Health(ctx context.Context) (HealthStatus, error)
}
