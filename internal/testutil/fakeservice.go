// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"todoctl/internal/service"
)

// BaseTime is the creation time of the first task added to a FakeService.
var BaseTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// Unauthorized returns the error a backend gives for a rejected token.
func Unauthorized() error {
	return &service.Error{Kind: service.KindServer, Status: http.StatusUnauthorized, Message: "Token has expired"}
}

// ServerError returns a generic 500 error.
func ServerError(msg string) error {
	return &service.Error{Kind: service.KindServer, Status: http.StatusInternalServerError, Message: msg}
}

// NetworkError returns a no-response error.
func NetworkError() error {
	return &service.Error{Kind: service.KindNetwork, Message: "network error occurred"}
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  []string
	lists  []service.Filter

	// Token is returned by Login.
	Token string

	// Error injection for testing
	LoginErr          error
	RegisterErr       error
	ListTasksErr      error
	CreateTaskErr     error
	UpdateTaskErr     error
	DeleteTaskErr     error
	ToggleCompleteErr error
	HealthErr         error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{Token: "fake-token"}
}

// AddTask adds a task and returns it. IDs are "t1", "t2", ...
func (f *FakeService) AddTask(title, description string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(title, description, completed, nil)
}

func (f *FakeService) addLocked(title, description string, completed bool, due *service.Timestamp) service.Task {
	f.nextID++
	created := BaseTime.Add(time.Duration(f.nextID) * time.Minute)
	task := service.Task{
		ID:          fmt.Sprintf("t%d", f.nextID),
		Title:       title,
		Description: description,
		Completed:   completed,
		DueDate:     due,
		CreatedAt:   service.Timestamp{Time: created},
		UpdatedAt:   service.Timestamp{Time: created},
	}
	f.tasks = append(f.tasks, task)
	return task
}

// Tasks returns the stored tasks in insertion order.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns the names of the operations called, in order.
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times op was called.
func (f *FakeService) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

// ListFilters returns the filter of every ListTasks call, in order.
func (f *FakeService) ListFilters() []service.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Filter, len(f.lists))
	copy(out, f.lists)
	return out
}

func (f *FakeService) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.LoginResult, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return service.LoginResult{}, f.LoginErr
	}
	return service.LoginResult{
		Token: f.Token,
		User:  service.User{ID: "u1", Username: creds.Username},
	}, nil
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, reg service.Registration) (service.RegisterResult, error) {
	f.record("Register")
	if f.RegisterErr != nil {
		return service.RegisterResult{}, f.RegisterErr
	}
	return service.RegisterResult{Message: "User registered successfully", UserID: "u1"}, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "ListTasks")
	f.lists = append(f.lists, filter)
	f.mu.Unlock()

	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	search := strings.ToLower(filter.Search)
	out := []service.Task{}
	for _, t := range f.tasks {
		switch filter.Status {
		case service.StatusCompleted:
			if !t.Completed {
				continue
			}
		case service.StatusIncomplete:
			if t.Completed {
				continue
			}
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	SortTasks(out, filter.Sort)
	return out, nil
}

// SortTasks orders tasks the way the backend does for key.
func SortTasks(tasks []service.Task, key service.SortKey) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch key {
		case service.SortCreatedAsc:
			return a.CreatedAt.Before(b.CreatedAt.Time)
		case service.SortUpdatedDesc:
			return a.UpdatedAt.After(b.UpdatedAt.Time)
		case service.SortUpdatedAsc:
			return a.UpdatedAt.Before(b.UpdatedAt.Time)
		default:
			return a.CreatedAt.After(b.CreatedAt.Time)
		}
	})
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.TaskDraft) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(draft.Title, draft.Description, false, draft.DueDate), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		t := &f.tasks[i]
		if update.Title != nil {
			t.Title = *update.Title
		}
		if update.Description != nil {
			t.Description = *update.Description
		}
		if update.Completed != nil {
			t.Completed = *update.Completed
		}
		if update.DueDate != nil {
			t.DueDate = update.DueDate
		}
		t.UpdatedAt = service.Timestamp{Time: t.UpdatedAt.Add(time.Hour)}
		return *t, nil
	}
	return service.Task{}, notFound()
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return notFound()
}

// ToggleComplete implements service.Service.
func (f *FakeService) ToggleComplete(ctx context.Context, id string, completed bool) (service.Task, error) {
	f.record("ToggleComplete")
	if f.ToggleCompleteErr != nil {
		return service.Task{}, f.ToggleCompleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Completed = completed
			return f.tasks[i], nil
		}
	}
	return service.Task{}, notFound()
}

// Health implements service.Service.
func (f *FakeService) Health(ctx context.Context) (service.HealthStatus, error) {
	f.record("Health")
	if f.HealthErr != nil {
		return service.HealthStatus{}, f.HealthErr
	}
	return service.HealthStatus{Status: "healthy"}, nil
}

func notFound() error {
	return &service.Error{Kind: service.KindServer, Status: http.StatusNotFound, Message: "Task not found"}
}
