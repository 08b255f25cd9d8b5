// Package view holds the task list state and keeps it in sync with the backend.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"todoctl/internal/debounce"
	"todoctl/internal/service"
)

// DefaultSearchDelay is the quiet interval before a search fetch is issued.
const DefaultSearchDelay = 300 * time.Millisecond

var (
	// ErrTaskNotFound is returned when an ID is not in the cached list.
	ErrTaskNotFound = errors.New("task not found")

	// ErrNoDraft is returned by draft operations when no edit is in progress.
	ErrNoDraft = errors.New("no task is being edited")
)

// Options configures a Controller. All fields are optional.
type Options struct {
	// Session is cleared on logout and on any 401.
	Session SessionEnder

	Notifier  Notifier
	Navigator Navigator
	Logger    *logrus.Logger

	// SearchDelay defaults to DefaultSearchDelay.
	SearchDelay time.Duration

	// Filter is the initial filter. The zero value means service.DefaultFilter().
	Filter service.Filter

	// OnChange is called after every state change, outside the controller lock.
	OnChange func(State)
}

// State is a snapshot of the controller.
type State struct {
	Tasks   []service.Task
	Filter  service.Filter
	Loading bool
	// Error is an advisory banner shown over the list; it does not hide it.
	Error string
	// Draft is the task being edited, nil when no edit is open.
	Draft *service.Task
}

// Controller owns the cached task list and applies server-confirmed changes to it.
// Requests are never serialized: overlapping calls race and the last response wins.
type Controller struct {
	svc      service.Service
	session  SessionEnder
	notifier Notifier
	nav      Navigator
	log      *logrus.Logger
	onChange func(State)
	search   *debounce.Debouncer
	initial  service.Filter

	mu      sync.Mutex
	tasks   []service.Task
	filter  service.Filter
	loading bool
	banner  string
	draft   *service.Task
}

// New creates a controller over svc.
func New(svc service.Service, opts Options) *Controller {
	filter := opts.Filter
	if filter == (service.Filter{}) {
		filter = service.DefaultFilter()
	}
	if filter.Status == "" {
		filter.Status = service.StatusAll
	}
	if filter.Sort == "" {
		filter.Sort = service.SortCreatedDesc
	}
	delay := opts.SearchDelay
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	c := &Controller{
		svc:      svc,
		session:  opts.Session,
		notifier: opts.Notifier,
		nav:      opts.Navigator,
		log:      log,
		onChange: opts.OnChange,
		search:   debounce.New(delay),
		initial:  filter,
		filter:   filter,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.nav == nil {
		c.nav = nopNavigator{}
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// TaskAt returns the task at 1-based position n in the cached list.
func (c *Controller) TaskAt(n int) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > len(c.tasks) {
		return service.Task{}, false
	}
	return c.tasks[n-1], true
}

// Mount performs the initial fetch.
func (c *Controller) Mount(ctx context.Context) error {
	return c.fetch(ctx)
}

// Refresh re-fetches with the current filter.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx)
}

// SetStatus changes the status filter and re-fetches.
func (c *Controller) SetStatus(ctx context.Context, status service.Status) error {
	c.mu.Lock()
	c.filter.Status = status
	c.mu.Unlock()
	// The immediate fetch already carries the latest search text.
	c.search.Cancel()
	return c.fetch(ctx)
}

// SetSort changes the sort key and re-fetches.
func (c *Controller) SetSort(ctx context.Context, key service.SortKey) error {
	c.mu.Lock()
	c.filter.Sort = key
	c.mu.Unlock()
	c.search.Cancel()
	return c.fetch(ctx)
}

// SetSearch updates the search text and schedules a debounced fetch.
// A later call within the delay replaces the pending fetch.
func (c *Controller) SetSearch(ctx context.Context, query string) {
	c.mu.Lock()
	c.filter.Search = query
	c.mu.Unlock()
	c.changed()

	c.search.Trigger(func() {
		if err := c.fetch(ctx); err != nil {
			c.log.WithError(err).Debug("search fetch failed")
		}
	})
}

// SearchPending reports whether a debounced search fetch is waiting.
func (c *Controller) SearchPending() bool {
	return c.search.Pending()
}

func (c *Controller) fetch(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	filter := c.filter
	c.mu.Unlock()
	c.changed()

	c.log.WithFields(logrus.Fields{
		"status": filter.Status,
		"sort":   filter.Sort,
		"search": filter.Search,
	}).Debug("fetching tasks")

	tasks, err := c.svc.ListTasks(ctx, filter)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.banner = "Failed to fetch tasks"
	} else {
		c.tasks = tasks
		c.banner = ""
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.log.WithError(err).Debug("fetch failed")
		if service.IsUnauthorized(err) {
			c.forceLogout()
		}
		return err
	}
	return nil
}

// Create validates the form, creates the task and appends the server's record.
// A blank title is rejected without a network call.
func (c *Controller) Create(ctx context.Context, title, description string, due *service.Timestamp) (service.Task, error) {
	draft := service.TaskDraft{
		Title:       title,
		Description: description,
		DueDate:     due,
	}
	if err := service.Validate(draft); err != nil {
		c.notifier.Notify(LevelError, capitalize(err.Error()))
		return service.Task{}, err
	}

	task, err := c.svc.CreateTask(ctx, draft)
	if err != nil {
		return service.Task{}, c.failed(err, "Failed to create task")
	}

	c.mu.Lock()
	c.tasks = applyCreated(c.tasks, task)
	c.mu.Unlock()
	c.changed()
	c.notifier.Notify(LevelSuccess, "Task created successfully!")
	return task, nil
}

// Toggle flips the completion flag of the task with id.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	task, ok := c.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	completed := !task.Completed

	if _, err := c.svc.ToggleComplete(ctx, id, completed); err != nil {
		return c.failed(err, "Failed to update task status")
	}

	c.mu.Lock()
	c.tasks = applyToggled(c.tasks, id, completed)
	c.mu.Unlock()
	c.changed()
	c.notifier.Notify(LevelSuccess, "Task status updated!")
	return nil
}

// Delete deletes the task with id and removes it from the list.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.svc.DeleteTask(ctx, id); err != nil {
		return c.failed(err, "Failed to delete task")
	}

	c.mu.Lock()
	c.tasks = applyDeleted(c.tasks, id)
	if c.draft != nil && c.draft.ID == id {
		c.draft = nil
	}
	c.mu.Unlock()
	c.changed()
	c.notifier.Notify(LevelSuccess, "Task deleted successfully!")
	return nil
}

// BeginEdit copies the task with id into the draft buffer.
func (c *Controller) BeginEdit(id string) error {
	c.mu.Lock()
	i := indexOf(c.tasks, id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	draft := c.tasks[i]
	c.draft = &draft
	c.mu.Unlock()
	c.changed()
	return nil
}

// SetDraftTitle changes the draft's title. The list is not touched.
func (c *Controller) SetDraftTitle(title string) error {
	return c.editDraft(func(t *service.Task) { t.Title = title })
}

// SetDraftDescription changes the draft's description.
func (c *Controller) SetDraftDescription(description string) error {
	return c.editDraft(func(t *service.Task) { t.Description = description })
}

// SetDraftDue changes the draft's due date. nil keeps the server value.
func (c *Controller) SetDraftDue(due *service.Timestamp) error {
	return c.editDraft(func(t *service.Task) { t.DueDate = due })
}

func (c *Controller) editDraft(fn func(*service.Task)) error {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return ErrNoDraft
	}
	fn(c.draft)
	c.mu.Unlock()
	c.changed()
	return nil
}

// CancelEdit discards the draft.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.draft = nil
	c.mu.Unlock()
	c.changed()
}

// SaveEdit sends the draft and, on success, replaces the list entry with the server's record.
// On failure the draft stays open and the list is unchanged.
func (c *Controller) SaveEdit(ctx context.Context) (service.Task, error) {
	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return service.Task{}, ErrNoDraft
	}
	draft := *c.draft
	c.mu.Unlock()

	if err := service.Validate(service.TaskDraft{Title: draft.Title}); err != nil {
		c.notifier.Notify(LevelError, capitalize(err.Error()))
		return service.Task{}, err
	}

	update := service.TaskUpdate{
		Title:       &draft.Title,
		Description: &draft.Description,
		Completed:   &draft.Completed,
		DueDate:     draft.DueDate,
	}
	updated, err := c.svc.UpdateTask(ctx, draft.ID, update)
	if err != nil {
		return service.Task{}, c.failed(err, "Failed to update task")
	}
	if updated.ID == "" {
		updated = draft
	}

	c.mu.Lock()
	c.tasks = applyUpdated(c.tasks, updated)
	c.draft = nil
	c.mu.Unlock()
	c.changed()
	c.notifier.Notify(LevelSuccess, "Task updated successfully!")
	return updated, nil
}

// Logout clears the session, resets the state and navigates to login.
func (c *Controller) Logout() error {
	err := c.endSession()
	c.notifier.Notify(LevelInfo, "Logged out successfully")
	return err
}

// Close drops any pending search fetch.
func (c *Controller) Close() {
	c.search.Cancel()
}

// failed reports a failed mutation and forces logout on 401.
func (c *Controller) failed(err error, msg string) error {
	c.log.WithError(err).Debug(msg)
	c.notifier.Notify(LevelError, msg+": "+err.Error())
	if service.IsUnauthorized(err) {
		c.forceLogout()
	}
	return err
}

func (c *Controller) forceLogout() {
	if err := c.Logout(); err != nil {
		c.log.WithError(err).Warn("failed to clear session")
	}
}

func (c *Controller) endSession() error {
	c.search.Cancel()

	var err error
	if c.session != nil {
		err = c.session.Clear()
	}

	c.mu.Lock()
	c.tasks = nil
	c.filter = c.initial
	c.loading = false
	c.banner = ""
	c.draft = nil
	c.mu.Unlock()
	c.changed()

	c.nav.ToLogin()
	return err
}

func (c *Controller) find(id string) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOf(c.tasks, id); i >= 0 {
		return c.tasks[i], true
	}
	return service.Task{}, false
}

func (c *Controller) changed() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.State())
}

func (c *Controller) snapshotLocked() State {
	s := State{
		Filter:  c.filter,
		Loading: c.loading,
		Error:   c.banner,
	}
	if c.tasks != nil {
		s.Tasks = make([]service.Task, len(c.tasks))
		copy(s.Tasks, c.tasks)
	}
	if c.draft != nil {
		d := *c.draft
		s.Draft = &d
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
