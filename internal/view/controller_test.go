package view_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"todoctl/internal/backend/restapi"
	"todoctl/internal/service"
	"todoctl/internal/session"
	"todoctl/internal/testutil"
	"todoctl/internal/view"
)

type note struct {
	level view.Level
	msg   string
}

// harness records everything the controller reports.
type harness struct {
	svc  *testutil.FakeService
	ctrl *view.Controller

	mu      sync.Mutex
	notes   []note
	clears  int
	toLogin int
	changes int
}

func newHarness(t *testing.T, svc *testutil.FakeService, delay time.Duration) *harness {
	t.Helper()
	h := &harness{svc: svc}
	h.ctrl = view.New(svc, view.Options{
		Session: h,
		Notifier: view.NotifierFunc(func(level view.Level, msg string) {
			h.mu.Lock()
			h.notes = append(h.notes, note{level, msg})
			h.mu.Unlock()
		}),
		Navigator: view.NavigatorFunc(func() {
			h.mu.Lock()
			h.toLogin++
			h.mu.Unlock()
		}),
		SearchDelay: delay,
		OnChange: func(view.State) {
			h.mu.Lock()
			h.changes++
			h.mu.Unlock()
		},
	})
	t.Cleanup(h.ctrl.Close)
	return h
}

// Clear implements view.SessionEnder.
func (h *harness) Clear() error {
	h.mu.Lock()
	h.clears++
	h.mu.Unlock()
	return nil
}

func (h *harness) lastNote() note {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.notes) == 0 {
		return note{}
	}
	return h.notes[len(h.notes)-1]
}

func (h *harness) loggedOut() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clears > 0 && h.toLogin > 0
}

func titles(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mounted returns a harness whose list holds Buy milk, Call mom, Pay rent (oldest first).
func mounted(t *testing.T) *harness {
	t.Helper()
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", "", false)
	svc.AddTask("Call mom", "", false)
	svc.AddTask("Pay rent", "", false)
	h := newHarness(t, svc, 0)
	if err := h.ctrl.SetSort(context.Background(), service.SortCreatedAsc); err != nil {
		t.Fatalf("SetSort failed: %v", err)
	}
	return h
}

func TestMount_LoadsServerOrder(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", "", false)
	svc.AddTask("Call mom", "", false)
	h := newHarness(t, svc, 0)

	if err := h.ctrl.Mount(context.Background()); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	st := h.ctrl.State()
	if !equal(titles(st.Tasks), []string{"Call mom", "Buy milk"}) {
		t.Errorf("unexpected order: %v", titles(st.Tasks))
	}
	if st.Loading {
		t.Error("expected loading cleared")
	}
	if st.Filter != service.DefaultFilter() {
		t.Errorf("unexpected filter: %+v", st.Filter)
	}
	if h.changes == 0 {
		t.Error("expected OnChange calls")
	}
}

func TestFetchFailure_KeepsListAndSetsBanner(t *testing.T) {
	h := mounted(t)
	h.svc.ListTasksErr = testutil.ServerError("boom")

	if err := h.ctrl.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	st := h.ctrl.State()
	if st.Error != "Failed to fetch tasks" {
		t.Errorf("unexpected banner: %q", st.Error)
	}
	if len(st.Tasks) != 3 {
		t.Errorf("expected list kept, got %d tasks", len(st.Tasks))
	}

	h.svc.ListTasksErr = nil
	if err := h.ctrl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if st := h.ctrl.State(); st.Error != "" {
		t.Errorf("expected banner cleared, got %q", st.Error)
	}
}

func TestCreate_BlankTitleSendsNothing(t *testing.T) {
	h := mounted(t)
	before := h.ctrl.State().Tasks

	_, err := h.ctrl.Create(context.Background(), "   ", "desc", nil)
	if service.KindOf(err) != service.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.svc.CallCount("CreateTask") != 0 {
		t.Error("expected no create call")
	}
	if got := h.lastNote(); got.level != view.LevelError || got.msg != "Title is required" {
		t.Errorf("unexpected notification: %+v", got)
	}
	if !equal(titles(h.ctrl.State().Tasks), titles(before)) {
		t.Error("expected list unchanged")
	}
}

func TestCreate_AppendsOnce(t *testing.T) {
	h := mounted(t)

	task, err := h.ctrl.Create(context.Background(), " Walk dog ", "", nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if task.Title != " Walk dog " {
		t.Errorf("expected title sent as typed, got %q", task.Title)
	}

	got := titles(h.ctrl.State().Tasks)
	want := []string{"Buy milk", "Call mom", "Pay rent", " Walk dog "}
	if !equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if n := h.lastNote(); n.level != view.LevelSuccess || n.msg != "Task created successfully!" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestToggle_FlipsOnlyTarget(t *testing.T) {
	h := mounted(t)
	target := h.ctrl.State().Tasks[1]

	if err := h.ctrl.Toggle(context.Background(), target.ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	for _, task := range h.ctrl.State().Tasks {
		if task.Completed != (task.ID == target.ID) {
			t.Errorf("task %s completed=%v", task.Title, task.Completed)
		}
	}

	if err := h.ctrl.Toggle(context.Background(), target.ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if h.ctrl.State().Tasks[1].Completed {
		t.Error("expected second toggle to reopen")
	}
}

func TestToggle_UnknownID(t *testing.T) {
	h := mounted(t)

	err := h.ctrl.Toggle(context.Background(), "missing")
	if !errors.Is(err, view.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if h.svc.CallCount("ToggleComplete") != 0 {
		t.Error("expected no toggle call")
	}
}

func TestDelete_RemovesOnePreservingOrder(t *testing.T) {
	h := mounted(t)
	target := h.ctrl.State().Tasks[1]

	if err := h.ctrl.Delete(context.Background(), target.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	want := []string{"Buy milk", "Pay rent"}
	if got := titles(h.ctrl.State().Tasks); !equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMutationFailure_LeavesStateUnchanged(t *testing.T) {
	h := mounted(t)
	h.svc.ToggleCompleteErr = testutil.NetworkError()
	h.svc.DeleteTaskErr = testutil.ServerError("boom")
	h.svc.CreateTaskErr = testutil.ServerError("boom")
	before := h.ctrl.State().Tasks
	id := before[0].ID

	if err := h.ctrl.Toggle(context.Background(), id); err == nil {
		t.Error("expected toggle error")
	}
	if n := h.lastNote(); n.level != view.LevelError || n.msg != "Failed to update task status: network error occurred" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if err := h.ctrl.Delete(context.Background(), id); err == nil {
		t.Error("expected delete error")
	}
	if _, err := h.ctrl.Create(context.Background(), "New", "", nil); err == nil {
		t.Error("expected create error")
	}

	after := h.ctrl.State().Tasks
	if !equal(titles(after), titles(before)) || after[0].Completed {
		t.Errorf("expected list unchanged, got %+v", after)
	}
	if h.loggedOut() {
		t.Error("non-401 failures must not log out")
	}
}

func TestNetworkFailure_KeepsSession(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if _, err := store.Save("opaque-token", "alice"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	client, err := restapi.New(restapi.Options{
		BaseURL: dead.URL + "/session/api",
		Session: store,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var navigated bool
	ctrl := view.New(client, view.Options{
		Session:   store,
		Navigator: view.NavigatorFunc(func() { navigated = true }),
	})
	defer ctrl.Close()

	if err := ctrl.Mount(context.Background()); service.KindOf(err) != service.KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
	if !store.Exists() {
		t.Error("network failure must not clear the session")
	}
	if navigated {
		t.Error("network failure must not navigate to login")
	}
	if ctrl.State().Error != "Failed to fetch tasks" {
		t.Errorf("expected fetch banner, got %q", ctrl.State().Error)
	}
}

func TestUnauthorized_ForcesLogout(t *testing.T) {
	ops := map[string]func(h *harness, id string) error{
		"fetch": func(h *harness, id string) error {
			h.svc.ListTasksErr = testutil.Unauthorized()
			return h.ctrl.Refresh(context.Background())
		},
		"create": func(h *harness, id string) error {
			h.svc.CreateTaskErr = testutil.Unauthorized()
			_, err := h.ctrl.Create(context.Background(), "New", "", nil)
			return err
		},
		"toggle": func(h *harness, id string) error {
			h.svc.ToggleCompleteErr = testutil.Unauthorized()
			return h.ctrl.Toggle(context.Background(), id)
		},
		"delete": func(h *harness, id string) error {
			h.svc.DeleteTaskErr = testutil.Unauthorized()
			return h.ctrl.Delete(context.Background(), id)
		},
		"update": func(h *harness, id string) error {
			h.svc.UpdateTaskErr = testutil.Unauthorized()
			if err := h.ctrl.BeginEdit(id); err != nil {
				return err
			}
			_, err := h.ctrl.SaveEdit(context.Background())
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			h := mounted(t)
			id := h.ctrl.State().Tasks[0].ID

			err := op(h, id)
			if !service.IsUnauthorized(err) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if !h.loggedOut() {
				t.Error("expected session cleared and navigation to login")
			}
			st := h.ctrl.State()
			if len(st.Tasks) != 0 || st.Draft != nil {
				t.Errorf("expected state reset, got %+v", st)
			}
			if st.Filter != service.DefaultFilter() {
				t.Errorf("expected initial filter, got %+v", st.Filter)
			}
		})
	}
}

func TestSearch_Debounced(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("abcd", "", false)
	h := newHarness(t, svc, 30*time.Millisecond)
	ctx := context.Background()

	h.ctrl.SetSearch(ctx, "abc")
	h.ctrl.SetSearch(ctx, "abcd")

	if got := h.ctrl.State().Filter.Search; got != "abcd" {
		t.Errorf("expected search text updated immediately, got %q", got)
	}
	if !h.ctrl.SearchPending() {
		t.Error("expected pending search")
	}

	deadline := time.Now().Add(time.Second)
	for svc.CallCount("ListTasks") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// Let any stray timer fire.
	time.Sleep(100 * time.Millisecond)

	filters := svc.ListFilters()
	if len(filters) != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", len(filters))
	}
	if filters[0].Search != "abcd" {
		t.Errorf("expected search abcd, got %q", filters[0].Search)
	}
}

func TestSetStatus_SupersedesPendingSearch(t *testing.T) {
	svc := testutil.NewFakeService()
	h := newHarness(t, svc, 30*time.Millisecond)
	ctx := context.Background()

	h.ctrl.SetSearch(ctx, "milk")
	if err := h.ctrl.SetStatus(ctx, service.StatusCompleted); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	filters := svc.ListFilters()
	if len(filters) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(filters))
	}
	want := service.Filter{Status: service.StatusCompleted, Sort: service.SortCreatedDesc, Search: "milk"}
	if filters[0] != want {
		t.Errorf("expected %+v, got %+v", want, filters[0])
	}
}

func TestEdit_DraftIsolatedUntilSave(t *testing.T) {
	h := mounted(t)
	id := h.ctrl.State().Tasks[0].ID

	if err := h.ctrl.BeginEdit(id); err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	h.ctrl.SetDraftTitle("Buy oat milk")
	h.ctrl.SetDraftDescription("2 liters")

	st := h.ctrl.State()
	if st.Tasks[0].Title != "Buy milk" {
		t.Errorf("list must not change before save, got %q", st.Tasks[0].Title)
	}
	if st.Draft == nil || st.Draft.Title != "Buy oat milk" {
		t.Fatalf("unexpected draft: %+v", st.Draft)
	}

	h.svc.UpdateTaskErr = testutil.ServerError("boom")
	if _, err := h.ctrl.SaveEdit(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if h.ctrl.State().Draft == nil {
		t.Error("expected draft kept after failure")
	}

	h.svc.UpdateTaskErr = nil
	updated, err := h.ctrl.SaveEdit(context.Background())
	if err != nil {
		t.Fatalf("SaveEdit failed: %v", err)
	}
	st = h.ctrl.State()
	if st.Draft != nil {
		t.Error("expected draft closed")
	}
	if st.Tasks[0].Title != "Buy oat milk" || st.Tasks[0].Description != "2 liters" {
		t.Errorf("unexpected task: %+v", st.Tasks[0])
	}
	if !st.Tasks[0].UpdatedAt.Equal(updated.UpdatedAt.Time) {
		t.Error("expected server record in list")
	}
	if n := h.lastNote(); n.msg != "Task updated successfully!" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestEdit_CancelAndNoDraft(t *testing.T) {
	h := mounted(t)

	if _, err := h.ctrl.SaveEdit(context.Background()); !errors.Is(err, view.ErrNoDraft) {
		t.Errorf("expected ErrNoDraft, got %v", err)
	}
	if err := h.ctrl.SetDraftTitle("x"); !errors.Is(err, view.ErrNoDraft) {
		t.Errorf("expected ErrNoDraft, got %v", err)
	}
	if err := h.ctrl.BeginEdit("missing"); !errors.Is(err, view.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}

	id := h.ctrl.State().Tasks[0].ID
	h.ctrl.BeginEdit(id)
	h.ctrl.SetDraftTitle("changed")
	h.ctrl.CancelEdit()
	if st := h.ctrl.State(); st.Draft != nil || st.Tasks[0].Title != "Buy milk" {
		t.Errorf("unexpected state after cancel: %+v", st)
	}
	if h.svc.CallCount("UpdateTask") != 0 {
		t.Error("expected no update call")
	}
}

func TestDelete_ClosesMatchingDraft(t *testing.T) {
	h := mounted(t)
	id := h.ctrl.State().Tasks[0].ID
	h.ctrl.BeginEdit(id)

	if err := h.ctrl.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if h.ctrl.State().Draft != nil {
		t.Error("expected draft closed")
	}
}

func TestLogout(t *testing.T) {
	h := mounted(t)

	if err := h.ctrl.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if !h.loggedOut() {
		t.Error("expected session cleared and navigation")
	}
	st := h.ctrl.State()
	if len(st.Tasks) != 0 || st.Filter != service.DefaultFilter() {
		t.Errorf("expected reset state, got %+v", st)
	}
	if n := h.lastNote(); n.level != view.LevelInfo || n.msg != "Logged out successfully" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestTaskAt(t *testing.T) {
	h := mounted(t)

	task, ok := h.ctrl.TaskAt(3)
	if !ok || task.Title != "Pay rent" {
		t.Errorf("unexpected task: %+v %v", task, ok)
	}
	for _, n := range []int{0, 4} {
		if _, ok := h.ctrl.TaskAt(n); ok {
			t.Errorf("expected no task at %d", n)
		}
	}
}

func TestSaveEdit_SendsTitleAsTyped(t *testing.T) {
	h := mounted(t)
	id := h.ctrl.State().Tasks[1].ID

	if err := h.ctrl.BeginEdit(id); err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	if err := h.ctrl.SetDraftTitle(" Call dad "); err != nil {
		t.Fatalf("SetDraftTitle failed: %v", err)
	}
	if _, err := h.ctrl.SaveEdit(context.Background()); err != nil {
		t.Fatalf("SaveEdit failed: %v", err)
	}
	if got := h.svc.Tasks()[1].Title; got != " Call dad " {
		t.Errorf("expected title sent as typed, got %q", got)
	}
}
