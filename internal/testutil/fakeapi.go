package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"todoctl/internal/service"
)

// APIPrefix is the path prefix the fake API serves under.
const APIPrefix = "/api"

// RecordedRequest is a request seen by FakeAPI.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Body          map[string]any
}

type apiUser struct {
	id       string
	username string
	email    string
	hash     []byte
}

type apiTask struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"due_date"`
	UserID      string  `json:"user_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`

	created time.Time
	updated time.Time
}

// FakeAPI is an in-process HTTP server mimicking the task REST backend.
// Timestamps are emitted as HTTP dates, the way the backend serializes them.
type FakeAPI struct {
	Server *httptest.Server
	secret []byte

	mu       sync.Mutex
	users    map[string]*apiUser // username -> user
	tasks    []*apiTask
	requests []RecordedRequest
	failNext *cannedResponse
	clock    time.Time
}

type cannedResponse struct {
	status int
	body   string
}

// NewFakeAPI starts a fake API server that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		secret: []byte("test-secret"),
		users:  make(map[string]*apiUser),
		clock:  BaseTime,
	}
	f.Server = httptest.NewServer(f.router())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API base URL (including the /api prefix).
func (f *FakeAPI) URL() string {
	return f.Server.URL + APIPrefix
}

// AddUser registers a user directly.
func (f *FakeAPI) AddUser(username, email, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	u := &apiUser{id: uuid.NewString(), username: username, email: email, hash: hash}
	f.mu.Lock()
	f.users[username] = u
	f.mu.Unlock()
	return u.id
}

// AddTask stores a task for the user with userID and returns its ID.
func (f *FakeAPI) AddTask(userID, title string, completed bool) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addTaskLocked(userID, title, "", completed).ID
}

// Token issues a valid token for userID.
func (f *FakeAPI) Token(userID string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// FailNext makes the next request answer with status and a raw JSON body.
func (f *FakeAPI) FailNext(status int, body string) {
	f.mu.Lock()
	f.failNext = &cannedResponse{status: status, body: body}
	f.mu.Unlock()
}

// Requests returns all recorded requests.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request.
func (f *FakeAPI) LastRequest() RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return RecordedRequest{}
	}
	return f.requests[len(f.requests)-1]
}

func (f *FakeAPI) router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix(APIPrefix).Subrouter()
	api.Use(f.record)
	api.HandleFunc("/health", f.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", f.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", f.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/tasks", f.requireAuth(f.handleListTasks)).Methods(http.MethodGet)
	api.HandleFunc("/tasks", f.requireAuth(f.handleCreateTask)).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", f.requireAuth(f.handleUpdateTask)).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", f.requireAuth(f.handleDeleteTask)).Methods(http.MethodDelete)
	return r
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, APIPrefix),
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.Body = body
				buf, _ := json.Marshal(body)
				r.Body = io.NopCloser(bytes.NewReader(buf))
			}
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		canned := f.failNext
		f.failNext = nil
		f.mu.Unlock()

		if canned != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			w.Write([]byte(canned.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireAuth(next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "Missing Authorization Header"})
			return
		}
		tok, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (any, error) {
			return f.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "Token has expired"})
			return
		}
		sub, err := tok.Claims.GetSubject()
		if err != nil || sub == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "Invalid token"})
			return
		}
		next(w, r, sub)
	}
}

func (f *FakeAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"configuration": map[string]any{
			"environment":    "test",
			"jwt_secret_set": true,
		},
	})
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil ||
		body.Username == "" || body.Email == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing required fields"})
		return
	}

	f.mu.Lock()
	_, exists := f.users[body.Username]
	f.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Username already exists"})
		return
	}

	id := f.AddUser(body.Username, body.Email, body.Password)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user_id": id,
	})
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	u := f.users[body.Username]
	f.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(body.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid username or password"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": f.Token(u.id, 24*time.Hour),
		"user": map[string]any{
			"id":       u.id,
			"username": u.username,
			"email":    u.email,
		},
	})
}

func (f *FakeAPI) handleListTasks(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	status := q.Get("status")
	search := strings.ToLower(strings.TrimSpace(q.Get("search")))
	sortBy := q.Get("sort_by")

	f.mu.Lock()
	var tasks []service.Task
	for _, t := range f.tasks {
		if t.UserID != userID {
			continue
		}
		if status == "completed" && !t.Completed || status == "incomplete" && t.Completed {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		tasks = append(tasks, service.Task{ID: t.ID, CreatedAt: service.Timestamp{Time: t.created}, UpdatedAt: service.Timestamp{Time: t.updated}})
	}
	key, err := service.ParseSortKey(sortBy)
	if err != nil {
		key = service.SortCreatedDesc
	}
	SortTasks(tasks, key)
	out := make([]*apiTask, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, f.findLocked(t.ID, userID))
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (f *FakeAPI) handleCreateTask(w http.ResponseWriter, r *http.Request, userID string) {
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)
	title, ok := body["title"].(string)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Title is required"})
		return
	}
	desc, _ := body["description"].(string)

	f.mu.Lock()
	t := f.addTaskLocked(userID, title, desc, false)
	if due, ok := body["due_date"].(string); ok && due != "" {
		t.DueDate = &due
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, t)
}

func (f *FakeAPI) handleUpdateTask(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.findLocked(id, userID)
	if t == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Task not found"})
		return
	}
	if v, ok := body["title"].(string); ok {
		t.Title = v
	}
	if v, ok := body["description"].(string); ok {
		t.Description = v
	}
	if v, ok := body["completed"].(bool); ok {
		t.Completed = v
	}
	if v, ok := body["due_date"].(string); ok && v != "" {
		t.DueDate = &v
	}
	f.clock = f.clock.Add(time.Minute)
	t.updated = f.clock
	t.UpdatedAt = t.updated.Format(http.TimeFormat)
	writeJSON(w, http.StatusOK, t)
}

func (f *FakeAPI) handleDeleteTask(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"message": "Task deleted successfully"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": "Task not found"})
}

func (f *FakeAPI) addTaskLocked(userID, title, desc string, completed bool) *apiTask {
	f.clock = f.clock.Add(time.Minute)
	t := &apiTask{
		ID:          strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		Title:       title,
		Description: desc,
		Completed:   completed,
		UserID:      userID,
		created:     f.clock,
		updated:     f.clock,
	}
	t.CreatedAt = t.created.Format(http.TimeFormat)
	t.UpdatedAt = t.updated.Format(http.TimeFormat)
	f.tasks = append(f.tasks, t)
	return t
}

func (f *FakeAPI) findLocked(id, userID string) *apiTask {
	for _, t := range f.tasks {
		if t.ID == id && t.UserID == userID {
			return t
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
