// Package restapi implements the service.Service interface over the task REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"todoctl/internal/service"
	"todoctl/internal/session"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 10 * time.Second

	pathLogin    = "auth/login"
	pathRegister = "auth/register"
	pathTasks    = "tasks"
	pathTask     = "tasks/{id}"
	pathHealth   = "health"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. "https://todo.example.com/api".
	BaseURL string

	// Session stores the login token. Required.
	Session *session.Store

	// HTTPClient is the underlying client. Defaults to a plain http.Client.
	HTTPClient *http.Client

	// Logger receives per-request debug logs. Defaults to a discarding logger.
	Logger *logrus.Logger

	// Metrics records request counts and durations. Optional.
	Metrics *Metrics

	// RateLimit caps outgoing requests per second. Zero means unlimited.
	RateLimit float64
}

// Client implements service.Service over HTTP.
type Client struct {
	baseURL string
	public  *http.Client
	authed  *http.Client
	session *session.Store
	log     *logrus.Logger
	metrics *Metrics
	limiter *rate.Limiter
}

var _ service.Service = (*Client)(nil)

// New creates a new REST API client.
func New(opts Options) (*Client, error) {
	base, err := NormalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Session == nil {
		return nil, errors.New("session store required")
	}

	public := opts.HTTPClient
	if public == nil {
		public = &http.Client{}
	}

	// Every request on the authed client carries "Authorization: Bearer <token>"
	// read from the session store at send time.
	authed := &http.Client{
		Transport: &oauth2.Transport{
			Source: opts.Session,
			Base:   public.Transport,
		},
		CheckRedirect: public.CheckRedirect,
		Jar:           public.Jar,
		Timeout:       public.Timeout,
	}

	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	limit := rate.Inf
	burst := 0
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = 1
	}

	return &Client{
		baseURL: base + "/",
		public:  public,
		authed:  authed,
		session: opts.Session,
		log:     log,
		metrics: opts.Metrics,
		limiter: rate.NewLimiter(limit, burst),
	}, nil
}

// NormalizeBaseURL validates raw and strips trailing slashes.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("API base URL not set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid API base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid API base URL: %s", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// Login exchanges credentials for a token and saves it to the session store.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.LoginResult, error) {
	var res service.LoginResult
	if err := c.do(ctx, "login", c.public, http.MethodPost, pathLogin, nil, nil, creds, &res); err != nil {
		return service.LoginResult{}, err
	}
	if res.Token == "" {
		return service.LoginResult{}, &service.Error{Kind: service.KindServer, Message: "login response has no token"}
	}
	username := res.User.Username
	if username == "" {
		username = creds.Username
	}
	if _, err := c.session.Save(res.Token, username); err != nil {
		return service.LoginResult{}, err
	}
	return res, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, reg service.Registration) (service.RegisterResult, error) {
	var res service.RegisterResult
	if err := c.do(ctx, "register", c.public, http.MethodPost, pathRegister, nil, nil, reg, &res); err != nil {
		return service.RegisterResult{}, err
	}
	return res, nil
}

// ListTasks returns tasks matching the filter in server order.
func (c *Client) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.doAuthed(ctx, "list_tasks", http.MethodGet, pathTasks, nil, filter.Query(), nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, draft service.TaskDraft) (service.Task, error) {
	var task service.Task
	if err := c.doAuthed(ctx, "create_task", http.MethodPost, pathTasks, nil, nil, draft, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// UpdateTask updates the set fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	var task service.Task
	params := map[string]string{"id": id}
	if err := c.doAuthed(ctx, "update_task", http.MethodPut, pathTask, params, nil, update, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	params := map[string]string{"id": id}
	return c.doAuthed(ctx, "delete_task", http.MethodDelete, pathTask, params, nil, nil, nil)
}

// ToggleComplete sets the completion flag of a task.
func (c *Client) ToggleComplete(ctx context.Context, id string, completed bool) (service.Task, error) {
	var task service.Task
	params := map[string]string{"id": id}
	body := service.TaskUpdate{Completed: &completed}
	if err := c.doAuthed(ctx, "toggle_complete", http.MethodPut, pathTask, params, nil, body, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Health reports backend status.
func (c *Client) Health(ctx context.Context) (service.HealthStatus, error) {
	var res service.HealthStatus
	if err := c.do(ctx, "health", c.public, http.MethodGet, pathHealth, nil, nil, nil, &res); err != nil {
		return service.HealthStatus{}, err
	}
	return res, nil
}

// doAuthed sends a request on the authed client.
// Without a usable session it fails with KindAuth and sends nothing.
func (c *Client) doAuthed(ctx context.Context, op, method, path string, params map[string]string, query url.Values, body, out any) error {
	if _, err := c.session.Token(); err != nil {
		return wrapError(err)
	}
	return c.do(ctx, op, c.authed, method, path, params, query, body, out)
}

// do issues exactly one HTTP request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, op string, hc *http.Client, method, path string, params map[string]string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return wrapError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	urls := googleapi.ResolveRelative(c.baseURL, path)
	if len(query) > 0 {
		urls += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, urls, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if params != nil {
		googleapi.Expand(req.URL, params)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := hc.Do(req)
	elapsed := time.Since(start)

	status := 0
	if res != nil {
		status = res.StatusCode
	}
	c.metrics.observe(op, status, elapsed)
	entry := c.log.WithFields(logrus.Fields{
		"op":       op,
		"method":   method,
		"path":     req.URL.Path,
		"status":   status,
		"duration": elapsed.Round(time.Millisecond),
	})

	if err != nil {
		entry.WithError(err).Debug("api request failed")
		return wrapError(err)
	}
	defer googleapi.CloseBody(res)

	if err := googleapi.CheckResponse(res); err != nil {
		entry.WithError(err).Debug("api request rejected")
		return wrapError(err)
	}
	entry.Debug("api request")

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &service.Error{Kind: service.KindServer, Status: res.StatusCode, Message: "invalid response from server", Err: err}
	}
	return nil
}
