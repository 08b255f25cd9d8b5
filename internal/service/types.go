// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Task represents a single task item.
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
	UserID      string     `json:"user_id,omitempty"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   Timestamp  `json:"updated_at"`
}

// TaskDraft is the payload for creating a task.
type TaskDraft struct {
	Title       string     `json:"title" validate:"required,notblank"`
	Description string     `json:"description"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
}

// TaskUpdate holds the fields to change on a task. Nil fields are not sent.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
}

// Credentials are the login form fields.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up form.
type Registration struct {
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the account record returned on login.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResult is the response of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RegisterResult is the response of a successful registration.
type RegisterResult struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// HealthStatus is the response of the health endpoint.
type HealthStatus struct {
	Status        string         `json:"status"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

// Timestamp is a time that decodes both RFC 3339 and HTTP-date strings.
// The backend serializes datetimes as HTTP dates ("Mon, 02 Jan 2006 15:04:05 GMT").
type Timestamp struct {
	time.Time
}

// wireLayout is the layout timestamps are sent in (naive ISO 8601, UTC).
const wireLayout = "2006-01-02T15:04:05"

var timestampLayouts = []string{
	time.RFC3339Nano,
	http.TimeFormat,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999",
	wireLayout,
	"2006-01-02",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// ParseTimestamp parses s in any of the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp: %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(wireLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
