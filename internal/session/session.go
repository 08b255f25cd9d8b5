// Package session persists the login token and serves it to HTTP transports.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var (
	// ErrNoSession is returned when no token is stored.
	ErrNoSession = errors.New("not logged in")

	// ErrExpired is returned when the stored token is past its expiry.
	ErrExpired = errors.New("session expired")

	// ErrInvalidSession wraps failures to read or decode the session file.
	ErrInvalidSession = errors.New("invalid session")
)

// Session is an authenticated login.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// New builds a session for token, reading the expiry from its exp claim
// when the token is a JWT. The signature is not verified; that is the server's job.
func New(token, username string) *Session {
	s := &Session{Token: token, Username: username}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time.UTC()
		}
	}
	return s
}

// Store keeps the current session in memory and on disk.
// Store implements oauth2.TokenSource so it can sit under an oauth2.Transport.
type Store struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	cur    *Session
	loaded bool
}

var _ oauth2.TokenSource = (*Store)(nil)

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Current returns the stored session, loading it from disk on first use.
// Returns ErrNoSession if none is stored.
func (s *Store) Current() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	if s.cur == nil {
		return nil, ErrNoSession
	}
	cp := *s.cur
	return &cp, nil
}

// Save stores a new session for token and writes it with mode 0600.
func (s *Store) Save(token, username string) (*Session, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	sess := New(token, username)

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	s.cur = sess
	s.loaded = true
	s.mu.Unlock()

	cp := *sess
	return &cp, nil
}

// Clear forgets the session and removes the file. Clearing an absent session is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = nil
	s.loaded = true
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// Exists reports whether a session is stored (expired or not).
func (s *Store) Exists() bool {
	_, err := s.Current()
	return err == nil
}

// Token implements oauth2.TokenSource.
func (s *Store) Token() (*oauth2.Token, error) {
	sess, err := s.Current()
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, ErrExpired
	}
	return &oauth2.Token{
		AccessToken: sess.Token,
		TokenType:   "Bearer",
		Expiry:      sess.ExpiresAt,
	}, nil
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read failed: %w", ErrInvalidSession, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if sess.Token != "" {
		s.cur = &sess
	}
	s.loaded = true
	return nil
}
