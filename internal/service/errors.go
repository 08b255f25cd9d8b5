package service

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a normalized error.
type ErrorKind int

const (
	// KindNetwork means no response was received.
	KindNetwork ErrorKind = iota + 1
	// KindServer means the server answered with a non-2xx status.
	KindServer
	// KindValidation means the input was rejected before any request.
	KindValidation
	// KindAuth means there is no usable local session; no request was sent.
	KindAuth
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	}
	return "unknown"
}

// Error is the uniform error value returned by Service implementations.
type Error struct {
	Kind ErrorKind
	// Status is the HTTP status code, 0 when no response was received.
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return http.StatusText(e.Status)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsUnauthorized reports whether err means the session is missing or was rejected (401).
func IsUnauthorized(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindAuth || e.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}
