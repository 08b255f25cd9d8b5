package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"

	"todoctl/internal/service"
	"todoctl/internal/session"
)

// wrapError normalizes transport, session and server errors into *service.Error.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return svcErr
	}

	// Session problems are detected before sending.
	if errors.Is(err, session.ErrNoSession) {
		return &service.Error{Kind: service.KindAuth, Message: "not logged in", Err: err}
	}
	if errors.Is(err, session.ErrExpired) {
		return &service.Error{Kind: service.KindAuth, Message: "session expired", Err: err}
	}
	if errors.Is(err, session.ErrInvalidSession) {
		return &service.Error{Kind: service.KindAuth, Message: err.Error(), Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &service.Error{
			Kind:    service.KindServer,
			Status:  apiErr.Code,
			Message: serverMessage(apiErr),
			Err:     err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &service.Error{Kind: service.KindNetwork, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &service.Error{Kind: service.KindNetwork, Message: "request cancelled", Err: err}
	}

	return &service.Error{Kind: service.KindNetwork, Message: "network error occurred", Err: err}
}

// serverMessage extracts a human-readable message from an error body.
// The backend uses {"error": ...}; its JWT layer uses {"msg": ...}.
func serverMessage(apiErr *googleapi.Error) string {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal([]byte(apiErr.Body), &body); err == nil {
		if s, ok := body.Error.(string); ok && s != "" {
			return s
		}
		if m, ok := body.Error.(map[string]any); ok {
			if s, ok := m["message"].(string); ok && s != "" {
				return s
			}
		}
		if body.Message != "" {
			return body.Message
		}
		if body.Msg != "" {
			return body.Msg
		}
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if text := http.StatusText(apiErr.Code); text != "" {
		return strings.ToLower(text)
	}
	return "server error"
}
