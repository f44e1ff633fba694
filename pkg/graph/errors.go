package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy. Concrete error values wrap one of these so callers can
// branch with errors.Is.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication failed")
	ErrTransport      = errors.New("transport error")
	ErrRemoteAPI      = errors.New("graph api error")
	ErrDecodingFailed = errors.New("decoding response failed")
)

// Graph classification sentinels, matched in addition to ErrRemoteAPI.
var (
	ErrReauthRequired   = errors.New("re-authentication required")
	ErrAccessDenied     = errors.New("access denied")
	ErrRetryLater       = errors.New("retry later")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrQuotaExceeded    = errors.New("quota exceeded")
)

// ConfigError reports a missing or invalid setting. It is raised before any
// network call is made.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is not configured in SharePoint settings", e.Field)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// APIError is a non-2xx answer from Graph.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph returned %d: %s", e.StatusCode, e.Body)
}

// Is reports whether the API error matches ErrRemoteAPI or its classification sentinel.
func (e *APIError) Is(target error) bool {
	if target == ErrRemoteAPI {
		return true
	}
	return target != nil && target == classify(e.StatusCode, e.Code)
}

// newAPIError builds an APIError, pulling code and message out of the
// standard Graph error envelope when the body carries one.
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// classify maps a Graph error code, falling back to the HTTP status, onto a
// sentinel. It returns nil when nothing more specific than ErrRemoteAPI applies.
func classify(statusCode int, code string) error {
	switch code {
	case "accessDenied":
		return ErrAccessDenied
	case "activityLimitReached", "serviceNotAvailable":
		return ErrRetryLater
	case "itemNotFound":
		return ErrResourceNotFound
	case "nameAlreadyExists":
		return ErrConflict
	case "invalidRange", "invalidRequest", "malwareDetected",
		"notAllowed", "notSupported", "resourceModified", "generalException":
		return ErrInvalidRequest
	case "quotaLimitReached":
		return ErrQuotaExceeded
	case "unauthenticated", "InvalidAuthenticationToken":
		return ErrReauthRequired
	}

	switch statusCode {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusNotAcceptable,
		http.StatusLengthRequired, http.StatusPreconditionFailed,
		http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType,
		http.StatusRequestedRangeNotSatisfiable, http.StatusUnprocessableEntity:
		return ErrInvalidRequest
	case http.StatusUnauthorized:
		return ErrReauthRequired
	case http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusGone, http.StatusNotFound:
		return ErrResourceNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusInsufficientStorage:
		return ErrQuotaExceeded
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, 509:
		return ErrRetryLater
	}
	return nil
}
