package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tonimelisma/spsync/internal/admin"
	"github.com/tonimelisma/spsync/internal/hooks"
	"github.com/tonimelisma/spsync/internal/jobs"
	"github.com/tonimelisma/spsync/pkg/graph"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// statusFor maps a service error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	var adminErr *admin.Error
	switch {
	case errors.Is(err, graph.ErrConfiguration):
		return http.StatusBadRequest, "CONFIGURATION_ERROR"
	case errors.Is(err, hooks.ErrInvalidEvent):
		return http.StatusBadRequest, "INVALID_EVENT"
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrQueueClosed):
		return http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE"
	case errors.Is(err, graph.ErrAuthentication):
		return http.StatusBadGateway, "AUTHENTICATION_FAILED"
	case errors.Is(err, graph.ErrResourceNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &adminErr) && adminErr.Err == nil:
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, graph.ErrRemoteAPI), errors.Is(err, graph.ErrTransport):
		return http.StatusBadGateway, "GRAPH_REQUEST_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func respondError(c *gin.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	status, code := statusFor(err)
	c.JSON(status, ErrorResponse{Error: code, Details: err.Error()})
}
