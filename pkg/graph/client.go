// Package graph is a small Microsoft Graph client for SharePoint drives. It
// authenticates with application credentials and reports every call as a
// Result, so transport failures and error statuses are checked the same way.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the interface the client uses for logging.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// DefaultLogger discards everything.
type DefaultLogger struct{}

func (DefaultLogger) Debug(msg string, args ...any) {}
func (DefaultLogger) Error(msg string, args ...any) {}

// Client issues requests against one Graph endpoint with one set of
// application credentials.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	logger     Logger
	tracer     trace.Tracer
}

// NewClient creates a Graph client. An empty baseURL selects DefaultGraphURL
// and a zero timeout selects DefaultTimeout.
func NewClient(creds Credentials, baseURL string, timeout time.Duration, logger Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = DefaultLogger{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		creds:      creds,
		logger:     logger,
		tracer:     otel.Tracer("spsync/graph"),
	}
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		l = DefaultLogger{}
	}
	c.logger = l
}

// BaseURL returns the Graph root the client talks to, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BuildAuthHeader validates the credentials and exchanges them for a bearer
// header. Missing credentials fail with a ConfigError before any network call.
func (c *Client) BuildAuthHeader(ctx context.Context) (http.Header, error) {
	if err := c.creds.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug("requesting application token", "tenant", maskID(c.creds.TenantID), "client", maskID(c.creds.ClientID))
	token, err := AcquireToken(ctx, c.httpClient, c.creds)
	if err != nil {
		c.logger.Error("token request failed", "tenant", maskID(c.creds.TenantID), "error", err)
		return nil, err
	}

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+token)
	header.Set("Content-Type", ContentTypeJSON)
	return header, nil
}

// Authorize fetches a token and returns a Session bound to it. Callers
// authorize once per operation; tokens are never reused across operations.
func (c *Client) Authorize(ctx context.Context) (*Session, error) {
	header, err := c.BuildAuthHeader(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, header: header}, nil
}

// Request performs one HTTP call. PUT sends body as raw bytes; POST and PATCH
// encode body as JSON; GET and DELETE ignore it. Request never returns a Go
// error: transport problems come back as Result.Transport.
func (c *Client) Request(ctx context.Context, method, url string, header http.Header, body any) Result {
	ctx, span := c.tracer.Start(ctx, "graph."+strings.ToLower(method))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
	)

	result := c.do(ctx, method, url, header, body)

	span.SetAttributes(attribute.Int("http.status_code", result.StatusCode()))
	if result.Transport != nil {
		span.RecordError(result.Transport)
		span.SetStatus(codes.Error, result.Transport.Kind.String())
		c.logger.Error("graph request failed", "method", method, "url", url, "kind", result.Transport.Kind.String(), "error", result.Transport.Detail)
	} else if !result.OK() {
		span.SetStatus(codes.Error, http.StatusText(result.StatusCode()))
		c.logger.Error("graph request returned error status", "method", method, "url", url, "status", result.StatusCode(), "body", result.Text())
	}
	return result
}

func (c *Client) do(ctx context.Context, method, url string, header http.Header, body any) Result {
	var reader io.Reader
	contentType := ""

	switch method {
	case http.MethodGet, http.MethodDelete:
	case http.MethodPut:
		switch b := body.(type) {
		case nil:
		case []byte:
			reader = bytes.NewReader(b)
		case io.Reader:
			reader = b
		default:
			return transportFailure(fmt.Errorf("PUT body must be raw bytes, got %T", body))
		}
		contentType = ContentTypeOctetStream
	case http.MethodPost, http.MethodPatch:
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return transportFailure(fmt.Errorf("encoding request body: %w", err))
			}
			reader = bytes.NewReader(payload)
		}
		contentType = ContentTypeJSON
	default:
		return transportFailure(fmt.Errorf("unsupported HTTP method %q", method))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return transportFailure(fmt.Errorf("building request: %w", err))
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else {
		req.Header.Del("Content-Type")
	}

	c.logger.Debug("graph request", "method", method, "url", url)
	res, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Transport: newTransportError(err)}
	}
	defer closeBodySafely(res.Body, c.logger)

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Result{Transport: newTransportError(err)}
	}
	return Result{Response: &Response{StatusCode: res.StatusCode, Header: res.Header, Body: data}}
}

func transportFailure(err error) Result {
	return Result{Transport: &TransportError{Kind: TransportOther, Detail: err.Error(), Err: err}}
}

// closeBodySafely closes an HTTP response body and logs any error.
func closeBodySafely(body io.ReadCloser, logger Logger) {
	if err := body.Close(); err != nil {
		logger.Debug("error closing response body", "error", err)
	}
}
