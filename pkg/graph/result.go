package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// TransportKind classifies why a request never produced an HTTP response.
type TransportKind int

const (
	TransportOther TransportKind = iota
	TransportTimeout
	TransportConnection
)

func (k TransportKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportConnection:
		return "connection"
	default:
		return "other"
	}
}

// TransportError is a failed request that never reached a Graph response.
type TransportError struct {
	Kind   TransportKind
	Detail string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Detail)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// StatusCode is the synthetic status reported for this failure.
func (e *TransportError) StatusCode() int {
	switch e.Kind {
	case TransportTimeout:
		return StatusTransportTimeout
	case TransportConnection:
		return StatusTransportConnection
	default:
		return StatusTransportOther
	}
}

// newTransportError classifies err by what went wrong on the wire.
func newTransportError(err error) *TransportError {
	return &TransportError{Kind: transportKind(err), Detail: err.Error(), Err: err}
}

func transportKind(err error) TransportKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return TransportTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return TransportConnection
	}
	return TransportOther
}

// Response is a completed HTTP exchange with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Result is the outcome of Client.Request: exactly one of Response or
// Transport is set.
type Result struct {
	Response  *Response
	Transport *TransportError
}

// OK reports whether Graph answered with a 2xx status.
func (r Result) OK() bool {
	return r.Transport == nil && r.Response != nil &&
		r.Response.StatusCode >= 200 && r.Response.StatusCode < 300
}

// StatusCode returns the HTTP status, or the synthetic one for transport failures.
func (r Result) StatusCode() int {
	if r.Transport != nil {
		return r.Transport.StatusCode()
	}
	if r.Response == nil {
		return StatusTransportOther
	}
	return r.Response.StatusCode
}

// Text returns the response body, or the transport failure detail.
func (r Result) Text() string {
	if r.Transport != nil {
		return r.Transport.Detail
	}
	if r.Response == nil {
		return ""
	}
	return string(r.Response.Body)
}

// Err returns nil for a 2xx result, the TransportError for transport failures
// and an APIError for any other status.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	if r.Transport != nil {
		return r.Transport
	}
	if r.Response == nil {
		return &TransportError{Kind: TransportOther, Detail: "no response"}
	}
	return newAPIError(r.Response.StatusCode, r.Response.Body)
}

// Decode unmarshals a successful response body into dest.
func (r Result) Decode(dest any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(r.Response.Body, dest); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodingFailed, err)
	}
	return nil
}
