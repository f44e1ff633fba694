package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tonimelisma/spsync/internal/config"
)

// ErrHostNotConfigured is returned when no host URL is set.
var ErrHostNotConfigured = errors.New("host url is not configured")

// Renderer produces the printable PDF of a document.
type Renderer interface {
	Render(ctx context.Context, doctype, docname string) ([]byte, error)
}

// HostRenderer asks the host site to render a document with its print format.
type HostRenderer struct {
	baseURL     string
	apiKey      string
	apiSecret   string
	printFormat string
	httpClient  *http.Client
}

// NewHostRenderer creates a renderer for the host described in settings.
func NewHostRenderer(settings *config.Settings) *HostRenderer {
	return &HostRenderer{
		baseURL:     strings.TrimRight(settings.Host.URL, "/"),
		apiKey:      settings.Host.APIKey,
		apiSecret:   settings.Host.APISecret,
		printFormat: settings.Host.PrintFormat,
		httpClient:  &http.Client{Timeout: 2 * settings.Timeout()},
	}
}

// Render downloads the document PDF from the host.
func (r *HostRenderer) Render(ctx context.Context, doctype, docname string) ([]byte, error) {
	if r.baseURL == "" {
		return nil, ErrHostNotConfigured
	}

	query := url.Values{}
	query.Set("doctype", doctype)
	query.Set("name", docname)
	query.Set("format", r.printFormat)
	query.Set("no_letterhead", "0")
	endpoint := r.baseURL + "/api/method/frappe.utils.print_format.download_pdf?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building print request: %w", err)
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "token "+r.apiKey+":"+r.apiSecret)
	}
	req.Header.Set("Accept", "application/pdf")

	res, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting pdf of %s %s: %w", doctype, docname, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading pdf of %s %s: %w", doctype, docname, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("host returned %d rendering %s %s: %s", res.StatusCode, doctype, docname, snippet(data))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("host returned an empty pdf for %s %s", doctype, docname)
	}
	return data, nil
}

func snippet(data []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
