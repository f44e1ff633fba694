package graph

// Application tokens come from Azure AD with the OAuth2 client-credentials
// grant. No tokens are cached: every operation authenticates again.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credentials identify the Azure AD application used for Graph access.
type Credentials struct {
	TenantID      string
	ClientID      string
	ClientSecret  string
	AuthorityHost string
}

// Validate fails with a ConfigError naming the first missing credential.
func (c Credentials) Validate() error {
	switch {
	case strings.TrimSpace(c.TenantID) == "":
		return &ConfigError{Field: "tenant_id", Message: "Tenant ID is not configured in SharePoint settings"}
	case strings.TrimSpace(c.ClientID) == "":
		return &ConfigError{Field: "client_id", Message: "Client ID is not configured in SharePoint settings"}
	case c.ClientSecret == "":
		return &ConfigError{Field: "client_secret", Message: "Client Secret is not configured in SharePoint settings"}
	}
	return nil
}

// TokenURL is the v2.0 token endpoint for the tenant.
func (c Credentials) TokenURL() string {
	host := c.AuthorityHost
	if host == "" {
		host = DefaultAuthorityHost
	}
	return strings.TrimRight(host, "/") + "/" + url.PathEscape(c.TenantID) + "/oauth2/v2.0/token"
}

// AuthErrorKind classifies a failed token request.
type AuthErrorKind int

const (
	// AuthRejected means the token endpoint answered but issued no token.
	AuthRejected AuthErrorKind = iota
	AuthTimeout
	AuthConnection
	AuthOther
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthRejected:
		return "rejected"
	case AuthTimeout:
		return "timeout"
	case AuthConnection:
		return "connection"
	default:
		return "other"
	}
}

// AuthError is returned by AcquireToken instead of panicking or surfacing raw
// transport errors.
type AuthError struct {
	Kind       AuthErrorKind
	StatusCode int
	Detail     string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("azure ad token request %s (status %d): %s", e.Kind, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("azure ad token request %s: %s", e.Kind, e.Detail)
}

func (e *AuthError) Unwrap() error { return ErrAuthentication }

// AcquireToken requests an application token for Graph. httpClient bounds the
// request; pass nil to use one with DefaultTimeout.
func AcquireToken(ctx context.Context, httpClient *http.Client, creds Credentials) (string, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL(),
		Scopes:       []string{GraphDefaultScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	token, err := cfg.Token(ctx)
	if err != nil {
		return "", classifyTokenError(err)
	}
	if token.AccessToken == "" {
		return "", &AuthError{Kind: AuthRejected, Detail: "no access_token in response"}
	}
	return token.AccessToken, nil
}

func classifyTokenError(err error) *AuthError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		authErr := &AuthError{Kind: AuthRejected, Detail: string(retrieveErr.Body)}
		if retrieveErr.Response != nil {
			authErr.StatusCode = retrieveErr.Response.StatusCode
		}
		if retrieveErr.ErrorDescription != "" {
			authErr.Detail = retrieveErr.ErrorCode + ": " + retrieveErr.ErrorDescription
		}
		return authErr
	}

	var urlErr *url.Error
	if !errors.As(err, &urlErr) && !errors.Is(err, context.DeadlineExceeded) {
		// The endpoint answered 2xx with something that is not a usable token.
		return &AuthError{Kind: AuthRejected, Detail: err.Error()}
	}

	switch transportKind(err) {
	case TransportTimeout:
		return &AuthError{Kind: AuthTimeout, Detail: err.Error()}
	case TransportConnection:
		return &AuthError{Kind: AuthConnection, Detail: err.Error()}
	default:
		return &AuthError{Kind: AuthOther, Detail: err.Error()}
	}
}

// maskID keeps enough of an identifier to recognize it in logs.
func maskID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
