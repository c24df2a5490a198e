package transport

import (
	"net/http"
)

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request, secret string)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request, _ string) {}

// BearerAuth implements Bearer token authentication.
type BearerAuth struct{}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request, secret string) {
	req.Header.Set("Authorization", "Bearer "+secret)
}

// TokenAuth implements the "token" scheme used by GitHub personal access tokens.
type TokenAuth struct{}

// Apply implements the Authenticator interface for TokenAuth.
func (a *TokenAuth) Apply(req *http.Request, secret string) {
	req.Header.Set("Authorization", "token "+secret)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request, secret string) {
	req.Header.Set(a.Header, secret)
}

// QueryAuth implements secret-as-query-parameter authentication.
type QueryAuth struct {
	Param string
}

// Apply implements the Authenticator interface for QueryAuth.
func (a *QueryAuth) Apply(req *http.Request, secret string) {
	if req.URL == nil {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, secret)
	req.URL.RawQuery = query.Encode()
}
