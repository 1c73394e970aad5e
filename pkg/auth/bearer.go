// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package auth

import "net/http"

const (
	headerAuthorization = "Authorization"
	schemeBearer        = "Bearer "
)

// Bearer injects an RFC 6750 bearer credential into outbound requests.
type Bearer struct {
	Token string
}

// NewBearer constructs a bearer credential for the provided token.
func NewBearer(token string) Bearer {
	return Bearer{Token: token}
}

// Value returns the Authorization header value, the token verbatim after the
// scheme. An empty token still yields the bare scheme.
func (b Bearer) Value() string {
	return schemeBearer + b.Token
}

// Attach sets the Authorization header on req, replacing any existing value.
func (b Bearer) Attach(req *http.Request) {
	req.Header.Set(headerAuthorization, b.Value())
}
