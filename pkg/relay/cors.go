// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package relay

import "net/http"

const (
	headerAllowOrigin  = "Access-Control-Allow-Origin"
	headerAllowMethods = "Access-Control-Allow-Methods"
	headerAllowHeaders = "Access-Control-Allow-Headers"
)

// corsHeaders is written verbatim on every response, errors and preflight
// included.
var corsHeaders = [...]struct{ key, value string }{
	{headerAllowOrigin, "*"},
	{headerAllowMethods, "GET, POST, PUT, DELETE, OPTIONS"},
	{headerAllowHeaders, "Content-Type, Authorization"},
}

func setCORSHeaders(h http.Header) {
	for _, c := range corsHeaders {
		h.Set(c.key, c.value)
	}
}
