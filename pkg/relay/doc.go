// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package relay provides a stateless HTTP handler that forwards a JSON payload
// to a caller-chosen API. The caller names the target with apiUrl and the
// credential with apiKey; both are stripped from the payload, the key is sent
// as a bearer token, and the target's JSON answer is returned with status 200
// and permissive CORS headers. Every failure other than a missing apiUrl or
// apiKey collapses into one generic 500 response.
package relay
