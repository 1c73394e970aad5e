// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fastjson"

	"github.com/go-core-stack/api-relay/pkg/auth"
	"github.com/go-core-stack/api-relay/pkg/config"
	"github.com/go-core-stack/api-relay/pkg/metrics"
)

const (
	msgMissingParams    = "API URL and API key are required."
	msgServerError      = "An internal server error occurred."
	msgMethodNotAllowed = "Method not allowed."

	contentTypeJSON = "application/json"
	allowedMethods  = "POST, OPTIONS"
)

var (
	missingParamsBody    = errorBody(msgMissingParams)
	serverErrorBody      = errorBody(msgServerError)
	methodNotAllowedBody = errorBody(msgMethodNotAllowed)
)

// Doer issues outbound HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Relay forwards inbound JSON payloads to the API named in the payload.
type Relay struct {
	// client performs the outbound call.
	client Doer
	// metrics records outcomes; nil disables recording.
	metrics *metrics.Recorder
	// logger emits structured logs for observability.
	logger zerolog.Logger
	// maxBodyBytes caps the inbound body; zero means unlimited.
	maxBodyBytes int64
	// parsers recycles fastjson parsers across requests.
	parsers fastjson.ParserPool
}

// Option customises a Relay.
type Option func(*Relay)

// WithClient replaces the outbound HTTP client.
func WithClient(c Doer) Option {
	return func(r *Relay) {
		r.client = c
	}
}

// WithMetrics records request outcomes and upstream latency on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Relay) {
		r.logger = l
	}
}

// New constructs a Relay using the default outbound client unless an option
// supplies one.
func New(cfg config.Config, opts ...Option) *Relay {
	r := &Relay{
		client:       NewHTTPClient(),
		logger:       log.With().Str("component", "relay").Logger(),
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewHTTPClient returns a client with pooled connections and no overall
// timeout; an outbound call lasts as long as the inbound request allows.
func NewHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{Transport: transport}
}

// ServeHTTP answers preflight requests locally and relays POST bodies. CORS
// headers are set before anything else so every response carries them.
func (p *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	event := p.logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Logger()

	setCORSHeaders(w.Header())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		p.metrics.ObserveRequest(r.Method, metrics.OutcomeOptions)
		event.Debug().Msg("preflight answered")
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", allowedMethods)
		p.writeJSON(w, http.StatusMethodNotAllowed, methodNotAllowedBody, event)
		p.metrics.ObserveRequest(r.Method, metrics.OutcomeMethodNotAllowed)
		event.Warn().
			Dur("duration", time.Since(start)).
			Msg("method not allowed")
		return
	}

	if p.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, p.maxBodyBytes)
	}

	body, err := p.relay(r, event)
	if err != nil {
		if errors.Is(err, errMissingParams) {
			p.writeJSON(w, http.StatusBadRequest, missingParamsBody, event)
			p.metrics.ObserveRequest(r.Method, metrics.OutcomeBadRequest)
			event.Warn().
				Err(err).
				Dur("duration", time.Since(start)).
				Msg("request rejected")
			return
		}
		p.writeJSON(w, http.StatusInternalServerError, serverErrorBody, event)
		p.metrics.ObserveRequest(r.Method, metrics.OutcomeServerError)
		event.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("request failed")
		return
	}

	p.writeJSON(w, http.StatusOK, body, event)
	p.metrics.ObserveRequest(r.Method, metrics.OutcomeRelayed)
	event.Info().
		Dur("duration", time.Since(start)).
		Msg("request relayed")
}

// relay runs the whole pass-through and returns the compacted upstream body.
// Any returned error other than errMissingParams is a server error.
func (p *Relay) relay(r *http.Request, event zerolog.Logger) ([]byte, error) {
	inbound, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			event.Error().
				Err(err).
				Msg("close request body failed")
		}
	}()

	parser := p.parsers.Get()
	defer p.parsers.Put(parser)

	t, err := parseInbound(parser, inbound)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	upstream, err := p.forward(r.Context(), t, event)
	if err != nil {
		p.metrics.ObserveUpstream(metrics.OutcomeServerError, time.Since(start))
		return nil, err
	}

	body, err := compactJSON(parser, upstream)
	if err != nil {
		p.metrics.ObserveUpstream(metrics.OutcomeServerError, time.Since(start))
		return nil, err
	}
	p.metrics.ObserveUpstream(metrics.OutcomeRelayed, time.Since(start))

	return body, nil
}

// forward POSTs the payload to the target and returns the raw response body.
// The upstream status code is logged but otherwise ignored.
func (p *Relay) forward(ctx context.Context, t target, event zerolog.Logger) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(t.payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported upstream scheme %q", req.URL.Scheme)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	auth.NewBearer(t.apiKey).Attach(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform upstream request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			event.Error().
				Err(closeErr).
				Msg("close upstream response body failed")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	event.Debug().
		Str("upstream_host", req.URL.Host).
		Int("upstream_status", resp.StatusCode).
		Int("upstream_bytes", len(body)).
		Msg("upstream responded")

	return body, nil
}

func (p *Relay) writeJSON(w http.ResponseWriter, status int, body []byte, event zerolog.Logger) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		event.Error().
			Err(err).
			Int("status", status).
			Msg("write response failed")
	}
}
