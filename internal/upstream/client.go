package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/clubhub/calendar-service/internal/domain"
	"github.com/clubhub/calendar-service/pkg/retry"
	"github.com/clubhub/calendar-service/pkg/telemetry"
)

// envelope is the standard response wrapper the domain services use.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusError carries a non-2xx upstream response with its decoded message, so
// callers can surface the server's wording when there is one.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s returned %d", e.Service, e.StatusCode)
}

// Client is the shared base for the typed upstream clients.
type Client struct {
	name     string
	baseURL  string
	http     *http.Client
	retryCfg *retry.Config
}

// NewClient builds a client for one upstream service. All clients share the
// same tuned transport characteristics; per-service timeout comes from config.
func NewClient(name, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		retryCfg: &retry.Config{
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}
}

// getJSON issues a GET and decodes the envelope data into out. GETs are
// idempotent, so transient transport failures and 5xx responses are retried
// with backoff; 4xx responses are not.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	return retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, query, out)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < 500 {
			return retry.Permanent(err)
		}
		return err
	})
}

// postJSON issues a bodyless POST (the assignment sub-resource is keyed
// entirely by the URL).
func (c *Client) postJSON(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// deleteJSON issues a DELETE.
func (c *Client) deleteJSON(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	ctx, span := telemetry.StartSpan(ctx, fmt.Sprintf("upstream.%s.%s", c.name, strings.ToLower(method)))
	defer span.End()
	span.SetAttributes(
		attribute.String("upstream.service", c.name),
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return c.classify(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: reading %s response: %v", domain.ErrUpstreamUnavailable, c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Service: c.name, StatusCode: resp.StatusCode}
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			statusErr.Message = env.Error.Message
		}
		span.SetStatus(codes.Error, statusErr.Error())
		return statusErr
	}

	if out == nil {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	// Prefer the envelope's data. Some services respond bare; for them (array
	// bodies included) the envelope decode fails or carries no data, and the
	// raw body is the payload.
	payload := body
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Data != nil {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: decoding %s payload: %v", domain.ErrUpstreamUnavailable, c.name, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// classify maps transport failures onto the domain error taxonomy.
func (c *Client) classify(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamTimeout, c.name, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, c.name, err)
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
