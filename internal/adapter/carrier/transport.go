package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// transport is the shared outbound HTTP layer of the carrier adapters. It
// applies the per-operator static headers, serializes JSON bodies and retries
// network-level failures a bounded number of times with a fixed delay.
// Non-2xx responses are returned to the adapter untouched; they are business
// failures, not transport failures, and must not be retried.
type transport struct {
	base    string
	client  *http.Client
	headers map[string]string
	logger  *slog.Logger
	retries uint64
	delay   time.Duration
}

func newTransport(base string, timeout time.Duration, retries int, delay time.Duration, headers map[string]string, logger *slog.Logger) *transport {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &transport{
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: timeout},
		headers: headers,
		logger:  logger,
		retries: uint64(retries),
		delay:   delay,
	}
}

// upstreamResponse is the raw outcome of one upstream call. The body is
// buffered so adapters can both decode it and run keyword heuristics on it.
type upstreamResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *upstreamResponse) ok() bool { return r.Status < 400 }

func (r *upstreamResponse) decode(v any) error {
	if len(r.Body) == 0 {
		return io.EOF
	}
	return json.Unmarshal(r.Body, v)
}

func (r *upstreamResponse) text() string { return string(r.Body) }

// token returns the rotated session token from the response headers, if the
// upstream issued one.
func (r *upstreamResponse) token() string {
	return r.Header.Get("x-authorization")
}

// do performs one upstream call. The path may be absolute or relative to the
// transport base URL. A nil error guarantees a non-nil response; an error
// means the transport retries were exhausted.
func (t *transport) do(ctx context.Context, method, path string, headers map[string]string, query url.Values, body any) (*upstreamResponse, error) {
	target := path
	if !strings.HasPrefix(path, "http") {
		target = t.base + "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	var resp *upstreamResponse
	attempt := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if payload != nil && req.Header.Get("content-type") == "" {
			req.Header.Set("content-type", "application/json")
		}

		res, err := t.client.Do(req)
		if err != nil {
			t.logger.Warn("upstream request failed",
				slog.String("method", method),
				slog.String("path", path),
				slog.Any("error", err))
			return err
		}
		defer res.Body.Close()

		buf, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		resp = &upstreamResponse{Status: res.StatusCode, Header: res.Header, Body: buf}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(t.delay), t.retries), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	return resp, nil
}
