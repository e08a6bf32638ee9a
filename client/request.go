package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// sleepFunc is the backoff sleep, swapped in tests to avoid real delays.
var sleepFunc = sleepContext

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDelay returns the wait after the given 1-based failed attempt:
// 2s after the first, 4s after the second.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

type reqOpts struct {
	maxAttempts  int
	allowRefresh bool
}

func defaultReqOpts() reqOpts {
	return reqOpts{maxAttempts: defaultMaxAttempts, allowRefresh: true}
}

// endpointURL builds the canonical trailing-slash URL for an API endpoint.
func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + "/" + strings.Trim(endpoint, "/") + "/"
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, c.endpointURL(endpoint), nil, out, defaultReqOpts())
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, c.endpointURL(endpoint), body, out, defaultReqOpts())
}

func (c *Client) patch(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPatch, c.endpointURL(endpoint), body, out, defaultReqOpts())
}

func (c *Client) delete(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodDelete, c.endpointURL(endpoint), nil, nil, defaultReqOpts())
}

// do performs one API call. Transport-level failures are retried up to the
// attempt budget with 2^attempt-seconds backoff; HTTP error statuses are
// mapped to the client's error kinds without retrying, except that a 401
// triggers one token refresh and replay when the options allow it.
func (c *Client) do(ctx context.Context, method, url string, body, out any, opts reqOpts) error {
	if opts.maxAttempts <= 0 {
		opts.maxAttempts = defaultMaxAttempts
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = b
	}

	var lastErr error
	for attempt := 1; attempt <= opts.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build request for %s: %w", url, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		requestID := uuid.NewString()
		req.Header.Set("X-Request-ID", requestID)

		c.logger.Debug("api request",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("attempt", attempt))

		respBody, status, err := c.send(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("network error, retrying",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", opts.maxAttempts),
				slog.String("error", err.Error()))
			if attempt < opts.maxAttempts {
				if serr := sleepFunc(ctx, backoffDelay(attempt)); serr != nil {
					return serr
				}
			}
			continue
		}

		c.logger.Debug("api response",
			slog.String("request_id", requestID),
			slog.Int("status", status))

		switch {
		case status >= 200 && status < 300:
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return fmt.Errorf("failed to decode response from %s: %w", url, err)
				}
			}
			return nil

		case status == http.StatusUnauthorized && opts.allowRefresh:
			// One refresh, then replay once. The replay reports its own
			// permission error if the refresh did not help.
			c.Refresh(ctx)
			retry := opts
			retry.allowRefresh = false
			return c.do(ctx, method, url, body, out, retry)

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return &PermissionError{URL: url, StatusCode: status}

		case status >= 500:
			return &NetworkError{URL: url, StatusCode: status}

		default:
			return &APIError{URL: url, StatusCode: status, Body: string(respBody)}
		}
	}

	return &NetworkError{URL: url, Attempts: opts.maxAttempts, Err: lastErr}
}

// send runs one HTTP round trip and drains the body. A body read failure is
// reported like any other transport error so the caller's retry loop
// handles it.
func (c *Client) send(req *http.Request) ([]byte, int, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
