// Package transport is the HTTP request layer shared by all provider
// adapters: request construction, retry with backoff, HMAC signing, and the
// metrics and logging around each call. Adapters own their endpoints and
// payload layouts; the transport owns how requests are made.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/bryzgaloff/crypto-apis/internal/logging"
	"github.com/bryzgaloff/crypto-apis/internal/metrics"
)

const (
	DefaultTimeout = 10 * time.Second
	RequestTimeout = 3 * time.Second
	MaxAttempts    = 3
	BaseBackoff    = 100 * time.Millisecond
	MaxBackoff     = 2 * time.Second
)

// Client issues requests against one provider's API.
type Client struct {
	provider   string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a transport client for the provider named by name,
// rooted at baseURL.
func NewClient(name, baseURL string) *Client {
	return &Client{
		provider: name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewClientWithHTTPClient builds a transport client around an existing
// http.Client (used by tests and callers with custom timeouts).
func NewClientWithHTTPClient(name, baseURL string, httpClient *http.Client) *Client {
	return &Client{
		provider:   name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Provider returns the provider name this client reports in logs and
// metrics.
func (c *Client) Provider() string {
	return c.provider
}

// Request performs an HTTP request against the given endpoint and returns
// the raw response body. GET params go to the query string, POST params to a
// form body. Retryable failures are retried with exponential backoff; the
// response body is returned as-is for the adapter to decode.
func (c *Client) Request(ctx context.Context, method, endpoint string, params url.Values, headers http.Header) ([]byte, error) {
	var body []byte

	retryErr := retry.Do(
		func() error {
			reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
			defer cancel()

			respBody, err := c.doRequest(reqCtx, method, endpoint, params, headers)
			if err != nil {
				return err
			}
			body = respBody
			return nil
		},
		retry.Attempts(MaxAttempts),
		retry.Delay(BaseBackoff),
		retry.MaxDelay(MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrRetryable)
		}),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			metrics.RecordProviderRetry(c.provider, endpoint)
			logging.FromContext(ctx, "transport").WithFields(map[string]any{
				"provider": c.provider,
				"endpoint": endpoint,
				"attempt":  attempt + 1,
				"error":    err.Error(),
			}).Warn("retrying provider request")
		}),
	)
	if retryErr != nil {
		return nil, fmt.Errorf("%s %s request failed: %w", c.provider, endpoint, retryErr)
	}
	return body, nil
}

// RequestJSON performs Request and decodes the JSON body into out. A body
// that does not decode is an *InvalidResponseError carrying the raw payload.
func (c *Client) RequestJSON(ctx context.Context, method, endpoint string, params url.Values, headers http.Header, out any) error {
	body, err := c.Request(ctx, method, endpoint, params, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &InvalidResponseError{
			Provider: c.provider,
			Endpoint: endpoint,
			Body:     body,
		}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, headers http.Header) ([]byte, error) {
	requestURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	var reqBody io.Reader
	if method == http.MethodPost {
		if params != nil {
			reqBody = strings.NewReader(params.Encode())
		}
	} else if len(params) > 0 {
		separator := "?"
		if strings.Contains(requestURL, "?") {
			separator = "&"
		}
		requestURL += separator + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for key, values := range headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordProviderRequest(c.provider, endpoint, 0, duration)
		logging.FromContext(ctx, "transport").WithFields(map[string]any{
			"provider":    c.provider,
			"endpoint":    endpoint,
			"duration_ms": float64(duration.Nanoseconds()) / 1e6,
			"error":       err.Error(),
		}).Error("provider request failed")
		return nil, fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordProviderRequest(c.provider, endpoint, resp.StatusCode, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrRetryable, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: HTTP %d from %s %s", ErrRetryable, resp.StatusCode, c.provider, endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &InvalidResponseError{
			Provider:   c.provider,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}
	return body, nil
}
