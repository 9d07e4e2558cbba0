package transport

import (
	"errors"
	"fmt"
)

// ErrRetryable marks request failures worth retrying: network errors,
// timeouts, 5xx responses and 429 throttling.
var ErrRetryable = errors.New("retryable request error")

// InvalidResponseError reports a provider response that could not be
// interpreted. The raw body is kept (truncated) so a payload inconsistency
// can be diagnosed.
type InvalidResponseError struct {
	Provider   string
	Endpoint   string
	StatusCode int
	Body       []byte
}

const maxReportedBody = 512

func (e *InvalidResponseError) Error() string {
	body := e.Body
	if len(body) > maxReportedBody {
		body = body[:maxReportedBody]
	}
	return fmt.Sprintf("invalid response from %s %s (status %d): %s",
		e.Provider, e.Endpoint, e.StatusCode, body)
}
