// Package requester provides the outbound HTTP client shared by the Google
// and Notion clients.
package requester

import (
	"net/http"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single upstream call, including reading the body.
const DefaultTimeout = 30 * time.Second

// HTTPRequester owns the client used for every upstream call.
type HTTPRequester struct {
	client *http.Client
}

// NewHTTPRequester creates a new HTTPRequester with default configuration
func NewHTTPRequester() *HTTPRequester {
	return &HTTPRequester{
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: NewLoggingTransport(http.DefaultTransport),
		},
	}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// Client returns the shared client.
func (r *HTTPRequester) Client() *http.Client {
	return r.client
}

type loggingTransport struct {
	next http.RoundTripper
}

// NewLoggingTransport logs each round trip at debug level. Only method, host
// and path are recorded; query strings and headers may carry credentials.
func NewLoggingTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &loggingTransport{next: next}
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		logger.Debug("upstream request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	logger.Debug("upstream request", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
