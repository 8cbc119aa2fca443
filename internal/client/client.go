package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"selfservice-kiosk/internal/domain"

	"github.com/sony/gobreaker/v2"
)

// Options tune a single logical send; zero values fall back to the
// client defaults.
type Options struct {
	Timeout time.Duration
	Retries int
}

type Response struct {
	Status int
	Body   []byte
}

type Doer interface {
	Send(ctx context.Context, method, url string, body interface{}, opts Options) (*Response, error)
}

// Resilient is the bounded-retry transport every component uses to
// reach the remote order/payment service. It retries network failures,
// timeouts and 5xx with a linear backoff, never retries 4xx, and trips
// a circuit breaker when the remote keeps failing at transport level.
type Resilient struct {
	httpClient     *http.Client
	breaker        *gobreaker.CircuitBreaker[*Response]
	defaultTimeout time.Duration
	defaultRetries int
	baseDelay      time.Duration
}

func NewResilient(timeout time.Duration, retries int, baseDelay time.Duration) *Resilient {
	return &Resilient{
		httpClient: &http.Client{},
		breaker: gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
			Name:    "remote-service",
			Timeout: 15 * time.Second,
		}),
		defaultTimeout: timeout,
		defaultRetries: retries,
		baseDelay:      baseDelay,
	}
}

func (c *Resilient) Send(ctx context.Context, method, url string, body interface{}, opts Options) (*Response, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = c.defaultTimeout
	}
	retries := opts.Retries
	if retries == 0 {
		retries = c.defaultRetries
	}

	var payload []byte
	if body != nil {
		var err error
		if raw, ok := body.(json.RawMessage); ok {
			payload = raw
		} else if payload, err = json.Marshal(body); err != nil {
			return nil, domain.NewSystemError(err)
		}
	}

	var lastErr *domain.Error
	for attempt := 1; attempt <= retries; attempt++ {
		resp, err := c.attempt(ctx, method, url, payload, timeout)
		if err != nil {
			if _, open := err.(*domain.Error); !open {
				err = domain.NewNetworkError(err)
			}
			lastErr = domain.Normalize(err)
		} else if resp.Status >= http.StatusInternalServerError {
			lastErr = domain.NewRemoteError(resp.Status, bodyMessage(resp.Body))
		} else if resp.Status >= http.StatusBadRequest {
			// Client errors are terminal, retrying cannot help.
			return nil, domain.NewRemoteError(resp.Status, bodyMessage(resp.Body))
		} else {
			return resp, nil
		}

		if attempt == retries {
			break
		}
		if err := c.wait(ctx, attempt); err != nil {
			return nil, domain.NewNetworkError(err)
		}
	}
	return nil, lastErr
}

func (c *Resilient) attempt(ctx context.Context, method, url string, payload []byte, timeout time.Duration) (*Response, error) {
	return c.breaker.Execute(func() (*Response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &Response{Status: resp.StatusCode, Body: body}, nil
	})
}

// wait sleeps attempt*baseDelay (linear backoff) unless the context is
// cancelled first.
func (c *Resilient) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * c.baseDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func bodyMessage(body []byte) string {
	var wrapper struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil {
		if wrapper.Error != "" {
			return wrapper.Error
		}
		if wrapper.Message != "" {
			return wrapper.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "remote service error"
	}
	return msg
}

var _ Doer = (*Resilient)(nil)
