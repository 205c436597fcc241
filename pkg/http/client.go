package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrRetriesExceeded is returned when a request keeps hitting a retryable
// status until the attempt ceiling is reached.
var ErrRetriesExceeded = errors.New("max retries exceeded")

// BackoffFunc returns the wait before retrying attempt n (0-based).
type BackoffFunc func(attempt int) time.Duration

// RetryPolicy controls transport-level retries. It applies uniformly to any
// verb: the request is rebuilt from its factory on every attempt so bodies
// can be replayed.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	Retryable   func(status int) bool
}

// ExponentialBackoff waits 2^attempt seconds.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// RetryOnTooManyRequests retries only when the remote signals rate limiting.
func RetryOnTooManyRequests(status int) bool {
	return status == http.StatusTooManyRequests
}

// DefaultRetryPolicy matches the remote API's rate-limit contract: up to 4
// attempts, waiting Retry-After when the server supplies it and 2^attempt
// seconds otherwise.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		Backoff:     ExponentialBackoff,
		Retryable:   RetryOnTooManyRequests,
	}
}

type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
}

func NewClient(timeout time.Duration, policy RetryPolicy) *Client {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.Backoff == nil {
		policy.Backoff = ExponentialBackoff
	}
	if policy.Retryable == nil {
		policy.Retryable = RetryOnTooManyRequests
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy: policy,
	}
}

// Do executes the request produced by build, retrying per the client's
// policy. Non-retryable responses are returned as-is, including error
// statuses; transport failures are returned immediately.
func (c *Client) Do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if !c.policy.Retryable(resp.StatusCode) {
			return resp, nil
		}

		wait := retryAfter(resp)
		if wait <= 0 {
			wait = c.policy.Backoff(attempt)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrRetriesExceeded, c.policy.MaxAttempts)
}

func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	})
}

// retryAfter reads a server-supplied retry interval in seconds. Zero means
// the header was absent or unparsable.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
