package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func buildGet(url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var waits []time.Duration
	c := NewClient(5*time.Second, RetryPolicy{
		MaxAttempts: 4,
		Backoff: func(attempt int) time.Duration {
			waits = append(waits, ExponentialBackoff(attempt))
			return time.Millisecond
		},
		Retryable: RetryOnTooManyRequests,
	})

	resp, err := c.Do(context.Background(), buildGet(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
	// The default schedule would have waited 2^0 then 2^1 seconds.
	if len(waits) != 2 || waits[0] != 1*time.Second || waits[1] != 2*time.Second {
		t.Errorf("backoff schedule = %v", waits)
	}
}

func TestDoSurfacesErrorAfterCeiling(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, RetryPolicy{
		MaxAttempts: 3,
		Backoff:     func(int) time.Duration { return time.Millisecond },
		Retryable:   RetryOnTooManyRequests,
	})

	_, err := c.Do(context.Background(), buildGet(srv.URL))
	if !errors.Is(err, ErrRetriesExceeded) {
		t.Fatalf("err = %v, want ErrRetriesExceeded", err)
	}
	if calls != 3 {
		t.Errorf("server saw %d calls, want 3", calls)
	}
}

func TestDoReturnsNonRetryableStatusAsIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, DefaultRetryPolicy())
	resp, err := c.Do(context.Background(), buildGet(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestDoHonorsContextDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, RetryPolicy{
		MaxAttempts: 4,
		Backoff:     func(int) time.Duration { return time.Minute },
		Retryable:   RetryOnTooManyRequests,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Do(ctx, buildGet(srv.URL))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}

func TestRetryAfterHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"seconds", "7", 7 * time.Second},
		{"absent", "", 0},
		{"unparsable", "soon", 0},
		{"negative", "-1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			if got := retryAfter(resp); got != tt.want {
				t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestExponentialBackoff(t *testing.T) {
	for attempt, want := range []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second} {
		if got := ExponentialBackoff(attempt); got != want {
			t.Errorf("ExponentialBackoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}
