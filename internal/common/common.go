package common

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"

	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

var (
	// HTTPClient is shared by every upstream client.
	HTTPClient = &http.Client{Timeout: 10 * time.Second}

	MaxRetries           uint64 = 3
	RetryInitialInterval        = 100 * time.Millisecond
	RetryMaxInterval            = 2 * time.Second

	breakersMu sync.Mutex
	breakers   = map[string]*gobreaker.CircuitBreaker[*http.Response]{}
)

// StatusError is the final non-2xx status returned by an upstream.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d", e.Code)
}

func breaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	breakersMu.Lock()
	defer breakersMu.Unlock()
	cb, ok := breakers[name]
	if !ok {
		cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
			},
		})
		breakers[name] = cb
	}
	return cb
}

// GetWithRetry executes req with exponential backoff behind a circuit breaker named after
// the upstream. Network errors, 429 and 5xx responses are retried; other non-2xx responses
// fail immediately. Every failure wraps types.ErrUpstreamUnavailable.
func GetWithRetry(req *http.Request, name string) (*http.Response, error) {
	cb := breaker(name)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = RetryInitialInterval
	bo.MaxInterval = RetryMaxInterval
	bo.MaxElapsedTime = 0

	var resp *http.Response
	operation := func() error {
		r, err := cb.Execute(func() (*http.Response, error) {
			r, err := HTTPClient.Do(req.Clone(req.Context()))
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				r.Body.Close()
				return nil, &StatusError{Code: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		if r.StatusCode < 200 || r.StatusCode > 299 {
			r.Body.Close()
			return backoff.Permanent(&StatusError{Code: r.StatusCode})
		}
		resp = r
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, MaxRetries), req.Context()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s request failed: %w", t.ErrUpstreamUnavailable, name, err)
	}
	return resp, nil
}
