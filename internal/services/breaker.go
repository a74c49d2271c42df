package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/shared"
	gobreaker "github.com/sony/gobreaker/v2"
)

var errUpstream = errors.New("upstream server error")

// BreakerTransport is an [http.RoundTripper] guarded by a circuit breaker.
//
// Transport errors and 5xx responses count as failures. While the circuit is open,
// requests fail fast with [shared.ErrServiceUnavailable] so the UI leaves its loading state promptly.
type BreakerTransport struct {
	base http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

// NewBreakerTransport wraps base (http.DefaultTransport when nil).
func NewBreakerTransport(base http.RoundTripper, cfg shared.BreakerConfig, logger *log.Logger) *BreakerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state transition", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})

	return &BreakerTransport{base: base, cb: cb}
}

// RoundTrip implements [http.RoundTripper].
func (t *BreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.cb.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errUpstream
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, errUpstream):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	default:
		return resp, err
	}
}

// State exposes the breaker state for status output.
func (t *BreakerTransport) State() string {
	return t.cb.State().String()
}
