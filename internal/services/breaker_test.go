package services_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	tu "github.com/desertthunder/flickx/internal/testing"
)

func TestBreakerTransport(t *testing.T) {
	cfg := shared.BreakerConfig{MaxFailures: 2, Timeout: time.Minute}

	t.Run("Opens After Consecutive Failures", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
		logger, logs := tu.NewTestLogger()
		bt := services.NewBreakerTransport(rt, cfg, logger)

		for range 2 {
			req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
			if _, err := bt.RoundTrip(req); err == nil {
				t.Fatal("expected transport error")
			}
		}

		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		_, err := bt.RoundTrip(req)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if rt.Calls() != 2 {
			t.Errorf("expected open circuit to skip the transport, got %d calls", rt.Calls())
		}
		if bt.State() != "open" {
			t.Errorf("expected open state, got %s", bt.State())
		}
		if !logs.Contains("circuit breaker state transition") {
			t.Error("expected state transition to be logged")
		}
	})

	t.Run("Server Errors Pass Through", func(t *testing.T) {
		resp := &http.Response{StatusCode: 503, Body: io.NopCloser(strings.NewReader("down")), Header: http.Header{}}
		bt := services.NewBreakerTransport(tu.NewMockRoundTripper(resp, nil), cfg, nil)

		req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
		got, err := bt.RoundTrip(req)
		if err != nil {
			t.Fatalf("expected response, got error %v", err)
		}
		if got.StatusCode != 503 {
			t.Errorf("expected 503, got %d", got.StatusCode)
		}
	})
}
