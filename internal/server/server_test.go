package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	tu "github.com/desertthunder/flickx/internal/testing"
)

type fakeExchanger struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeExchanger) ExchangeCode(_ context.Context, code string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	if f.err != nil {
		return nil, f.err
	}
	return tu.SessionFor("new@example.com"), nil
}

func (f *fakeExchanger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.codes)
}

func receive(t *testing.T, h *CallbackHandler) CallbackResult {
	t.Helper()
	select {
	case r := <-h.Result():
		return r
	case <-time.After(time.Second):
		t.Fatal("expected a callback result")
		return CallbackResult{}
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Exchanges Code", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewCallbackHandler(ex)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "new@example.com") {
			t.Errorf("expected signed-in email in page, got %s", rec.Body.String())
		}

		result := receive(t, h)
		if result.Error() != nil || result.Session == nil || result.Session.Email != "new@example.com" {
			t.Errorf("unexpected result %+v", result)
		}
		if ex.codes[0] != "abc" {
			t.Errorf("expected code abc, got %v", ex.codes)
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewCallbackHandler(ex)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=Email+link+is+invalid", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Email link is invalid") {
			t.Errorf("expected provider description, got %s", rec.Body.String())
		}
		if err := receive(t, h).Error(); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if ex.calls() != 0 {
			t.Error("expected no exchange without a code")
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		h := NewCallbackHandler(&fakeExchanger{err: shared.ErrAuthFailed})

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if err := receive(t, h).Error(); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected wrapped ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Second Hit Rejected", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewCallbackHandler(ex)

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?code=abc", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=abc", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", rec.Code)
		}
		if ex.calls() != 1 {
			t.Errorf("expected one exchange, got %d", ex.calls())
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("Method Filter", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ok", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ok", nil))
		if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") != "GET" {
			t.Errorf("expected 405 with Allow GET, got %d %q", rec.Code, rec.Header().Get("Allow"))
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Request ID And Logging", func(t *testing.T) {
		logger, logs := tu.NewTestLogger()
		r := NewBasicRouter()
		r.Use(RequestID, Logging(logger))
		r.Handler(NewCallbackHandler(&fakeExchanger{}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?code=secret-code", nil))

		id := rec.Header().Get(RequestIDHeader)
		if id == "" {
			t.Fatal("expected a generated request id")
		}
		if !logs.Contains(id) || !logs.Contains("/callback") {
			t.Errorf("expected request line with id, got %q", logs.String())
		}
		if logs.Contains("secret-code") {
			t.Error("query string must not be logged")
		}

		req := httptest.NewRequest(http.MethodGet, "/callback", nil)
		req.Header.Set(RequestIDHeader, "given")
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Header().Get(RequestIDHeader) != "given" {
			t.Errorf("expected echoed id, got %q", rec.Header().Get(RequestIDHeader))
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("Cancelled", func(t *testing.T) {
		logger, _ := tu.NewTestLogger()
		ctx, cancel := context.WithCancel(context.Background())

		var ready string
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := Serve(ctx, &fakeExchanger{}, ServeOpts{
			Addr:   "127.0.0.1:0",
			Logger: logger,
			Ready:  func(u string) { ready = u },
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if ready != "http://127.0.0.1:0/callback" {
			t.Errorf("unexpected callback url %q", ready)
		}
	})

	t.Run("Times Out", func(t *testing.T) {
		logger, _ := tu.NewTestLogger()
		_, err := Serve(context.Background(), &fakeExchanger{}, ServeOpts{
			Addr:    "127.0.0.1:0",
			Timeout: 20 * time.Millisecond,
			Logger:  logger,
		})
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})
}
