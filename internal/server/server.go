package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// RequestIDHeader carries the per-request id set by [RequestID].
const RequestIDHeader = "X-Request-ID"

// RequestID echoes the caller's X-Request-ID, or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = shared.GenerateID()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs one line per request. Query strings are left out since they carry auth codes.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"request_id", r.Header.Get(RequestIDHeader),
			)
		})
	}
}

// ServeOpts configures [Serve].
type ServeOpts struct {
	Addr    string
	Timeout time.Duration
	Logger  *log.Logger
	// Ready, when set, is called once the listener goroutine has started.
	Ready func(callbackURL string)
}

// Serve runs a callback server on opts.Addr until the first confirmation arrives, the timeout
// elapses, or ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, exchanger CodeExchanger, opts ServeOpts) (*models.Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	handler := NewCallbackHandler(exchanger)
	router := NewBasicRouter()
	router.Use(RequestID, Logging(opts.Logger))
	router.Handler(handler)

	srv := &http.Server{Addr: opts.Addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		opts.Logger.Info("starting callback server", "addr", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	if opts.Ready != nil {
		opts.Ready(fmt.Sprintf("http://%s%s", opts.Addr, CallbackPath))
	}

	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	var result CallbackResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		result = CallbackResult{err: fmt.Errorf("%w: no confirmation after %s", shared.ErrTimeout, opts.Timeout)}
	case <-ctx.Done():
		result = CallbackResult{err: ctx.Err()}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		opts.Logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, result.Error()
	}
	return result.Session, nil
}
