package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// CallbackPath is the redirect target registered at sign-up.
const CallbackPath = "/callback"

// CodeExchanger trades a confirmation code for a session.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*models.Session, error)
}

// CallbackResult is the outcome of a confirmation redirect.
type CallbackResult struct {
	Session *models.Session
	err     error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler serves [CallbackPath] and exchanges the code once.
type CallbackHandler struct {
	exchanger   CodeExchanger
	timeout     time.Duration
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler that exchanges codes through exchanger.
func NewCallbackHandler(exchanger CodeExchanger) *CallbackHandler {
	return &CallbackHandler{
		exchanger:  exchanger,
		timeout:    15 * time.Second,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes implements [Handler].
func (h *CallbackHandler) Routes() []string {
	return []string{CallbackPath}
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #141414; }
        .container { text-align: center; background: #1f1f1f; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #bbb; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type page struct {
	Title, Message, Color string
}

func writePage(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTmpl.Execute(w, p)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writePage(w, status, page{Title: "Confirmation Failed", Message: msg, Color: "#e50914"})
}

// ServeHTTP handles the confirmation redirect.
//
// The provider appends either ?code=... or ?error=...&error_description=....
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		writeFailure(w, http.StatusBadRequest, "This confirmation link was already used.")
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		desc := q.Get("error_description")
		if desc == "" {
			desc = "missing confirmation code"
		}
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, q.Get("error"), desc)
		h.Send(CallbackResult{err: err})
		writeFailure(w, http.StatusBadRequest, desc)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		h.Send(CallbackResult{err: fmt.Errorf("code exchange failed: %w", err)})
		writeFailure(w, http.StatusBadGateway, err.Error())
		return
	}

	h.Send(CallbackResult{Session: session})
	writePage(w, http.StatusOK, page{
		Title:   "✓ Email Confirmed",
		Message: "Signed in as " + session.Email + ". You can close this window and return to the terminal.",
		Color:   "#46d369",
	})
}

// Send delivers result on [CallbackHandler.Result] (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns a channel that receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
