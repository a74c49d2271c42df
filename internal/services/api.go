// API service for making raw HTTP requests to the movie backend
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/flickx/internal/shared"
	"golang.org/x/oauth2"
)

const defaultBackendURL string = "http://127.0.0.1:8000"

// APIService provides raw HTTP requests against the movie backend.
//
// Every request carries an X-Request-ID. Authenticated calls go through an [oauth2.Transport]
// built from a static bearer token.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	csrfCookie string
}

// NewAPIService creates a new API service instance for the movie backend.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBackendURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		csrfCookie: "csrftoken",
	}
}

// WithCSRFCookie sets the name of the cookie the anti-forgery token is read from.
func (a *APIService) WithCSRFCookie(name string) *APIService {
	if name != "" {
		a.csrfCookie = name
	}
	return a
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RejectedError is a non-2xx answer from the backend. It wraps [shared.ErrRequestRejected]
// and carries the server's message for display.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: status %d", shared.ErrRequestRejected, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", shared.ErrRequestRejected, e.StatusCode, e.Message)
}

func (e *RejectedError) Unwrap() error { return shared.ErrRequestRejected }

// Err converts a non-2xx response into an error. 401 maps to [shared.ErrNotAuthenticated];
// everything else becomes a [RejectedError].
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	if r.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, r.StatusCode)
	}
	return &RejectedError{StatusCode: r.StatusCode, Message: r.message()}
}

func (r *APIResponse) message() string {
	if data, ok := r.JSONData.(map[string]any); ok {
		for _, key := range []string{"error", "detail", "message", "Error"} {
			if s, ok := data[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return shared.Truncate(strings.TrimSpace(string(r.Body)), 200)
}

// Get performs a GET request to path with optional query parameters.
// A non-empty token is sent as a bearer credential.
func (a *APIService) Get(ctx context.Context, path string, query url.Values, token string) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return a.do(ctx, req, token)
}

// PostJSON performs a POST request with body encoded as JSON.
func (a *APIService) PostJSON(ctx context.Context, path string, body any, token string) (*APIResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return a.do(ctx, req, token)
}

// PostForm performs a form-encoded POST, echoing the anti-forgery token as both
// the csrfmiddlewaretoken field and the X-CSRFToken header.
func (a *APIService) PostForm(ctx context.Context, path string, form url.Values) (*APIResponse, error) {
	if form == nil {
		form = url.Values{}
	}

	csrf := a.CSRFToken(ctx)
	if csrf != "" {
		form.Set("csrfmiddlewaretoken", csrf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if csrf != "" {
		req.Header.Set("X-CSRFToken", csrf)
		req.Header.Set("Referer", a.baseURL+"/")
	}

	return a.do(ctx, req, "")
}

// CSRFToken returns the anti-forgery token from the client's cookie jar.
//
// When the jar has none yet, a GET on the backend root is made to obtain it.
// Returns "" when the client has no jar or the backend never sets the cookie.
func (a *APIService) CSRFToken(ctx context.Context) string {
	if a.httpClient.Jar == nil {
		return ""
	}
	if token := a.cookie(); token != "" {
		return token
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/", nil)
	if err != nil {
		return ""
	}
	if resp, err := a.do(ctx, req, ""); err != nil || resp == nil {
		return ""
	}
	return a.cookie()
}

func (a *APIService) cookie() string {
	u, err := url.Parse(a.baseURL + "/")
	if err != nil {
		return ""
	}
	for _, c := range a.httpClient.Jar.Cookies(u) {
		if c.Name == a.csrfCookie {
			return c.Value
		}
	}
	return ""
}

func (a *APIService) clientFor(ctx context.Context, token string) *http.Client {
	if token == "" {
		return a.httpClient
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), src)
	client.Timeout = a.httpClient.Timeout
	client.Jar = a.httpClient.Jar
	return client
}

func (a *APIService) do(ctx context.Context, req *http.Request, token string) (*APIResponse, error) {
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json, text/html;q=0.9")
	}

	resp, err := a.clientFor(ctx, token).Do(req)
	if err != nil {
		if errors.Is(err, shared.ErrServiceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
