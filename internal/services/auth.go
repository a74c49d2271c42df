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
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// pkceVerifierKey is the auth_state key the sign-up code verifier is kept under.
const pkceVerifierKey = "pkce_verifier"

// AuthError is a failed call to the auth provider. Message is the provider's own text.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return shared.ErrAuthFailed }

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// TokenClaims are the access token claims flickx reads. The signature is not verified
// client-side; the backend verifies every bearer it receives.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// ParseTokenClaims decodes the claims of a JWT access token without verifying it.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: malformed access token: %v", shared.ErrInvalidInput, err)
	}
	return claims, nil
}

// session builds a [models.Session], filling gaps from the token claims.
func (t tokenResponse) session(now time.Time) (*models.Session, error) {
	s := &models.Session{
		UserID:       t.User.ID,
		Email:        t.User.Email,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}

	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}

	if s.UserID == "" || s.Email == "" || s.ExpiresAt.IsZero() {
		if claims, err := ParseTokenClaims(t.AccessToken); err == nil {
			if s.UserID == "" {
				s.UserID = claims.Subject
			}
			if s.Email == "" {
				s.Email = claims.Email
			}
			if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
				s.ExpiresAt = claims.ExpiresAt.Time
			}
		}
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return s, nil
}

// GoTrueService implements [AuthProvider] against a GoTrue (Supabase Auth) HTTP API.
//
// The current session is persisted through a [SessionStore] so CLI invocations share it.
// Subscribers are notified outside the service lock.
type GoTrueService struct {
	baseURL     string
	anonKey     string
	redirectURI string
	httpClient  *http.Client
	store       SessionStore
	logger      *log.Logger
	now         func() time.Time

	mu      sync.Mutex
	session *models.Session
	loaded  bool

	subMu   sync.Mutex
	subs    map[int]func(AuthChange)
	nextSub int
}

// NewGoTrueService creates an auth provider. A nil store keeps the session in memory only.
func NewGoTrueService(cfg shared.AuthConfig, client *http.Client, store SessionStore, logger *log.Logger) *GoTrueService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &GoTrueService{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		anonKey:     cfg.AnonKey,
		redirectURI: cfg.RedirectURI,
		httpClient:  client,
		store:       store,
		logger:      shared.WithLogger(logger, "component", "auth"),
		now:         time.Now,
		subs:        make(map[int]func(AuthChange)),
	}
}

// GetSession implements [AuthProvider]. An expired session is refreshed; if that fails the
// session is dropped and subscribers see [SignedOut].
func (g *GoTrueService) GetSession(ctx context.Context) (*models.Session, error) {
	g.mu.Lock()
	if !g.loaded {
		s, err := g.store.LoadSession()
		if err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
			g.mu.Unlock()
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		g.session, g.loaded = s, true
	}
	current := g.session
	g.mu.Unlock()

	if current == nil || !current.Expired(g.now()) {
		return current, nil
	}

	refreshed, err := g.refresh(ctx, current.RefreshToken)
	if err != nil {
		g.logger.Warn("session refresh failed, signing out", "user", current.Email, "error", err)
		g.clear()
		g.notify(AuthChange{Event: SignedOut})
		return nil, nil
	}

	g.install(refreshed)
	g.notify(AuthChange{Event: TokenRefreshed, Session: refreshed})
	return refreshed, nil
}

func (g *GoTrueService) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	var tok tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := g.post(ctx, "/auth/v1/token", url.Values{"grant_type": {"refresh_token"}}, body, "", &tok); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	return tok.session(g.now())
}

// SignUp implements [AuthProvider]. A PKCE challenge is attached so the confirmation link
// can be exchanged for a session by [GoTrueService.ExchangeCode].
func (g *GoTrueService) SignUp(ctx context.Context, email, password string, profile models.Profile) error {
	verifier := oauth2.GenerateVerifier()
	if err := g.store.SetState(pkceVerifierKey, verifier); err != nil {
		return fmt.Errorf("failed to store code verifier: %w", err)
	}

	body := map[string]any{
		"email":                 email,
		"password":              password,
		"data":                  profile,
		"code_challenge":        oauth2.S256ChallengeFromVerifier(verifier),
		"code_challenge_method": "s256",
	}

	var query url.Values
	if g.redirectURI != "" {
		query = url.Values{"redirect_to": {g.redirectURI}}
	}

	if err := g.post(ctx, "/auth/v1/signup", query, body, "", nil); err != nil {
		return err
	}

	g.logger.Info("sign-up accepted, awaiting confirmation", "email", email)
	return nil
}

// SignInWithPassword implements [AuthProvider].
func (g *GoTrueService) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var tok tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := g.post(ctx, "/auth/v1/token", url.Values{"grant_type": {"password"}}, body, "", &tok); err != nil {
		return nil, err
	}

	s, err := tok.session(g.now())
	if err != nil {
		return nil, err
	}

	g.install(s)
	g.notify(AuthChange{Event: SignedIn, Session: s})
	return s, nil
}

// ExchangeCode trades the code from an email confirmation redirect for a session.
func (g *GoTrueService) ExchangeCode(ctx context.Context, code string) (*models.Session, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: authorization code is required", shared.ErrMissingArgument)
	}

	verifier, err := g.store.GetState(pkceVerifierKey)
	if err != nil || verifier == "" {
		return nil, fmt.Errorf("%w: no pending sign-up on this machine", shared.ErrAuthFailed)
	}

	var tok tokenResponse
	body := map[string]string{"auth_code": code, "code_verifier": verifier}
	if err := g.post(ctx, "/auth/v1/token", url.Values{"grant_type": {"pkce"}}, body, "", &tok); err != nil {
		return nil, err
	}

	s, err := tok.session(g.now())
	if err != nil {
		return nil, err
	}

	if err := g.store.DeleteState(pkceVerifierKey); err != nil {
		g.logger.Warn("failed to delete code verifier", "error", err)
	}

	g.install(s)
	g.notify(AuthChange{Event: SignedIn, Session: s})
	return s, nil
}

// SignOut implements [AuthProvider]. The local session is always forgotten; the remote error,
// if any, is returned for the caller to log.
func (g *GoTrueService) SignOut(ctx context.Context) error {
	g.mu.Lock()
	current := g.session
	g.mu.Unlock()

	var remoteErr error
	if current != nil {
		remoteErr = g.post(ctx, "/auth/v1/logout", nil, nil, current.AccessToken, nil)
	}

	g.clear()
	g.notify(AuthChange{Event: SignedOut})
	return remoteErr
}

// OnAuthStateChange implements [AuthProvider].
func (g *GoTrueService) OnAuthStateChange(fn func(AuthChange)) func() {
	g.subMu.Lock()
	defer g.subMu.Unlock()

	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn

	return func() {
		g.subMu.Lock()
		defer g.subMu.Unlock()
		delete(g.subs, id)
	}
}

func (g *GoTrueService) install(s *models.Session) {
	g.mu.Lock()
	g.session, g.loaded = s, true
	g.mu.Unlock()

	if err := g.store.SaveSession(s); err != nil {
		g.logger.Warn("failed to persist session", "error", err)
	}
}

func (g *GoTrueService) clear() {
	g.mu.Lock()
	g.session, g.loaded = nil, true
	g.mu.Unlock()

	if err := g.store.ClearSession(); err != nil {
		g.logger.Warn("failed to clear persisted session", "error", err)
	}
}

func (g *GoTrueService) notify(change AuthChange) {
	g.subMu.Lock()
	fns := make([]func(AuthChange), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.subMu.Unlock()

	g.logger.Debug("auth state change", "event", change.Event, "subscribers", len(fns))
	for _, fn := range fns {
		fn(change)
	}
}

// post sends a JSON request to the provider and decodes a 2xx body into out (when non-nil).
func (g *GoTrueService) post(ctx context.Context, path string, query url.Values, body any, token string, out any) error {
	if g.baseURL == "" || g.anonKey == "" {
		return fmt.Errorf("%w: auth.url and auth.anon_key are required", shared.ErrMissingCredentials)
	}

	fullURL := g.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", shared.GenerateID())

	client := g.httpClient
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		client = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, g.httpClient), src)
		client.Timeout = g.httpClient.Timeout
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &AuthError{Status: resp.StatusCode, Message: authMessage(resp.StatusCode, data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// authMessage extracts the provider's human-readable error text.
func authMessage(status int, body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"msg", "error_description", "message", "error"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return shared.Truncate(text, 200)
	}
	return http.StatusText(status)
}
