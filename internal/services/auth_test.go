package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

func signedToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "email": email, "exp": exp.Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

type eventLog struct {
	mu     sync.Mutex
	events []services.AuthChange
}

func (l *eventLog) record(c services.AuthChange) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, c)
}

func (l *eventLog) last() (services.AuthChange, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return services.AuthChange{}, 0
	}
	return l.events[len(l.events)-1], len(l.events)
}

func newGoTrue(t *testing.T, h http.HandlerFunc, store services.SessionStore) (*services.GoTrueService, *eventLog) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	cfg := shared.AuthConfig{URL: server.URL, AnonKey: "anon", RedirectURI: "http://localhost:3000/callback"}
	g := services.NewGoTrueService(cfg, nil, store, nil)
	events := &eventLog{}
	g.OnAuthStateChange(events.record)
	return g, events
}

func TestGoTrueService(t *testing.T) {
	ctx := context.Background()

	t.Run("SignInWithPassword", func(t *testing.T) {
		t.Run("Installs, Persists and Notifies", func(t *testing.T) {
			store := services.NewMemoryStore()
			g, events := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
					t.Errorf("unexpected request %s", r.URL)
				}
				if r.Header.Get("apikey") != "anon" {
					t.Errorf("expected apikey header, got %q", r.Header.Get("apikey"))
				}
				writeJSON(w, 200, map[string]any{
					"access_token": "at", "refresh_token": "rt", "expires_in": 3600,
					"user": map[string]string{"id": "u1", "email": "a@b.c"},
				})
			}, store)

			s, err := g.SignInWithPassword(ctx, "a@b.c", "pw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if s.UserID != "u1" || s.AccessToken != "at" || s.ExpiresAt.IsZero() {
				t.Errorf("unexpected session %+v", s)
			}

			if ev, n := events.last(); n != 1 || ev.Event != services.SignedIn {
				t.Errorf("expected one SIGNED_IN event, got %d (%v)", n, ev.Event)
			}

			persisted, err := store.LoadSession()
			if err != nil || persisted.AccessToken != "at" {
				t.Errorf("expected persisted session, got %+v, %v", persisted, err)
			}
		})

		t.Run("Provider Message Is Verbatim", func(t *testing.T) {
			g, events := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 400, map[string]string{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			}, nil)

			_, err := g.SignInWithPassword(ctx, "a@b.c", "wrong")
			var authErr *services.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %T %v", err, err)
			}
			if authErr.Error() != "Invalid login credentials" || authErr.Status != 400 {
				t.Errorf("unexpected auth error %+v", authErr)
			}
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Error("expected AuthError to wrap ErrAuthFailed")
			}
			if _, n := events.last(); n != 0 {
				t.Errorf("expected no events, got %d", n)
			}
		})

		t.Run("Fills Identity From Token Claims", func(t *testing.T) {
			exp := time.Now().Add(time.Hour).Truncate(time.Second)
			access := signedToken(t, "sub-9", "claims@b.c", exp)
			g, _ := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, map[string]any{"access_token": access})
			}, nil)

			s, err := g.SignInWithPassword(ctx, "claims@b.c", "pw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if s.UserID != "sub-9" || s.Email != "claims@b.c" || !s.ExpiresAt.Equal(exp) {
				t.Errorf("unexpected session %+v", s)
			}
		})
	})

	t.Run("GetSession", func(t *testing.T) {
		t.Run("Loads Persisted Session", func(t *testing.T) {
			store := services.NewMemoryStore()
			store.SaveSession(&models.Session{UserID: "u1", AccessToken: "at", ExpiresAt: time.Now().Add(time.Hour)})
			g, _ := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
				t.Errorf("unexpected request %s", r.URL)
			}, store)

			s, err := g.GetSession(ctx)
			if err != nil || s == nil || s.UserID != "u1" {
				t.Errorf("expected persisted session, got %+v, %v", s, err)
			}
		})

		t.Run("Signed Out When Empty", func(t *testing.T) {
			g, _ := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
			s, err := g.GetSession(ctx)
			if err != nil || s != nil {
				t.Errorf("expected nil session, got %+v, %v", s, err)
			}
		})

		t.Run("Refreshes Expired Session", func(t *testing.T) {
			store := services.NewMemoryStore()
			store.SaveSession(&models.Session{UserID: "u1", AccessToken: "old", RefreshToken: "rt", ExpiresAt: time.Now().Add(-time.Minute)})
			g, events := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("grant_type") != "refresh_token" {
					t.Errorf("expected refresh grant, got %s", r.URL)
				}
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["refresh_token"] != "rt" {
					t.Errorf("expected refresh token rt, got %v", body)
				}
				writeJSON(w, 200, map[string]any{
					"access_token": "new", "refresh_token": "rt2", "expires_in": 3600,
					"user": map[string]string{"id": "u1", "email": "a@b.c"},
				})
			}, store)

			s, err := g.GetSession(ctx)
			if err != nil || s == nil || s.AccessToken != "new" {
				t.Fatalf("expected refreshed session, got %+v, %v", s, err)
			}
			if ev, _ := events.last(); ev.Event != services.TokenRefreshed {
				t.Errorf("expected TOKEN_REFRESHED, got %v", ev.Event)
			}
		})

		t.Run("Failed Refresh Signs Out", func(t *testing.T) {
			store := services.NewMemoryStore()
			store.SaveSession(&models.Session{UserID: "u1", AccessToken: "old", RefreshToken: "rt", ExpiresAt: time.Now().Add(-time.Minute)})
			g, events := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 400, map[string]string{"msg": "Invalid Refresh Token"})
			}, store)

			s, err := g.GetSession(ctx)
			if err != nil || s != nil {
				t.Fatalf("expected signed out, got %+v, %v", s, err)
			}
			if ev, _ := events.last(); ev.Event != services.SignedOut {
				t.Errorf("expected SIGNED_OUT, got %v", ev.Event)
			}
			if _, err := store.LoadSession(); !errors.Is(err, shared.ErrSessionNotFound) {
				t.Errorf("expected store to be cleared, got %v", err)
			}
		})
	})

	t.Run("SignUp And ExchangeCode", func(t *testing.T) {
		store := services.NewMemoryStore()
		var challenge string
		g, events := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)

			switch r.URL.Path {
			case "/auth/v1/signup":
				if r.URL.Query().Get("redirect_to") != "http://localhost:3000/callback" {
					t.Errorf("expected redirect_to, got %s", r.URL.RawQuery)
				}
				data, _ := body["data"].(map[string]any)
				if data["full_name"] != "Ada Lovelace" || data["username"] != "ada" {
					t.Errorf("unexpected profile %v", body["data"])
				}
				if body["code_challenge_method"] != "s256" {
					t.Errorf("expected s256, got %v", body["code_challenge_method"])
				}
				challenge, _ = body["code_challenge"].(string)
				writeJSON(w, 200, map[string]any{"id": "u1"})
			case "/auth/v1/token":
				if r.URL.Query().Get("grant_type") != "pkce" {
					t.Errorf("expected pkce grant, got %s", r.URL)
				}
				verifier, _ := body["code_verifier"].(string)
				if oauth2.S256ChallengeFromVerifier(verifier) != challenge {
					t.Error("code verifier does not match the sign-up challenge")
				}
				if body["auth_code"] != "code-1" {
					t.Errorf("expected auth_code code-1, got %v", body["auth_code"])
				}
				writeJSON(w, 200, map[string]any{"access_token": "at", "expires_in": 3600, "user": map[string]string{"id": "u1", "email": "ada@b.c"}})
			}
		}, store)

		if err := g.SignUp(ctx, "ada@b.c", "pw", models.Profile{FullName: "Ada Lovelace", Username: "ada"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, n := events.last(); n != 0 {
			t.Errorf("sign-up must not create a session, got %d events", n)
		}

		s, err := g.ExchangeCode(ctx, "code-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Email != "ada@b.c" {
			t.Errorf("unexpected session %+v", s)
		}
		if v, _ := store.GetState("pkce_verifier"); v != "" {
			t.Error("expected verifier to be deleted after exchange")
		}
		if _, err := g.ExchangeCode(ctx, "code-1"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected second exchange to fail, got %v", err)
		}
	})

	t.Run("SignOut Clears Even When Remote Fails", func(t *testing.T) {
		store := services.NewMemoryStore()
		store.SaveSession(&models.Session{UserID: "u1", AccessToken: "at"})
		g, events := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer at" {
				t.Errorf("expected bearer on logout, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusInternalServerError)
		}, store)

		if _, err := g.GetSession(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if err := g.SignOut(ctx); err == nil {
			t.Error("expected remote error to be returned")
		}
		if s, _ := g.GetSession(ctx); s != nil {
			t.Errorf("expected no session, got %+v", s)
		}
		if ev, _ := events.last(); ev.Event != services.SignedOut {
			t.Errorf("expected SIGNED_OUT, got %v", ev.Event)
		}
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		g := services.NewGoTrueService(shared.AuthConfig{}, nil, nil, nil)
		if _, err := g.SignInWithPassword(ctx, "a", "b"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		g, _ := newGoTrue(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
		var calls int
		unsubscribe := g.OnAuthStateChange(func(services.AuthChange) { calls++ })
		unsubscribe()
		g.SignOut(ctx)
		if calls != 0 {
			t.Errorf("expected no calls after unsubscribe, got %d", calls)
		}
	})
}

func TestParseTokenClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	claims, err := services.ParseTokenClaims(signedToken(t, "s1", "e@x.y", exp))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if claims.Subject != "s1" || claims.Email != "e@x.y" {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := services.ParseTokenClaims("not-a-jwt"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
