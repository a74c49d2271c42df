// package services implements the HTTP clients flickx talks to:
// the movie backend ([CatalogService]) and the hosted auth provider ([GoTrueService]).
package services

import (
	"context"

	"github.com/desertthunder/flickx/internal/models"
)

// AuthEvent names a session transition reported by an [AuthProvider].
type AuthEvent string

const (
	SignedIn       AuthEvent = "SIGNED_IN"
	SignedOut      AuthEvent = "SIGNED_OUT"
	TokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	InitialSession AuthEvent = "INITIAL_SESSION"
)

// AuthChange is a provider-pushed session notification. Session is nil on sign-out.
type AuthChange struct {
	Event   AuthEvent
	Session *models.Session
}

// AuthProvider is the slice of an auth-as-a-service SDK the session controller consumes.
type AuthProvider interface {
	// GetSession returns the current session, refreshing it if it has expired. Nil means signed out.
	GetSession(ctx context.Context) (*models.Session, error)

	// SignUp registers an account. No session exists until the address is confirmed.
	SignUp(ctx context.Context, email, password string, profile models.Profile) error

	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)

	// SignOut revokes the session remotely and always forgets it locally.
	SignOut(ctx context.Context) error

	// OnAuthStateChange subscribes fn to session notifications and returns an unsubscribe func.
	OnAuthStateChange(fn func(AuthChange)) (unsubscribe func())
}

// SessionStore persists the provider session between runs.
type SessionStore interface {
	LoadSession() (*models.Session, error)
	SaveSession(s *models.Session) error
	ClearSession() error
	GetState(key string) (string, error)
	SetState(key, value string) error
	DeleteState(key string) error
}
