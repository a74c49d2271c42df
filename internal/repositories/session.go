package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// SessionRepository persists the auth session and pending auth-flow state in SQLite.
//
// It implements services.SessionStore.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// LoadSession returns the stored session or [shared.ErrSessionNotFound]
func (r *SessionRepository) LoadSession() (*models.Session, error) {
	query := `
		SELECT user_id, email, access_token, refresh_token, expires_at
		FROM auth_sessions
		WHERE id = 1
	`

	var (
		s         models.Session
		expiresAt sql.NullTime
	)

	err := r.db.QueryRow(query).Scan(&s.UserID, &s.Email, &s.AccessToken, &s.RefreshToken, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if expiresAt.Valid {
		s.ExpiresAt = expiresAt.Time
	}

	return &s, nil
}

// SaveSession replaces the stored session
func (r *SessionRepository) SaveSession(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var expiresAt sql.NullTime
	if !s.ExpiresAt.IsZero() {
		expiresAt = sql.NullTime{Time: s.ExpiresAt.UTC(), Valid: true}
	}

	query := `
		INSERT INTO auth_sessions (id, user_id, email, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, s.UserID, s.Email, s.AccessToken, s.RefreshToken, expiresAt, r.now())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// ClearSession removes the stored session. Clearing an empty store is not an error.
func (r *SessionRepository) ClearSession() error {
	if _, err := r.db.Exec("DELETE FROM auth_sessions"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// GetState returns the value stored under key, or "" when absent
func (r *SessionRepository) GetState(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM auth_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query auth state: %w", err)
	}
	return value, nil
}

// SetState stores value under key
func (r *SessionRepository) SetState(key, value string) error {
	query := `
		INSERT INTO auth_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, r.now()); err != nil {
		return fmt.Errorf("failed to store auth state: %w", err)
	}
	return nil
}

// DeleteState removes key
func (r *SessionRepository) DeleteState(key string) error {
	if _, err := r.db.Exec("DELETE FROM auth_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete auth state: %w", err)
	}
	return nil
}
