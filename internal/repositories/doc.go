// Package repositories implements SQLite persistence for client-side state.
//
// Key Implementations:
//   - [SessionRepository] : the single live auth session (row id = 1) and pending auth-flow state such as the PKCE verifier
//
// Interaction records are sent to the backend and never stored here.
package repositories
