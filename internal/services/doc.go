// Package services implements the HTTP clients flickx depends on: the movie backend and the hosted auth provider.
//
// # Movie Backend
//
// [APIService] performs raw requests against the same-origin backend. Each request carries an
// X-Request-ID. A bearer token, when given, is attached through an [oauth2.StaticTokenSource].
// Form posts echo the anti-forgery cookie as the csrfmiddlewaretoken field and the X-CSRFToken header.
//
// [CatalogService] maps the backend routes onto typed calls: title search, title lookup, trending
// and recent fragments, mood recommendations, details with streaming links, personal
// recommendations, interaction tracking and feedback. The backend proxies the metadata API so no
// third-party key is held client-side.
//
// [BreakerTransport] wraps the transport in a circuit breaker so a failing backend fails fast.
//
// # Auth Provider
//
// [GoTrueService] implements [AuthProvider] over the GoTrue HTTP API (password sign-in, sign-up
// with a PKCE challenge, refresh, logout, code exchange). Sessions persist through a [SessionStore];
// [MemoryStore] keeps them for the life of the process.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : the backend answered 401
//   - [shared.ErrRequestRejected] : any other non-2xx answer, via [RejectedError]
//   - [shared.ErrServiceUnavailable] : the circuit breaker is open
//   - [shared.ErrMovieNotFound] : a title or id lookup came back empty
//   - [shared.ErrAuthFailed] : the auth provider refused, via [AuthError] carrying its message verbatim
package services
