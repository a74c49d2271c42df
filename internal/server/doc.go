// Package server runs the short-lived local HTTP server that finishes an email-confirmation
// sign-up.
//
// # Router
//
// The [Router] interface registers handlers and [Middleware]. [BasicRouter] implements it on
// top of [http.ServeMux] with method filtering. Middleware wraps in reverse order, so the first
// one added runs first.
//
// # Confirmation Callback
//
// Sign-up attaches a PKCE challenge and a redirect to http://{server.host}:{server.port}/callback.
// [CallbackHandler] receives that redirect, trades the `code` query parameter for a session
// through a [CodeExchanger], and reports the outcome once on [CallbackHandler.Result]. Later
// hits are rejected so a reused link cannot replay the exchange.
//
// [Serve] starts the server, waits for the first result, and shuts it down.
package server
