// Package login implements a GitHub "Sign in with GitHub" demo backend.
//
// The Server completes the OAuth authorization-code flow against an injected
// identity Provider, keeps sessions in an injected Store, and optionally
// falls back to a synthetic demo user when the live exchange fails so the
// login experience keeps working without real GitHub credentials. The
// Handler exposes the flow over a small JSON API:
//
//	GET  /api/health
//	POST /api/auth/github/callback
//	GET  /api/auth/user
//	POST /api/auth/logout
//
// The client package provides the matching browser-side facade: state token
// handling, the authorize URL builder, and the login state machine.
package login
