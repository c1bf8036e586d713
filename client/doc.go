// Package client implements the browser-side half of the login flow as a
// testable Go facade: CSRF state token handling, the GitHub authorize URL
// builder, a small backend API client, and the login state machine that the
// UI layer drives.
//
// Browser primitives are injected: key-value storage (durable and
// session-scoped) through the KV interface, and full-page redirects through
// the Navigator interface, so the whole flow runs deterministically in tests.
package client
