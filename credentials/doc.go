// Package credentials owns the authentication lifecycle for a provider
// instance. It reconciles an environment-supplied API key with a persisted
// secret store and exposes the authenticate/set/reset operations the
// configuration surface drives.
//
// Key concepts:
//   - Store: the persistence boundary. An async key-value store keyed by the
//     provider's API URL. The manager is its only caller.
//   - Manager: the state machine. Unauthenticated -> Authenticating ->
//     Authenticated, with reset returning to Unauthenticated. Re-authenticating
//     while authenticated is a no-op success.
//   - Origin: whether the active secret came from the environment or the
//     store. Environment secrets are never persisted.
//
// Persistence inside Set and Reset is deliberately best-effort: write and
// delete failures are logged and swallowed so the local state (and the UI
// reading it) stays responsive. The trade-off is that a failed write can
// resurface ErrCredentialsNotFound after a restart.
package credentials
