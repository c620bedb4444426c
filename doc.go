// Package authcore implements the credential and session lifecycle engine
// for a multi-factor authentication service: password sign-in, stateless
// JWT access/refresh token issuance with watermark-based revocation, TOTP
// enrollment and validation with single-use backup codes, and short-lived
// one-time codes for password reset and email verification.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], sentinel errors, and the value types exchanged with callers.
// Supporting mechanics live in subpackages: token signing in
// [github.com/authcore-io/authcore/token], password policy and hashing in
// [github.com/authcore-io/authcore/password], TOTP code handling in
// [github.com/authcore-io/authcore/totp], and reference credential-store
// adapters under store/.
//
// # Architecture boundaries
//
// The engine owns no transport and no storage. Callers inject a
// [CredentialStore] (key-value record access plus an email secondary
// index) and a [NotificationSink] (outbound email enqueue) through the
// [Builder]. HTTP routing, request parsing, storage internals, and mail
// delivery are collaborator concerns; the engine maps every failure to
// one of five kinds ([KindValidation], [KindUnauthorized], [KindNotFound],
// [KindConflict], [KindInternal]) so a thin transport adapter can
// translate them to status codes with [HTTPStatus].
//
// # Revocation model
//
// Tokens are self-contained and cannot be revoked by signature alone.
// Each credential record carries an issued-at floor; sign-out, password
// changes, password-reset confirmation, and TOTP activation or removal
// raise the floor, which invalidates every token minted before it. Every
// protected operation therefore performs one store read. There is no
// per-token blacklist.
//
// Engine methods are safe for concurrent use after [Builder.Build]. All
// cross-request coordination happens through the credential store.
package authcore
