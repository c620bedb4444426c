package authcore

import (
	"errors"
	"net/http"

	"github.com/authcore-io/authcore/password"
)

// ErrPasswordPolicy re-exports the password strength sentinel so callers
// can classify policy failures without importing the subpackage.
var ErrPasswordPolicy = password.ErrPolicy

var (
	// ErrInvalidCredentials covers unknown email and wrong password at
	// sign-in. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid covers bad signature, wrong token kind, expiry, and
	// revocation by the issued-at floor.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEmailTaken rejects sign-up for an already registered email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrUserNotFound reports an unknown account where disclosure is
	// acceptable, such as a password-reset request.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordMismatch rejects a confirmation field that differs from
	// the password it is supposed to confirm.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordReuse rejects a new password equal to the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")

	// ErrTOTPInvalid rejects a code that is neither a live time-based
	// code nor an unused backup code.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrTOTPNotEnrolled reports TOTP operations against an account that
	// never enrolled.
	ErrTOTPNotEnrolled = errors.New("totp is not enabled")
	// ErrTOTPNotActive distinguishes removal attempts from the enrolled
	// but never activated state.
	ErrTOTPNotActive = errors.New("totp is not active")
	// ErrTOTPAlreadyActive rejects activation of already active settings.
	ErrTOTPAlreadyActive = errors.New("totp is already active")

	// ErrCodeNotRequested reports a confirm with no pending code: either
	// never requested or already completed.
	ErrCodeNotRequested = errors.New("never requested or already completed")
	// ErrCodeMismatch rejects a supplied code that differs from the
	// pending one.
	ErrCodeMismatch = errors.New("incorrect verification code")
	// ErrCodeExpired rejects a confirm after the code's expiry.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrEmailAlreadyVerified rejects verification of an already verified
	// address.
	ErrEmailAlreadyVerified = errors.New("email already verified")

	// ErrSSONotConfigured reports federated sign-in without an exchanger.
	ErrSSONotConfigured = errors.New("sso exchange not configured")
	// ErrSSOExchange reports a failed authorization-code exchange.
	ErrSSOExchange = errors.New("sso code exchange rejected")

	// ErrRecordNotFound is returned by CredentialStore implementations
	// for Get and UpdateIfExists against a missing record. The engine
	// maps it per operation; it is never surfaced directly.
	ErrRecordNotFound = errors.New("credential record not found")
	// ErrRecordExists is returned by PutIfAbsent when the userId is
	// already taken.
	ErrRecordExists = errors.New("credential record already exists")

	// ErrInternal is the only error surfaced for collaborator failures.
	// Detail is logged server-side, never returned to the caller.
	ErrInternal = errors.New("internal error")

	// ErrEngineNotReady is returned by methods on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Kind classifies an engine error for transport adapters.
type Kind uint8

const (
	// KindInternal is the default for unrecognized failures.
	KindInternal Kind = iota
	// KindValidation marks malformed or unacceptable input.
	KindValidation
	// KindUnauthorized marks credential, token, and MFA failures.
	KindUnauthorized
	// KindNotFound marks references to unknown resources.
	KindNotFound
	// KindConflict marks duplicate-resource rejections.
	KindConflict
)

// KindOf maps an engine error to its [Kind]. Wrapped errors are
// unwrapped with errors.Is, so callers may annotate and still classify.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTOTPInvalid),
		errors.Is(err, ErrSSOExchange):
		return KindUnauthorized
	case errors.Is(err, ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, ErrTOTPNotEnrolled),
		errors.Is(err, ErrTOTPNotActive),
		errors.Is(err, ErrTOTPAlreadyActive),
		errors.Is(err, ErrCodeNotRequested),
		errors.Is(err, ErrCodeMismatch),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrEmailAlreadyVerified),
		errors.Is(err, ErrPasswordPolicy):
		return KindValidation
	default:
		return KindInternal
	}
}

// HTTPStatus translates an engine error to the status code a transport
// adapter should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
