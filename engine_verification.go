package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/authcore-io/authcore/internal/otpcode"
)

// issueOneTimeCode generates a fresh human-typeable code, persists it on
// the record through set, and enqueues the notification email.
//
// Persist precedes notify: if the enqueue fails the pending code stays
// on the record and the caller can simply retry the request, which
// overwrites the previous code. Re-issuing is always safe for the same
// reason.
func (e *Engine) issueOneTimeCode(
	ctx context.Context,
	userID, email string,
	set func(rec *CredentialRecord, pending *PendingCode),
	subject, purpose string,
) (*PendingCode, error) {
	code, err := otpcode.New(e.config.Verification.CodeGroups, e.config.Verification.CodeGroupLength)
	if err != nil {
		return nil, e.internalErr("generate code", err)
	}

	ttl := e.config.Verification.CodeTTL
	pending := &PendingCode{Code: code, Expiry: e.now().Add(ttl)}

	_, err = e.store.UpdateIfExists(ctx, userID, func(rec *CredentialRecord) error {
		set(rec, pending)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, e.internalErr("persist code", err)
	}

	minutes := int(ttl / time.Minute)
	text := fmt.Sprintf("Your %s %s code is %s. It expires in %d minutes.",
		e.config.Service, purpose, code, minutes)
	msg := EmailMessage{
		To:      email,
		Subject: subject,
		Text:    text,
		HTML:    fmt.Sprintf("<p>Your %s %s code is <strong>%s</strong>. It expires in %d minutes.</p>", e.config.Service, purpose, code, minutes),
	}
	if err := e.notifier.EnqueueEmail(ctx, msg); err != nil {
		// the pending code survives, so the overall failure is retryable
		return nil, e.internalErr("enqueue email", err)
	}

	return pending, nil
}

// checkOneTimeCode validates a supplied code against a pending one.
// Order matters: absence, then mismatch, then expiry, so an expired code
// still reports mismatch when the code is also wrong.
func checkOneTimeCode(pending *PendingCode, supplied string, now time.Time) error {
	if pending == nil {
		return ErrCodeNotRequested
	}
	if !otpcode.Equal(pending.Code, supplied) {
		return ErrCodeMismatch
	}
	if now.After(pending.Expiry) {
		return ErrCodeExpired
	}
	return nil
}

// mapUpdateErr passes through the engine's own sentinels raised inside
// an update closure, maps a vanished record to fallback, and treats
// everything else as collaborator failure.
func (e *Engine) mapUpdateErr(op string, err error, fallback error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCodeNotRequested),
		errors.Is(err, ErrCodeMismatch),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrEmailAlreadyVerified),
		errors.Is(err, ErrTOTPInvalid),
		errors.Is(err, ErrTOTPNotEnrolled),
		errors.Is(err, ErrTOTPNotActive),
		errors.Is(err, ErrTOTPAlreadyActive):
		return err
	case errors.Is(err, ErrRecordNotFound):
		return fallback
	default:
		return e.internalErr(op, err)
	}
}
