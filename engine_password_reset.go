package authcore

import (
	"context"

	"github.com/authcore-io/authcore/password"
)

// RequestPasswordReset issues a reset code for the account registered
// under email and mails it to the user.
//
// Unlike sign-in, an unknown email fails loudly with ErrUserNotFound:
// the reset flow is where the caller has legitimately forgotten which
// address they registered. Re-requesting overwrites any previous pending
// code.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	email = normalizeEmail(email)
	record, err := e.lookupByEmail(ctx, "reset request", email)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrUserNotFound
	}

	_, err = e.issueOneTimeCode(ctx, record.UserID, email,
		func(rec *CredentialRecord, pending *PendingCode) { rec.ResetPassword = pending },
		"Reset your password", "password reset")
	if err != nil {
		return err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequested, true, record.UserID, email, nil)
	return nil
}

// ConfirmPasswordReset completes a pending reset: it validates the code,
// installs the new password, marks the email verified (the user just
// proved control of the inbox), and bumps the revocation watermark. TOTP
// settings are left untouched.
//
// The code check is re-run inside the conditional update, so exactly one
// confirm can succeed per issued code; a second attempt reports
// ErrCodeNotRequested. The expiry comparison uses the operation's clock
// read, accepted as non-atomic against storage per the design.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, input ResetConfirmInput) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if input.NewPassword != input.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := password.ValidateStrength(input.NewPassword); err != nil {
		return err
	}

	email := normalizeEmail(input.Email)
	record, err := e.lookupByEmail(ctx, "reset confirm", email)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrCodeNotRequested
	}

	now := e.now()
	if err := checkOneTimeCode(record.ResetPassword, input.Code, now); err != nil {
		return err
	}

	hash, err := e.hasher.Hash(input.NewPassword)
	if err != nil {
		return e.internalErr("hash password", err)
	}

	_, err = e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
		if err := checkOneTimeCode(rec.ResetPassword, input.Code, now); err != nil {
			return err
		}
		rec.ResetPassword = nil
		rec.HashedPassword = hash
		rec.EmailVerified = true
		rec.IssuedAtFloor = now.Unix()
		return nil
	})
	if err != nil {
		return e.mapUpdateErr("confirm reset", err, ErrCodeNotRequested)
	}

	e.metricInc(MetricPasswordResetConfirm)
	e.emitAudit(ctx, auditEventPasswordResetConfirmed, true, record.UserID, email, nil)
	return nil
}
