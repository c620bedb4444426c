package authcore

import (
	"context"

	"github.com/authcore-io/authcore/totp"
)

// EnrollTOTP generates a fresh secret, provisioning URL, and backup-code
// set for the account behind a valid access token, stored inactive.
// Enrollment is always allowed and idempotently replaces any prior
// settings. Replacing an active enrollment quietly disables MFA until
// the new secret is activated; the engine flags that transition with a
// dedicated audit event and a warning log rather than blocking it.
func (e *Engine) EnrollTOTP(ctx context.Context, accessToken string) (*TOTPEnrollment, error) {
	record, _, err := e.requireAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	secret, url, err := e.totp.GenerateSecret(record.Email)
	if err != nil {
		return nil, e.internalErr("generate totp secret", err)
	}
	backup, err := e.totp.GenerateBackupCodes()
	if err != nil {
		return nil, e.internalErr("generate backup codes", err)
	}

	wasActive := false
	_, err = e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
		wasActive = rec.TOTP != nil && rec.TOTP.Active
		rec.TOTP = &TOTPSettings{
			Secret: secret,
			URL:    url,
			Backup: append([]string(nil), backup...),
			Active: false,
		}
		return nil
	})
	if err != nil {
		return nil, e.mapUpdateErr("store totp settings", err, ErrTokenInvalid)
	}

	if wasActive {
		if e.logger != nil {
			e.logger.Warn("active totp enrollment replaced; mfa disabled until reactivated",
				"user_id", record.UserID)
		}
		e.emitAudit(ctx, auditEventTOTPReEnrolledWhileLive, true, record.UserID, record.Email, nil)
	}
	e.emitAudit(ctx, auditEventTOTPEnrolled, true, record.UserID, record.Email, nil)

	return &TOTPEnrollment{Secret: secret, URL: url, BackupCodes: backup}, nil
}

// ActivateTOTP turns enrolled settings active after the caller proves
// possession of the secret with a currently valid time-based code.
// Activation bumps the revocation watermark so every session predating
// the MFA requirement must re-authenticate.
func (e *Engine) ActivateTOTP(ctx context.Context, accessToken, code string) error {
	record, _, err := e.requireAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	switch {
	case record.TOTP == nil:
		return ErrTOTPNotEnrolled
	case record.TOTP.Active:
		return ErrTOTPAlreadyActive
	}

	now := e.now()
	if !e.totp.VerifyCode(record.TOTP.Secret, code, now) {
		e.metricInc(MetricTOTPFailure)
		return ErrTOTPInvalid
	}

	_, err = e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
		switch {
		case rec.TOTP == nil:
			return ErrTOTPNotEnrolled
		case rec.TOTP.Active:
			return ErrTOTPAlreadyActive
		}
		rec.TOTP.Active = true
		rec.IssuedAtFloor = now.Unix()
		return nil
	})
	if err != nil {
		return e.mapUpdateErr("activate totp", err, ErrTokenInvalid)
	}

	e.metricInc(MetricTOTPSuccess)
	e.emitAudit(ctx, auditEventTOTPActivated, true, record.UserID, record.Email, nil)
	return nil
}

// RemoveTOTP clears active settings entirely after validating a code
// under the same rule as sign-in, backup-code consumption included.
// Removal from the enrolled-but-inactive state is rejected distinctly
// (ErrTOTPNotActive) from never-enrolled (ErrTOTPNotEnrolled). The
// watermark is bumped so sessions opened under MFA are revoked.
func (e *Engine) RemoveTOTP(ctx context.Context, accessToken, code string) error {
	record, _, err := e.requireAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	switch {
	case record.TOTP == nil:
		return ErrTOTPNotEnrolled
	case !record.TOTP.Active:
		return ErrTOTPNotActive
	}

	if _, _, err := e.validateMFACode(ctx, record, code); err != nil {
		e.metricInc(MetricTOTPFailure)
		return err
	}

	now := e.now()
	_, err = e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
		if rec.TOTP == nil {
			return ErrTOTPNotEnrolled
		}
		rec.TOTP = nil
		rec.IssuedAtFloor = now.Unix()
		return nil
	})
	if err != nil {
		return e.mapUpdateErr("remove totp", err, ErrTokenInvalid)
	}

	e.emitAudit(ctx, auditEventTOTPRemoved, true, record.UserID, record.Email, nil)
	return nil
}

// validateMFACode applies the steady-state validation rule: backup-code
// membership first, then the time-window check against the secret.
//
// An accepted backup code is removed from the stored list in the same
// conditional update that matches it, so two concurrent requests cannot
// both consume the same code: the loser finds it gone and the attempt
// falls through to plain rejection. Time-based codes are not single-use
// within their window.
func (e *Engine) validateMFACode(ctx context.Context, record *CredentialRecord, code string) (usedBackup bool, remaining int, err error) {
	settings := record.TOTP
	if settings == nil || !settings.Active {
		return false, 0, ErrTOTPNotActive
	}

	if totp.MatchBackupCode(settings.Backup, code) >= 0 {
		updated, err := e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
			if rec.TOTP == nil || !rec.TOTP.Active {
				return ErrTOTPNotActive
			}
			i := totp.MatchBackupCode(rec.TOTP.Backup, code)
			if i < 0 {
				// consumed by a concurrent request
				return ErrTOTPInvalid
			}
			rec.TOTP.Backup = append(rec.TOTP.Backup[:i], rec.TOTP.Backup[i+1:]...)
			return nil
		})
		if err != nil {
			return false, 0, e.mapUpdateErr("consume backup code", err, ErrTOTPInvalid)
		}

		e.metricInc(MetricBackupCodeUsed)
		e.emitAudit(ctx, auditEventBackupCodeUsed, true, record.UserID, record.Email, nil)
		return true, len(updated.TOTP.Backup), nil
	}

	if !e.totp.VerifyCode(settings.Secret, code, e.now()) {
		return false, 0, ErrTOTPInvalid
	}
	return false, 0, nil
}
