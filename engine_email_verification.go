package authcore

import "context"

// RequestEmailVerification issues a verification code for the account
// behind a valid access token and mails it to the account's address.
// Re-requesting overwrites any previous pending code.
func (e *Engine) RequestEmailVerification(ctx context.Context, accessToken string) error {
	record, _, err := e.requireAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	_, err = e.issueOneTimeCode(ctx, record.UserID, record.Email,
		func(rec *CredentialRecord, pending *PendingCode) { rec.VerifyEmail = pending },
		"Verify your email address", "email verification")
	if err != nil {
		return err
	}

	e.metricInc(MetricEmailVerificationRequest)
	e.emitAudit(ctx, auditEventEmailVerifyRequested, true, record.UserID, record.Email, nil)
	return nil
}

// ConfirmEmailVerification validates a pending verification code and
// marks the address verified. An already verified address, a wrong code,
// and an expired code are each rejected distinctly; the code check is
// re-run inside the conditional update so it is single-use.
func (e *Engine) ConfirmEmailVerification(ctx context.Context, accessToken, code string) error {
	record, _, err := e.requireAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	if record.EmailVerified {
		return ErrEmailAlreadyVerified
	}

	now := e.now()
	if err := checkOneTimeCode(record.VerifyEmail, code, now); err != nil {
		return err
	}

	_, err = e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
		if rec.EmailVerified {
			return ErrEmailAlreadyVerified
		}
		if err := checkOneTimeCode(rec.VerifyEmail, code, now); err != nil {
			return err
		}
		rec.VerifyEmail = nil
		rec.EmailVerified = true
		return nil
	})
	if err != nil {
		return e.mapUpdateErr("confirm verification", err, ErrCodeNotRequested)
	}

	e.metricInc(MetricEmailVerificationConfirm)
	e.emitAudit(ctx, auditEventEmailVerified, true, record.UserID, record.Email, nil)
	return nil
}
