package authcore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// SignIn authenticates an email/password pair and issues tokens.
//
// Unknown email, wrong password, and passwordless (federated) accounts
// are all reported as ErrInvalidCredentials. When the account has active
// TOTP and no code was supplied, the result carries TOTPRequired with no
// tokens and no error; a wrong code fails with ErrTOTPInvalid. A backup
// code is consumed atomically on acceptance and the result reports how
// many remain.
func (e *Engine) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	record, err := e.lookupByEmail(ctx, "signin", email)
	if err != nil {
		return nil, err
	}
	if record == nil || record.HashedPassword == "" || !e.hasher.Matches(input.Password, record.HashedPassword) {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignIn, false, "", email, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	result := &SignInResult{}
	if record.TOTP != nil && record.TOTP.Active {
		if input.TOTPCode == "" {
			e.metricInc(MetricTOTPRequired)
			e.emitAudit(ctx, auditEventSignInTOTPRequired, true, record.UserID, email, nil)
			return &SignInResult{TOTPRequired: true}, nil
		}

		usedBackup, remaining, err := e.validateMFACode(ctx, record, input.TOTPCode)
		if err != nil {
			e.metricInc(MetricTOTPFailure)
			e.emitAudit(ctx, auditEventSignIn, false, record.UserID, email, err)
			return nil, err
		}
		e.metricInc(MetricTOTPSuccess)
		result.BackupCodeUsed = usedBackup
		result.BackupCodesRemaining = remaining
	}

	tokens, err := e.issueTokens(record, e.now())
	if err != nil {
		return nil, err
	}
	result.Tokens = tokens

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignIn, true, record.UserID, email, nil)
	return result, nil
}

// SignInFederated completes a single external SSO code exchange and
// issues tokens. The record is created on first login with no password
// hash and a verified email; subsequent logins mark the email verified
// if a password-flow account existed unverified. Local TOTP is not
// consulted: the provider performed its own authentication, and an
// authorization code cannot be replayed for a second round trip.
func (e *Engine) SignInFederated(ctx context.Context, code string) (*SignInResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if e.sso == nil {
		return nil, ErrSSONotConfigured
	}

	email, err := e.sso.Exchange(ctx, code)
	if err != nil {
		e.emitAudit(ctx, auditEventSignInFederated, false, "", "", ErrSSOExchange)
		return nil, ErrSSOExchange
	}
	email = normalizeEmail(email)

	record, err := e.lookupByEmail(ctx, "signin federated", email)
	if err != nil {
		return nil, err
	}

	now := e.now()
	switch {
	case record == nil:
		record = &CredentialRecord{
			UserID:        uuid.NewString(),
			Email:         email,
			EmailVerified: true,
			DateCreated:   now,
		}
		if err := e.store.PutIfAbsent(ctx, record); err != nil {
			return nil, e.internalErr("create federated record", err)
		}
	case !record.EmailVerified:
		updated, err := e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
			rec.EmailVerified = true
			return nil
		})
		switch {
		case err == nil:
			record = updated
		case errors.Is(err, ErrRecordNotFound):
			// record deleted between lookup and update: issue against the
			// looked-up identity; the tokens fail verification on first use
		default:
			return nil, e.internalErr("mark email verified", err)
		}
	}

	tokens, err := e.issueTokens(record, now)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInFederated, true, record.UserID, email, nil)
	return &SignInResult{Tokens: tokens}, nil
}
