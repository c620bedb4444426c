package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/authcore-io/authcore/password"
	"github.com/google/uuid"
)

// SignUp creates a credential record for a new email and issues the
// initial token pair.
//
// Fails with ErrPasswordMismatch or a password-policy violation
// (Validation) and with ErrEmailTaken (Conflict) when the email is
// already registered. The uniqueness check is read-then-write; the
// remaining race window is accepted per the store contract, with
// duplicate index entries logged when observed.
func (e *Engine) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := password.ValidateStrength(input.Password); err != nil {
		return nil, err
	}

	existing, err := e.lookupByEmail(ctx, "signup", email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		e.metricInc(MetricSignUpDuplicate)
		e.emitAudit(ctx, auditEventSignUp, false, "", email, ErrEmailTaken)
		return nil, ErrEmailTaken
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, e.internalErr("hash password", err)
	}

	now := e.now()
	record := &CredentialRecord{
		UserID:         uuid.NewString(),
		Email:          email,
		HashedPassword: hash,
		DateCreated:    now,
	}

	if err := e.store.PutIfAbsent(ctx, record); err != nil {
		if errors.Is(err, ErrRecordExists) {
			// uuid collision is not a realistic path; treat as duplicate
			return nil, ErrEmailTaken
		}
		return nil, e.internalErr("create record", err)
	}

	tokens, err := e.issueTokens(record, now)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUp, true, record.UserID, email, nil)
	return &SignUpResult{UserID: record.UserID, Tokens: tokens}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
