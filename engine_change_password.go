package authcore

import (
	"context"
	"errors"

	"github.com/authcore-io/authcore/password"
)

// ChangePassword replaces the password behind a valid access token and
// revokes all outstanding tokens.
//
// The old password must match, the new one must satisfy the strength
// policy, differ from the old, and match its confirmation. The hash and
// the watermark bump are applied in a single conditional update so a
// concurrent change cannot leave a new password with stale tokens alive.
func (e *Engine) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	record, _, err := e.requireAccess(ctx, input.AccessToken)
	if err != nil {
		return err
	}

	if input.NewPassword != input.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if input.NewPassword == input.OldPassword {
		return ErrPasswordReuse
	}
	if err := password.ValidateStrength(input.NewPassword); err != nil {
		return err
	}
	if record.HashedPassword == "" || !e.hasher.Matches(input.OldPassword, record.HashedPassword) {
		return ErrInvalidCredentials
	}

	hash, err := e.hasher.Hash(input.NewPassword)
	if err != nil {
		return e.internalErr("hash password", err)
	}

	now := e.now()
	_, err = e.store.UpdateIfExists(ctx, record.UserID, func(rec *CredentialRecord) error {
		rec.HashedPassword = hash
		rec.IssuedAtFloor = now.Unix()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrTokenInvalid
		}
		return e.internalErr("store password", err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChanged, true, record.UserID, record.Email, nil)
	return nil
}
