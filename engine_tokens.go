package authcore

import (
	"context"
	"errors"

	"github.com/authcore-io/authcore/token"
)

// Refresh mints a new access token from a valid, non-revoked refresh
// token. The refresh token itself is not rotated; it stays valid until
// its own expiry or the next watermark bump.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (accessToken string, err error) {
	if e == nil || e.codec == nil || e.store == nil {
		return "", ErrEngineNotReady
	}

	payload, err := e.codec.Verify(token.Refresh, refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return "", ErrTokenInvalid
	}

	record, err := e.store.Get(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			e.metricInc(MetricRefreshFailure)
			return "", ErrTokenInvalid
		}
		return "", e.internalErr("load record", err)
	}
	if err := checkWatermark(record, payload); err != nil {
		e.metricInc(MetricRefreshFailure)
		return "", err
	}

	now := e.now()
	access, err := e.codec.Issue(token.Access, token.Payload{
		Email:    record.Email,
		UserID:   record.UserID,
		IssuedAt: now.Unix(),
	}, now)
	if err != nil {
		return "", e.internalErr("issue access token", err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefresh, true, record.UserID, record.Email, nil)
	return access, nil
}

// SignOut revokes every outstanding token for the account behind a
// valid access token by bumping the issued-at floor. Tokens minted
// strictly before this instant, access and refresh alike, stop
// verifying against the record.
func (e *Engine) SignOut(ctx context.Context, accessToken string) error {
	record, _, err := e.requireAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := e.bumpWatermark(ctx, record.UserID, e.now()); err != nil {
		return err
	}

	e.metricInc(MetricSignOut)
	e.emitAudit(ctx, auditEventSignOut, true, record.UserID, record.Email, nil)
	return nil
}
