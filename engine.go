package authcore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/token"
	"github.com/authcore-io/authcore/totp"
)

// Engine orchestrates every credential and session lifecycle operation.
// Construct it through [Builder.Build]; methods are then safe for
// concurrent use. Each operation is stateless between requests, all
// coordination happens through the credential store.
type Engine struct {
	config   Config
	store    CredentialStore
	notifier NotificationSink
	sso      IdentityExchanger
	codec    *token.Codec
	hasher   *password.Hasher
	totp     *totp.Manager
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *slog.Logger

	// now is the single clock read per operation; tests substitute it.
	now func() time.Time
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports how many audit events were shed under load.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine's operation counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e != nil {
		e.metrics.Inc(id)
	}
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, userID, email string, opErr error) {
	if e == nil || e.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: e.now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.emit(ctx, event)
}

// internalErr logs collaborator failure detail server-side and returns
// the generic ErrInternal so nothing internal leaks to callers.
func (e *Engine) internalErr(op string, err error) error {
	if e != nil && e.logger != nil {
		e.logger.Error("collaborator failure", "op", op, "err", err)
	}
	return ErrInternal
}

// lookupByEmail resolves the email secondary index to at most one
// record. Duplicate index entries indicate a lost sign-up race; the
// first record wins and the anomaly is logged.
func (e *Engine) lookupByEmail(ctx context.Context, op, email string) (*CredentialRecord, error) {
	records, err := e.store.QueryByEmail(ctx, email)
	if err != nil {
		return nil, e.internalErr(op, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > 1 && e.logger != nil {
		e.logger.Warn("duplicate email index entries", "op", op, "email", email, "count", len(records))
	}
	return records[0], nil
}

// checkWatermark rejects a decoded token whose identity no longer
// matches the record or whose issuance predates the revocation floor.
// Equal-to-floor tokens remain valid: only strictly earlier issuance is
// revoked.
func checkWatermark(record *CredentialRecord, payload token.Payload) error {
	if record == nil || record.Email != payload.Email {
		return ErrTokenInvalid
	}
	if record.IssuedAtFloor > 0 && payload.IssuedAt < record.IssuedAtFloor {
		return ErrTokenInvalid
	}
	return nil
}

// bumpWatermark raises the record's issued-at floor to now, revoking
// every outstanding access and refresh token in one write.
func (e *Engine) bumpWatermark(ctx context.Context, userID string, now time.Time) error {
	_, err := e.store.UpdateIfExists(ctx, userID, func(rec *CredentialRecord) error {
		rec.IssuedAtFloor = now.Unix()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return ErrTokenInvalid
		}
		return e.internalErr("bump watermark", err)
	}
	return nil
}

// requireAccess is the gate for every protected operation: verify the
// access token, load the record, and apply the revocation check. The
// store read per request is the deliberate cost of server-side
// revocation over stateless tokens.
func (e *Engine) requireAccess(ctx context.Context, accessToken string) (*CredentialRecord, token.Payload, error) {
	if e == nil || e.codec == nil || e.store == nil {
		return nil, token.Payload{}, ErrEngineNotReady
	}

	payload, err := e.codec.Verify(token.Access, accessToken)
	if err != nil {
		return nil, token.Payload{}, ErrTokenInvalid
	}

	record, err := e.store.Get(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, token.Payload{}, ErrTokenInvalid
		}
		return nil, token.Payload{}, e.internalErr("load record", err)
	}

	if err := checkWatermark(record, payload); err != nil {
		return nil, token.Payload{}, err
	}
	return record, payload, nil
}

// issueTokens mints the access+refresh pair for record at now. Both
// tokens embed now as issued-at, which is by construction >= any floor
// bumped before this instant.
func (e *Engine) issueTokens(record *CredentialRecord, now time.Time) (TokenPair, error) {
	payload := token.Payload{
		Email:    record.Email,
		UserID:   record.UserID,
		IssuedAt: now.Unix(),
	}

	access, err := e.codec.Issue(token.Access, payload, now)
	if err != nil {
		return TokenPair{}, e.internalErr("issue access token", err)
	}
	refresh, err := e.codec.Issue(token.Refresh, payload, now)
	if err != nil {
		return TokenPair{}, e.internalErr("issue refresh token", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
