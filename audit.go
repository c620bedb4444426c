package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Audit event types emitted by the engine. Events name the operation
// outcome, never request contents; codes and passwords are never logged.
const (
	auditEventSignUp                   = "account.signup"
	auditEventSignIn                   = "auth.signin"
	auditEventSignInTOTPRequired       = "auth.signin.totp_required"
	auditEventSignInFederated          = "auth.signin.federated"
	auditEventRefresh                  = "auth.refresh"
	auditEventSignOut                  = "auth.signout"
	auditEventPasswordChanged          = "password.changed"
	auditEventPasswordResetRequested   = "password.reset_requested"
	auditEventPasswordResetConfirmed   = "password.reset_confirmed"
	auditEventEmailVerifyRequested     = "email.verify_requested"
	auditEventEmailVerified            = "email.verified"
	auditEventTOTPEnrolled             = "totp.enrolled"
	auditEventTOTPReEnrolledWhileLive  = "totp.reenrolled_while_active"
	auditEventTOTPActivated            = "totp.activated"
	auditEventTOTPRemoved              = "totp.removed"
	auditEventBackupCodeUsed           = "totp.backup_code_used"
)

// AuditEvent is a structured record of one engine operation outcome.
type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// AuditSink receives events from the engine's dispatcher. Emit must be
// safe for concurrent use and should return promptly; slow sinks should
// buffer internally.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards all events.
type NoOpSink struct{}

// Emit does nothing.
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink delivers events over a buffered channel, for tests and
// in-process consumers.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

// Emit sends the event, giving up when ctx is done.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receive side of the sink.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes newline-delimited JSON events to w.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Emit marshals and writes one event. Marshal or write failures are
// dropped silently; auditing never fails an operation.
func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
