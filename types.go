package authcore

import (
	"context"
	"time"
)

// CredentialRecord is the per-user document held by the credential store.
// UserID is the immutable primary key; Email is looked up through the
// store's secondary index at sign-in.
//
// IssuedAtFloor is the revocation watermark in epoch seconds: any token
// whose embedded issued-at is strictly below the floor is rejected. A
// zero floor means no revocation has ever happened for the account.
type CredentialRecord struct {
	UserID         string        `json:"userId"`
	Email          string        `json:"email"`
	HashedPassword string        `json:"hashedPassword,omitempty"`
	IssuedAtFloor  int64         `json:"iat,omitempty"`
	TOTP           *TOTPSettings `json:"totp,omitempty"`
	ResetPassword  *PendingCode  `json:"resetPassword,omitempty"`
	VerifyEmail    *PendingCode  `json:"verifyEmail,omitempty"`
	EmailVerified  bool          `json:"emailVerified"`
	DateCreated    time.Time     `json:"dateCreated"`
}

// TOTPSettings is the record's multi-factor state. Absent settings mean
// TOTP was never enrolled. Active implies Secret and Backup are populated.
type TOTPSettings struct {
	Secret string   `json:"secret"`
	URL    string   `json:"url"`
	Backup []string `json:"backup"`
	Active bool     `json:"active"`
}

// PendingCode is a one-time verification code awaiting confirmation. The
// field is cleared by the same operation that accepts the code.
type PendingCode struct {
	Code   string    `json:"code"`
	Expiry time.Time `json:"expiry"`
}

// Clone returns a deep copy of the record. Store adapters hand copies to
// the engine so callers can never alias stored state.
func (r *CredentialRecord) Clone() *CredentialRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.TOTP != nil {
		t := *r.TOTP
		t.Backup = append([]string(nil), r.TOTP.Backup...)
		out.TOTP = &t
	}
	if r.ResetPassword != nil {
		c := *r.ResetPassword
		out.ResetPassword = &c
	}
	if r.VerifyEmail != nil {
		c := *r.VerifyEmail
		out.VerifyEmail = &c
	}
	return &out
}

// CredentialStore is the contract the engine requires from its record
// storage collaborator.
//
// Get and UpdateIfExists report a missing record with an error matching
// [ErrRecordNotFound]; PutIfAbsent reports a taken userId with
// [ErrRecordExists] and never overwrites. UpdateIfExists applies the
// mutation to the current record atomically with respect to other
// UpdateIfExists calls for the same userID; the closure's error aborts
// the update and is returned unchanged. It never creates records.
// QueryByEmail resolves the email secondary index.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*CredentialRecord, error)
	PutIfAbsent(ctx context.Context, record *CredentialRecord) error
	UpdateIfExists(ctx context.Context, userID string, apply func(*CredentialRecord) error) (*CredentialRecord, error)
	QueryByEmail(ctx context.Context, email string) ([]*CredentialRecord, error)
}

// EmailMessage is an outbound notification handed to the sink. Delivery
// guarantees belong to the sink; the engine treats enqueue failure as a
// failure of the current operation.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// NotificationSink accepts outbound email for asynchronous delivery.
type NotificationSink interface {
	EnqueueEmail(ctx context.Context, msg EmailMessage) error
}

// IdentityExchanger swaps an external SSO authorization code for the
// verified email it represents. The exchange itself (provider endpoints,
// client secrets) is entirely the collaborator's concern.
type IdentityExchanger interface {
	Exchange(ctx context.Context, code string) (email string, err error)
}

// TokenPair bundles a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignUpInput carries the sign-up form fields.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// SignUpResult is returned on successful account creation.
type SignUpResult struct {
	UserID string
	Tokens TokenPair
}

// SignInInput carries the sign-in form fields. TOTPCode may be empty; if
// the account has active TOTP the engine answers with TOTPRequired
// instead of tokens.
type SignInInput struct {
	Email    string
	Password string
	TOTPCode string
}

// SignInResult is returned by SignIn and SignInFederated.
//
// When TOTPRequired is true no tokens are present and the caller must
// retry with a time-based or backup code. BackupCodesRemaining is an
// advisory set only when a backup code was consumed during this sign-in.
type SignInResult struct {
	Tokens               TokenPair
	TOTPRequired         bool
	BackupCodeUsed       bool
	BackupCodesRemaining int
}

// ChangePasswordInput carries the change-password form fields. The access
// token identifies the account.
type ChangePasswordInput struct {
	AccessToken     string
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// ResetConfirmInput carries the password-reset confirmation fields.
type ResetConfirmInput struct {
	Email           string
	Code            string
	NewPassword     string
	ConfirmPassword string
}

// TOTPEnrollment is returned by EnrollTOTP. URL is the otpauth://
// provisioning URI callers render as a QR image; BackupCodes are shown
// exactly once and stored server-side until consumed.
type TOTPEnrollment struct {
	Secret      string
	URL         string
	BackupCodes []string
}
