package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/authcore-io/authcore/token"
)

func TestSignUpIssuesVerifiableTokens(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	result := signUpTestUser(t, engine)
	if result.UserID == "" {
		t.Fatal("expected a generated userId")
	}

	payload, err := engine.codec.Verify(token.Access, result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token failed verification right after issuance: %v", err)
	}
	if payload.Email != testEmail || payload.UserID != result.UserID {
		t.Fatalf("unexpected payload %+v", payload)
	}

	record := store.mustRecord(t, result.UserID)
	if payload.IssuedAt < record.IssuedAtFloor {
		t.Fatalf("issued-at %d below watermark %d", payload.IssuedAt, record.IssuedAtFloor)
	}
	if _, err := engine.codec.Verify(token.Refresh, result.Tokens.RefreshToken); err != nil {
		t.Fatalf("refresh token failed verification: %v", err)
	}

	if record.HashedPassword == testPassword || record.HashedPassword == "" {
		t.Fatal("password must be stored hashed")
	}
	if record.EmailVerified {
		t.Fatal("email must start unverified")
	}
	if record.DateCreated.IsZero() {
		t.Fatal("dateCreated must be set")
	}

	// the record is reachable through the email index
	byEmail, err := store.QueryByEmail(ctx, testEmail)
	if err != nil || len(byEmail) != 1 {
		t.Fatalf("QueryByEmail = %v, %v", byEmail, err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	signUpTestUser(t, engine)
	_, err := engine.SignUp(ctx, SignUpInput{
		Email:           testEmail,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("duplicate email must classify as conflict")
	}
}

func TestSignUpNormalizesEmail(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	signUpTestUser(t, engine)
	_, err := engine.SignUp(ctx, SignUpInput{
		Email:           "  A@X.COM ",
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("case/space variant of a taken email must conflict, got %v", err)
	}
}

func TestSignUpPasswordValidation(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.SignUp(ctx, SignUpInput{Email: testEmail, Password: testPassword, ConfirmPassword: "Other123!@"})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	for _, weak := range []string{"Sh1!", "nouppercase1!", "NOLOWERCASE1!", "NoDigits!!", "NoSymbol11"} {
		_, err := engine.SignUp(ctx, SignUpInput{Email: testEmail, Password: weak, ConfirmPassword: weak})
		if !errors.Is(err, ErrPasswordPolicy) {
			t.Fatalf("password %q: expected policy violation, got %v", weak, err)
		}
		if KindOf(err) != KindValidation {
			t.Fatalf("policy violation must classify as validation")
		}
	}
}
