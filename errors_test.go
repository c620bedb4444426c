package authcore

import (
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrInvalidCredentials, KindUnauthorized},
		{ErrTokenInvalid, KindUnauthorized},
		{ErrTOTPInvalid, KindUnauthorized},
		{ErrSSOExchange, KindUnauthorized},
		{ErrEmailTaken, KindConflict},
		{ErrUserNotFound, KindNotFound},
		{ErrPasswordMismatch, KindValidation},
		{ErrPasswordPolicy, KindValidation},
		{ErrCodeMismatch, KindValidation},
		{ErrCodeExpired, KindValidation},
		{ErrTOTPAlreadyActive, KindValidation},
		{ErrInternal, KindInternal},
		{nil, KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}

	// classification survives wrapping
	wrapped := fmt.Errorf("sign-in: %w", ErrInvalidCredentials)
	if KindOf(wrapped) != KindUnauthorized {
		t.Error("wrapped sentinel lost its kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrEmailTaken, http.StatusConflict},
		{ErrUserNotFound, http.StatusNotFound},
		{ErrCodeExpired, http.StatusBadRequest},
		{ErrInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
