package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unreachable(cause)

	assert.Contains(t, err.Error(), "no server response")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		err  error
		code ErrorCode
	}{
		{Validation("too short"), ErrCodeValidation},
		{Unreachable(errors.New("dial tcp")), ErrCodeUnreachable},
		{Unauthorized("Unauthorized"), ErrCodeUnauthorized},
		{RateLimited("slow down"), ErrCodeRateLimited},
		{ServerRejected("insufficient funds"), ErrCodeServerRejected},
		{AuthExpired(errors.New("401")), ErrCodeAuthExpired},
		{NotFound("no such user"), ErrCodeNotFound},
		{Internal("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
		})
	}

	assert.True(t, IsValidation(Validation("x")))
	assert.True(t, IsRateLimited(RateLimited("x")))
	assert.False(t, IsRateLimited(Unauthorized("x")))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	inner := Unauthorized("credentials rejected")
	wrapped := fmt.Errorf("login: %w", inner)

	assert.True(t, IsUnauthorized(wrapped))
	assert.Equal(t, ErrCodeUnauthorized, GetCode(wrapped))
}

func TestValidationField(t *testing.T) {
	err := ValidationField("password", "Password must be at least 6 characters long")
	assert.Equal(t, "password", GetField(err))
	assert.Equal(t, "", GetField(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "insufficient funds", UserMessage(ServerRejected("insufficient funds"), "operation failed"))
	assert.Equal(t, "operation failed", UserMessage(errors.New("pg: gone"), "operation failed"))
	assert.Equal(t, "operation failed", UserMessage(nil, "operation failed"))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}
