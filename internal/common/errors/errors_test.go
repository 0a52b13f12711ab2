package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
	}{
		{"invalid argument", NewInvalidArgumentError("missing field", "email"), ErrCodeInvalidArgument, false},
		{"unauthenticated", NewUnauthenticatedError("no token"), ErrCodeUnauthenticated, false},
		{"permission denied", NewPermissionDeniedError("role: staff"), ErrCodePermissionDenied, false},
		{"not found", NewNotFoundError("user", "u1"), ErrCodeNotFound, false},
		{"already exists", NewAlreadyExistsError("email taken"), ErrCodeAlreadyExists, false},
		{"internal", NewInternalError("firestore", fmt.Errorf("rpc failed")), ErrCodeInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidArgument))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrCodeUnauthenticated))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrCodePermissionDenied))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrCodeAlreadyExists))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeInternal))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrorCode("UNKNOWN")))
}

func TestAsStandardError(t *testing.T) {
	stdErr := NewNotFoundError("user", "u1")
	assert.Same(t, stdErr, AsStandardError(stdErr))

	wrapped := fmt.Errorf("handler: %w", stdErr)
	assert.Same(t, stdErr, AsStandardError(wrapped))

	plain := AsStandardError(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
}

func TestIsCode(t *testing.T) {
	err := NewPermissionDeniedError("nope")
	assert.True(t, IsCode(err, ErrCodePermissionDenied))
	assert.False(t, IsCode(err, ErrCodeNotFound))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeInternal))
}
