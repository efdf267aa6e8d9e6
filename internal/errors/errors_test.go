package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewValidationError("column index out of range"),
			wantMessage: "[VALIDATION] column index out of range",
		},
		{
			name:        "error with cause",
			appError:    NewNetworkError("download failed", io.ErrUnexpectedEOF),
			wantMessage: "[NETWORK] download failed: unexpected EOF",
		},
		{
			name:        "portal error",
			appError:    NewPortalError("update rejected", fmt.Errorf("code 498")),
			wantMessage: "[PORTAL] update rejected: code 498",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := NewArchiveError("corrupt package", cause)

	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, cause, err.Unwrap())

	wrapped := fmt.Errorf("publish: %w", err)
	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrTypeArchive, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewStorageError("write failed", nil).
		WithContext("path", "/tmp/out.csv").
		WithContext("rows", 12)

	assert.Equal(t, "/tmp/out.csv", err.Context["path"])
	assert.Equal(t, 12, err.Context["rows"])

	bare := &AppError{Type: ErrTypeNotify}
	bare.WithContext("recipient", "a@example.com")
	assert.Equal(t, "a@example.com", bare.Context["recipient"])
}

func TestIsType(t *testing.T) {
	inner := NewAuthError("invalid username or password", nil)
	outer := NewPortalError("sign in", inner)
	wrapped := fmt.Errorf("step failed: %w", outer)

	assert.True(t, IsType(wrapped, ErrTypePortal))
	assert.True(t, IsType(wrapped, ErrTypeAuth))
	assert.False(t, IsType(wrapped, ErrTypeArchive))
	assert.False(t, IsType(errors.New("plain"), ErrTypeAuth))
	assert.False(t, IsType(nil, ErrTypeAuth))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeNotify, TypeOf(fmt.Errorf("x: %w", NewNotifyError("send", nil))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
