package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		contains []string
	}{
		{
			name:     "validation",
			err:      ValidationError("cache key is required"),
			contains: []string{"validation", "cache key is required"},
		},
		{
			name:     "upstream with status and cause",
			err:      UpstreamError("token request failed", stderrors.New("bad gateway")).WithStatus(502),
			contains: []string{"upstream", "token request failed", "status=502", "cause=bad gateway"},
		},
		{
			name:     "not found",
			err:      NotFoundError("session"),
			contains: []string{"not_found", "session not found"},
		},
		{
			name:     "with context",
			err:      AuthError("refresh rejected").WithContext("session_id", "abc"),
			contains: []string{"authentication", "session_id=abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, part := range tt.contains {
				assert.Contains(t, msg, part)
			}
		})
	}
}

func TestIsType_Wrapped(t *testing.T) {
	base := AuthError("invalid_grant")
	wrapped := fmt.Errorf("refresh failed: %w", base)

	assert.True(t, IsType(wrapped, ErrTypeAuth))
	assert.False(t, IsType(wrapped, ErrTypeTimeout))
	assert.False(t, IsType(nil, ErrTypeAuth))
	assert.Equal(t, ErrTypeAuth, GetType(wrapped))
	assert.Equal(t, ErrTypeInternal, GetType(stderrors.New("plain")))
	assert.Equal(t, ErrorType(""), GetType(nil))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := ConnectionError("redis unavailable", cause)
	assert.ErrorIs(t, err, cause)
}
