package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NewNotFoundError("user octocat")
	assert.Equal(t, "NOT_FOUND: user octocat not found", err.Error())

	inner := stderrors.New("connection refused")
	err = NewNetworkError("list repositories", inner)
	assert.Equal(t, "NETWORK_ERROR: list repositories (connection refused)", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", NewTimeoutError("request timeout", context.DeadlineExceeded), true},
		{"network", NewNetworkError("boom", nil), true},
		{"not found", NewNotFoundError("user"), false},
		{"rate limited", NewRateLimitedError("slow down", nil), false},
		{"cancelled", NewCancelledError(context.Canceled), false},
		{"plain", stderrors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestPredicatesSeeWrappedErrors(t *testing.T) {
	err := fmt.Errorf("load: %w", NewRateLimitedError("quota exhausted", nil))

	assert.True(t, IsRateLimited(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrCodeRateLimited, CodeOf(err))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("x")))
	assert.True(t, IsCancelled(NewCancelledError(nil)))
	assert.True(t, IsTimeout(NewTimeoutError("t", nil)))
}
