package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(6)

	require.NoError(t, err)
	assert.Len(t, code, 12)
	assert.Regexp(t, `^[0-9A-F]+$`, code)

	other, err := GenerateCode(6)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestGenerateDigits(t *testing.T) {
	digits, err := GenerateDigits(4)

	require.NoError(t, err)
	assert.Len(t, digits, 4)
	assert.Regexp(t, `^[0-9]+$`, digits)
}

func TestCircuitBreaker_ClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < 10; i++ {
		result, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreakerWithSettings("test", Settings{
		MaxRequests:  3,
		Timeout:      time.Hour,
		FailureRatio: 0.5,
	})

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		_, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
	}

	assert.Equal(t, StateOpen, cb.State())

	called := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		called = true
		return nil, nil
	})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreakerWithSettings("test", Settings{
		MaxRequests:  1,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
	})

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	_, err = cb.Execute(context.Background(), func() (interface{}, error) {
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}
