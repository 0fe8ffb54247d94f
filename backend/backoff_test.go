package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelayExponential(t *testing.T) {
	config := BackoffConfig{
		MaxRetries:        5,
		InitialDelay:      time.Second,
		Multiplier:        2.0,
		MaxDelay:          60 * time.Second,
		Jitter:            JitterNone,
		RetryableStatuses: map[int]bool{429: true},
	}

	assert.Equal(t, time.Second, config.DelayForAttempt(0))
	assert.Equal(t, 2*time.Second, config.DelayForAttempt(1))
	assert.Equal(t, 4*time.Second, config.DelayForAttempt(2))
	assert.Equal(t, 8*time.Second, config.DelayForAttempt(3))
}

func TestBackoffDelayCappedAtMax(t *testing.T) {
	config := BackoffConfig{
		MaxRetries:        10,
		InitialDelay:      time.Second,
		Multiplier:        2.0,
		MaxDelay:          5 * time.Second,
		Jitter:            JitterNone,
		RetryableStatuses: map[int]bool{429: true},
	}

	assert.Equal(t, 5*time.Second, config.DelayForAttempt(3))
	assert.Equal(t, 5*time.Second, config.DelayForAttempt(10))
}

func TestBackoffJitterFullInRange(t *testing.T) {
	config := BackoffConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		Multiplier:        2.0,
		MaxDelay:          60 * time.Second,
		Jitter:            JitterFull,
		RetryableStatuses: map[int]bool{429: true},
	}

	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, config.DelayForAttempt(0), time.Second)
	}
	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, config.DelayForAttempt(1), 2*time.Second)
	}
}

func TestBackoffPresets(t *testing.T) {
	assert.Equal(t, 0, BackoffNone().MaxRetries)

	standard := BackoffStandard()
	assert.Equal(t, 3, standard.MaxRetries)
	assert.Equal(t, time.Second, standard.InitialDelay)
	assert.Equal(t, 2.0, standard.Multiplier)
	assert.True(t, standard.RetryableStatuses[429])
	assert.True(t, standard.RetryableStatuses[503])

	assert.Equal(t, 5, BackoffAggressive().MaxRetries)
	assert.Equal(t, 2, BackoffInteractive().MaxRetries)
}

func TestIsRetryableStatuses(t *testing.T) {
	config := BackoffStandard()

	assert.True(t, IsRetryable(&HTTPError{Status: 429}, config))
	assert.True(t, IsRetryable(&HTTPError{Status: 503}, config))
	assert.False(t, IsRetryable(&HTTPError{Status: 400}, config))
}

func TestIsRetryableCancelledNotRetried(t *testing.T) {
	config := BackoffStandard()
	assert.False(t, IsRetryable(context.Canceled, config))
}

func TestWithBackoffRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithBackoff(ctx, BackoffStandard(), nil, func(ctx context.Context) (Response, error) {
		t.Fatal("fn should not be called when context is already cancelled")
		return Response{}, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithBackoffRetriesThenSucceeds(t *testing.T) {
	config := BackoffConfig{
		MaxRetries:        2,
		InitialDelay:      time.Millisecond,
		Multiplier:        1.0,
		MaxDelay:          time.Millisecond,
		Jitter:            JitterNone,
		RetryableStatuses: map[int]bool{503: true},
	}

	attempts := 0
	resp, err := WithBackoff(context.Background(), config, nil, func(ctx context.Context) (Response, error) {
		attempts++
		if attempts < 2 {
			return Response{}, &HTTPError{Status: 503}
		}
		return Response{Text: "ok"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, attempts)
}

func TestWithBackoffExhaustsRetries(t *testing.T) {
	config := BackoffConfig{
		MaxRetries:        2,
		InitialDelay:      time.Millisecond,
		Multiplier:        1.0,
		MaxDelay:          time.Millisecond,
		Jitter:            JitterNone,
		RetryableStatuses: map[int]bool{503: true},
	}

	attempts := 0
	_, err := WithBackoff(context.Background(), config, nil, func(ctx context.Context) (Response, error) {
		attempts++
		return Response{}, &HTTPError{Status: 503}
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + 2 retries
}

func TestWithBackoffNonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	_, err := WithBackoff(context.Background(), BackoffStandard(), nil, func(ctx context.Context) (Response, error) {
		attempts++
		return Response{}, &HTTPError{Status: 400}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
