package backend

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	cbackoff "github.com/cenkalti/backoff"
)

// JitterStrategy spreads retry delays to avoid a thundering herd against a
// shared rate limit.
type JitterStrategy int

const (
	// JitterNone uses the calculated delay exactly.
	JitterNone JitterStrategy = iota
	// JitterFull picks a random value in [0, calculated]. AWS's
	// recommended default.
	JitterFull
	// JitterEqual picks calculated/2 + random in [0, calculated/2].
	JitterEqual
	// JitterDecorrelated is a simplified decorrelated jitter: random in
	// [0, calculated]. The full decorrelated-jitter algorithm tracks the
	// previous delay across attempts; this package applies the same
	// per-attempt randomization as JitterFull, which is the behavior
	// the reference implementation actually ships (its own comment
	// calls out the simplification).
	JitterDecorrelated
)

// BackoffConfig controls transport-level retry for transient HTTP errors
// (429, 5xx) and connection failures.
type BackoffConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	Multiplier        float64
	MaxDelay          time.Duration
	Jitter            JitterStrategy
	RetryableStatuses map[int]bool
	RespectRetryAfter bool
}

// BackoffNone disables transport retry. Appropriate for a local Ollama
// server where connection failures mean the server is down, not
// rate-limited.
func BackoffNone() BackoffConfig {
	c := BackoffStandard()
	c.MaxRetries = 0
	return c
}

// BackoffStandard is a sensible default for cloud APIs: 3 retries, 1s
// initial delay, 2x multiplier, 60s cap, full jitter, respects
// Retry-After.
func BackoffStandard() BackoffConfig {
	return BackoffConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		Multiplier:        2.0,
		MaxDelay:          60 * time.Second,
		Jitter:            JitterFull,
		RetryableStatuses: defaultRetryableStatuses(),
		RespectRetryAfter: true,
	}
}

// BackoffAggressive is tuned for high-throughput batch processing: 5
// retries, 500ms initial delay, 120s cap.
func BackoffAggressive() BackoffConfig {
	c := BackoffStandard()
	c.MaxRetries = 5
	c.InitialDelay = 500 * time.Millisecond
	c.MaxDelay = 120 * time.Second
	return c
}

// BackoffInteractive is tuned for a human waiting on the result: 2
// retries, 500ms initial delay, 10s cap, gentler 1.5x multiplier.
func BackoffInteractive() BackoffConfig {
	c := BackoffStandard()
	c.MaxRetries = 2
	c.InitialDelay = 500 * time.Millisecond
	c.Multiplier = 1.5
	c.MaxDelay = 10 * time.Second
	return c
}

func defaultRetryableStatuses() map[int]bool {
	return map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}
}

// DelayForAttempt returns the delay before retry attempt N (0-indexed):
// InitialDelay * Multiplier^attempt, capped at MaxDelay, then jittered.
func (c BackoffConfig) DelayForAttempt(attempt int) time.Duration {
	base := c.InitialDelay.Seconds() * math.Pow(c.Multiplier, float64(attempt))
	capped := math.Min(base, c.MaxDelay.Seconds())

	var jittered float64
	switch c.Jitter {
	case JitterNone:
		jittered = capped
	case JitterEqual:
		jittered = capped/2.0 + rand.Float64()*(capped/2.0)
	case JitterFull, JitterDecorrelated:
		jittered = rand.Float64() * capped
	default:
		jittered = capped
	}
	return time.Duration(jittered * float64(time.Second))
}

// RetryCallback is invoked before each transport retry with the attempt
// number (1-indexed), the delay about to be waited, and the reason the
// prior attempt failed.
type RetryCallback func(attempt int, delay time.Duration, reason string)

// IsRetryable reports whether err should trigger a transport retry under
// config: an HTTPError with a status in RetryableStatuses, or any other
// non-HTTPError (treated as a connection-level failure, mirroring the
// reference implementation's "Request error is always retryable" rule).
// A cancelled or deadline-exceeded context is never retryable.
func IsRetryable(err error, config BackoffConfig) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return config.RetryableStatuses[httpErr.Status]
	}
	return true
}

// call is the shape of a single backend attempt; WithBackoff wraps it
// with retry.
type call func(ctx context.Context) (Response, error)

// configBackOff adapts a BackoffConfig into a cenkalti/backoff.BackOff,
// the retry-scheduling interface this package's retry loop runs on. It
// tracks the attempt number itself and defers to BackoffConfig's own
// delay/jitter math and Retry-After override, rather than
// cenkalti/backoff's built-in exponential curve.
type configBackOff struct {
	config  BackoffConfig
	lastErr error
	attempt int
}

func (b *configBackOff) NextBackOff() time.Duration {
	if b.attempt >= b.config.MaxRetries {
		return cbackoff.Stop
	}
	b.attempt++
	return delayForRetry(b.config, b.attempt, b.lastErr)
}

func (b *configBackOff) Reset() {
	b.attempt = 0
	b.lastErr = nil
}

// WithBackoff retries fn up to config.MaxRetries times on a retryable
// error, honoring ctx cancellation before dispatch and before each wait.
// Retry scheduling runs on cenkalti/backoff.RetryNotify, with the
// BackOff wrapped by cenkalti/backoff.WithContext.
func WithBackoff(ctx context.Context, config BackoffConfig, onRetry RetryCallback, fn call) (Response, error) {
	var resp Response
	cb := &configBackOff{config: config}
	ctxBackOff := cbackoff.WithContext(cb, ctx)

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return cbackoff.Permanent(err)
		}
		r, err := fn(ctx)
		if err == nil {
			resp = r
			return nil
		}
		cb.lastErr = err
		if !IsRetryable(err, config) {
			return cbackoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		if onRetry != nil {
			onRetry(cb.attempt, delay, err.Error())
		}
	}

	err := cbackoff.RetryNotify(operation, ctxBackOff, notify)
	if err != nil {
		if permErr, ok := err.(*cbackoff.PermanentError); ok {
			return Response{}, permErr.Err
		}
		return Response{}, err
	}
	return resp, nil
}

func delayForRetry(config BackoffConfig, attempt int, lastErr error) time.Duration {
	var httpErr *HTTPError
	if config.RespectRetryAfter && errors.As(lastErr, &httpErr) && httpErr.RetryAfter != nil {
		return *httpErr.RetryAfter
	}
	return config.DelayForAttempt(attempt - 1)
}
