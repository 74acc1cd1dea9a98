package executor

import (
	"math"
	"time"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// Backoff returns the delay before the attempt following attempt (1-based):
// base * 2^(attempt-1), capped at maxDelay, plus up to JitterFraction of
// that delay. random must be in [0, 1).
func Backoff(attempt int, base, maxDelay time.Duration, random float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(base) * math.Pow(constants.ExponentialBackoffBase, float64(attempt-1))
	if maxDelay > 0 && delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	jitter := delay * constants.JitterFraction * random

	return time.Duration(delay + jitter)
}

// RetryDelay picks the wait after a failed attempt. A RateLimit error with a
// server hint waits exactly that long; everything else backs off.
func RetryDelay(err *autotask.Error, attempt int, base, maxDelay time.Duration, random float64) time.Duration {
	if err != nil && err.Kind == autotask.KindRateLimit && err.RetryAfter > 0 {
		return err.RetryAfter
	}

	return Backoff(attempt, base, maxDelay, random)
}
