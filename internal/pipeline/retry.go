package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/dgallion1/dmukit/internal/store"
)

// IsRetryable checks if an error is worth retrying. Only transient SQLite
// lock conflicts qualify; document errors never do.
func IsRetryable(err error) bool {
	return store.IsRetryable(err)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
	if base > 10*time.Second {
		base = 10 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3
