package common

import (
	"time"

	"golang.org/x/exp/rand"
)

// MaxBackoff caps the window Backoff draws from.
const MaxBackoff = time.Minute

// Backoff returns a random delay in [0, base*2^attempt), with the window
// capped at MaxBackoff.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}

	window := MaxBackoff
	if attempt < 0 {
		attempt = 0
	}
	if base < MaxBackoff && attempt < 63 && base <= MaxBackoff>>uint(attempt) {
		window = base << uint(attempt)
	}

	return time.Duration(rand.Int63n(int64(window)))
}
