package service

import "time"

// Backoff computes the delay before a retry.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Next returns the delay after the given failed attempt (1-based). The
// exponential delay is capped at Max, never shorter than the previous delay
// for the same intent, and floored by a platform-supplied retryAfter.
func (b Backoff) Next(attempt int, previous, retryAfter time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= b.Max {
			break
		}
	}
	if delay > b.Max {
		delay = b.Max
	}
	if previous > delay {
		delay = previous
	}
	if retryAfter > delay {
		delay = retryAfter
	}
	return delay
}
