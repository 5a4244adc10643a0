package queue

import (
	"math/rand"
	"time"
)

const jitterWindow = 250 * time.Millisecond

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// RetryDelay returns the wait before the given attempt runs again: the base
// delay doubled per prior attempt, capped, plus a small jitter so competing
// workers do not wake in lockstep.
func RetryDelay(attempt int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	if cap <= 0 {
		cap = 5 * time.Minute
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			delay = cap
			break
		}
	}
	return delay + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
