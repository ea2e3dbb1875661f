package indexer

import "time"

// Delays applied before each redelivery of a dispatch. The first
// attempt is immediate; later retries wait progressively longer.
// Indexing calls are cheap, so the table stays in the seconds range
// rather than hours.
var backoffDelays = []time.Duration{
	0,                // attempt 1: immediate
	1 * time.Second,  // attempt 2
	2 * time.Second,  // attempt 3
	5 * time.Second,  // attempt 4
	10 * time.Second, // attempt 5
	30 * time.Second, // attempt 6
	60 * time.Second, // attempt 7 and beyond
}

// BackoffDelay returns the delay to wait before the given attempt.
// attempt is 1-indexed; values past the table reuse the last entry.
func BackoffDelay(attempt int) time.Duration {
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(backoffDelays) {
		index = len(backoffDelays) - 1
	}
	return backoffDelays[index]
}
