package indexer

import "fmt"

// StatusError is a non-2xx downstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream returned HTTP %d", e.Code)
}

// RetriesExhaustedError marks a branch whose redelivery budget ran
// out. The originating failure is kept for the terminal log line.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}
