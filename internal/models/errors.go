package models

import "fmt"

// Field names reported by MissingFieldError.
const (
	FieldJSONLDURL    = "JSON-LD url"
	FieldJSONURL      = "JSON url"
	FieldCanonicalURL = "canonical url"
	FieldSourceField  = "source field"
)

// ParseError marks a payload that could not be decoded into an Event.
// It is distinct from a generic error because the router must never
// redeliver malformed payloads.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse event envelope: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingFieldError marks an event field or representation link that
// the current route needed but the envelope did not carry. Optional
// marks relations whose absence is a legitimate event shape (e.g. the
// JSON url on a media pre-upload event) rather than bad data; the
// classifier skips the former and fails the latter.
type MissingFieldError struct {
	Field    string
	Optional bool
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("event has no %s", e.Field)
}
