package models

import (
	"encoding/json"
	"strings"
)

// Event is an ActivityStreams 2.0 style change notification emitted
// by Drupal. It is parsed once per message and treated as immutable
// afterwards; no state is carried between messages.
type Event struct {
	Type       string      `json:"type"`
	Object     Object      `json:"object"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Target     string      `json:"target"`
}

// Object describes the content entity the event concerns.
type Object struct {
	ID           string `json:"id"`
	URL          []Link `json:"url"`
	IsNewVersion bool   `json:"isNewVersion"`
}

// Link is one entry in the object's representation link list.
type Link struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Href      string `json:"href"`
	MediaType string `json:"mediaType"`
	Rel       string `json:"rel"`
}

// Attachment carries media-specific metadata.
type Attachment struct {
	Type      string            `json:"type"`
	Content   AttachmentContent `json:"content"`
	MediaType string            `json:"mediaType"`
}

// AttachmentContent identifies which media source field on the
// parent node the event applies to.
type AttachmentContent struct {
	SourceField    string `json:"sourceField"`
	MimeType       string `json:"mimetype,omitempty"`
	Args           string `json:"args,omitempty"`
	DestinationURI string `json:"destination_uri,omitempty"`
}

// ParseEvent decodes an event envelope. A payload that is not valid
// JSON yields a *ParseError; redelivering such a message cannot make
// it valid, so callers treat that as terminal.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &event, nil
}

// UUID strips the urn:uuid: prefix from the object identifier. The
// remainder is used verbatim in downstream paths; it is not
// re-validated here.
func (e *Event) UUID() string {
	return strings.TrimPrefix(e.Object.ID, "urn:uuid:")
}

// JSONLDURL returns the href of the object's JSON-LD representation.
// Absence is expected for some event shapes and resolves to a skip,
// not a failure.
func (e *Event) JSONLDURL() (string, error) {
	if href := e.linkByMediaType("application/ld+json"); href != "" {
		return href, nil
	}
	return "", &MissingFieldError{Field: FieldJSONLDURL, Optional: true}
}

// JSONURL returns the href of the object's plain JSON representation.
// Media events that fire before the file upload completes legitimately
// lack this link, so absence is optional-by-design.
func (e *Event) JSONURL() (string, error) {
	if href := e.linkByMediaType("application/json"); href != "" {
		return href, nil
	}
	return "", &MissingFieldError{Field: FieldJSONURL, Optional: true}
}

// CanonicalURL returns the canonical Drupal URL of the object. External
// file events cannot be indexed without it.
func (e *Event) CanonicalURL() (string, error) {
	for _, link := range e.Object.URL {
		if link.Rel == "canonical" && link.Href != "" {
			return link.Href, nil
		}
	}
	return "", &MissingFieldError{Field: FieldCanonicalURL}
}

// SourceField returns the media source field name from the attachment.
func (e *Event) SourceField() (string, error) {
	if e.Attachment == nil || e.Attachment.Content.SourceField == "" {
		return "", &MissingFieldError{Field: FieldSourceField}
	}
	return e.Attachment.Content.SourceField, nil
}

func (e *Event) linkByMediaType(mediaType string) string {
	for _, link := range e.Object.URL {
		if link.MediaType == mediaType && link.Href != "" {
			return link.Href
		}
	}
	return ""
}
