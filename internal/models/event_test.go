package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const nodeEventJSON = `{
	"type": "Update",
	"object": {
		"id": "urn:uuid:9541c0c1-5bee-4973-a9d0-e55c1658bc8d",
		"isNewVersion": true,
		"url": [
			{"name": "JSON-LD", "type": "Link", "href": "http://drupal.test/node/1?_format=jsonld", "mediaType": "application/ld+json", "rel": "alternate"},
			{"name": "JSON", "type": "Link", "href": "http://drupal.test/node/1?_format=json", "mediaType": "application/json", "rel": "alternate"},
			{"name": "Canonical", "type": "Link", "href": "http://drupal.test/node/1", "mediaType": "text/html", "rel": "canonical"}
		]
	},
	"target": "http://fedora.test/fcrepo/rest"
}`

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(nodeEventJSON))
	require.NoError(t, err)
	require.Equal(t, "Update", event.Type)
	require.Equal(t, "urn:uuid:9541c0c1-5bee-4973-a9d0-e55c1658bc8d", event.Object.ID)
	require.Equal(t, "http://fedora.test/fcrepo/rest", event.Target)
	require.True(t, event.Object.IsNewVersion)
}

func TestParseEventMalformedPayload(t *testing.T) {
	event, err := ParseEvent([]byte("this is not json"))
	require.Nil(t, event)
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestUUIDStripsURNPrefix(t *testing.T) {
	event := &Event{Object: Object{ID: "urn:uuid:1234-5678"}}
	require.Equal(t, "1234-5678", event.UUID())
}

func TestUUIDWithoutPrefixIsVerbatim(t *testing.T) {
	event := &Event{Object: Object{ID: "1234-5678"}}
	require.Equal(t, "1234-5678", event.UUID())
}

func TestLinkAccessors(t *testing.T) {
	event, err := ParseEvent([]byte(nodeEventJSON))
	require.NoError(t, err)

	jsonldURL, err := event.JSONLDURL()
	require.NoError(t, err)
	require.Equal(t, "http://drupal.test/node/1?_format=jsonld", jsonldURL)

	jsonURL, err := event.JSONURL()
	require.NoError(t, err)
	require.Equal(t, "http://drupal.test/node/1?_format=json", jsonURL)

	canonicalURL, err := event.CanonicalURL()
	require.NoError(t, err)
	require.Equal(t, "http://drupal.test/node/1", canonicalURL)
}

func TestMissingOptionalLinks(t *testing.T) {
	event := &Event{}

	_, err := event.JSONLDURL()
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, FieldJSONLDURL, missing.Field)
	require.True(t, missing.Optional)

	_, err = event.JSONURL()
	require.True(t, errors.As(err, &missing))
	require.Equal(t, FieldJSONURL, missing.Field)
	require.True(t, missing.Optional)
}

func TestMissingCanonicalURLIsRequired(t *testing.T) {
	event := &Event{}

	_, err := event.CanonicalURL()
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, FieldCanonicalURL, missing.Field)
	require.False(t, missing.Optional)
}

func TestSourceField(t *testing.T) {
	event := &Event{
		Attachment: &Attachment{
			Content: AttachmentContent{SourceField: "field_media_image"},
		},
	}
	sourceField, err := event.SourceField()
	require.NoError(t, err)
	require.Equal(t, "field_media_image", sourceField)
}

func TestSourceFieldMissingAttachment(t *testing.T) {
	event := &Event{}

	_, err := event.SourceField()
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, FieldSourceField, missing.Field)
	require.False(t, missing.Optional)
}
