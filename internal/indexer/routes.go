package indexer

import (
	"net/http"
	"strings"

	"github.com/adam-vessey/Alpaca/internal/config"
	"github.com/adam-vessey/Alpaca/internal/models"
)

// Address holds the fields extracted from one event that the
// downstream calls need. Extraction happens once, before any call is
// issued; a missing required field means zero calls are made.
type Address struct {
	UUID          string
	SourceField   string
	ResourceURL   string // sent as Content-Location when non-empty
	FedoraBaseURL string
	NewVersion    bool
}

// Resource is the identifier used in logs and the audit trail.
func (a *Address) Resource() string {
	if a.SourceField != "" {
		return a.SourceField
	}
	return a.UUID
}

// ExtractFunc pulls the addressing data a category needs out of a
// parsed event.
type ExtractFunc func(*models.Event) (*Address, error)

// URLFunc builds a downstream URL from the service base URL and the
// extracted address.
type URLFunc func(baseURL string, addr *Address) string

// Route is the static per-category configuration of one pipeline:
// which queue it drains, which method it uses, how it addresses the
// downstream service, and whether a version branch exists. The four
// event categories and the derivative connectors are all instances of
// this one shape.
type Route struct {
	Name       string
	Queue      string
	Method     string
	Extract    ExtractFunc
	PrimaryURL URLFunc

	// VersionURL, when set, adds the concurrent version-indexing
	// branch, dispatched only for events flagged as a new version.
	VersionURL URLFunc
}

// NodeRoute indexes node create/update events: POST to node/{uuid},
// fanning out to node/{uuid}/version for new versions. The JSON-LD
// link can be legitimately absent, which skips the event.
func NodeRoute(cfg *config.IndexerConfig) Route {
	return Route{
		Name:   "node-index",
		Queue:  cfg.NodeQueue,
		Method: http.MethodPost,
		Extract: func(event *models.Event) (*Address, error) {
			jsonldURL, err := event.JSONLDURL()
			if err != nil {
				return nil, err
			}
			return &Address{
				UUID:          event.UUID(),
				ResourceURL:   jsonldURL,
				FedoraBaseURL: event.Target,
				NewVersion:    event.Object.IsNewVersion,
			}, nil
		},
		PrimaryURL: func(baseURL string, addr *Address) string {
			return joinURL(baseURL, "node/"+addr.UUID)
		},
		VersionURL: func(baseURL string, addr *Address) string {
			return joinURL(baseURL, "node/"+addr.UUID+"/version")
		},
	}
}

// NodeDeleteRoute de-indexes deleted nodes: DELETE to node/{uuid},
// no representation link, no version branch.
func NodeDeleteRoute(cfg *config.IndexerConfig) Route {
	return Route{
		Name:   "node-delete",
		Queue:  cfg.NodeDeleteQueue,
		Method: http.MethodDelete,
		Extract: func(event *models.Event) (*Address, error) {
			return &Address{
				UUID:          event.UUID(),
				FedoraBaseURL: event.Target,
			}, nil
		},
		PrimaryURL: func(baseURL string, addr *Address) string {
			return joinURL(baseURL, "node/"+addr.UUID)
		},
	}
}

// MediaRoute indexes media events: POST to media/{sourceField}, with
// a version branch. Media events that fire before the file finishes
// uploading have no JSON link yet; those are skipped, not failed.
func MediaRoute(cfg *config.IndexerConfig) Route {
	return Route{
		Name:   "media-index",
		Queue:  cfg.MediaQueue,
		Method: http.MethodPost,
		Extract: func(event *models.Event) (*Address, error) {
			sourceField, err := event.SourceField()
			if err != nil {
				return nil, err
			}
			jsonURL, err := event.JSONURL()
			if err != nil {
				return nil, err
			}
			return &Address{
				SourceField:   sourceField,
				ResourceURL:   jsonURL,
				FedoraBaseURL: event.Target,
				NewVersion:    event.Object.IsNewVersion,
			}, nil
		},
		PrimaryURL: func(baseURL string, addr *Address) string {
			return joinURL(baseURL, "media/"+addr.SourceField)
		},
		VersionURL: func(baseURL string, addr *Address) string {
			return joinURL(baseURL, "media/"+addr.SourceField+"/version")
		},
	}
}

// ExternalFileRoute indexes externally hosted files: POST to
// external/{uuid}. The canonical Drupal URL is required; without it
// the file cannot be indexed at all.
func ExternalFileRoute(cfg *config.IndexerConfig) Route {
	return Route{
		Name:   "external-file-index",
		Queue:  cfg.ExternalQueue,
		Method: http.MethodPost,
		Extract: func(event *models.Event) (*Address, error) {
			canonicalURL, err := event.CanonicalURL()
			if err != nil {
				return nil, err
			}
			return &Address{
				UUID:          event.UUID(),
				ResourceURL:   canonicalURL,
				FedoraBaseURL: event.Target,
			}, nil
		},
		PrimaryURL: func(baseURL string, addr *Address) string {
			return joinURL(baseURL, "external/"+addr.UUID)
		},
	}
}

func joinURL(baseURL, path string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + path
}
