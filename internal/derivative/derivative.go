// Package derivative turns the declarative connector list into
// indexing routes. A derivative connector is the degenerate case of
// the pipeline: one input queue, one fixed downstream URL, a single
// branch, and the standard failure classification.
package derivative

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/adam-vessey/Alpaca/internal/config"
	"github.com/adam-vessey/Alpaca/internal/indexer"
	"github.com/adam-vessey/Alpaca/internal/models"
)

// Routes parses the configured "name=queue|url" connector entries.
func Routes(cfg *config.IndexerConfig) ([]indexer.Route, error) {
	routes := make([]indexer.Route, 0, len(cfg.DerivativeConnectors))
	for _, entry := range cfg.DerivativeConnectors {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		route, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func parseEntry(entry string) (indexer.Route, error) {
	name, rest, ok := strings.Cut(entry, "=")
	if !ok {
		return indexer.Route{}, fmt.Errorf("invalid derivative connector %q: expected name=queue|url", entry)
	}
	queue, serviceURL, ok := strings.Cut(rest, "|")
	if !ok || name == "" || queue == "" || serviceURL == "" {
		return indexer.Route{}, fmt.Errorf("invalid derivative connector %q: expected name=queue|url", entry)
	}

	return indexer.Route{
		Name:   "derivative-" + name,
		Queue:  queue,
		Method: http.MethodPost,
		Extract: func(event *models.Event) (*indexer.Address, error) {
			jsonldURL, err := event.JSONLDURL()
			if err != nil {
				return nil, err
			}
			return &indexer.Address{
				UUID:          event.UUID(),
				ResourceURL:   jsonldURL,
				FedoraBaseURL: event.Target,
			}, nil
		},
		// The destination is fixed per connector; the Milliner base
		// URL plays no part here.
		PrimaryURL: func(_ string, _ *indexer.Address) string {
			return serviceURL
		},
	}, nil
}
