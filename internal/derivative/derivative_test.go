package derivative

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adam-vessey/Alpaca/internal/config"
	"github.com/adam-vessey/Alpaca/internal/models"
)

func TestRoutes(t *testing.T) {
	cfg := &config.IndexerConfig{
		DerivativeConnectors: []string{
			"houdini=islandora-connector-houdini|http://localhost:8000/houdini/convert",
			"homarus=islandora-connector-homarus|http://localhost:8000/homarus/convert",
		},
	}

	routes, err := Routes(cfg)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	require.Equal(t, "derivative-houdini", routes[0].Name)
	require.Equal(t, "islandora-connector-houdini", routes[0].Queue)
	require.Equal(t, http.MethodPost, routes[0].Method)
	require.Nil(t, routes[0].VersionURL)

	// The destination is fixed regardless of the Milliner base URL.
	url := routes[0].PrimaryURL("http://milliner.test/", nil)
	require.Equal(t, "http://localhost:8000/houdini/convert", url)
}

func TestRoutesSkipsEmptyEntries(t *testing.T) {
	cfg := &config.IndexerConfig{
		DerivativeConnectors: []string{"", "  "},
	}

	routes, err := Routes(cfg)
	require.NoError(t, err)
	require.Empty(t, routes)
}

func TestRoutesRejectsMalformedEntries(t *testing.T) {
	for _, entry := range []string{
		"houdini",
		"houdini=queue-only",
		"=queue|url",
		"houdini=|url",
		"houdini=queue|",
	} {
		cfg := &config.IndexerConfig{DerivativeConnectors: []string{entry}}
		_, err := Routes(cfg)
		require.Error(t, err, "entry %q should be rejected", entry)
	}
}

func TestConnectorExtract(t *testing.T) {
	cfg := &config.IndexerConfig{
		DerivativeConnectors: []string{"houdini=q|http://houdini.test/convert"},
	}
	routes, err := Routes(cfg)
	require.NoError(t, err)

	event := &models.Event{
		Object: models.Object{
			ID: "urn:uuid:abc-123",
			URL: []models.Link{
				{Href: "http://drupal.test/node/1?_format=jsonld", MediaType: "application/ld+json"},
			},
		},
		Target: "http://fedora.test/fcrepo/rest",
	}

	addr, err := routes[0].Extract(event)
	require.NoError(t, err)
	require.Equal(t, "abc-123", addr.UUID)
	require.Equal(t, "http://drupal.test/node/1?_format=jsonld", addr.ResourceURL)
	require.Equal(t, "http://fedora.test/fcrepo/rest", addr.FedoraBaseURL)
}
