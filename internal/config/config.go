package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration. It is loaded once at
// startup and handed to every component read-only; nothing mutates
// it afterwards.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	RabbitMQ RabbitMQConfig
	Indexer  IndexerConfig
	Audit    AuditConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Name     string `env:"APP_NAME" envDefault:"alpaca"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port string `env:"SERVER_PORT" envDefault:"8181"`
}

type RabbitMQConfig struct {
	URL      string `env:"RABBITMQ_URL"`
	Host     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	Port     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	User     string `env:"RABBITMQ_USER" envDefault:"guest"`
	Password string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	VHost    string `env:"RABBITMQ_VHOST" envDefault:"/"`
}

// IndexerConfig is the route policy for the fcrepo indexing routes:
// queue names per event category, the Milliner service base URL, the
// header used to carry the originating Fedora base URL, and the retry
// and concurrency limits.
type IndexerConfig struct {
	NodeQueue       string `env:"FCREPO_INDEXER_NODE_QUEUE" envDefault:"islandora-indexing-fcrepo-content"`
	NodeDeleteQueue string `env:"FCREPO_INDEXER_NODE_DELETE_QUEUE" envDefault:"islandora-indexing-fcrepo-delete"`
	MediaQueue      string `env:"FCREPO_INDEXER_MEDIA_QUEUE" envDefault:"islandora-indexing-fcrepo-media"`
	ExternalQueue   string `env:"FCREPO_INDEXER_EXTERNAL_QUEUE" envDefault:"islandora-indexing-fcrepo-file-external"`

	MillinerBaseURL string `env:"FCREPO_INDEXER_MILLINER_BASE_URL" envDefault:"http://localhost:8000/milliner/"`
	FedoraHeader    string `env:"FCREPO_INDEXER_FEDORA_HEADER" envDefault:"X-Islandora-Fedora-Endpoint"`

	MaxRedeliveries int           `env:"FCREPO_INDEXER_MAX_REDELIVERIES" envDefault:"4"`
	Concurrency     int           `env:"FCREPO_INDEXER_CONCURRENCY" envDefault:"2"`
	PrefetchCount   int           `env:"FCREPO_INDEXER_PREFETCH_COUNT" envDefault:"10"`
	HTTPTimeout     time.Duration `env:"FCREPO_INDEXER_HTTP_TIMEOUT" envDefault:"30s"`
	PoolSize        int           `env:"FCREPO_INDEXER_POOL_SIZE" envDefault:"16"`

	// Derivative connector declarations, one "name=queue|url" entry
	// per connector, e.g. "houdini=islandora-connector-houdini|http://localhost:8000/houdini/convert".
	DerivativeConnectors []string `env:"DERIVATIVE_CONNECTORS" envSeparator:";"`
}

// AuditConfig controls the optional dispatch-attempt audit log. The
// router itself never reads it; it exists for operators.
type AuditConfig struct {
	Enabled  bool   `env:"AUDIT_ENABLED" envDefault:"false"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"alpaca"`
	Password string `env:"DB_PASSWORD"`
	DBName   string `env:"DB_NAME" envDefault:"alpaca"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

type TracingConfig struct {
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Indexer.MaxRedeliveries < 0 {
		return nil, fmt.Errorf("FCREPO_INDEXER_MAX_REDELIVERIES must not be negative")
	}
	if cfg.Indexer.Concurrency < 1 {
		return nil, fmt.Errorf("FCREPO_INDEXER_CONCURRENCY must be at least 1")
	}
	return cfg, nil
}

// ConnectionURL returns the AMQP URL, preferring an explicit
// RABBITMQ_URL over the individual host parts.
func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}

// ConnectionString returns a postgres DSN for the audit database.
func (c *AuditConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// MigrateURL returns a postgres URL for golang-migrate.
func (c *AuditConfig) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}
