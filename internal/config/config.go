package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultCollectInterval  = 6 * time.Second
	DefaultEvaluateInterval = 60 * time.Second
	DefaultWindow           = 6 * time.Hour
	DefaultMultiplier       = 1.2
	DefaultFloor            = 90.0
	DefaultSourceTimeout    = 10 * time.Second
	DefaultHTTPPort         = 8080
	DefaultStreamInterval   = 5 * time.Second
	DefaultSeries           = "cpu_usage"
)

// Config is the top-level pulsewatch configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	// Series is the name of the time series samples are written to.
	Series string `yaml:"series"`

	Source    SourceConfig    `yaml:"source"`
	Storage   StorageConfig   `yaml:"storage"`
	Collector CollectorConfig `yaml:"collector"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Notifiers NotifierConfig  `yaml:"notifiers"`
	Server    ServerConfig    `yaml:"server"`
}

// SourceConfig describes the external metrics endpoint that is sampled.
type SourceConfig struct {
	// Type selects the response format: actuator | prometheus.
	Type string `yaml:"type"`

	// Endpoint is the full URL of the metrics endpoint.
	Endpoint string `yaml:"endpoint"`

	// Metric is the metric family to extract. Required for type "prometheus";
	// ignored for "actuator", whose response carries a single value.
	Metric string `yaml:"metric"`

	// Timeout bounds one fetch so a slow endpoint cannot stall the collector.
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how the collector authenticates to the endpoint.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies the authentication mode for the source endpoint.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// API key fields, used when Mode == "apikey".
	// Header is the HTTP header name to send the key in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// Bearer token fields, used when Mode == "bearer".
	TokenEnv string `yaml:"token_env"`

	// Basic auth fields, used when Mode == "basic".
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// StorageConfig configures the time-series persistence backend.
type StorageConfig struct {
	// Backend selects the storage implementation: badger | postgres.
	Backend string `yaml:"backend"`

	// Path is the filesystem directory for the badger database.
	Path string `yaml:"path"`

	// DSNEnv is the name of the environment variable holding the Postgres
	// connection string. The DSN carries credentials, so it never appears
	// in the config file directly.
	DSNEnv string `yaml:"dsn_env"`
}

// DSN returns the Postgres connection string resolved from the environment.
func (s StorageConfig) DSN() string {
	if s.DSNEnv == "" {
		return ""
	}
	return os.Getenv(s.DSNEnv)
}

// CollectorConfig holds the sampling loop settings.
type CollectorConfig struct {
	// Interval controls how often the source is sampled.
	Interval time.Duration `yaml:"interval"`
}

// EvaluatorConfig holds the alert evaluation loop settings.
type EvaluatorConfig struct {
	// Interval controls how often the threshold is recomputed and compared
	// against the latest sample. Independent of the collector interval;
	// it should normally be longer so the trailing average is meaningful.
	Interval time.Duration `yaml:"interval"`

	// Window is the trailing interval the average is computed over.
	Window time.Duration `yaml:"window"`

	// Multiplier scales the trailing average into the dynamic threshold.
	Multiplier float64 `yaml:"multiplier"`

	// Floor is the static sanity bound: a computed threshold at or below the
	// floor never produces an alert.
	Floor float64 `yaml:"floor"`
}

// NotifierConfig holds all notification delivery targets.
type NotifierConfig struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Kafka    KafkaConfig     `yaml:"kafka"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// KafkaConfig defines the optional Kafka alert topic. Disabled when Brokers
// is empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether alerts should be published to Kafka.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// ServerConfig holds the HTTP API and websocket settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, /metrics and the websocket stream
	// listen on.
	HTTPPort int `yaml:"http_port"`

	// StreamInterval controls how often the websocket hub broadcasts the
	// current status to connected clients.
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Series: DefaultSeries,
		Source: SourceConfig{
			Type:    "actuator",
			Timeout: DefaultSourceTimeout,
		},
		Storage: StorageConfig{
			Backend: "badger",
			Path:    "./data",
		},
		Collector: CollectorConfig{Interval: DefaultCollectInterval},
		Evaluator: EvaluatorConfig{
			Interval:   DefaultEvaluateInterval,
			Window:     DefaultWindow,
			Multiplier: DefaultMultiplier,
			Floor:      DefaultFloor,
		},
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			StreamInterval: DefaultStreamInterval,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Series == "" {
		return fmt.Errorf("series is required")
	}
	if cfg.Source.Endpoint == "" {
		return fmt.Errorf("source.endpoint is required")
	}
	switch cfg.Source.Type {
	case "actuator":
	case "prometheus":
		if cfg.Source.Metric == "" {
			return fmt.Errorf("source.metric is required for type %q", cfg.Source.Type)
		}
	default:
		return fmt.Errorf("source: unknown type %q", cfg.Source.Type)
	}
	if cfg.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	switch cfg.Source.Auth.Mode {
	case "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("source: unknown auth mode %q", cfg.Source.Auth.Mode)
	}

	switch cfg.Storage.Backend {
	case "badger":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for backend badger")
		}
	case "postgres":
		if cfg.Storage.DSNEnv == "" {
			return fmt.Errorf("storage.dsn_env is required for backend postgres")
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", cfg.Storage.Backend)
	}

	if cfg.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be positive")
	}
	if cfg.Evaluator.Interval <= 0 {
		return fmt.Errorf("evaluator.interval must be positive")
	}
	if cfg.Evaluator.Window <= 0 {
		return fmt.Errorf("evaluator.window must be positive")
	}
	if cfg.Evaluator.Multiplier <= 0 {
		return fmt.Errorf("evaluator.multiplier must be positive")
	}
	if cfg.Evaluator.Floor < 0 {
		return fmt.Errorf("evaluator.floor must not be negative")
	}

	for i, wh := range cfg.Notifiers.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("notifiers.webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}
	if cfg.Notifiers.Kafka.Enabled() && cfg.Notifiers.Kafka.Topic == "" {
		return fmt.Errorf("notifiers.kafka.topic is required when brokers are set")
	}

	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range")
	}
	if cfg.Server.StreamInterval <= 0 {
		return fmt.Errorf("server.stream_interval must be positive")
	}
	return nil
}
