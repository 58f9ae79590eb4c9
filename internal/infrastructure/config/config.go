package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is cloudcfg's own runtime configuration. It says where the server
// configuration lives and which optional integrations run alongside the
// loader. It is loaded from YAML and can be overridden by environment
// variables.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Probe    ProbeConfig    `yaml:"probe"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Security SecurityConfig `yaml:"security"`
}

// SourceConfig locates the server configuration file.
type SourceConfig struct {
	Path string `yaml:"path"`
	// Format is php, yaml, json or toml. Empty means infer from Path.
	Format string `yaml:"format"`
	// Strict rejects keys the schema does not declare.
	Strict bool `yaml:"strict"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DatabaseConfig contains settings for the SQLite snapshot store.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
	// Retain is how many snapshots to keep. 0 keeps all.
	Retain int `yaml:"retain"`
}

// ProbeConfig controls the data-store reachability check.
type ProbeConfig struct {
	Enabled bool `yaml:"enabled"`
	// Timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
	// Tags are added to every point, e.g. site: eu-west.
	Tags map[string]string `yaml:"tags"`
}

// APIConfig contains diagnostic HTTP API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains operator token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	// TokenTTL in minutes.
	TokenTTL int `yaml:"token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: CLOUDCFG_SECTION_KEY
// For example: CLOUDCFG_SOURCE_PATH, CLOUDCFG_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults. Every integration
// is off until configured.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Path: "/var/www/html/config/config.php",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Database: DatabaseConfig{
			Path:        "./data/cloudcfg.db",
			WALMode:     true,
			BusyTimeout: 5,
			Retain:      50,
		},
		Probe: ProbeConfig{
			Timeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "cloudcfg",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "cloudcfg",
		},
		InfluxDB: InfluxDBConfig{
			Org:           "cloudcfg",
			Bucket:        "cloudcfg",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8089,
			Timeouts: APITimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				TokenTTL: 60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: CLOUDCFG_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Source
	if v := os.Getenv("CLOUDCFG_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("CLOUDCFG_SOURCE_FORMAT"); v != "" {
		cfg.Source.Format = v
	}

	// Logging
	if v := os.Getenv("CLOUDCFG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Database
	if v := os.Getenv("CLOUDCFG_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("CLOUDCFG_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("CLOUDCFG_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("CLOUDCFG_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("CLOUDCFG_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("CLOUDCFG_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("CLOUDCFG_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("CLOUDCFG_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLOUDCFG_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}

	// Security - JWT secret should always come from the environment in production
	if v := os.Getenv("CLOUDCFG_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	return nil
}

// Validate checks the configuration for errors and security issues.
// Sections of disabled integrations are not checked.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Source validation
	if c.Source.Path == "" {
		errs = append(errs, "source.path is required")
	}
	switch strings.ToLower(c.Source.Format) {
	case "", "php", "yaml", "yml", "json", "toml":
	default:
		errs = append(errs, "source.format must be php, yaml, json or toml")
	}

	// Logging validation
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.Retain < 0 {
		errs = append(errs, "database.retain must not be negative")
	}

	// Probe validation
	if c.Probe.Enabled && c.Probe.Timeout < 1 {
		errs = append(errs, "probe.timeout must be at least 1 second")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.TopicPrefix == "" || strings.ContainsAny(c.MQTT.TopicPrefix, "#+") {
			errs = append(errs, "mqtt.topic_prefix must be non-empty and free of wildcards")
		}
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required")
		}
	}

	// API validation
	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
			errs = append(errs, "api.tls.cert_file and api.tls.key_file are required when TLS is enabled")
		}

		// The diagnostic API exposes the server layout, so it never runs
		// with a missing or weak token secret.
		const minJWTSecretLength = 32
		if c.Security.JWT.Secret == "" {
			errs = append(errs, "security.jwt.secret is required (set CLOUDCFG_JWT_SECRET environment variable)")
		} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetProbeTimeout returns the probe timeout as a Duration.
func (c *Config) GetProbeTimeout() time.Duration {
	return time.Duration(c.Probe.Timeout) * time.Second
}

// GetTokenTTL returns the operator token lifetime as a Duration.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.TokenTTL) * time.Minute
}
