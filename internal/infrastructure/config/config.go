package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Sceneforge Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	API      APIConfig      `yaml:"api"`
	Render   RenderConfig   `yaml:"render"`
}

// SiteConfig identifies this Sceneforge deployment.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
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

// InfluxDBConfig contains InfluxDB connection settings for render metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// RenderConfig contains scene rendering settings.
type RenderConfig struct {
	// TempRoot is the parent directory for per-attempt sandbox directories.
	TempRoot string `yaml:"temp_root"`

	// OutputRoot is where verified render artifacts are written, keyed by scene ID.
	OutputRoot string `yaml:"output_root"`

	// Resolution is the target output resolution for all frameworks ("WxH").
	Resolution string `yaml:"resolution"`

	// TemplatesDir optionally overrides the embedded code templates.
	TemplatesDir string `yaml:"templates_dir"`

	// Frameworks configures each rendering back-end, keyed by framework name
	// (manim, motioncanvas, remotion). A framework missing from this map is
	// disabled: scenes targeting it fail at render time, never the whole batch.
	Frameworks map[string]FrameworkConfig `yaml:"frameworks"`
}

// FrameworkConfig configures one external rendering back-end.
type FrameworkConfig struct {
	// Binary is the toolchain executable (e.g. "manim", "npx").
	Binary string `yaml:"binary"`

	// RenderTimeout is the hard wall-clock limit for one render attempt (seconds).
	RenderTimeout int `yaml:"render_timeout"`

	// BootstrapTimeout is the limit for the dependency-bootstrap step (seconds).
	// Only used by frameworks that install packages into the sandbox before
	// rendering. It is separate from RenderTimeout because a cold npm install
	// routinely outlasts the render itself.
	BootstrapTimeout int `yaml:"bootstrap_timeout"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SCENEFORGE_SECTION_KEY
// For example: SCENEFORGE_DATABASE_PATH, SCENEFORGE_RENDER_TEMP_ROOT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "sceneforge-001",
			Name: "Sceneforge",
		},
		Database: DatabaseConfig{
			Path:        "./data/sceneforge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "sceneforge-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 600, // batches render synchronously inside the request
				Idle:  60,
			},
		},
		Render: RenderConfig{
			TempRoot:   "./data/tmp",
			OutputRoot: "./data/out",
			Resolution: "1920x1080",
			Frameworks: map[string]FrameworkConfig{
				"manim": {
					Binary:        "manim",
					RenderTimeout: 120,
				},
				"motioncanvas": {
					Binary:        "npx",
					RenderTimeout: 180,
				},
				"remotion": {
					Binary:           "npx",
					RenderTimeout:    180,
					BootstrapTimeout: 300,
				},
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SCENEFORGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("SCENEFORGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("SCENEFORGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SCENEFORGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SCENEFORGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SCENEFORGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("SCENEFORGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Render roots
	if v := os.Getenv("SCENEFORGE_RENDER_TEMP_ROOT"); v != "" {
		cfg.Render.TempRoot = v
	}
	if v := os.Getenv("SCENEFORGE_RENDER_OUTPUT_ROOT"); v != "" {
		cfg.Render.OutputRoot = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Render.TempRoot == "" {
		errs = append(errs, "render.temp_root is required")
	}
	if c.Render.OutputRoot == "" {
		errs = append(errs, "render.output_root is required")
	}
	if len(c.Render.Frameworks) == 0 {
		errs = append(errs, "render.frameworks must configure at least one framework")
	}
	for name, fw := range c.Render.Frameworks {
		if fw.Binary == "" {
			errs = append(errs, fmt.Sprintf("render.frameworks.%s.binary is required", name))
		}
		if fw.RenderTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("render.frameworks.%s.render_timeout must be positive", name))
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

// GetRenderTimeout returns the render timeout for a framework as a Duration.
func (f FrameworkConfig) GetRenderTimeout() time.Duration {
	return time.Duration(f.RenderTimeout) * time.Second
}

// GetBootstrapTimeout returns the bootstrap timeout for a framework as a Duration.
func (f FrameworkConfig) GetBootstrapTimeout() time.Duration {
	return time.Duration(f.BootstrapTimeout) * time.Second
}
