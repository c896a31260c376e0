package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the light bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	History   HistoryConfig   `yaml:"history"`
	Lights    []LightConfig   `yaml:"lights"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
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
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
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
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HistoryConfig controls the light state audit trail.
type HistoryConfig struct {
	RetentionDays int `yaml:"retention_days"` // 0 keeps everything
	PruneInterval int `yaml:"prune_interval"` // minutes
}

// LightConfig describes one MQTT light.
type LightConfig struct {
	Name         string `yaml:"name"`
	Schema       string `yaml:"schema"` // "plain" or "json"
	StateTopic   string `yaml:"state_topic"`
	CommandTopic string `yaml:"command_topic"`
	QoS          int    `yaml:"qos"`
	Retain       bool   `yaml:"retain"`
	Optimistic   bool   `yaml:"optimistic"`
	Brightness   bool   `yaml:"brightness"`
	RGB          bool   `yaml:"rgb"`
}

// SimulatorConfig configures the simulated ESP8266 lights.
type SimulatorConfig struct {
	ClientID            string   `yaml:"client_id"`
	Lights              []string `yaml:"lights"` // empty simulates every light with a state topic
	FlashShortSeconds   int      `yaml:"flash_short_seconds"`
	FlashLongSeconds    int      `yaml:"flash_long_seconds"`
	DefaultFlashSeconds int      `yaml:"default_flash_seconds"`
}

// Supported light schemas.
var validSchemas = map[string]bool{"": true, "plain": true, "json": true}

// commandTopicSuffix is appended to a state topic when no command topic is set.
const commandTopicSuffix = "/set"

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//  4. Derived light defaults (command topics)
//
// Environment variables follow the pattern: LIGHTBRIDGE_SECTION_KEY
// For example: LIGHTBRIDGE_DATABASE_PATH, LIGHTBRIDGE_MQTT_HOST
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
	applyLightDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/lightbridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lightbridge",
			},
			QoS:         1,
			TopicPrefix: "lightbridge",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		History: HistoryConfig{
			RetentionDays: 30,
			PruneInterval: 60,
		},
		Simulator: SimulatorConfig{
			ClientID:            "lightsim",
			FlashShortSeconds:   2,
			FlashLongSeconds:    10,
			DefaultFlashSeconds: 2,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LIGHTBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIGHTBRIDGE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("LIGHTBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LIGHTBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LIGHTBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("LIGHTBRIDGE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("LIGHTBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("LIGHTBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// applyLightDefaults fills in command topics derived from state topics,
// following the device convention of "<state topic>/set".
func applyLightDefaults(cfg *Config) {
	for i := range cfg.Lights {
		l := &cfg.Lights[i]
		if l.CommandTopic == "" && l.StateTopic != "" {
			l.CommandTopic = l.StateTopic + commandTopicSuffix
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.History.RetentionDays < 0 {
		errs = append(errs, "history.retention_days must not be negative")
	}

	errs = append(errs, c.validateLights()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (c *Config) validateLights() []string {
	var errs []string
	seen := make(map[string]bool, len(c.Lights))
	stateTopics := make(map[string]string, len(c.Lights))

	for i, l := range c.Lights {
		prefix := fmt.Sprintf("lights[%d]", i)
		if l.Name == "" {
			errs = append(errs, prefix+".name is required")
		} else if seen[strings.ToLower(l.Name)] {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, l.Name))
		}
		seen[strings.ToLower(l.Name)] = true

		if l.StateTopic != "" {
			if owner, ok := stateTopics[l.StateTopic]; ok {
				errs = append(errs, fmt.Sprintf("%s.state_topic %q is already used by %q", prefix, l.StateTopic, owner))
			} else {
				stateTopics[l.StateTopic] = l.Name
			}
			if strings.ContainsAny(l.StateTopic, "+#") {
				errs = append(errs, prefix+".state_topic must not contain wildcards")
			}
		}

		if l.CommandTopic == "" {
			errs = append(errs, prefix+".command_topic is required")
		}
		if strings.ContainsAny(l.CommandTopic, "+#") {
			errs = append(errs, prefix+".command_topic must not contain wildcards")
		}
		if !validSchemas[strings.ToLower(l.Schema)] {
			errs = append(errs, fmt.Sprintf("%s.schema %q must be plain or json", prefix, l.Schema))
		}
		if l.QoS < 0 || l.QoS > 2 {
			errs = append(errs, prefix+".qos must be 0, 1, or 2")
		}
	}

	return errs
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

// GetPruneInterval returns the history prune interval as a Duration.
func (c *Config) GetPruneInterval() time.Duration {
	return time.Duration(c.History.PruneInterval) * time.Minute
}
