package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mstor/docindex/pkg/logger"
)

// Config holds the application configuration, shared by the server, client
// and benchmark binaries. Each binary only reads the sections it cares about.
type Config struct {
	mu         sync.RWMutex
	configPath string

	// Server Configuration
	Server ServerConfig `json:"server"`

	// Client Configuration
	Client ClientConfig `json:"client"`

	// Logging Configuration (shared by all binaries)
	Logging logger.Config `json:"logging"`
}

// ServerConfig holds server-side listener and dispatch tuning.
type ServerConfig struct {
	// Port is the TCP listening port.
	Port int `json:"port"`

	// ArtificialDelayMS is the delay, in milliseconds, the worker sleeps
	// after fully receiving a request frame and before dispatching it.
	ArtificialDelayMS int `json:"artificial_delay_ms"`

	// AcceptDeadlineMS bounds how long the dispatcher blocks in Accept
	// before re-checking for a shutdown signal.
	AcceptDeadlineMS int `json:"accept_deadline_ms"`

	// AdminPort serves the logger's Prometheus/JSON metrics endpoint. Zero
	// disables the admin HTTP server.
	AdminPort int `json:"admin_port"`
}

// ClientConfig holds client-side connection and ingestion tuning.
type ClientConfig struct {
	// DefaultServerAddr is a default server address carried in the config
	// file. Neither the client's "connect" command nor the benchmark driver
	// reads it; both take the address from their own arguments.
	DefaultServerAddr string `json:"default_server_addr"`

	// WorkerCount is the size of the ingestion worker pool.
	WorkerCount int `json:"worker_count"`

	// QueueSize bounds the in-flight file queue during IndexFolder.
	QueueSize int `json:"queue_size"`
}

// ArtificialDelay returns the configured worker delay as a Duration.
func (s ServerConfig) ArtificialDelay() time.Duration {
	return time.Duration(s.ArtificialDelayMS) * time.Millisecond
}

// AcceptDeadline returns the configured accept-loop deadline as a Duration.
func (s ServerConfig) AcceptDeadline() time.Duration {
	return time.Duration(s.AcceptDeadlineMS) * time.Millisecond
}

var (
	globalConfig *Config
	once         sync.Once
)

func New() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Get returns the global configuration instance.
func Get() *Config {
	once.Do(func() {
		globalConfig = New()
	})
	return globalConfig
}

// setDefaults sets default values for configuration.
func (c *Config) setDefaults() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Server defaults
	c.Server.Port = 9090
	c.Server.ArtificialDelayMS = 50
	c.Server.AcceptDeadlineMS = 1000
	c.Server.AdminPort = 0

	// Client defaults
	c.Client.DefaultServerAddr = "127.0.0.1:9090"
	c.Client.WorkerCount = 6
	c.Client.QueueSize = 256

	// Logging defaults
	c.Logging.Level = logger.INFO
	c.Logging.LogDir = "logs"
	c.Logging.FileName = "docindex.log"
	c.Logging.ConsoleOutput = true
	c.Logging.ConsoleColor = true
}

// LoadFromFile loads configuration from a JSON file. A missing file is not
// an error; the in-memory defaults are retained.
func (c *Config) LoadFromFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.configPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	temp := Config{}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	c.mergeWithDefaults(&temp)

	return nil
}

// SaveToFile saves the current configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Save saves the configuration to the last loaded path.
func (c *Config) Save() error {
	c.mu.RLock()
	path := c.configPath
	c.mu.RUnlock()
	if path == "" {
		return errors.New("no config path set")
	}
	return c.SaveToFile(path)
}

// mergeWithDefaults merges loaded config with defaults: zero-valued fields
// in loaded keep the existing default, non-zero fields overwrite it. The
// exceptions are the console booleans, which are always taken from loaded,
// and the Kafka settings, which are only applied when KafkaEnabled is set.
func (c *Config) mergeWithDefaults(loaded *Config) {
	if loaded.Server.Port > 0 {
		c.Server.Port = loaded.Server.Port
	}
	if loaded.Server.ArtificialDelayMS > 0 {
		c.Server.ArtificialDelayMS = loaded.Server.ArtificialDelayMS
	}
	if loaded.Server.AcceptDeadlineMS > 0 {
		c.Server.AcceptDeadlineMS = loaded.Server.AcceptDeadlineMS
	}
	if loaded.Server.AdminPort > 0 {
		c.Server.AdminPort = loaded.Server.AdminPort
	}

	if loaded.Client.DefaultServerAddr != "" {
		c.Client.DefaultServerAddr = loaded.Client.DefaultServerAddr
	}
	if loaded.Client.WorkerCount > 0 {
		c.Client.WorkerCount = loaded.Client.WorkerCount
	}
	if loaded.Client.QueueSize > 0 {
		c.Client.QueueSize = loaded.Client.QueueSize
	}

	if loaded.Logging.Level > 0 {
		c.Logging.Level = loaded.Logging.Level
	}
	if loaded.Logging.AsyncBufferSize > 0 {
		c.Logging.AsyncBufferSize = loaded.Logging.AsyncBufferSize
	}
	if loaded.Logging.BatchSize > 0 {
		c.Logging.BatchSize = loaded.Logging.BatchSize
	}
	if loaded.Logging.FlushInterval > 0 {
		c.Logging.FlushInterval = loaded.Logging.FlushInterval
	}
	if loaded.Logging.LogDir != "" {
		c.Logging.LogDir = loaded.Logging.LogDir
	}
	if loaded.Logging.FileName != "" {
		c.Logging.FileName = loaded.Logging.FileName
	}
	if loaded.Logging.MaxFileSize > 0 {
		c.Logging.MaxFileSize = loaded.Logging.MaxFileSize
	}
	if loaded.Logging.MaxBackups > 0 {
		c.Logging.MaxBackups = loaded.Logging.MaxBackups
	}
	c.Logging.ConsoleOutput = loaded.Logging.ConsoleOutput
	c.Logging.ConsoleColor = loaded.Logging.ConsoleColor
	if loaded.Logging.KafkaEnabled {
		c.Logging.KafkaEnabled = true
		c.Logging.KafkaBrokers = loaded.Logging.KafkaBrokers
		if loaded.Logging.KafkaTopic != "" {
			c.Logging.KafkaTopic = loaded.Logging.KafkaTopic
		}
	}
}

// GetServerConfig returns a copy of the server configuration.
func (c *Config) GetServerConfig() ServerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Server
}

// GetClientConfig returns a copy of the client configuration.
func (c *Config) GetClientConfig() ClientConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Client
}

// GetLoggingConfig returns a copy of the logging configuration.
func (c *Config) GetLoggingConfig() logger.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Logging
}

// SetServerConfig sets the server configuration.
func (c *Config) SetServerConfig(cfg ServerConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Server = cfg
}

// SetClientConfig sets the client configuration.
func (c *Config) SetClientConfig(cfg ClientConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Client = cfg
}
