package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for both binaries. The server reads
// Server/MySQL/Redis/Storage/Registry/Logger; the agent reads Agent/Logger.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Registry RegistryConfig `yaml:"registry"`
	Agent    AgentConfig    `yaml:"agent"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// ServerConfig HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DSN builds the gorm MySQL DSN.
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig object storage (MinIO) configuration
type StorageConfig struct {
	Endpoint    string `yaml:"endpoint"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	UseSSL      bool   `yaml:"use_ssl"`
	TraceBucket string `yaml:"trace_bucket"` // bucket holding collected trace files
}

// RegistryConfig device registry tuning
type RegistryConfig struct {
	LivenessWindow int `yaml:"liveness_window"` // seconds before an unreported device decays to offline
}

// AgentConfig per-host worker agent configuration
type AgentConfig struct {
	ServerURL           string `yaml:"server_url"` // control plane base URL
	HostName            string `yaml:"host_name"`  // defaults to os.Hostname()
	HostKey             string `yaml:"host_key"`   // bearer credential for the worker API
	ADBPath             string `yaml:"adb_path"`
	ScanInterval        int    `yaml:"scan_interval"`         // device scan period (seconds)
	PollInterval        int    `yaml:"poll_interval"`         // work poll period (seconds)
	MaxConcurrentTraces int    `yaml:"max_concurrent_traces"` // per-host trace concurrency bound
	WorkDir             string `yaml:"work_dir"`              // scratch dir for pulled trace files
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from path. When path is empty the CONFIG_PATH
// environment variable is consulted, falling back to config/config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Storage.TraceBucket == "" {
		c.Storage.TraceBucket = "traces"
	}
	if c.Registry.LivenessWindow <= 0 {
		c.Registry.LivenessWindow = 30
	}
	if c.Agent.ADBPath == "" {
		c.Agent.ADBPath = "adb"
	}
	if c.Agent.ScanInterval <= 0 {
		c.Agent.ScanInterval = 5
	}
	if c.Agent.PollInterval <= 0 {
		c.Agent.PollInterval = 5
	}
	if c.Agent.MaxConcurrentTraces <= 0 {
		c.Agent.MaxConcurrentTraces = 4
	}
	if c.Agent.WorkDir == "" {
		c.Agent.WorkDir = os.TempDir()
	}
	if c.Agent.HostName == "" {
		if hn, err := os.Hostname(); err == nil {
			c.Agent.HostName = hn
		}
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "console"
	}
}
