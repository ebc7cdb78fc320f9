package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration, loaded from
// environment variables (REVLENS_ prefix) layered over an optional
// YAML file.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/revlens.log"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// DashboardConfig holds the analytics defaults and interactive-control
// ranges surfaced by the API.
type DashboardConfig struct {
	PageSize     int `yaml:"page_size" envconfig:"PAGE_SIZE" default:"20"`
	TopCustomers int `yaml:"top_customers" envconfig:"TOP_CUSTOMERS" default:"20"`

	// Outlier thresholds: low flags possible churn, high flags revenue
	// spikes. The min/max pairs bound what the API accepts.
	LowThresholdDefault  float64 `yaml:"low_threshold_default" envconfig:"LOW_THRESHOLD_DEFAULT" default:"5000"`
	LowThresholdMin      float64 `yaml:"low_threshold_min" envconfig:"LOW_THRESHOLD_MIN" default:"0"`
	LowThresholdMax      float64 `yaml:"low_threshold_max" envconfig:"LOW_THRESHOLD_MAX" default:"100000"`
	HighThresholdDefault float64 `yaml:"high_threshold_default" envconfig:"HIGH_THRESHOLD_DEFAULT" default:"300000"`
	HighThresholdMin     float64 `yaml:"high_threshold_min" envconfig:"HIGH_THRESHOLD_MIN" default:"100000"`
	HighThresholdMax     float64 `yaml:"high_threshold_max" envconfig:"HIGH_THRESHOLD_MAX" default:"1000000"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	CacheCapacity  int   `yaml:"cache_capacity" envconfig:"CACHE_CAPACITY" default:"16"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment values take precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("REVLENS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("REVLENS_CONFIG_FILE"); path != "" {
		return path
	}
	return "revlens.yaml"
}

func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs fills zero-valued env fields from the file config.
func mergeConfigs(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Server.ReadTimeout == 0 {
		envCfg.Server.ReadTimeout = fileCfg.Server.ReadTimeout
	}
	if envCfg.Server.WriteTimeout == 0 {
		envCfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}
	if envCfg.Logging.Output == "" {
		envCfg.Logging.Output = fileCfg.Logging.Output
	}
	if envCfg.Dashboard.PageSize == 0 {
		envCfg.Dashboard.PageSize = fileCfg.Dashboard.PageSize
	}
	if envCfg.Dashboard.CacheCapacity == 0 {
		envCfg.Dashboard.CacheCapacity = fileCfg.Dashboard.CacheCapacity
	}
	return envCfg
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Dashboard.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", c.Dashboard.PageSize)
	}
	if c.Dashboard.TopCustomers < 1 {
		return fmt.Errorf("top customers must be positive, got %d", c.Dashboard.TopCustomers)
	}
	if c.Dashboard.CacheCapacity < 1 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.Dashboard.CacheCapacity)
	}
	if c.Dashboard.MaxUploadBytes < 1 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.Dashboard.MaxUploadBytes)
	}
	if err := validateThresholdRange("low", c.Dashboard.LowThresholdMin, c.Dashboard.LowThresholdDefault, c.Dashboard.LowThresholdMax); err != nil {
		return err
	}
	return validateThresholdRange("high", c.Dashboard.HighThresholdMin, c.Dashboard.HighThresholdDefault, c.Dashboard.HighThresholdMax)
}

func validateThresholdRange(name string, min, def, max float64) error {
	if min > max {
		return fmt.Errorf("%s threshold range is inverted: [%g, %g]", name, min, max)
	}
	if def < min || def > max {
		return fmt.Errorf("%s threshold default %g is outside [%g, %g]", name, def, min, max)
	}
	return nil
}
