// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Supported values for browser.type.
const (
	BrowserChrome = "chrome"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Driver  DriverConfig  `mapstructure:"driver" yaml:"driver"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig describes how the browser is obtained: a local Chrome process
// or a remote grid reached over its DevTools endpoint. SessionRateLimit caps
// new tabs per second; zero disables the limit.
type BrowserConfig struct {
	Type             string        `mapstructure:"type" yaml:"type"`
	Headless         bool          `mapstructure:"headless" yaml:"headless"`
	UseGrid          bool          `mapstructure:"use_grid" yaml:"use_grid"`
	HubURI           string        `mapstructure:"hub_uri" yaml:"hub_uri"`
	Args             []string      `mapstructure:"args" yaml:"args,omitempty"`
	WindowWidth      int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight     int           `mapstructure:"window_height" yaml:"window_height"`
	IgnoreTLSErrors  bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	LaunchTimeout    time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	SessionRateLimit float64       `mapstructure:"session_rate_limit" yaml:"session_rate_limit"`
}

// DriverConfig tunes the facade and its waits.
type DriverConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "sedriver")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.type", BrowserChrome)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.use_grid", false)
	v.SetDefault("browser.hub_uri", "")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.session_rate_limit", 5.0)

	// -- Driver --
	v.SetDefault("driver.default_timeout", "10s")
	v.SetDefault("driver.poll_interval", "100ms")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The hub address often differs per environment; allow it without a config file.
	_ = v.BindEnv("browser.hub_uri", "SEDRIVER_HUB_URI")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Logger.LogFile != "" {
		expanded, err := homedir.Expand(cfg.Logger.LogFile)
		if err != nil {
			return nil, fmt.Errorf("error expanding logger.log_file: %w", err)
		}
		cfg.Logger.LogFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Driver.Validate(); err != nil {
		return fmt.Errorf("driver configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser settings.
func (b *BrowserConfig) Validate() error {
	if b.SessionRateLimit < 0 {
		return fmt.Errorf("browser.session_rate_limit must not be negative")
	}
	if b.UseGrid {
		if strings.TrimSpace(b.HubURI) == "" {
			return fmt.Errorf("browser.hub_uri is required when browser.use_grid is set")
		}
		return nil
	}
	if !strings.EqualFold(b.Type, BrowserChrome) {
		return fmt.Errorf("browser.type %q is not supported for local sessions", b.Type)
	}
	if b.WindowWidth <= 0 || b.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive integers")
	}
	return nil
}

// Validate checks the driver settings.
func (d *DriverConfig) Validate() error {
	if d.DefaultTimeout <= 0 {
		return fmt.Errorf("driver.default_timeout must be a positive duration")
	}
	if d.PollInterval <= 0 {
		return fmt.Errorf("driver.poll_interval must be a positive duration")
	}
	if d.PollInterval > d.DefaultTimeout {
		return fmt.Errorf("driver.poll_interval must not exceed driver.default_timeout")
	}
	return nil
}
