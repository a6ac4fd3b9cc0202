package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jgoulah/ecowatts/internal/normalize"
)

// Config holds the application configuration
type Config struct {
	Columns         normalize.ColumnMap `yaml:"columns"`
	TimestampLayout string              `yaml:"timestamp_layout,omitempty" default:"2006-01-02 15:04:05" validate:"required"`
	Sheet           string              `yaml:"sheet,omitempty"` // XLSX worksheet (default: first sheet)
	ForecastDays    int                 `yaml:"forecast_days,omitempty" default:"7" validate:"gte=1,lte=365"`
	Currency        string              `yaml:"currency,omitempty" default:"$"`
	Tips            map[string]string   `yaml:"tips,omitempty"` // Appliance -> tip overrides
	Cache           CacheConfig         `yaml:"cache"`
	Logging         LoggingConfig       `yaml:"logging"`
	HomeAssistant   HAConfig            `yaml:"home_assistant,omitempty"`
	MQTT            MQTTConfig          `yaml:"mqtt,omitempty"`
}

// CacheConfig controls the normalized table cache
type CacheConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty" default:"cache.db"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format,omitempty" default:"console" validate:"oneof=console json"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url" validate:"omitempty,url"`        // e.g., "http://yourdomain.local:5050"
	Token    string `yaml:"token" validate:"required_if=Enabled true"` // Long-lived access token
	EntityID string `yaml:"entity_id" default:"sensor.ecowatts_forecast" validate:"required_if=Enabled true"`
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker" validate:"required_if=Enabled true"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty" default:"ecowatts"`
	ClientID    string `yaml:"client_id,omitempty" default:"ecowatts"`
}

var validate = validator.New()

// Load reads the config file. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks field constraints and reports every violation at once
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetForecastDays returns the forecast horizon with a default of 7 days
func (c *Config) GetForecastDays() int {
	if c.ForecastDays <= 0 {
		return 7
	}
	return c.ForecastDays
}

// GetTimestampLayout returns the timestamp layout, falling back to the export default
func (c *Config) GetTimestampLayout() string {
	if c.TimestampLayout == "" {
		return normalize.DefaultTimestampLayout
	}
	return c.TimestampLayout
}

// GetCachePath returns the cache database path
func (c *Config) GetCachePath() string {
	if c.Cache.Path == "" {
		return "cache.db"
	}
	return c.Cache.Path
}
