// Package config loads the update endpoint configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ddnsup/internal/dns"
	"ddnsup/internal/logger"
	"ddnsup/internal/validator"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	// ErrNoBackend is returned when no DNS backend is configured
	ErrNoBackend = errors.New("no DNS backend configured")
	// ErrMultipleBackends is returned when more than one backend is configured
	ErrMultipleBackends = errors.New("more than one DNS backend configured")
)

// Config represents the complete server configuration
type Config struct {
	Listen       string           `mapstructure:"listen" validate:"required"`
	UpdateToken  string           `mapstructure:"update_token"`
	TTL          int              `mapstructure:"ttl" validate:"gte=0"`
	// TrustProxy takes the client address from X-Forwarded-For
	TrustProxy   bool             `mapstructure:"trust_proxy"`
	ReadTimeout  time.Duration    `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration    `mapstructure:"write_timeout" validate:"gte=0"`
	Cloudflare   CloudflareConfig `mapstructure:"cloudflare"`
	Route53      Route53Config    `mapstructure:"route53"`
	Log          logger.Config    `mapstructure:"log"`
}

// CloudflareConfig selects the Cloudflare DNS backend
type CloudflareConfig struct {
	APIToken string `mapstructure:"api_token"`
	// Zone is optional; the longest matching zone is used when empty
	Zone string `mapstructure:"zone" validate:"omitempty,hostname"`
}

// Route53Config selects the AWS Route 53 DNS backend. Credentials come from
// the default AWS chain.
type Route53Config struct {
	HostedZoneID string `mapstructure:"hosted_zone_id"`
	Region       string `mapstructure:"region"`
}

// HasBackend reports whether a DNS backend is configured
func (c *Config) HasBackend() bool {
	return c.Cloudflare.APIToken != "" || c.Route53.HostedZoneID != ""
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"listen":                 "DDNS_LISTEN",
	"update_token":           "DDNS_UPDATE_TOKEN",
	"ttl":                    "DDNS_TTL",
	"trust_proxy":            "DDNS_TRUST_PROXY",
	"cloudflare.api_token":   "CLOUDFLARE_API_TOKEN",
	"cloudflare.zone":        "CLOUDFLARE_ZONE",
	"route53.hosted_zone_id": "DDNS_HOSTED_ZONE_ID",
	"route53.region":         "AWS_REGION",
	"log.level":              "DDNS_LOG_LEVEL",
	"log.file":               "DDNS_LOG_FILE",
}

// LoadConfig loads server configuration from an optional YAML file and the
// environment. The environment wins over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		// Read config file
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("ttl", dns.DefaultTTL)
	v.SetDefault("read_timeout", 30*time.Second)
	v.SetDefault("write_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
}

// Validate checks value ranges. A missing update token or backend is not an
// error here; the endpoint reports it per request.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Cloudflare.APIToken != "" && c.Route53.HostedZoneID != "" {
		return ErrMultipleBackends
	}
	if err := c.Log.SetDefaults().Validate(); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	return nil
}

// ConfigPathFromEnv returns DDNS_SERVER_CONFIG when set
func ConfigPathFromEnv() string {
	return strings.TrimSpace(os.Getenv("DDNS_SERVER_CONFIG"))
}

// NewBackend builds the configured DNS backend
func (c *Config) NewBackend(logger *zap.Logger, opts ...dns.CloudflareOption) (dns.Backend, error) {
	if !c.HasBackend() {
		return nil, ErrNoBackend
	}
	if c.Route53.HostedZoneID != "" {
		return dns.NewRoute53(c.Route53.HostedZoneID, c.Route53.Region, logger)
	}
	return dns.NewCloudflare(c.Cloudflare.APIToken, c.Cloudflare.Zone, logger, opts...)
}
