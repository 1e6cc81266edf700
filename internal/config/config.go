// Package config resolves the client configuration from command-line flags,
// environment variables, an optional YAML file and built-in defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"ddnsup/internal/logger"
	"ddnsup/internal/state"
	"ddnsup/internal/validator"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName is the name of the application
const AppName = "ddnsup"

var (
	ErrMissingToken    = errors.New("missing token")
	ErrMissingHostname = errors.New("missing hostname")
	ErrMissingURL      = errors.New("missing url")
	ErrEmptyValue      = errors.New("empty value")
)

// LogConfig represents logging configuration
type LogConfig = logger.Config

// Config is the fully resolved client configuration
type Config struct {
	Force          bool          `mapstructure:"-"`
	Token          string        `mapstructure:"token"`
	TokenFile      string        `mapstructure:"token_file"`
	URL            string        `mapstructure:"url" validate:"required,httpurl"`
	Hostname       string        `mapstructure:"hostname" validate:"required,hostname"`
	Verbose        int           `mapstructure:"verbose" validate:"gte=0"`
	LastUpdateFile string        `mapstructure:"last_update_file" validate:"required"`
	MaxInterval    int           `mapstructure:"max_interval" validate:"gte=0"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Log            LogConfig     `mapstructure:"log"`
	Notify         NotifyConfig  `mapstructure:"notify"`

	// OldIPAddress and NewIPAddress are nil when not supplied at all
	OldIPAddress *string `mapstructure:"-"`
	NewIPAddress *string `mapstructure:"-"`

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string `mapstructure:"-"`

	// Sources records where each option came from
	Sources map[string]Source `mapstructure:"-"`
}

// maxDurationSeconds is the largest whole number of seconds a time.Duration holds
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// MaxIntervalDuration returns MaxInterval as a duration. Intervals beyond
// the range of time.Duration (about 292 years) saturate instead of wrapping.
func (c *Config) MaxIntervalDuration() time.Duration {
	if int64(c.MaxInterval) > maxDurationSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(c.MaxInterval) * time.Second
}

// NewFlagSet returns the client flags
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.StringP("config", "c", "", "Path to config file")
	for _, o := range options {
		switch def := o.def.(type) {
		case nil:
			fs.StringP(o.flag, o.short, "", o.usage)
		case bool:
			fs.BoolP(o.flag, o.short, def, o.usage)
		case int:
			if o.count {
				fs.CountP(o.flag, o.short, o.usage)
			} else {
				fs.IntP(o.flag, o.short, def, o.usage)
			}
		case time.Duration:
			fs.DurationP(o.flag, o.short, def, o.usage)
		default:
			fs.StringP(o.flag, o.short, fmt.Sprint(def), o.usage)
		}
	}
	fs.Bool("version", false, "Show version information")
	return fs
}

// Load parses args with fs, unless the caller already did, and resolves the
// configuration
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	// only options marked emptyOK are ever bound to an empty variable
	v.AllowEmptyEnv(true)

	for _, o := range options {
		if o.def != nil {
			v.SetDefault(o.key, o.def)
		}
		switch {
		case o.fromEnv():
			if err := v.BindEnv(o.key, o.env); err != nil {
				return nil, fmt.Errorf("failed to bind %s: %w", o.env, err)
			}
		case o.numeric() && envIsEmpty(o.env) && !fs.Changed(o.flag):
			return nil, fmt.Errorf("%w: %s is set but empty", ErrEmptyValue, o.env)
		}
		if err := v.BindPFlag(o.key, fs.Lookup(o.flag)); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", o.flag, err)
		}
	}

	configFile, err := readConfigFile(v, fs)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = configFile
	cfg.Force = isTruthy(v.GetString("force"))
	cfg.OldIPAddress = optional(v, "old_ip_address")
	cfg.NewIPAddress = optional(v, "new_ip_address")
	cfg.Sources = resolveSources(v, fs)

	if cfg.Verbose > 0 || cfg.Log.Level == "" {
		cfg.Log.Level = logger.LevelForVerbosity(cfg.Verbose)
	}

	if err := cfg.resolveToken(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required options and their formats
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return ErrMissingHostname
	}
	if c.URL == "" {
		return ErrMissingURL
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("invalid notify configuration: %w", err)
	}
	return nil
}

// resolveToken prefers a literal token over a token file
func (c *Config) resolveToken() error {
	if c.Token != "" {
		return nil
	}
	if c.TokenFile == "" {
		return ErrMissingToken
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}
	c.Token = strings.TrimSpace(string(data))
	if c.Token == "" {
		return fmt.Errorf("%w: token file %s is empty", ErrMissingToken, c.TokenFile)
	}
	return nil
}

// readConfigFile loads an explicitly given file, or the first ddnsup.yaml
// found on the search path. Only an explicit file is required to exist.
func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) (string, error) {
	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv("DDNS_CONFIG")
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
		return path, nil
	}

	v.SetConfigName(AppName)
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/" + AppName)
	v.AddConfigPath("/etc/" + AppName)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

func envIsEmpty(name string) bool {
	val, ok := os.LookupEnv(name)
	return ok && val == ""
}

func optional(v *viper.Viper, key string) *string {
	if !v.IsSet(key) {
		return nil
	}
	s := v.GetString(key)
	return &s
}

// isTruthy treats any non-empty value as true except common spellings of false
func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "f", "no", "n", "off":
		return false
	default:
		return true
	}
}

// DefaultLastUpdateFile is the default state location
const DefaultLastUpdateFile = state.DefaultPath
