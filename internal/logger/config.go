package logger

import "fmt"

// Config represents logging configuration
type Config struct {
	Level      string `mapstructure:"level"` // debug, info, warn, error
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns the logging configuration used when none is given
func DefaultConfig() *Config {
	return &Config{
		Level:      "warn",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

// SetDefaults returns a copy of cfg with zero values replaced by defaults
func (cfg *Config) SetDefaults() *Config {
	out := *cfg
	def := DefaultConfig()
	if out.Level == "" {
		out.Level = def.Level
	}
	if out.MaxSize == 0 {
		out.MaxSize = def.MaxSize
	}
	if out.MaxBackups == 0 {
		out.MaxBackups = def.MaxBackups
	}
	if out.MaxAge == 0 {
		out.MaxAge = def.MaxAge
	}
	return &out
}

// Validate validates logging configuration
func (cfg *Config) Validate() error {
	if cfg.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}
	return nil
}

// LevelForVerbosity maps a -v count to a level name: warn, info, then debug
func LevelForVerbosity(verbose int) string {
	levels := []string{"warn", "info", "debug"}
	if verbose < 0 {
		verbose = 0
	}
	return levels[min(verbose, len(levels)-1)]
}
