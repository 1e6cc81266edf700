package config

import (
	"os"
	"time"

	"ddnsup/internal/provider"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Source tells where an option value came from
type Source int

const (
	SourceDefault Source = iota
	SourceFile
	SourceEnv
	SourceFlag
)

func (s Source) String() string {
	switch s {
	case SourceFlag:
		return "flag"
	case SourceEnv:
		return "env"
	case SourceFile:
		return "file"
	default:
		return "default"
	}
}

// option describes one setting and every way to supply it
type option struct {
	key   string
	flag  string
	short string
	env   string
	def   any
	count bool
	usage string

	// emptyOK makes an empty environment variable a present value
	emptyOK bool
}

// numeric reports whether the option decodes to a number or duration
func (o option) numeric() bool {
	switch o.def.(type) {
	case int, time.Duration:
		return !o.count
	}
	return false
}

// fromEnv reports whether the option's environment variable supplies a
// value. An empty variable only counts for options marked emptyOK.
func (o option) fromEnv() bool {
	if o.env == "" {
		return false
	}
	val, ok := os.LookupEnv(o.env)
	return ok && (val != "" || o.emptyOK)
}

var options = []option{
	{key: "force", flag: "force", short: "f", env: "DDNS_FORCE", def: false,
		usage: "Update even if the address did not change"},
	{key: "token", flag: "token", short: "t", env: "DDNS_TOKEN",
		usage: "Update token"},
	{key: "token_file", flag: "token-file", short: "T", env: "DDNS_TOKEN_FILE",
		usage: "File containing the update token"},
	{key: "url", flag: "url", short: "U", env: "DDNS_URL",
		usage: "Update endpoint URL"},
	{key: "hostname", flag: "hostname", short: "H", env: "DDNS_HOSTNAME",
		usage: "Hostname to update"},
	{key: "verbose", flag: "verbose", short: "v", def: 0, count: true,
		usage: "Increase log verbosity (repeatable)"},
	{key: "last_update_file", flag: "last-update-file", short: "l", env: "DDNS_LAST_UPDATE_FILE", def: DefaultLastUpdateFile,
		usage: "Where to record the last update: a file path, sqlite://path or redis://host:port/db?key=name"},
	{key: "max_interval", flag: "max-interval", short: "m", env: "DDNS_MAX_INTERVAL", def: 86400,
		usage: "Update at least this often, in seconds"},
	{key: "old_ip_address", flag: "old-ip-address", env: "old_ip_address", emptyOK: true,
		usage: "Previous IP address"},
	{key: "new_ip_address", flag: "new-ip-address", env: "new_ip_address", emptyOK: true,
		usage: "Current IP address"},
	{key: "timeout", flag: "timeout", env: "DDNS_TIMEOUT", def: provider.DefaultTimeout,
		usage: "Provider request timeout"},
	{key: "log.file", flag: "log-file", env: "DDNS_LOG_FILE",
		usage: "Also write JSON logs to this file"},
}

// resolveSources reports, for every option, the highest-precedence place it was set
func resolveSources(v *viper.Viper, fs *pflag.FlagSet) map[string]Source {
	sources := make(map[string]Source, len(options))
	for _, o := range options {
		switch {
		case fs.Changed(o.flag):
			sources[o.key] = SourceFlag
		case o.fromEnv():
			sources[o.key] = SourceEnv
		case v.InConfig(o.key):
			sources[o.key] = SourceFile
		default:
			sources[o.key] = SourceDefault
		}
	}
	return sources
}
