// Package config loads the server configuration from defaults, an optional
// YAML file, the environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all server configuration. It is built once at startup and
// passed by reference; nothing mutates it afterwards.
type Config struct {
	AnkiConnect AnkiConnectConfig
	Server      ServerConfig
	HTTP        HTTPConfig
	Log         LogConfig
	Tools       ToolsConfig
}

// AnkiConnectConfig describes the outbound AnkiConnect endpoint.
type AnkiConnectConfig struct {
	URL          string
	APIVersion   int
	APIKey       string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// ServerConfig holds the MCP implementation identity.
type ServerConfig struct {
	Name    string
	Version string
}

// HTTPConfig holds the streamable HTTP listener settings.
type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// Addr returns the listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// ToolsConfig selects which tools are exposed.
type ToolsConfig struct {
	Allow []string
	Deny  []string
}

// Options control where Load reads from.
type Options struct {
	// ConfigFile is an optional YAML file. Missing is an error when set.
	ConfigFile string
	// Flags override everything else for the keys that have a flag. Only flags the user
	// actually changed take effect.
	Flags *pflag.FlagSet
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Version is the build version used when server.version is unset.
	Version string
}

type binding struct {
	key  string
	env  string
	flag string
}

var bindings = []binding{
	{key: "anki_connect.url", env: "ANKI_CONNECT_URL", flag: "anki-connect"},
	{key: "anki_connect.api_version", env: "ANKI_CONNECT_API_VERSION"},
	{key: "anki_connect.api_key", env: "ANKI_CONNECT_API_KEY"},
	{key: "anki_connect.timeout_ms", env: "ANKI_CONNECT_TIMEOUT"},
	{key: "anki_connect.retry_max", env: "ANKI_CONNECT_RETRY_MAX"},
	{key: "anki_connect.retry_wait_min_ms", env: "ANKI_CONNECT_RETRY_WAIT_MIN"},
	{key: "anki_connect.retry_wait_max_ms", env: "ANKI_CONNECT_RETRY_WAIT_MAX"},
	{key: "server.name", env: "MCP_SERVER_NAME"},
	{key: "server.version", env: "MCP_SERVER_VERSION"},
	{key: "http.host", env: "HOST", flag: "host"},
	{key: "http.port", env: "PORT", flag: "port"},
	{key: "http.allowed_origins", env: "ALLOWED_ORIGINS"},
	{key: "log.level", env: "LOG_LEVEL", flag: "log-level"},
	{key: "log.format", env: "LOG_FORMAT"},
	{key: "tools.allow", env: "TOOLS_ALLOW"},
	{key: "tools.deny", env: "TOOLS_DENY"},
}

// Load builds a validated Config. Precedence is flag, then environment,
// then config file, then defaults.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v, opts.Version)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, b := range bindings {
		if raw, ok := lookup(b.env); ok {
			if val, ok := Sanitize(raw); ok {
				v.Set(b.key, val)
			}
		}
	}

	if opts.Flags != nil {
		for _, b := range bindings {
			if b.flag == "" {
				continue
			}
			if f := opts.Flags.Lookup(b.flag); f != nil && f.Changed {
				v.Set(b.key, f.Value.String())
			}
		}
	}

	cfg := &Config{
		AnkiConnect: AnkiConnectConfig{
			URL:          strings.TrimRight(v.GetString("anki_connect.url"), "/"),
			APIVersion:   v.GetInt("anki_connect.api_version"),
			APIKey:       v.GetString("anki_connect.api_key"),
			Timeout:      time.Duration(v.GetInt("anki_connect.timeout_ms")) * time.Millisecond,
			RetryMax:     v.GetInt("anki_connect.retry_max"),
			RetryWaitMin: time.Duration(v.GetInt("anki_connect.retry_wait_min_ms")) * time.Millisecond,
			RetryWaitMax: time.Duration(v.GetInt("anki_connect.retry_wait_max_ms")) * time.Millisecond,
		},
		Server: ServerConfig{
			Name:    v.GetString("server.name"),
			Version: v.GetString("server.version"),
		},
		HTTP: HTTPConfig{
			Host:           v.GetString("http.host"),
			Port:           v.GetInt("http.port"),
			AllowedOrigins: splitList(v.Get("http.allowed_origins")),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Tools: ToolsConfig{
			Allow: splitList(v.Get("tools.allow")),
			Deny:  splitList(v.Get("tools.deny")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, version string) {
	if version == "" {
		version = "dev"
	}

	v.SetDefault("anki_connect.url", "http://localhost:8765")
	v.SetDefault("anki_connect.api_version", 6)
	v.SetDefault("anki_connect.api_key", "")
	v.SetDefault("anki_connect.timeout_ms", 5000)
	v.SetDefault("anki_connect.retry_max", 2)
	v.SetDefault("anki_connect.retry_wait_min_ms", 300)
	v.SetDefault("anki_connect.retry_wait_max_ms", 3000)

	v.SetDefault("server.name", "anki-mcp")
	v.SetDefault("server.version", version)

	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 3000)
	v.SetDefault("http.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	v.SetDefault("tools.allow", []string{})
	v.SetDefault("tools.deny", []string{})
}

// Sanitize reports whether raw carries a real value. Desktop extension
// bundles pass unfilled user settings through as "" or as the literal
// "${user_config.x}" placeholder; both count as unset.
func Sanitize(raw string) (string, bool) {
	val := strings.TrimSpace(raw)
	if val == "" {
		return "", false
	}
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return "", false
	}
	return val, true
}

// splitList accepts either a YAML list or a comma separated string.
func splitList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, p := range val {
			parts = append(parts, fmt.Sprint(p))
		}
	default:
		parts = []string{fmt.Sprint(val)}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"auto", "text", "json"}
)

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.AnkiConnect.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid AnkiConnect URL %q: must be an absolute http(s) URL", c.AnkiConnect.URL))
	}
	if c.AnkiConnect.APIVersion < 1 {
		errs = append(errs, fmt.Errorf("invalid AnkiConnect API version %d", c.AnkiConnect.APIVersion))
	}
	if c.AnkiConnect.Timeout <= 0 {
		errs = append(errs, errors.New("AnkiConnect timeout must be positive"))
	}
	if c.AnkiConnect.RetryMax < 0 {
		errs = append(errs, errors.New("AnkiConnect retry count cannot be negative"))
	}
	if c.AnkiConnect.RetryWaitMin > c.AnkiConnect.RetryWaitMax {
		errs = append(errs, fmt.Errorf("retry wait min %s exceeds max %s", c.AnkiConnect.RetryWaitMin, c.AnkiConnect.RetryWaitMax))
	}
	if c.Server.Name == "" {
		errs = append(errs, errors.New("server name cannot be empty"))
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.HTTP.Port))
	}
	if !slices.Contains(validLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("invalid log level %q (want one of %s)", c.Log.Level, strings.Join(validLevels, ", ")))
	}
	if !slices.Contains(validFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("invalid log format %q (want one of %s)", c.Log.Format, strings.Join(validFormats, ", ")))
	}

	return errors.Join(errs...)
}
