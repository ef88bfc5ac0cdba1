package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{LookupEnv: envMap(nil), Version: "abc1234"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AnkiConnect.URL != "http://localhost:8765" {
		t.Errorf("URL = %q, want %q", cfg.AnkiConnect.URL, "http://localhost:8765")
	}
	if cfg.AnkiConnect.APIVersion != 6 {
		t.Errorf("APIVersion = %d, want 6", cfg.AnkiConnect.APIVersion)
	}
	if cfg.AnkiConnect.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.AnkiConnect.Timeout)
	}
	if cfg.AnkiConnect.RetryMax != 2 {
		t.Errorf("RetryMax = %d, want 2", cfg.AnkiConnect.RetryMax)
	}
	if cfg.AnkiConnect.RetryWaitMax != 3*time.Second {
		t.Errorf("RetryWaitMax = %v, want 3s", cfg.AnkiConnect.RetryWaitMax)
	}
	if cfg.Server.Name != "anki-mcp" {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, "anki-mcp")
	}
	if cfg.Server.Version != "abc1234" {
		t.Errorf("Server.Version = %q, want %q", cfg.Server.Version, "abc1234")
	}
	if got := cfg.HTTP.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("HTTP.Addr() = %q, want %q", got, "127.0.0.1:3000")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "auto" {
		t.Errorf("Log = %+v, want info/auto", cfg.Log)
	}
	if cfg.Tools.Allow != nil || cfg.Tools.Deny != nil {
		t.Errorf("Tools = %+v, want empty", cfg.Tools)
	}
}

func TestLoad_Environment(t *testing.T) {
	cfg, err := Load(Options{LookupEnv: envMap(map[string]string{
		"ANKI_CONNECT_URL":         "http://192.168.1.10:8765/",
		"ANKI_CONNECT_API_VERSION": "5",
		"ANKI_CONNECT_API_KEY":     "secret",
		"ANKI_CONNECT_TIMEOUT":     "1500",
		"MCP_SERVER_NAME":          "anki-desktop",
		"PORT":                     "4000",
		"LOG_LEVEL":                "DEBUG",
		"TOOLS_DENY":               "gui*, mediaActions",
	})})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AnkiConnect.URL != "http://192.168.1.10:8765" {
		t.Errorf("URL = %q, want trailing slash trimmed", cfg.AnkiConnect.URL)
	}
	if cfg.AnkiConnect.APIVersion != 5 {
		t.Errorf("APIVersion = %d, want 5", cfg.AnkiConnect.APIVersion)
	}
	if cfg.AnkiConnect.APIKey != "secret" {
		t.Errorf("APIKey = %q, want %q", cfg.AnkiConnect.APIKey, "secret")
	}
	if cfg.AnkiConnect.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout = %v, want 1.5s", cfg.AnkiConnect.Timeout)
	}
	if cfg.Server.Name != "anki-desktop" {
		t.Errorf("Server.Name = %q, want %q", cfg.Server.Name, "anki-desktop")
	}
	if cfg.HTTP.Port != 4000 {
		t.Errorf("HTTP.Port = %d, want 4000", cfg.HTTP.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if len(cfg.Tools.Deny) != 2 || cfg.Tools.Deny[0] != "gui*" || cfg.Tools.Deny[1] != "mediaActions" {
		t.Errorf("Tools.Deny = %v, want [gui* mediaActions]", cfg.Tools.Deny)
	}
}

func TestLoad_PlaceholdersAreUnset(t *testing.T) {
	cfg, err := Load(Options{LookupEnv: envMap(map[string]string{
		"ANKI_CONNECT_URL":     "${user_config.anki_connect_url}",
		"ANKI_CONNECT_API_KEY": "",
		"ANKI_CONNECT_TIMEOUT": "  ",
	})})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AnkiConnect.URL != "http://localhost:8765" {
		t.Errorf("URL = %q, want default", cfg.AnkiConnect.URL)
	}
	if cfg.AnkiConnect.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.AnkiConnect.APIKey)
	}
	if cfg.AnkiConnect.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want default", cfg.AnkiConnect.Timeout)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("anki-connect", "http://localhost:8765", "")
	flags.Int("port", 3000, "")
	flags.String("host", "127.0.0.1", "")
	if err := flags.Parse([]string{"--anki-connect", "http://anki.local:9000", "--port", "3100"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(Options{
		Flags: flags,
		LookupEnv: envMap(map[string]string{
			"ANKI_CONNECT_URL": "http://from-env:8765",
			"PORT":             "4000",
			"HOST":             "0.0.0.0",
		}),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AnkiConnect.URL != "http://anki.local:9000" {
		t.Errorf("URL = %q, want flag value", cfg.AnkiConnect.URL)
	}
	if cfg.HTTP.Port != 3100 {
		t.Errorf("Port = %d, want flag value 3100", cfg.HTTP.Port)
	}
	// unchanged flag does not shadow the environment
	if cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want env value", cfg.HTTP.Host)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anki-mcp.yaml")
	content := `anki_connect:
  url: http://desk:8765
  retry_max: 4
http:
  allowed_origins:
    - https://*.example.com
tools:
  allow: [list_decks, get_due_cards]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(Options{ConfigFile: path, LookupEnv: envMap(map[string]string{
		"ANKI_CONNECT_RETRY_MAX": "1",
	})})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AnkiConnect.URL != "http://desk:8765" {
		t.Errorf("URL = %q, want file value", cfg.AnkiConnect.URL)
	}
	if cfg.AnkiConnect.RetryMax != 1 {
		t.Errorf("RetryMax = %d, want env value 1", cfg.AnkiConnect.RetryMax)
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "https://*.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.HTTP.AllowedOrigins)
	}
	if len(cfg.Tools.Allow) != 2 {
		t.Errorf("Tools.Allow = %v, want 2 entries", cfg.Tools.Allow)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml"), LookupEnv: envMap(nil)})
	if err == nil {
		t.Fatal("Load() expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad scheme", map[string]string{"ANKI_CONNECT_URL": "ftp://localhost"}, "invalid AnkiConnect URL"},
		{"relative url", map[string]string{"ANKI_CONNECT_URL": "localhost:8765"}, "invalid AnkiConnect URL"},
		{"zero version", map[string]string{"ANKI_CONNECT_API_VERSION": "0"}, "API version"},
		{"zero timeout", map[string]string{"ANKI_CONNECT_TIMEOUT": "0"}, "timeout must be positive"},
		{"negative retries", map[string]string{"ANKI_CONNECT_RETRY_MAX": "-1"}, "retry count"},
		{"min over max", map[string]string{"ANKI_CONNECT_RETRY_WAIT_MIN": "5000"}, "exceeds max"},
		{"bad port", map[string]string{"PORT": "70000"}, "invalid port"},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "invalid log level"},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Options{LookupEnv: envMap(tt.env)})
			if err == nil {
				t.Fatalf("Load() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"", "", false},
		{"   ", "", false},
		{"${user_config.api_key}", "", false},
		{"${}", "", false},
		{"value", "value", true},
		{" padded ", "padded", true},
		{"$HOME", "$HOME", true},
		{"prefix-${x}", "prefix-${x}", true},
	}

	for _, tt := range tests {
		got, ok := Sanitize(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Sanitize(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
