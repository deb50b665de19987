package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/florianilch/mellon/internal/app"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil, func() []string { return nil })
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Host != app.DefaultConfigServerHost {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, app.DefaultConfigServerHost)
	}
	if cfg.Server.Port != app.DefaultConfigServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, app.DefaultConfigServerPort)
	}
	if cfg.Server.Mode != app.ServerModeRaw {
		t.Errorf("Server.Mode = %q, want %q", cfg.Server.Mode, app.ServerModeRaw)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	environ := func() []string {
		return []string{
			"MELLON_SERVER__HOST=0.0.0.0",
			"MELLON_SERVER__PORT=9000",
			"MELLON_SERVER__MODE=web",
			"MELLON_STORE__FILE=/tmp/mellon/tokens",
			"UNRELATED=ignored",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Mode != app.ServerModeWeb {
		t.Errorf("Server.Mode = %q, want %q", cfg.Server.Mode, app.ServerModeWeb)
	}
	if cfg.Store.File != "/tmp/mellon/tokens" {
		t.Errorf("Store.File = %q, want %q", cfg.Store.File, "/tmp/mellon/tokens")
	}
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mellon.toml")
	content := "log_format = \"json\"\n\n[server]\nhost = \"10.0.0.1\"\nport = 7000\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	environ := func() []string {
		return []string{"MELLON_SERVER__HOST=10.0.0.2"}
	}

	cfg, err := loadConfig(configPath, nil, environ)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Host != "10.0.0.2" {
		t.Errorf("Server.Host = %q, want env override %q", cfg.Server.Host, "10.0.0.2")
	}
	// Untouched file values survive
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want file value 7000", cfg.Server.Port)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("LogFormat = %q, want file value %q", cfg.LogFormat, app.LogFormatJSON)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		secret string
		want   string
	}{
		{"11111111-1111-1111-1111-111111111111", "********************************1111"},
		{"abcdef", "**cdef"},
		{"abcd", "abcd"},
		{"ab", "ab"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := maskSecret(tt.secret); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.secret, got, tt.want)
		}
	}
}
