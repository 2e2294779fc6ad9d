package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/essence/internal/testutil/testlog"
	"github.com/danmuck/essence/internal/testutil/tlstest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "essence.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	t.Setenv("PORT", "")

	path := writeConfig(t, `
addr = "127.0.0.1:7000"
auth_token = " secret "
seed_demo = false
memory_size = 0
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	testlog.Logf("config/load: %+v", cfg)

	if cfg.Name != "essence" {
		t.Fatalf("expected default name, got %q", cfg.Name)
	}
	if cfg.Addr != "127.0.0.1:7000" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.AuthToken != "secret" {
		t.Fatalf("expected trimmed token, got %q", cfg.AuthToken)
	}
	if cfg.SeedDemo {
		t.Fatalf("expected seed_demo=false to override the default")
	}
	if cfg.MemorySize != 0 {
		t.Fatalf("expected explicit zero memory size, got %d", cfg.MemorySize)
	}
	if !cfg.LogRequests || len(cfg.CorsOrigins) != 1 {
		t.Fatalf("expected undefined keys to keep defaults, got %+v", cfg)
	}
	if cfg.DispatcherConfig().MemorySize != 0 {
		t.Fatalf("expected dispatcher memory size to follow config")
	}
}

func TestLoadServerConfigPortOverride(t *testing.T) {
	testlog.Start(t)
	t.Setenv("PORT", "8088")

	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Addr != ":8088" {
		t.Fatalf("expected PORT to replace the port, got %q", cfg.Addr)
	}

	cfg, err = LoadServerConfig(writeConfig(t, `addr = "0.0.0.0:5000"`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Addr != "0.0.0.0:8088" {
		t.Fatalf("expected host to be kept, got %q", cfg.Addr)
	}
}

func TestLoadServerConfigRejects(t *testing.T) {
	testlog.Start(t)
	t.Setenv("PORT", "")

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty name", content: `name = " "`},
		{name: "negative memory", content: `memory_size = -1`},
		{name: "unknown key", content: `listen = ":1"`},
		{name: "bad toml", content: `addr = `},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadServerConfig(writeConfig(t, tc.content))
			if err == nil {
				t.Fatalf("expected %s to be rejected", tc.name)
			}
			testlog.Logf("config/reject: %s -> %v", tc.name, err)
		})
	}

	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file to fail")
	}
	if err := (ServerConfig{Name: "x"}).Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for missing addr, got %v", err)
	}
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	testlog.Start(t)
	t.Setenv("PORT", "")

	path := filepath.Join(t.TempDir(), "essence.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected existing config to be preserved")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite template: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !strings.Contains(string(data), "memory_size = 1024") {
		t.Fatalf("template missing memory_size:\n%s", data)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load rendered template: %v", err)
	}
	def := DefaultServerConfig()
	if cfg.Name != def.Name || cfg.Addr != def.Addr || cfg.MemorySize != def.MemorySize {
		t.Fatalf("template did not round trip: %+v", cfg)
	}
}

func TestLoadServerConfigTLS(t *testing.T) {
	testlog.Start(t)
	t.Setenv("PORT", "")

	dir := t.TempDir()
	certFile, keyFile := tlstest.NewAuthority(t, "essence-config-ca").IssueLocalhost(t, dir)

	cfg, err := LoadServerConfig(writeConfig(t, "tls_cert_file = \""+certFile+"\"\ntls_key_file = \""+keyFile+"\"\n"))
	if err != nil {
		t.Fatalf("load tls config: %v", err)
	}
	if !cfg.TLSEnabled() {
		t.Fatalf("expected tls to be enabled, got %+v", cfg)
	}

	if _, err := LoadServerConfig(writeConfig(t, "tls_cert_file = \""+certFile+"\"\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected cert without key to be rejected, got %v", err)
	}
	missing := filepath.Join(dir, "missing.key")
	if _, err := LoadServerConfig(writeConfig(t, "tls_cert_file = \""+certFile+"\"\ntls_key_file = \""+missing+"\"\n")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected missing key file to be rejected, got %v", err)
	}
}
