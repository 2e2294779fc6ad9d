package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/essence/internal/essence"
)

var ErrInvalidConfig = errors.New("config: invalid")

// ServerConfig is the runtime configuration of essencectl serve.
type ServerConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	AuthToken   string   `toml:"auth_token"`
	MemorySize  int      `toml:"memory_size"`
	SeedDemo    bool     `toml:"seed_demo"`
	LogRequests bool     `toml:"log_requests"`
	TLSCertFile string   `toml:"tls_cert_file"`
	TLSKeyFile  string   `toml:"tls_key_file"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:        "essence",
		Addr:        ":8000",
		CorsOrigins: []string{"http://localhost:3000"},
		MemorySize:  essence.DefaultMemorySize,
		SeedDemo:    true,
		LogRequests: true,
	}
}

// DispatcherConfig sizes the dispatcher from the server settings.
func (c ServerConfig) DispatcherConfig() essence.Config {
	cfg := essence.DefaultConfig()
	cfg.MemorySize = c.MemorySize
	return cfg
}

func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: missing addr", ErrInvalidConfig)
	}
	if c.MemorySize < 0 {
		return fmt.Errorf("%w: memory_size must not be negative (%d)", ErrInvalidConfig, c.MemorySize)
	}
	if c.MemorySize > essence.DefaultMaxMemory {
		return fmt.Errorf("%w: memory_size exceeds %d", ErrInvalidConfig, essence.DefaultMaxMemory)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("%w: tls_cert_file and tls_key_file must be set together", ErrInvalidConfig)
	}
	for _, path := range []string{c.TLSCertFile, c.TLSKeyFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// TLSEnabled reports whether the server should terminate TLS itself.
func (c ServerConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// essence.toml key mapping to ServerConfig.
type fileConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	AuthToken   string   `toml:"auth_token"`
	MemorySize  int      `toml:"memory_size"`
	SeedDemo    bool     `toml:"seed_demo"`
	LogRequests bool     `toml:"log_requests"`
	TLSCertFile string   `toml:"tls_cert_file"`
	TLSKeyFile  string   `toml:"tls_key_file"`
}

// LoadServerConfig overlays the keys present in path onto the defaults. An
// empty path loads defaults only. PORT, when set, replaces the port of addr.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	if strings.TrimSpace(path) != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("load essence config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return ServerConfig{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
		}

		if meta.IsDefined("name") {
			cfg.Name = strings.TrimSpace(raw.Name)
		}
		if meta.IsDefined("addr") {
			cfg.Addr = strings.TrimSpace(raw.Addr)
		}
		if meta.IsDefined("cors_origins") {
			cfg.CorsOrigins = raw.CorsOrigins
		}
		if meta.IsDefined("auth_token") {
			cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
		}
		if meta.IsDefined("memory_size") {
			cfg.MemorySize = raw.MemorySize
		}
		if meta.IsDefined("seed_demo") {
			cfg.SeedDemo = raw.SeedDemo
		}
		if meta.IsDefined("log_requests") {
			cfg.LogRequests = raw.LogRequests
		}
		if meta.IsDefined("tls_cert_file") {
			cfg.TLSCertFile = strings.TrimSpace(raw.TLSCertFile)
		}
		if meta.IsDefined("tls_key_file") {
			cfg.TLSKeyFile = strings.TrimSpace(raw.TLSKeyFile)
		}
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Addr = withPort(cfg.Addr, port)
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func withPort(addr, port string) string {
	host := addr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
	}
	return host + ":" + port
}
