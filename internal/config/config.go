package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	GitHub  GitHubConfig  `yaml:"github"`
	Cache   CacheConfig   `yaml:"cache"`
	Updates UpdatesConfig `yaml:"updates"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// TrustedProxies are peers whose X-Forwarded-For header is honoured
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// GitHubConfig configures the upstream release source
type GitHubConfig struct {
	Token       string        `yaml:"token"`
	MaxReleases int           `yaml:"max_releases"` // releases fetched per lookup
	Timeout     time.Duration `yaml:"timeout"`
}

// CacheConfig configures the resolution cache
type CacheConfig struct {
	TTL  time.Duration `yaml:"ttl"`
	Size int           `yaml:"size"`
}

// UpdatesConfig holds the access lists of the updates endpoint
type UpdatesConfig struct {
	// BetaClients are addresses or CIDR prefixes allowed to bypass the cache
	// and receive prereleases.
	BetaClients []string `yaml:"beta_clients"`
	// BlacklistedUsernames are owners never looked up upstream.
	BlacklistedUsernames []string `yaml:"blacklisted_usernames"`
	// BlacklistedRepositories are "repo" or "owner/repo" entries never looked up.
	BlacklistedRepositories []string `yaml:"blacklisted_repositories"`
}

// LogConfig configures the slog handler
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		GitHub: GitHubConfig{
			MaxReleases: 30,
			Timeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:  time.Hour,
			Size: 1024,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.GitHub.MaxReleases <= 0 || c.GitHub.MaxReleases > 100 {
		return fmt.Errorf("github.max_releases must be between 1 and 100")
	}
	if c.GitHub.Timeout < 0 {
		return fmt.Errorf("github.timeout must be non-negative")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must be non-negative")
	}
	for _, p := range c.Server.TrustedProxies {
		if _, err := ParsePrefix(p); err != nil {
			return fmt.Errorf("server.trusted_proxies: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ParsePrefix accepts a single address or a CIDR prefix
func ParsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
