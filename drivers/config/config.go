// Package config is the koanf-backed jrm.ConfigProvider implementation:
// a YAML file overlaid with JRM_-prefixed environment variables, unmarshaled
// into a typed Config. Grounded on leapstack-labs-leapsql's
// internal/config/loader.go (koanf.New(".") + file.Provider + yaml.Parser +
// k.Unmarshal) and internal/config/types.go's koanf-tagged struct shape
// (TargetConfig's host/port/user/password/database/options fields map
// directly onto jrm.ConnDescriptor).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jrm-go/jrm"
)

// ConnectionConfig is one named entry under connections: in the config
// file, koanf-tagged the way leapsql's TargetConfig is.
type ConnectionConfig struct {
	Type     string            `koanf:"type"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Database string            `koanf:"database"`
	DSN      string            `koanf:"dsn"`
	Options  map[string]string `koanf:"options"`
}

// PoolConfig holds pool-sizing and timeout defaults, per spec.md §4.6.
type PoolConfig struct {
	MinSize          int `koanf:"min_size"`
	MaxSize          int `koanf:"max_size"`
	MaxCached        int `koanf:"max_cached"`
	ConnectTimeoutMs int `koanf:"connect_timeout_ms"`
	PoolTimeoutMs    int `koanf:"pool_timeout_ms"`
}

// Config is the full unmarshal target for a jrm config file.
type Config struct {
	Default     string                      `koanf:"default"`
	Connections map[string]ConnectionConfig `koanf:"connections"`
	Pool        PoolConfig                  `koanf:"pool"`
	FetchLimit  int                         `koanf:"fetch_limit"`
}

// Provider wraps a loaded Config to satisfy jrm.ConfigProvider.
type Provider struct {
	cfg Config
}

var _ jrm.ConfigProvider = (*Provider)(nil)

// Load reads path (YAML) and overlays JRM_-prefixed environment variables,
// e.g. JRM_CONNECTIONS_MYDB_HOST overrides connections.mydb.host.
func Load(path string) (*Provider, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: loading %s: %v", jrm.ErrConfiguration, path, err)
		}
	}
	if err := k.Load(env.Provider("JRM_", ".", envKeyTransform), nil); err != nil {
		return nil, fmt.Errorf("%w: loading environment overlay: %v", jrm.ErrConfiguration, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling config: %v", jrm.ErrConfiguration, err)
	}
	applyDefaults(&cfg)
	return &Provider{cfg: cfg}, nil
}

// FromConfig wraps an already-built Config (e.g. constructed in-process for
// tests) without touching the filesystem.
func FromConfig(cfg Config) *Provider {
	applyDefaults(&cfg)
	return &Provider{cfg: cfg}
}

func envKeyTransform(s string) string {
	s = strings.TrimPrefix(s, "JRM_")
	return strings.ReplaceAll(strings.ToLower(s), "_", ".")
}

func applyDefaults(cfg *Config) {
	if cfg.Pool.MinSize == 0 {
		cfg.Pool.MinSize = 1
	}
	if cfg.Pool.MaxSize == 0 {
		cfg.Pool.MaxSize = 10
	}
	if cfg.Pool.MaxCached == 0 {
		cfg.Pool.MaxCached = 100
	}
	if cfg.Pool.ConnectTimeoutMs == 0 {
		cfg.Pool.ConnectTimeoutMs = 5000
	}
	if cfg.Pool.PoolTimeoutMs == 0 {
		cfg.Pool.PoolTimeoutMs = 5000
	}
	if cfg.FetchLimit == 0 {
		cfg.FetchLimit = jrm.DefaultFetchLimit
	}
}

// ConnDescriptor implements jrm.ConfigProvider.
func (p *Provider) ConnDescriptor(name string) (jrm.ConnDescriptor, error) {
	c, ok := p.cfg.Connections[name]
	if !ok {
		return jrm.ConnDescriptor{}, fmt.Errorf("%w: no connection named %q", jrm.ErrConfiguration, name)
	}
	return jrm.ConnDescriptor{
		Type:     c.Type,
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		DSN:      c.DSN,
		Options:  c.Options,
	}, nil
}

func (p *Provider) DefaultName() string { return p.cfg.Default }

func (p *Provider) ConnectTimeout() time.Duration {
	return time.Duration(p.cfg.Pool.ConnectTimeoutMs) * time.Millisecond
}

func (p *Provider) FetchLimit() int { return p.cfg.FetchLimit }

func (p *Provider) MinPoolSize() int { return p.cfg.Pool.MinSize }

func (p *Provider) MaxPoolSize() int { return p.cfg.Pool.MaxSize }

func (p *Provider) MaxCached() int { return p.cfg.Pool.MaxCached }

func (p *Provider) PoolTimeout() time.Duration {
	return time.Duration(p.cfg.Pool.PoolTimeoutMs) * time.Millisecond
}
