package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultOrigin          = "https://www.cloudflare.com"
	defaultTracePath       = "/cdn-cgi/trace"
	defaultListen          = ":8080"
	defaultTimeout         = 10
	defaultRefreshInterval = 60
	defaultFallbackText    = "获取节点信息失败"
	defaultStatusTargetID  = "cfs"
	defaultSnapshotFile    = "snapshots.jsonl"
	defaultMaxSnapshots    = 1000
	defaultHookTimeout     = 5
)

// TLSConfig configures the transport used to reach the trace origin.
type TLSConfig struct {
	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// HookConfig configures the optional status webhook.
type HookConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Config captures runtime configuration loaded from YAML.
type Config struct {
	Origin    string `yaml:"origin"`
	TracePath string `yaml:"trace_path"`
	Listen    string `yaml:"listen"`

	TimeoutSeconds         int  `yaml:"timeout_seconds"`
	RefreshIntervalSeconds *int `yaml:"refresh_interval_seconds"`

	Toggle       bool   `yaml:"toggle"`
	SingleFlight bool   `yaml:"single_flight"`
	StrictFields bool   `yaml:"strict_fields"`
	Prefix       string `yaml:"prefix"`
	FallbackText string `yaml:"fallback_text"`

	PageFile       string `yaml:"page_file"`
	StatusTargetID string `yaml:"status_target_id"`

	SnapshotFile string `yaml:"snapshot_file"`
	MaxSnapshots int    `yaml:"max_snapshots"`

	TLS  TLSConfig  `yaml:"tls"`
	Hook HookConfig `yaml:"hook"`
}

// Load parses a YAML config file from disk. A missing file yields defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func (c *Config) applyEnv() {
	c.Origin = getenv("EDGE_STATUS_ORIGIN", c.Origin)
	c.Listen = getenv("EDGE_STATUS_LISTEN", c.Listen)
	c.SnapshotFile = getenv("EDGE_STATUS_SNAPSHOT_FILE", c.SnapshotFile)
	if v, err := strconv.Atoi(os.Getenv("EDGE_STATUS_MAX_SNAPSHOTS")); err == nil {
		c.MaxSnapshots = v
	}
}

func (c *Config) applyDefaults() {
	if c.Origin == "" {
		c.Origin = defaultOrigin
	}
	if c.TracePath == "" {
		c.TracePath = defaultTracePath
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = defaultTimeout
	}
	if c.RefreshIntervalSeconds == nil {
		v := defaultRefreshInterval
		c.RefreshIntervalSeconds = &v
	}
	if c.FallbackText == "" {
		c.FallbackText = defaultFallbackText
	}
	if c.StatusTargetID == "" {
		c.StatusTargetID = defaultStatusTargetID
	}
	if c.SnapshotFile == "" {
		c.SnapshotFile = defaultSnapshotFile
	}
	if c.MaxSnapshots == 0 {
		c.MaxSnapshots = defaultMaxSnapshots
	}
	if c.Hook.TimeoutSeconds == 0 {
		c.Hook.TimeoutSeconds = defaultHookTimeout
	}
}

func (c *Config) validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("config: timeout_seconds must not be negative")
	}
	if *c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("config: refresh_interval_seconds must not be negative")
	}
	if c.MaxSnapshots < 0 {
		return fmt.Errorf("config: max_snapshots must not be negative")
	}
	return nil
}

// Timeout is the per-fetch HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RefreshInterval is the periodic refresh period; zero disables it.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(*c.RefreshIntervalSeconds) * time.Second
}

// HookTimeout bounds one webhook delivery.
func (c *Config) HookTimeout() time.Duration {
	return time.Duration(c.Hook.TimeoutSeconds) * time.Second
}
