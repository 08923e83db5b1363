package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"touchscenes/logger"
)

const envPrefix = "TOUCHSCENES_"

// Host kinds accepted in host.kind.
const (
	HostNone   = "none"
	HostStatic = "static"
	HostRedis  = "redis"
)

type Config struct {
	OSC            OSCConfig       `yaml:"osc"`
	Slots          int             `yaml:"slots"`           // number of scene buttons on the controller layout
	ResyncInterval time.Duration   `yaml:"resync_interval"` // ex: 5s
	Discovery      DiscoveryConfig `yaml:"discovery"`
	Log            LogConfig       `yaml:"log"`
	HTTP           HTTPConfig      `yaml:"http"`
	Host           HostConfig      `yaml:"host"`
	Redis          RedisConfig     `yaml:"redis"`
}

type OSCConfig struct {
	Port       int    `yaml:"port"`        // ex: 12345
	ListenHost string `yaml:"listen_host"` // ex: "0.0.0.0"
}

type DiscoveryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceType  string `yaml:"service_type"`  // ex: "_osc._udp.local."
	InstanceName string `yaml:"instance_name"` // name this process advertises under
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Pretty bool   `yaml:"pretty"` // true => zap dev (color), false => zap prod (JSON)
}

type HTTPConfig struct {
	Listen string `yaml:"listen"` // ex: ":9110", empty disables the status server
}

type HostConfig struct {
	Kind   string   `yaml:"kind"`   // none | static | redis
	Scenes []string `yaml:"scenes"` // scene names for the static host
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	ScenesKey string        `yaml:"scenes_key"`
	ActiveKey string        `yaml:"active_key"`
	Channel   string        `yaml:"channel"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file or environment is given.
func Default() *Config {
	return &Config{
		OSC: OSCConfig{
			Port:       12345,
			ListenHost: "0.0.0.0",
		},
		Slots:          8,
		ResyncInterval: 5 * time.Second,
		Discovery: DiscoveryConfig{
			Enabled:      true,
			ServiceType:  "_osc._udp.local.",
			InstanceName: "TouchScenes",
		},
		Log: LogConfig{
			Level: "info",
		},
		Host: HostConfig{
			Kind: HostNone,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			ScenesKey: "touchscenes:scenes",
			ActiveKey: "touchscenes:active",
			Channel:   "touchscenes:switch",
			Timeout:   2 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and TOUCHSCENES_* environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.OSC.Port = getenvInt("OSC_PORT", cfg.OSC.Port)
	cfg.OSC.ListenHost = getenv("OSC_LISTEN_HOST", cfg.OSC.ListenHost)
	cfg.Slots = getenvInt("SLOTS", cfg.Slots)
	cfg.ResyncInterval = mustDuration("RESYNC_INTERVAL", cfg.ResyncInterval)

	cfg.Discovery.Enabled = mustBool("DISCOVERY_ENABLED", cfg.Discovery.Enabled)
	cfg.Discovery.ServiceType = getenv("DISCOVERY_SERVICE_TYPE", cfg.Discovery.ServiceType)
	cfg.Discovery.InstanceName = getenv("DISCOVERY_INSTANCE_NAME", cfg.Discovery.InstanceName)

	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = mustBool("PRETTY_LOG", cfg.Log.Pretty)

	cfg.HTTP.Listen = getenv("HTTP_LISTEN", cfg.HTTP.Listen)

	cfg.Host.Kind = getenv("HOST_KIND", cfg.Host.Kind)
	if scenes := splitAndTrim(getenv("HOST_SCENES", "")); len(scenes) > 0 {
		cfg.Host.Scenes = scenes
	}

	cfg.Redis.Addr = getenv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Username = getenv("REDIS_USERNAME", cfg.Redis.Username)
	cfg.Redis.Password = getenv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.ScenesKey = getenv("REDIS_SCENES_KEY", cfg.Redis.ScenesKey)
	cfg.Redis.ActiveKey = getenv("REDIS_ACTIVE_KEY", cfg.Redis.ActiveKey)
	cfg.Redis.Channel = getenv("REDIS_CHANNEL", cfg.Redis.Channel)
	cfg.Redis.Timeout = mustDuration("REDIS_TIMEOUT", cfg.Redis.Timeout)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.OSC.Port < 0 || c.OSC.Port > 65535 {
		return fmt.Errorf("osc.port must be in [0, 65535], got %d", c.OSC.Port)
	}
	if c.Slots < 1 {
		return fmt.Errorf("slots must be >= 1, got %d", c.Slots)
	}
	if c.ResyncInterval <= 0 {
		return fmt.Errorf("resync_interval must be > 0, got %v", c.ResyncInterval)
	}
	if c.Discovery.Enabled {
		if c.Discovery.ServiceType == "" {
			return fmt.Errorf("discovery.service_type is required when discovery is enabled")
		}
		if c.Discovery.InstanceName == "" {
			return fmt.Errorf("discovery.instance_name is required when discovery is enabled")
		}
	}
	if !logger.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be one of debug|info|warn|error, got %q", c.Log.Level)
	}
	switch c.Host.Kind {
	case HostNone, HostStatic:
	case HostRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for host.kind=redis")
		}
		if c.Redis.Timeout <= 0 {
			return fmt.Errorf("redis.timeout must be > 0, got %v", c.Redis.Timeout)
		}
	default:
		return fmt.Errorf("host.kind must be one of none|static|redis, got %q", c.Host.Kind)
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
