package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server and agent configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Agent  AgentConfig  `yaml:"agent"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// AgentConfig configures the sync agent. The poll interval and widget wait
// budget are correctness mechanisms, not tuning knobs: the widget writes the
// cache through channels that raise no notification.
type AgentConfig struct {
	ServerURL            string `yaml:"server_url"`
	Token                string `yaml:"token"`
	CacheDir             string `yaml:"cache_dir"`
	CachePrefix          string `yaml:"cache_prefix"`
	DefaultProjectID     string `yaml:"default_project_id"`
	PollIntervalMS       int    `yaml:"poll_interval_ms"`
	WidgetWaitIntervalMS int    `yaml:"widget_wait_interval_ms"`
	WidgetWaitAttempts   int    `yaml:"widget_wait_attempts"`
	AuthCooldownMS       int    `yaml:"auth_cooldown_ms"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// PollInterval returns the background scan interval.
func (a AgentConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalMS) * time.Millisecond
}

// WidgetWaitInterval returns the delay between widget startup re-scans.
func (a AgentConfig) WidgetWaitInterval() time.Duration {
	return time.Duration(a.WidgetWaitIntervalMS) * time.Millisecond
}

// AuthCooldown returns how long to back off after an unauthenticated response.
func (a AgentConfig) AuthCooldown() time.Duration {
	return time.Duration(a.AuthCooldownMS) * time.Millisecond
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "sessionsync.db",
		},
		Agent: AgentConfig{
			ServerURL:            "http://127.0.0.1:8080",
			CacheDir:             defaultCacheDir(),
			CachePrefix:          "voiceflow-session",
			DefaultProjectID:     "default",
			PollIntervalMS:       3000,
			WidgetWaitIntervalMS: 500,
			WidgetWaitAttempts:   10,
			AuthCooldownMS:       30000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("SESSIONSYNC_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("SESSIONSYNC_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("SESSIONSYNC_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SESSIONSYNC_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("SESSIONSYNC_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if url := os.Getenv("SESSIONSYNC_API_URL"); url != "" {
		cfg.Agent.ServerURL = url
	}
	if token := os.Getenv("SESSIONSYNC_API_TOKEN"); token != "" {
		cfg.Agent.Token = token
	}
	if dir := os.Getenv("SESSIONSYNC_CACHE_DIR"); dir != "" {
		cfg.Agent.CacheDir = dir
	}
	if level := os.Getenv("SESSIONSYNC_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sessionsync/cache"
	}
	return home + "/.sessionsync/cache"
}
