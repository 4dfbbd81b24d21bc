package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Remote    RemoteConfig    `yaml:"remote"`
	Storage   StorageConfig   `yaml:"storage"`
	Limits    LimitsConfig    `yaml:"limits"`
	Session   SessionConfig   `yaml:"session"`
	Sync      SyncConfig      `yaml:"sync"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type RemoteConfig struct {
	// Endpoint is the single URL of the workout backend. All reads go
	// through ?action=... query parameters, all writes POST a JSON
	// envelope to it.
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StorageConfig struct {
	// Path is the SQLite database file holding plans, sessions and the
	// sync queue.
	Path           string `yaml:"path"`
	MigrationsPath string `yaml:"migrations_path"`
}

type LimitsConfig struct {
	MinWeight float64 `yaml:"min_weight"` // kg
	MaxWeight float64 `yaml:"max_weight"` // kg
	MaxSets   int     `yaml:"max_sets"`
	MaxReps   int     `yaml:"max_reps"`
}

type SessionConfig struct {
	// AutosaveDelaySeconds is the debounce window for local autosave of
	// the in-progress session. Each weight change resets the timer;
	// only the latest pending autosave fires.
	AutosaveDelaySeconds int `yaml:"autosave_delay_seconds"`
}

type SyncConfig struct {
	// PingIntervalSeconds controls how often the connectivity monitor
	// pings the remote endpoint.
	PingIntervalSeconds int `yaml:"ping_interval_seconds"`
	// MaxAttempts is the per-item flush failure budget before an item
	// moves to the dead-letter table. Zero means unlimited.
	MaxAttempts int `yaml:"max_attempts"`
}

// Default returns the baseline configuration applied before the YAML
// file and environment overrides.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "127.0.0.1", Port: 8420},
		Remote:  RemoteConfig{TimeoutSeconds: 10},
		Storage: StorageConfig{MigrationsPath: "migrations"},
		Limits:  LimitsConfig{MinWeight: 0, MaxWeight: 500, MaxSets: 10, MaxReps: 50},
		Session: SessionConfig{AutosaveDelaySeconds: 2},
		Sync:    SyncConfig{PingIntervalSeconds: 30, MaxAttempts: 20},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix GYMTRACK_ and underscore-separated
// paths:
//
//	GYMTRACK_SERVER_HOST, GYMTRACK_SERVER_PORT,
//	GYMTRACK_REMOTE_ENDPOINT, GYMTRACK_REMOTE_TIMEOUT,
//	GYMTRACK_STORAGE_PATH, GYMTRACK_TS_HOSTNAME, GYMTRACK_TS_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GYMTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GYMTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GYMTRACK_REMOTE_ENDPOINT"); v != "" {
		cfg.Remote.Endpoint = v
	}
	if v := os.Getenv("GYMTRACK_REMOTE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Remote.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("GYMTRACK_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("GYMTRACK_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("GYMTRACK_TS_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Remote.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is required")
	}
	if c.Limits.MaxWeight <= c.Limits.MinWeight {
		return fmt.Errorf("limits.max_weight must be greater than limits.min_weight")
	}
	if c.Session.AutosaveDelaySeconds < 1 {
		return fmt.Errorf("session.autosave_delay_seconds must be >= 1")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
