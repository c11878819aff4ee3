package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Departure modes for travel time queries.
const (
	DepartureNow            = "now"
	DepartureAppointmentEnd = "appointment_end"
)

// SchedulerConfig holds the business-day grid and travel evaluation settings.
type SchedulerConfig struct {
	StartHour            int    `yaml:"start_hour"`
	EndHour              int    `yaml:"end_hour"`
	IntervalMinutes      int    `yaml:"interval_minutes"`
	InspectionMinutes    int    `yaml:"inspection_minutes"`
	DefaultSlot          string `yaml:"default_slot"`
	Timezone             string `yaml:"timezone"`
	ClipToClose          bool   `yaml:"clip_to_close"`
	DepartureMode        string `yaml:"departure_mode"`
	OracleConcurrency    int    `yaml:"oracle_concurrency"`
	OracleTimeoutSeconds int    `yaml:"oracle_timeout_seconds"`

	OracleTimeout time.Duration `yaml:"-"`
}

// OracleConfig configures the travel time provider.
type OracleConfig struct {
	BaseURL         string  `yaml:"base_url"`
	APIKey          string  `yaml:"api_key"`
	HTTPProxy       string  `yaml:"http_proxy"`
	TrafficModel    string  `yaml:"traffic_model"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
}

// LogConfig selects the zap preset and level.
type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, as if loaded
// from an empty file.
func Default() *Config {
	var cfg Config
	// the zero config is always valid
	_ = cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "sqlite:fieldservice.db"
	}

	s := &cfg.Scheduler
	if s.StartHour == 0 && s.EndHour == 0 {
		s.StartHour, s.EndHour = 7, 18
	}
	if s.StartHour < 0 || s.EndHour > 24 || s.StartHour >= s.EndHour {
		return fmt.Errorf("invalid business hours [%d, %d)", s.StartHour, s.EndHour)
	}
	if s.IntervalMinutes <= 0 {
		s.IntervalMinutes = 30
	}
	if s.InspectionMinutes <= 0 {
		s.InspectionMinutes = 60
	}
	if s.DefaultSlot == "" {
		s.DefaultSlot = "09:00"
	}
	if s.Timezone == "" {
		s.Timezone = "Local"
	}
	switch s.DepartureMode {
	case "":
		s.DepartureMode = DepartureNow
	case DepartureNow, DepartureAppointmentEnd:
	default:
		return fmt.Errorf("unknown scheduler.departure_mode %q", s.DepartureMode)
	}
	if s.OracleConcurrency <= 0 {
		s.OracleConcurrency = 4
	}
	if s.OracleConcurrency > 8 {
		s.OracleConcurrency = 8
	}
	if s.OracleTimeoutSeconds <= 0 {
		s.OracleTimeoutSeconds = 5
	}
	s.OracleTimeout = time.Duration(s.OracleTimeoutSeconds) * time.Second

	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://maps.googleapis.com"
	}
	if cfg.Oracle.TrafficModel == "" {
		cfg.Oracle.TrafficModel = "best_guess"
	}
	if cfg.Oracle.RateLimitPerSec <= 0 {
		cfg.Oracle.RateLimitPerSec = 10
	}
	if cfg.Oracle.RateLimitBurst <= 0 {
		cfg.Oracle.RateLimitBurst = cfg.Scheduler.OracleConcurrency
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Log.Env == "" {
		cfg.Log.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return nil
}

// Location resolves the scheduler timezone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}
