package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backing store selections.
const (
	BackendMemory   = "memory"
	BackendDocument = "document"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Cache    CacheConfig    `yaml:"cache"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Mutator  MutatorConfig  `yaml:"mutator"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	Timezone        string  `yaml:"timezone"`
}

// CacheConfig holds the result cache configuration.
type CacheConfig struct {
	Disabled               bool          `yaml:"disabled"`
	TTLSeconds             int           `yaml:"ttl_seconds"`
	TTL                    time.Duration `yaml:"-"`
	CleanupIntervalSeconds int           `yaml:"cleanup_interval_seconds"`
	CleanupInterval        time.Duration `yaml:"-"`
}

// StoreConfig selects the backing store and its seed data.
type StoreConfig struct {
	Backend  string `yaml:"backend"`
	SeedPath string `yaml:"seed_path"`
}

// DatabaseConfig holds the document store connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// MutatorConfig holds the live mutator configuration.
type MutatorConfig struct {
	Enabled                 bool          `yaml:"enabled"`
	MemoryIntervalSeconds   int           `yaml:"memory_interval_seconds"`
	DocumentIntervalSeconds int           `yaml:"document_interval_seconds"`
	PassTimeoutSeconds      int           `yaml:"pass_timeout_seconds"`
	MemoryInterval          time.Duration `yaml:"-"`
	DocumentInterval        time.Duration `yaml:"-"`
	PassTimeout             time.Duration `yaml:"-"`
	MinStands               int           `yaml:"min_stands"`
	MaxStands               int           `yaml:"max_stands"`
}

// IntervalFor returns the mutator interval for the given backend.
func (m MutatorConfig) IntervalFor(backend string) time.Duration {
	if backend == BackendDocument {
		return m.DocumentInterval
	}
	return m.MemoryInterval
}

// Load reads the configuration from the given path. Variables from a .env
// file in the working directory are loaded first; DATABASE_DSN and
// STORE_BACKEND override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
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
	if cfg.Server.Timezone == "" {
		cfg.Server.Timezone = "Europe/Dublin"
	}

	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 300
	}
	cfg.Cache.TTL = time.Duration(cfg.Cache.TTLSeconds) * time.Second
	if cfg.Cache.Disabled {
		cfg.Cache.TTL = 0
	}
	if cfg.Cache.CleanupIntervalSeconds <= 0 {
		cfg.Cache.CleanupIntervalSeconds = 600
	}
	cfg.Cache.CleanupInterval = time.Duration(cfg.Cache.CleanupIntervalSeconds) * time.Second

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	switch cfg.Store.Backend {
	case "":
		cfg.Store.Backend = BackendMemory
	case BackendMemory, BackendDocument:
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Store.Backend == BackendDocument && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for the %s backend", BackendDocument)
	}

	if cfg.Mutator.MemoryIntervalSeconds <= 0 {
		cfg.Mutator.MemoryIntervalSeconds = 15
	}
	if cfg.Mutator.DocumentIntervalSeconds <= 0 {
		cfg.Mutator.DocumentIntervalSeconds = 20
	}
	if cfg.Mutator.PassTimeoutSeconds <= 0 {
		cfg.Mutator.PassTimeoutSeconds = 30
	}
	cfg.Mutator.MemoryInterval = time.Duration(cfg.Mutator.MemoryIntervalSeconds) * time.Second
	cfg.Mutator.DocumentInterval = time.Duration(cfg.Mutator.DocumentIntervalSeconds) * time.Second
	cfg.Mutator.PassTimeout = time.Duration(cfg.Mutator.PassTimeoutSeconds) * time.Second
	if cfg.Mutator.MinStands <= 0 {
		cfg.Mutator.MinStands = 5
	}
	if cfg.Mutator.MaxStands <= cfg.Mutator.MinStands {
		log.Printf("mutator.max_stands is not set or invalid; defaulting to %d", cfg.Mutator.MinStands+35)
		cfg.Mutator.MaxStands = cfg.Mutator.MinStands + 35
	}
	return nil
}
