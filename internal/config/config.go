// Package config loads and validates application configuration from YAML files
// and environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Cache         CacheConfig         `yaml:"cache"`
	Simulation    SimulationConfig    `yaml:"simulation"`
	Invoices      InvoicesConfig      `yaml:"invoices"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path"`
	// DSN is the PostgreSQL connection string. DSNEnv names an environment
	// variable that holds it instead.
	DSN      string `yaml:"dsn"`
	DSNEnv   string `yaml:"dsn_env"`
	MaxConns int32  `yaml:"max_conns"`
}

// ResolvedDSN returns DSN, or the value of DSNEnv when DSN is empty.
func (s StoreConfig) ResolvedDSN() string {
	if s.DSN != "" || s.DSNEnv == "" {
		return s.DSN
	}
	return os.Getenv(s.DSNEnv)
}

// CacheConfig describes the read-API response cache.
type CacheConfig struct {
	Driver string        `yaml:"driver"`
	TTL    time.Duration `yaml:"ttl"`
	Redis  RedisConfig   `yaml:"redis"`
}

// RedisConfig describes the Redis connection of the response cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SimulationConfig describes a case generation run.
type SimulationConfig struct {
	Cases int `yaml:"cases"`
	// Seed fixes the random source. Zero seeds from the wall clock.
	Seed     uint64        `yaml:"seed"`
	MeanStep time.Duration `yaml:"mean_step"`
	MaxSteps int           `yaml:"max_steps"`
	// VocabularyFile replaces the embedded vocabulary when set.
	VocabularyFile string `yaml:"vocabulary_file"`
	// Reset clears the store before generating.
	Reset bool `yaml:"reset"`
}

// InvoicesConfig describes an invoice generation run.
type InvoicesConfig struct {
	// SeedFile is a CSV export of invoice groups. When empty, Groups
	// synthetic seeds are drawn instead.
	SeedFile  string `yaml:"seed_file"`
	Groups    int    `yaml:"groups"`
	Inventory int    `yaml:"inventory"`
	// LinkCases attaches each group to a random stored case.
	LinkCases bool `yaml:"link_cases"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled           bool    `yaml:"enabled"`
	Exporter          string  `yaml:"exporter"`
	Endpoint          string  `yaml:"endpoint"`
	SamplingRate      float64 `yaml:"sampling_rate"`
	ForceSampleErrors bool    `yaml:"force_sample_errors"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedOrigins: []string{"http://localhost:3000"},
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		Store: StoreConfig{
			Driver:   DriverSQLite,
			Path:     "procmine.db",
			MaxConns: 10,
		},
		Cache: CacheConfig{
			Driver: CacheMemory,
			TTL:    5 * time.Minute,
		},
		Simulation: SimulationConfig{
			Cases:    1000,
			MeanStep: 4 * time.Hour,
			MaxSteps: 10000,
		},
		Invoices: InvoicesConfig{
			Groups:    200,
			Inventory: 100,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates the result. An empty path loads the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.ResolvedDSN() == "" {
			errs = append(errs, "store.dsn or store.dsn_env is required for the postgres driver")
		}
		if c.Store.MaxConns < 1 {
			errs = append(errs, "store.max_conns must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be one of memory, sqlite, postgres", c.Store.Driver))
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, "cache.redis.addr is required for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.driver %q must be one of none, memory, redis", c.Cache.Driver))
	}
	if c.Cache.Driver != CacheNone && c.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive")
	}

	if c.Simulation.Cases < 0 {
		errs = append(errs, "simulation.cases must not be negative")
	}
	if c.Simulation.MeanStep <= 0 {
		errs = append(errs, "simulation.mean_step must be positive")
	}
	if c.Simulation.MaxSteps < 1 {
		errs = append(errs, "simulation.max_steps must be positive")
	}

	if c.Invoices.Groups < 0 || c.Invoices.Inventory < 0 {
		errs = append(errs, "invoices.groups and invoices.inventory must not be negative")
	}

	if t := c.Observability.Tracing; t.Enabled {
		if !slices.Contains([]string{"otlp", "stdout"}, t.Exporter) {
			errs = append(errs, fmt.Sprintf("observability.tracing.exporter %q must be otlp or stdout", t.Exporter))
		}
		if t.SamplingRate < 0 || t.SamplingRate > 1 {
			errs = append(errs, "observability.tracing.sampling_rate must be between 0 and 1")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads PROCMINE_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROCMINE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PROCMINE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("PROCMINE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("PROCMINE_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("PROCMINE_CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}
	if v := os.Getenv("PROCMINE_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("PROCMINE_SIMULATION_CASES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Cases = n
		}
	}
	if v := os.Getenv("PROCMINE_SIMULATION_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Simulation.Seed = n
		}
	}
	if v := os.Getenv("PROCMINE_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}
