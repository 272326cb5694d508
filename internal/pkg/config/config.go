package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/footprint"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Emissions EmissionsConfig `mapstructure:"emissions"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	BodyLimit    int    `mapstructure:"body_limit"` // bytes
	DocsFile     string `mapstructure:"docs_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type CacheConfig struct {
	EstimateTTL int `mapstructure:"estimate_ttl"` // seconds, 0 disables
	LRUSize     int `mapstructure:"lru_size"`
}

// TTL returns the estimate cache lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.EstimateTTL) * time.Second
}

type WorkerConfig struct {
	Durable    string  `mapstructure:"durable"`
	MaxDeliver int     `mapstructure:"max_deliver"`
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

// EmissionsConfig is the emission factor table. Mode order is kept as given.
type EmissionsConfig struct {
	Modes            []domain.EmissionFactor      `mapstructure:"modes"`
	Accommodations   []domain.AccommodationFactor `mapstructure:"accommodations"`
	SelectedMode     string                       `mapstructure:"selected_mode"`
	TreeKgPerYear    float64                      `mapstructure:"tree_kg_per_year"`
	LEDBulbKgPerYear float64                      `mapstructure:"led_bulb_kg_per_year"`
}

// Table converts the configuration into an estimator table.
func (e EmissionsConfig) Table() footprint.Table {
	return footprint.Table{
		Modes:            append([]domain.EmissionFactor(nil), e.Modes...),
		Accommodations:   append([]domain.AccommodationFactor(nil), e.Accommodations...),
		DefaultMode:      e.SelectedMode,
		TreeKgPerYear:    e.TreeKgPerYear,
		LEDBulbKgPerYear: e.LEDBulbKgPerYear,
	}
}

// Load reads configuration from .env, config.yaml and environment variables.
func Load(service string) (*Config, error) {
	return LoadFile(service, "")
}

// LoadFile is Load with an explicit config file. An empty path searches
// "." and "./configs" for config.yaml.
func LoadFile(service, path string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()
	setDefaults(v, service)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: TRIPFOOTPRINT_DATABASE_HOST → database.host
	v.SetEnvPrefix("TRIPFOOTPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.body_limit", 1<<20)
	v.SetDefault("server.docs_file", "api/openapi.yaml")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.enabled", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tripfootprint")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "tripfootprint")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("cache.estimate_ttl", 300)
	v.SetDefault("cache.lru_size", 1024)
	v.SetDefault("worker.durable", "footprint-worker")
	v.SetDefault("worker.max_deliver", 5)
	v.SetDefault("worker.rate_per_sec", 20.0)
	v.SetDefault("worker.burst", 5)

	t := footprint.DefaultTable()
	modes := make([]map[string]any, 0, len(t.Modes))
	for _, m := range t.Modes {
		modes = append(modes, map[string]any{"mode": m.Mode, "per_km": m.PerKm})
	}
	accs := make([]map[string]any, 0, len(t.Accommodations))
	for _, a := range t.Accommodations {
		accs = append(accs, map[string]any{"type": a.Type, "per_night": a.PerNight})
	}
	v.SetDefault("emissions.modes", modes)
	v.SetDefault("emissions.accommodations", accs)
	v.SetDefault("emissions.selected_mode", t.DefaultMode)
	v.SetDefault("emissions.tree_kg_per_year", t.TreeKgPerYear)
	v.SetDefault("emissions.led_bulb_kg_per_year", t.LEDBulbKgPerYear)
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, "server.body_limit must be positive")
	}
	if c.Database.Enabled {
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "database.max_conns must be positive")
		}
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Cache.EstimateTTL < 0 {
		errs = append(errs, "cache.estimate_ttl must not be negative")
	}
	if c.Cache.LRUSize <= 0 {
		errs = append(errs, "cache.lru_size must be positive")
	}
	if c.Worker.MaxDeliver <= 0 {
		errs = append(errs, "worker.max_deliver must be positive")
	}
	if c.Worker.RatePerSec <= 0 {
		errs = append(errs, "worker.rate_per_sec must be positive")
	}
	if err := c.Emissions.Table().Validate(); err != nil {
		errs = append(errs, "emissions: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
