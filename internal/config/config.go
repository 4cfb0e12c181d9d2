package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Timeout       int    `mapstructure:"timeout"`        // seconds, hard ceiling for every backend call
	ProbeInterval int    `mapstructure:"probe_interval"` // seconds
	ProbeTimeout  int    `mapstructure:"probe_timeout"`  // seconds
	ProbeBurst    int    `mapstructure:"probe_burst"`
}

type CacheConfig struct {
	MaxSizeMB   int `mapstructure:"max_size_mb"`
	CounterSize int `mapstructure:"counter_size"`
	CatalogTTL  int `mapstructure:"catalog_ttl"` // seconds, diseases/countries/regions
	RecordsTTL  int `mapstructure:"records_ttl"` // seconds
}

type SessionConfig struct {
	Backend       string `mapstructure:"backend"` // file or redis
	FilePath      string `mapstructure:"file_path"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
}

type AuthConfig struct {
	MockFallback bool `mapstructure:"mock_fallback"`
}

type SnapshotConfig struct {
	PostgresURL string `mapstructure:"postgres_url"`
}

type PredictionsConfig struct {
	RecordRuns bool `mapstructure:"record_runs"`
}

type GeoConfig struct {
	OverpassURL string `mapstructure:"overpass_url"`
	Timeout     int    `mapstructure:"timeout"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	API         APIConfig         `mapstructure:"api"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Session     SessionConfig     `mapstructure:"session"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Snapshot    SnapshotConfig    `mapstructure:"snapshot"`
	Predictions PredictionsConfig `mapstructure:"predictions"`
	Geo         GeoConfig         `mapstructure:"geo"`
	Log         LogConfig         `mapstructure:"log"`
}

// Load reads config.yaml from the given directories (current directory when
// none) and applies EPIDASH_* environment overrides, e.g. EPIDASH_API_BASE_URL.
// A missing file is not an error.
func Load(paths ...string) (Config, error) {
	var cfg Config

	v := viper.New()
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("EPIDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func MustLoad(paths ...string) Config {
	cfg, err := Load(paths...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 || c.API.Timeout > 10 {
		return fmt.Errorf("api.timeout must be within 1..10 seconds, got %d", c.API.Timeout)
	}
	switch c.Session.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("session.backend must be file or redis, got %q", c.Session.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout", 10)
	v.SetDefault("api.probe_interval", 30)
	v.SetDefault("api.probe_timeout", 2)
	v.SetDefault("api.probe_burst", 3)

	v.SetDefault("cache.max_size_mb", 32)
	v.SetDefault("cache.counter_size", 100000)
	v.SetDefault("cache.catalog_ttl", 60)
	v.SetDefault("cache.records_ttl", 30)

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.file_path", "session.json")
	v.SetDefault("session.redis_addr", "localhost:6379")
	v.SetDefault("session.redis_password", "")
	v.SetDefault("session.redis_db", 0)
	v.SetDefault("session.redis_key", "epidash:session")

	v.SetDefault("auth.mock_fallback", true)

	v.SetDefault("snapshot.postgres_url", "")
	v.SetDefault("predictions.record_runs", false)

	v.SetDefault("geo.overpass_url", "")
	v.SetDefault("geo.timeout", 5)

	v.SetDefault("log.mode", "dev")
}

func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
