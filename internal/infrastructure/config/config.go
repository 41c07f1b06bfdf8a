package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application configuration.
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Solver      SolverConfig    `mapstructure:"solver"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig application identity settings.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// CatalogConfig ingredient catalog source settings.
type CatalogConfig struct {
	Path         string        `mapstructure:"path"`
	URL          string        `mapstructure:"url"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// SolverConfig formulation solver settings.
type SolverConfig struct {
	DefaultMode       string        `mapstructure:"default_mode"`
	Tolerance         float64       `mapstructure:"tolerance"`
	FloorEpsilon      float64       `mapstructure:"floor_epsilon"`
	MaxIterations     int           `mapstructure:"max_iterations"`
	Timeout           time.Duration `mapstructure:"timeout"`
	DefaultBatchSizes []float64     `mapstructure:"default_batch_sizes"`
}

// CacheConfig formulation result cache settings.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// QueueConfig solver queue settings.
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig rate limiter settings.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig loads configuration from .env and environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional outside development
		fmt.Println("Warning: .env file not found")
	}

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("catalog.path", "CATALOG_PATH")
	viper.BindEnv("catalog.url", "CATALOG_URL")
	viper.BindEnv("solver.default_mode", "SOLVER_DEFAULT_MODE")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "feed-formulator")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("catalog.path", "data/ingredients.csv")
	viper.SetDefault("catalog.url", "")
	viper.SetDefault("catalog.fetch_timeout", "30s")

	viper.SetDefault("solver.default_mode", "lp")
	viper.SetDefault("solver.tolerance", 1e-6)
	viper.SetDefault("solver.floor_epsilon", 1e-4)
	viper.SetDefault("solver.max_iterations", 2000)
	viper.SetDefault("solver.timeout", "60s")
	viper.SetDefault("solver.default_batch_sizes", []float64{10, 20, 30, 50, 100})

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.ttl", "24h")

	viper.SetDefault("queue.workers", 5)
	viper.SetDefault("queue.max_size", 100)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	viper.SetDefault("dedup_window", "1s")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Catalog.Path == "" && config.Catalog.URL == "" {
		return fmt.Errorf("catalog path or url is required")
	}

	switch config.Solver.DefaultMode {
	case "lp", "least-squares":
	default:
		return fmt.Errorf("invalid solver default mode: %q", config.Solver.DefaultMode)
	}
	if config.Solver.Tolerance <= 0 {
		return fmt.Errorf("invalid solver tolerance")
	}
	if config.Solver.FloorEpsilon < 0 {
		return fmt.Errorf("invalid solver floor epsilon")
	}
	if config.Solver.MaxIterations <= 0 {
		return fmt.Errorf("invalid solver max iterations")
	}
	if len(config.Solver.DefaultBatchSizes) == 0 {
		return fmt.Errorf("solver default batch sizes are required")
	}

	if config.Cache.Enabled {
		if config.Cache.RedisAddr == "" {
			return fmt.Errorf("cache redis address is required")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	return nil
}
