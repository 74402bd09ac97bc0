package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the premium engine service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Engine    EngineConfig    `mapstructure:"engine"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// RateLimitConfig bounds calculation requests per client
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerWindow int           `mapstructure:"requests_per_window"`
	Window            time.Duration `mapstructure:"window"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

// PostgresConfig holds database configuration
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// EngineConfig holds tunables for the premium calculation pipeline
type EngineConfig struct {
	// HighRiskLocations are city names that trigger the location surcharge.
	HighRiskLocations []string `mapstructure:"high_risk_locations"`
	// HighPropertyValueThreshold triggers the property value surcharge.
	HighPropertyValueThreshold int64 `mapstructure:"high_property_value_threshold"`
	// RuleCacheTTL bounds how long rule definitions stay in the cache.
	RuleCacheTTL    time.Duration `mapstructure:"rule_cache_ttl"`
	CatalogCacheTTL time.Duration `mapstructure:"catalog_cache_ttl"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.allow_origins", []string{"http://localhost:3000"})
	viper.SetDefault("postgres.max_conns", 10)
	viper.SetDefault("postgres.min_conns", 2)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("engine.high_risk_locations", []string{"Abidjan", "Bouake", "San-Pedro"})
	viper.SetDefault("engine.high_property_value_threshold", 50_000_000)
	viper.SetDefault("engine.rule_cache_ttl", 2*time.Minute)
	viper.SetDefault("engine.catalog_cache_ttl", 5*time.Minute)
	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.requests_per_window", 120)
	viper.SetDefault("ratelimit.window", time.Minute)
}

// GetRedisAddr returns the Redis connection address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
