package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Providers ProvidersConfig
	Matching  MatchingConfig
	Admin     AdminConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CacheConfig holds snapshot cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ProvidersConfig holds listing source configuration
type ProvidersConfig struct {
	UseMocks        bool          `mapstructure:"use_mocks"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	FetchPerSecond  float64       `mapstructure:"fetch_per_second"`
	DefaultCategory string        `mapstructure:"default_category"`
}

// MatchingConfig holds grouping/merge configuration
type MatchingConfig struct {
	MergeThreshold     float64 `mapstructure:"merge_threshold"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// AdminConfig holds the admin mapping workflow configuration
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

// StoreConfig holds persistence configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartcompare/")

	// Environment variable settings
	v.SetEnvPrefix("CARTCOMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5174"})

	// Cache defaults
	v.SetDefault("cache.ttl", "2m")

	// Provider defaults
	v.SetDefault("providers.use_mocks", true)
	v.SetDefault("providers.refresh_interval", "2m")
	v.SetDefault("providers.fetch_per_second", 5.0)
	v.SetDefault("providers.default_category", "grocery")

	// Matching defaults
	v.SetDefault("matching.merge_threshold", 0.65)
	v.SetDefault("matching.enable_debug_logging", false)

	// Admin defaults. Empty default so the env var binds through AutomaticEnv;
	// validate rejects an empty token.
	v.SetDefault("admin.token", "")

	// Store defaults
	v.SetDefault("store.path", "cartcompare.db")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.Matching.MergeThreshold <= 0 || config.Matching.MergeThreshold > 1 {
		return fmt.Errorf("merge threshold must be in (0, 1], got: %v", config.Matching.MergeThreshold)
	}

	if config.Admin.Token == "" {
		return fmt.Errorf("admin token is required (set CARTCOMPARE_ADMIN_TOKEN)")
	}

	if config.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	return nil
}
