package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Selector  SelectorConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScraperConfig holds configuration for fetching and parsing the comparison site
type ScraperConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Mode              string        `mapstructure:"mode"` // "http" or "browser"
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	AcceptLanguage    string        `mapstructure:"accept_language"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	ListingTemplates  []string      `mapstructure:"listing_templates"`
	DefaultMaxResults int           `mapstructure:"default_max_results"`
	MaxResultsLimit   int           `mapstructure:"max_results_limit"`
	DetailConcurrency int           `mapstructure:"detail_concurrency"`
	BrowserBin        string        `mapstructure:"browser_bin"`
	Debug             bool          `mapstructure:"debug"`
}

// SelectorConfig holds candidate selector configuration
type SelectorConfig struct {
	Provider      string        `mapstructure:"provider"` // "none", "relevance" or "gemini"
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TopK          int           `mapstructure:"top_k"`
	MaxCandidates int           `mapstructure:"max_candidates"`
	FuzzyMatching bool          `mapstructure:"fuzzy_matching"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "lru"
	TTL  time.Duration `mapstructure:"ttl"`
	Size int           `mapstructure:"size"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/grocerycompare/")

	// Environment variable settings: scraper.base_url -> GROCERY_SCRAPER_BASE_URL
	v.SetEnvPrefix("GROCERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load(".env")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	// Scraper defaults
	v.SetDefault("scraper.base_url", "https://www.trolley.co.uk")
	v.SetDefault("scraper.mode", "http")
	v.SetDefault("scraper.timeout", "10s")
	v.SetDefault("scraper.user_agent", "")
	v.SetDefault("scraper.accept_language", "en-GB,en;q=0.9")
	v.SetDefault("scraper.requests_per_second", 5)
	v.SetDefault("scraper.burst", 10)
	v.SetDefault("scraper.listing_templates", []string{})
	v.SetDefault("scraper.default_max_results", 20)
	v.SetDefault("scraper.max_results_limit", 50)
	v.SetDefault("scraper.detail_concurrency", 4)
	v.SetDefault("scraper.browser_bin", "")
	v.SetDefault("scraper.debug", false)

	// Selector defaults
	v.SetDefault("selector.provider", "relevance")
	v.SetDefault("selector.api_key", "")
	v.SetDefault("selector.model", "gemini-1.5-flash")
	v.SetDefault("selector.timeout", "8s")
	v.SetDefault("selector.top_k", 4)
	v.SetDefault("selector.max_candidates", 20)
	v.SetDefault("selector.fuzzy_matching", true)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.size", 512)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Scraper.Mode != "http" && config.Scraper.Mode != "browser" {
		return fmt.Errorf("scraper mode must be 'http' or 'browser', got: %s", config.Scraper.Mode)
	}

	if config.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper base URL is required (set GROCERY_SCRAPER_BASE_URL)")
	}

	if config.Scraper.MaxResultsLimit < 0 || config.Scraper.DefaultMaxResults < 0 {
		return fmt.Errorf("max results settings must not be negative")
	}

	// gemini without an API key is allowed; the server falls back to the first result
	switch config.Selector.Provider {
	case "none", "relevance", "gemini":
	default:
		return fmt.Errorf("selector provider must be 'none', 'relevance' or 'gemini', got: %s", config.Selector.Provider)
	}

	if config.Selector.TopK < 0 || config.Selector.TopK > 10 {
		return fmt.Errorf("selector top_k must be between 0 and 10, got: %d", config.Selector.TopK)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "lru" {
		return fmt.Errorf("cache type must be 'memory' or 'lru', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "lru" && config.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive when cache type is 'lru'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("per-IP rate limit must not be negative")
	}

	return nil
}
