// Package config loads application configuration through Viper, layering
// defaults, an optional config file, and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tieup-bill-verifier/internal/domain"
)

// Manager owns the loaded configuration. Construct it once at bootstrap
// and hand the typed sections to the services that need them.
type Manager struct {
	config *domain.Config
}

// NewManager creates a configuration manager and loads configuration.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment, and defaults.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/tieup-verifier/")

	viper.SetEnvPrefix("TIEUP_VERIFIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(config); err != nil {
		return err
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	// Matching defaults: cascade thresholds and calibration floors.
	viper.SetDefault("matching.category_threshold", 0.70)
	viper.SetDefault("matching.auto_match_threshold", 0.85)
	viper.SetDefault("matching.high_confidence", 0.80)
	viper.SetDefault("matching.anchor_floor", 0.70)
	viper.SetDefault("matching.verify_margin", 0.10)
	viper.SetDefault("matching.top_k", 5)
	viper.SetDefault("matching.max_parallel_items", 4)

	// Embedding provider defaults.
	viper.SetDefault("embedding.base_url", "http://localhost:8090")
	viper.SetDefault("embedding.model", "bge-base-en-v1.5")
	viper.SetDefault("embedding.dimension", 768)
	viper.SetDefault("embedding.batch_size", 32)
	viper.SetDefault("embedding.timeout", "30s")
	viper.SetDefault("embedding.rate_limit", 20)
	viper.SetDefault("embedding.hot_tier_size", 2048)

	// Embedding cache defaults.
	viper.SetDefault("cache.backend", "file")
	viper.SetDefault("cache.path", "data/embedding_cache.json")
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.redis_ttl", "168h")

	// Verification model defaults.
	viper.SetDefault("verification.base_url", "http://localhost:11434")
	viper.SetDefault("verification.primary_model", "phi3:mini")
	viper.SetDefault("verification.secondary_model", "qwen2.5:3b")
	viper.SetDefault("verification.timeout", "30s")
	viper.SetDefault("verification.confidence_floor", 0.7)
	viper.SetDefault("verification.cache_size", 4096)
	viper.SetDefault("verification.rate_limit", 5)

	// Pricing defaults.
	viper.SetDefault("pricing.tolerance", 0.0)

	// Logging defaults.
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	// Reports print to stdout, so logs default to stderr.
	viper.SetDefault("logging.output", "stderr")
}

// validate rejects configurations that would silently break the decision
// thresholds.
func validate(c *domain.Config) error {
	if c.Matching.CategoryThreshold <= 0 || c.Matching.CategoryThreshold > 1 {
		return fmt.Errorf("matching.category_threshold must be in (0,1], got %f", c.Matching.CategoryThreshold)
	}
	if c.Matching.AutoMatchThreshold < c.Matching.CategoryThreshold {
		return fmt.Errorf("matching.auto_match_threshold (%f) must be >= category_threshold (%f)",
			c.Matching.AutoMatchThreshold, c.Matching.CategoryThreshold)
	}
	if c.Matching.TopK <= 0 {
		return fmt.Errorf("matching.top_k must be positive, got %d", c.Matching.TopK)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	switch c.Cache.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("cache.backend must be \"file\" or \"sqlite\", got %q", c.Cache.Backend)
	}
	if c.Verification.ConfidenceFloor < 0 || c.Verification.ConfidenceFloor > 1 {
		return fmt.Errorf("verification.confidence_floor must be in [0,1], got %f", c.Verification.ConfidenceFloor)
	}
	return nil
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetMatchingConfig returns the matching section.
func (m *Manager) GetMatchingConfig() *domain.MatchingConfig {
	return &m.config.Matching
}

// GetEmbeddingConfig returns the embedding section.
func (m *Manager) GetEmbeddingConfig() *domain.EmbeddingConfig {
	return &m.config.Embedding
}

// GetCacheConfig returns the cache section.
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// GetVerificationConfig returns the verification section.
func (m *Manager) GetVerificationConfig() *domain.VerificationConfig {
	return &m.config.Verification
}

// GetPricingConfig returns the pricing section.
func (m *Manager) GetPricingConfig() *domain.PricingConfig {
	return &m.config.Pricing
}

// GetLoggingConfig returns the logging section.
func (m *Manager) GetLoggingConfig() *domain.LoggingConfig {
	return &m.config.Logging
}
