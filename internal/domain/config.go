package domain

import "time"

// Config is the complete application configuration, unmarshalled by the
// config manager from file and environment.
type Config struct {
	Matching     MatchingConfig     `mapstructure:"matching"`
	Embedding    EmbeddingConfig    `mapstructure:"embedding"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Verification VerificationConfig `mapstructure:"verification"`
	Pricing      PricingConfig      `mapstructure:"pricing"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// MatchingConfig carries the cascade thresholds and calibration floors.
type MatchingConfig struct {
	// CategoryThreshold gates the category stage of the cascade.
	CategoryThreshold float64 `mapstructure:"category_threshold"`
	// AutoMatchThreshold short-circuits model verification entirely.
	AutoMatchThreshold float64 `mapstructure:"auto_match_threshold"`
	// HighConfidence is the fused-score floor for unconditional AUTO_MATCH.
	HighConfidence float64 `mapstructure:"high_confidence"`
	// AnchorFloor is the medical-anchor score that upgrades a
	// threshold-passing candidate to AUTO_MATCH.
	AnchorFloor float64 `mapstructure:"anchor_floor"`
	// VerifyMargin widens the VERIFY band below the category threshold.
	VerifyMargin float64 `mapstructure:"verify_margin"`
	// TopK is the number of item candidates retrieved per query.
	TopK int `mapstructure:"top_k"`
	// MaxParallelItems bounds concurrent item matching within one bill.
	MaxParallelItems int `mapstructure:"max_parallel_items"`
	// WeightOverrides replaces the fusion weights for specific category
	// classes (keyed by class name).
	WeightOverrides map[string]ScoreWeights `mapstructure:"weight_overrides"`
}

// EmbeddingConfig configures the embedding provider adapter.
type EmbeddingConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Dimension   int           `mapstructure:"dimension"`
	BatchSize   int           `mapstructure:"batch_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   int           `mapstructure:"rate_limit"`
	HotTierSize int           `mapstructure:"hot_tier_size"`
}

// CacheConfig configures the persistent embedding cache.
type CacheConfig struct {
	// Backend selects the persistent store: "file" or "sqlite".
	Backend string `mapstructure:"backend"`
	// Path is the cache file location (JSON file or SQLite database).
	Path string `mapstructure:"path"`
	// RedisURL enables the optional shared warm tier when non-empty.
	RedisURL string        `mapstructure:"redis_url"`
	RedisTTL time.Duration `mapstructure:"redis_ttl"`
}

// VerificationConfig configures the verification-model router.
type VerificationConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	PrimaryModel    string        `mapstructure:"primary_model"`
	SecondaryModel  string        `mapstructure:"secondary_model"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ConfidenceFloor float64       `mapstructure:"confidence_floor"`
	CacheSize       int           `mapstructure:"cache_size"`
	RateLimit       int           `mapstructure:"rate_limit"`
}

// PricingConfig configures the price comparison pass.
type PricingConfig struct {
	// Tolerance is the fractional overcharge allowed before a line turns
	// RED (0 = exact comparison).
	Tolerance float64 `mapstructure:"tolerance"`
}

// LoggingConfig configures the logrus logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
