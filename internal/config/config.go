package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the courserec configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Index       IndexConfig       `yaml:"index"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Recommend   RecommendConfig   `yaml:"recommend"`
	Exclusions  ExclusionsConfig  `yaml:"exclusions"`
	Eligibility EligibilityConfig `yaml:"eligibility"`
	Auth        AuthConfig        `yaml:"auth"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig holds per-client request limits.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 disables limiting
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings for the embedding index.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig holds the course/learner/review store settings.
type CatalogConfig struct {
	Driver string `yaml:"driver"` // postgres, sqlite (default: postgres)
	DSN    string `yaml:"dsn"`
}

// IndexConfig holds the embedding index layout.
type IndexConfig struct {
	Name            string `yaml:"name"`
	KeyPrefix       string `yaml:"key_prefix"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the out-of-band embedding provider settings.
type EmbeddingConfig struct {
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	Model               string  `yaml:"model"`
	Dimensions          int     `yaml:"dimensions"`
	DocumentInstruction string  `yaml:"document_instruction"`
	RequestsPerSecond   float64 `yaml:"requests_per_second"`
	Burst               int     `yaml:"burst"`
	CacheTTLSec         int     `yaml:"cache_ttl_sec"`

	Budget BudgetConfig `yaml:"budget"`
}

// BudgetConfig caps tokens spent by the backfill job. Zero limits mean unlimited.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"`
	Action            string `yaml:"action"` // warn, reject (default: warn)
}

// RecommendConfig holds ranking parameters.
type RecommendConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`

	MinPeerOverlap     int     `yaml:"min_peer_overlap"`
	MinAverageRating   float64 `yaml:"min_average_rating"`
	MinReviewCount     int     `yaml:"min_review_count"`
	MinKeywordLength   int     `yaml:"min_keyword_length"`
	TopDepartments     int     `yaml:"top_departments"`
	EmbeddingSeeds     int     `yaml:"embedding_seeds"`
	MaxDepartmentBoost float64 `yaml:"max_department_boost"`
	SemanticWeight     float64 `yaml:"semantic_weight"`
	GraphDepth         int     `yaml:"graph_depth"`

	Fusion  FusionConfig  `yaml:"fusion"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// FusionConfig holds weighted reciprocal rank fusion parameters.
type FusionConfig struct {
	K                   float64 `yaml:"k"`
	VectorWeight        float64 `yaml:"vector_weight"`
	KeywordWeight       float64 `yaml:"keyword_weight"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
}

// BreakerConfig holds circuit breaker settings for the hybrid search call.
type BreakerConfig struct {
	MaxFailures uint32 `yaml:"max_failures"`
	OpenSec     int    `yaml:"open_sec"`
	IntervalSec int    `yaml:"interval_sec"`
}

// ExclusionsConfig lists structural course categories never recommended.
type ExclusionsConfig struct {
	ReservedSuffixes []string `yaml:"reserved_suffixes"`
	Foundational     []string `yaml:"foundational"`
}

// EligibilityConfig holds the recommendation access gate.
type EligibilityConfig struct {
	Enabled          bool    `yaml:"enabled"`
	RecentWindowDays int     `yaml:"recent_window_days"`
	MinReviewShare   float64 `yaml:"min_review_share"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes raw YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
//
//nolint:gocyclo // flat list of defaults
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "postgres"
	}
	if c.Index.Name == "" {
		c.Index.Name = "courserec:embeddings"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "courserec:emb:"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.RequestsPerSecond <= 0 {
		c.Embedding.RequestsPerSecond = 5
	}
	if c.Embedding.Burst <= 0 {
		c.Embedding.Burst = 1
	}
	if c.Embedding.CacheTTLSec <= 0 {
		c.Embedding.CacheTTLSec = 7 * 24 * 3600
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}

	r := &c.Recommend
	if r.DefaultLimit <= 0 {
		r.DefaultLimit = 10
	}
	if r.MaxLimit <= 0 {
		r.MaxLimit = 50
	}
	if r.MinPeerOverlap <= 0 {
		r.MinPeerOverlap = 3
	}
	if r.MinAverageRating <= 0 {
		r.MinAverageRating = 5.5
	}
	if r.MinReviewCount <= 0 {
		r.MinReviewCount = 3
	}
	if r.MinKeywordLength <= 0 {
		r.MinKeywordLength = 5
	}
	if r.TopDepartments <= 0 {
		r.TopDepartments = 3
	}
	if r.EmbeddingSeeds <= 0 {
		r.EmbeddingSeeds = 3
	}
	if r.MaxDepartmentBoost <= 0 {
		r.MaxDepartmentBoost = 0.5
	}
	if r.SemanticWeight <= 0 {
		r.SemanticWeight = 0.7
	}
	if r.GraphDepth <= 0 {
		r.GraphDepth = 2
	}
	if r.Fusion.K <= 0 {
		r.Fusion.K = 60
	}
	if r.Fusion.VectorWeight <= 0 {
		r.Fusion.VectorWeight = 3.0
	}
	if r.Fusion.KeywordWeight <= 0 {
		r.Fusion.KeywordWeight = 0.25
	}
	if r.Fusion.CandidateMultiplier <= 0 {
		r.Fusion.CandidateMultiplier = 3
	}
	if r.Breaker.MaxFailures == 0 {
		r.Breaker.MaxFailures = 5
	}
	if r.Breaker.OpenSec <= 0 {
		r.Breaker.OpenSec = 30
	}
	if r.Breaker.IntervalSec <= 0 {
		r.Breaker.IntervalSec = 60
	}

	if c.Exclusions.ReservedSuffixes == nil {
		c.Exclusions.ReservedSuffixes = []string{"UR", "URG"}
	}
	if c.Eligibility.RecentWindowDays <= 0 {
		c.Eligibility.RecentWindowDays = 365
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Catalog.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("catalog.driver must be \"postgres\" or \"sqlite\", got %q", c.Catalog.Driver)
	}
	if c.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required")
	}
	switch c.Embedding.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}
	if c.Embedding.Budget.DailyTokenLimit < 0 || c.Embedding.Budget.MonthlyTokenLimit < 0 {
		return fmt.Errorf("embedding.budget limits must not be negative")
	}
	if c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf(
			"recommend.default_limit (%d) must not exceed recommend.max_limit (%d)",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit,
		)
	}
	if c.Recommend.SemanticWeight > 1 {
		return fmt.Errorf("recommend.semantic_weight must be in [0, 1], got %g", c.Recommend.SemanticWeight)
	}
	if c.Recommend.MaxDepartmentBoost > 0.5 {
		return fmt.Errorf("recommend.max_department_boost must not exceed 0.5, got %g", c.Recommend.MaxDepartmentBoost)
	}
	if c.Eligibility.MinReviewShare < 0 || c.Eligibility.MinReviewShare > 1 {
		return fmt.Errorf("eligibility.min_review_share must be in [0, 1], got %g", c.Eligibility.MinReviewShare)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
