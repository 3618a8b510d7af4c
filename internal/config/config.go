package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the casedex configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Store       StoreConfig       `yaml:"store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Chat        ChatConfig        `yaml:"chat"`
	Budget      BudgetConfig      `yaml:"budget"`
	Search      SearchConfig      `yaml:"search"`
	Enhancement EnhancementConfig `yaml:"enhancement"`
	Auth        AuthConfig        `yaml:"auth"`
	CORS        CORSConfig        `yaml:"cors"`
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

// CORSConfig lists browser origins allowed to call the API. Empty disables CORS.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the Redis connection behind the vector index and shared caches.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// StoreConfig holds the SQLite metadata store and the parquet full-text corpus.
type StoreConfig struct {
	SQLitePath    string `yaml:"sqlite_path"`
	BusyTimeoutMs int    `yaml:"busy_timeout_ms"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	ParquetDir    string `yaml:"parquet_dir"`
	OpenFiles     int    `yaml:"open_files"`
}

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	Provider       string               `yaml:"provider"`
	APIKey         string               `yaml:"api_key"`
	BaseURL        string               `yaml:"base_url"`
	Model          string               `yaml:"model"`
	Dimensions     int                  `yaml:"dimensions"`
	SendDimensions bool                 `yaml:"send_dimensions"`
	Instruction    string               `yaml:"instruction"`
	MaxInputRunes  int                  `yaml:"max_input_runes"`
	Cache          EmbeddingCacheConfig `yaml:"cache"`
}

// EmbeddingCacheConfig sizes the two embedding cache tiers. Zero disables a tier.
type EmbeddingCacheConfig struct {
	LocalSize int `yaml:"local_size"`
	TTLSec    int `yaml:"ttl_sec"`
}

// ChatConfig holds summary and query refinement settings. API key and base
// URL fall back to the embedding provider's.
type ChatConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	RefineQuery bool    `yaml:"refine_query"`
	RefineModel string  `yaml:"refine_model"`
}

// BudgetConfig holds provider token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// SearchConfig tunes hybrid retrieval.
type SearchConfig struct {
	Threshold        float64 `yaml:"threshold"`
	ConfidenceMetric string  `yaml:"confidence_metric"` // top1 | mean_top5
	Cap              int     `yaml:"cap"`
	Window           string  `yaml:"window"` // cap | page; page may repeat a case across fused pages
	ParallelText     bool    `yaml:"parallel_text"`
	RequestTimeoutMs int     `yaml:"request_timeout_ms"`
	IndexTimeoutMs   int     `yaml:"index_timeout_ms"`
	StoreTimeoutMs   int     `yaml:"store_timeout_ms"`
	EmbedTimeoutMs   int     `yaml:"embed_timeout_ms"`
	RetryAttempts    int     `yaml:"retry_attempts"`
	VocabularyTTLSec int     `yaml:"vocabulary_ttl_sec"`
}

// EnhancementConfig holds the summary cache and prefetch settings.
type EnhancementConfig struct {
	Cache              string `yaml:"cache"` // memory | redis
	Capacity           int    `yaml:"capacity"`
	TTLSec             int    `yaml:"ttl_sec"`
	PrefetchWorkers    int    `yaml:"prefetch_workers"` // 0 disables prefetch
	PrefetchTop        int    `yaml:"prefetch_top"`
	PrefetchTimeoutSec int    `yaml:"prefetch_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; existing variables win.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data and decodes it.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "casedex:case:"
	}
	if c.Store.BusyTimeoutMs <= 0 {
		c.Store.BusyTimeoutMs = 5000
	}
	if c.Store.MaxOpenConns <= 0 {
		c.Store.MaxOpenConns = 8
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.MaxInputRunes <= 0 {
		c.Embedding.MaxInputRunes = 2048
	}
	if c.Chat.APIKey == "" {
		c.Chat.APIKey = c.Embedding.APIKey
	}
	if c.Chat.BaseURL == "" {
		c.Chat.BaseURL = c.Embedding.BaseURL
	}
	if c.Budget.Action == "" {
		c.Budget.Action = "warn"
	}
	if c.Search.Threshold <= 0 {
		c.Search.Threshold = 0.45
	}
	if c.Search.ConfidenceMetric == "" {
		c.Search.ConfidenceMetric = "top1"
	}
	if c.Search.Cap <= 0 {
		c.Search.Cap = 200
	}
	if c.Search.Window == "" {
		c.Search.Window = "cap"
	}
	if c.Search.RequestTimeoutMs <= 0 {
		c.Search.RequestTimeoutMs = 10000
	}
	if c.Search.IndexTimeoutMs <= 0 {
		c.Search.IndexTimeoutMs = 2000
	}
	if c.Search.StoreTimeoutMs <= 0 {
		c.Search.StoreTimeoutMs = 2000
	}
	if c.Search.EmbedTimeoutMs <= 0 {
		c.Search.EmbedTimeoutMs = 3000
	}
	if c.Search.RetryAttempts <= 0 {
		c.Search.RetryAttempts = 3
	}
	if c.Search.VocabularyTTLSec <= 0 {
		c.Search.VocabularyTTLSec = 300
	}
	if c.Enhancement.Cache == "" {
		c.Enhancement.Cache = "memory"
	}
	if c.Enhancement.Capacity <= 0 {
		c.Enhancement.Capacity = 1000
	}
	if c.Enhancement.TTLSec <= 0 {
		c.Enhancement.TTLSec = 86400
	}
	if c.Enhancement.PrefetchTimeoutSec <= 0 {
		c.Enhancement.PrefetchTimeoutSec = 60
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
	if c.Store.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path is required")
	}
	if c.Embedding.Provider != "openai" {
		return fmt.Errorf("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}
	switch c.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("budget.action must be \"warn\" or \"reject\", got %q", c.Budget.Action)
	}
	if c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be in (0, 1], got %v", c.Search.Threshold)
	}
	switch c.Search.ConfidenceMetric {
	case "top1", "mean_top5":
	default:
		return fmt.Errorf("search.confidence_metric must be \"top1\" or \"mean_top5\", got %q",
			c.Search.ConfidenceMetric)
	}
	switch c.Search.Window {
	case "cap", "page":
	default:
		return fmt.Errorf("search.window must be \"cap\" or \"page\", got %q", c.Search.Window)
	}
	switch c.Enhancement.Cache {
	case "memory", "redis":
	default:
		return fmt.Errorf("enhancement.cache must be \"memory\" or \"redis\", got %q", c.Enhancement.Cache)
	}
	if c.Enhancement.PrefetchWorkers < 0 || c.Enhancement.PrefetchTop < 0 {
		return fmt.Errorf("enhancement prefetch settings must be non-negative")
	}
	return nil
}

// Millis converts a millisecond setting into a duration.
func Millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

// Seconds converts a second setting into a duration.
func Seconds(sec int) time.Duration { return time.Duration(sec) * time.Second }

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
