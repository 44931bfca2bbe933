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

// Config holds the tenqd API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Edgar     EdgarConfig     `yaml:"edgar"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Analyst   AnalystConfig   `yaml:"analyst"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// DatabaseConfig holds database connection settings.
// Driver "memory" runs everything in-process with no durability.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds filing artifact and freshness cache settings.
type StorageConfig struct {
	DataDir          string `yaml:"data_dir"`
	FreshnessBackend string `yaml:"freshness_backend"` // file, redis (default: file)
	FreshnessPath    string `yaml:"freshness_path"`
}

// EdgarConfig holds SEC EDGAR client settings.
type EdgarConfig struct {
	UserAgent       string `yaml:"user_agent"`
	MaxRPS          int    `yaml:"max_rps"`
	BaseURL         string `yaml:"base_url"`
	DataBaseURL     string `yaml:"data_base_url"`
	ArchivesBaseURL string `yaml:"archives_base_url"`
	RetryBackoffSec int    `yaml:"retry_backoff_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// AnalystConfig holds report-generation provider settings.
type AnalystConfig struct {
	Provider string `yaml:"provider"` // openai, gemini (default: openai)
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// IngestConfig holds chunking settings.
type IngestConfig struct {
	ChunkChars   int `yaml:"chunk_chars"`
	OverlapChars int `yaml:"overlap_chars"`
}

// RetrievalConfig bounds the retrieval capability exposed to analysts.
type RetrievalConfig struct {
	MaxTopK          int `yaml:"max_top_k"`
	MaxFragmentChars int `yaml:"max_fragment_chars"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Reconciliation holds the request open through download and embedding.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.FreshnessBackend == "" {
		c.Storage.FreshnessBackend = "file"
	}
	if c.Storage.FreshnessPath == "" {
		c.Storage.FreshnessPath = filepath.Join(c.Storage.DataDir, "cache", "latest_tenq.json")
	}
	if c.Edgar.MaxRPS <= 0 {
		c.Edgar.MaxRPS = 8
	}
	if c.Edgar.BaseURL == "" {
		c.Edgar.BaseURL = "https://www.sec.gov"
	}
	if c.Edgar.DataBaseURL == "" {
		c.Edgar.DataBaseURL = "https://data.sec.gov"
	}
	if c.Edgar.ArchivesBaseURL == "" {
		c.Edgar.ArchivesBaseURL = "https://www.sec.gov/Archives/edgar/data"
	}
	if c.Edgar.RetryBackoffSec <= 0 {
		c.Edgar.RetryBackoffSec = 2
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-large"
	}
	if c.Analyst.Provider == "" {
		c.Analyst.Provider = "openai"
	}
	if c.Analyst.Model == "" {
		c.Analyst.Model = defaultAnalystModel(c.Analyst.Provider)
	}
	if c.Ingest.ChunkChars <= 0 {
		c.Ingest.ChunkChars = 2000
	}
	if c.Ingest.OverlapChars <= 0 {
		c.Ingest.OverlapChars = 200
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 5
	}
	if c.Retrieval.MaxFragmentChars <= 0 {
		c.Retrieval.MaxFragmentChars = 1500
	}
}

func defaultAnalystModel(provider string) string {
	if provider == "gemini" {
		return "gemini-3-flash-preview"
	}
	return "gpt-4o"
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	case "memory":
		if c.Storage.FreshnessBackend == "redis" {
			return fmt.Errorf("storage.freshness_backend cannot be redis with the memory driver")
		}
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"memory\", got %q", c.Database.Driver)
	}
	switch c.Storage.FreshnessBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("storage.freshness_backend must be \"file\" or \"redis\", got %q",
			c.Storage.FreshnessBackend)
	}
	if c.Edgar.UserAgent == "" {
		return fmt.Errorf("edgar.user_agent is required (SEC rejects anonymous clients)")
	}
	switch c.Analyst.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("analyst.provider must be \"openai\" or \"gemini\", got %q", c.Analyst.Provider)
	}
	if c.Ingest.OverlapChars >= c.Ingest.ChunkChars {
		return fmt.Errorf("ingest.overlap_chars (%d) must be smaller than ingest.chunk_chars (%d)",
			c.Ingest.OverlapChars, c.Ingest.ChunkChars)
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
