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

// Config holds the nyaya API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Auth       AuthConfig       `yaml:"auth"`
	RAG        RAGConfig        `yaml:"rag"`
	Storage    StorageConfig    `yaml:"storage"`
	Acts       []ActConfig      `yaml:"acts"`
	DocActs    []ActConfig      `yaml:"doc_acts"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings for users and chat history.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// GenerationConfig holds generation provider settings.
type GenerationConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	TokenTTLMin int    `yaml:"token_ttl_min"`
}

// RAGConfig holds query pipeline tunables. MaxRetries is a pointer so an
// explicit zero (no provider retries) is distinguishable from unset.
type RAGConfig struct {
	TopK              int  `yaml:"top_k"`
	MaxConcurrency    int  `yaml:"max_concurrency"`
	MaxRetries        *int `yaml:"max_retries"`
	RequestTimeoutSec int  `yaml:"request_timeout_sec"`
	SessionWindowMin  int  `yaml:"session_window_min"`
}

// StorageConfig holds index snapshot location and Redis key prefix.
type StorageConfig struct {
	IndexDir  string `yaml:"index_dir"`
	KeyPrefix string `yaml:"key_prefix"`
}

// ActConfig declares one statute knowledge base in the startup catalog.
type ActConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
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
		// Generation calls dominate the /chat latency, leave headroom.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 60
	}
	if c.Auth.TokenTTLMin <= 0 {
		c.Auth.TokenTTLMin = 24 * 60
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 3
	}
	if c.RAG.MaxConcurrency <= 0 {
		c.RAG.MaxConcurrency = 6
	}
	if c.RAG.MaxRetries == nil {
		retries := 2
		c.RAG.MaxRetries = &retries
	}
	if c.RAG.RequestTimeoutSec <= 0 {
		c.RAG.RequestTimeoutSec = 90
	}
	if c.RAG.SessionWindowMin <= 0 {
		c.RAG.SessionWindowMin = 60
	}
	if c.Storage.IndexDir == "" {
		c.Storage.IndexDir = "storage"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "nyaya:"
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
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.RAG.MaxRetries != nil && *c.RAG.MaxRetries < 0 {
		return fmt.Errorf("rag.max_retries must be >= 0, got %d", *c.RAG.MaxRetries)
	}
	if len(c.Acts) == 0 {
		return fmt.Errorf("at least one act must be configured")
	}
	// Act ids double as index directory names under storage.index_dir, so
	// the chat and drafting catalogs share one id namespace.
	seen := make(map[string]struct{}, len(c.Acts)+len(c.DocActs))
	if err := validateActs("acts", c.Acts, seen); err != nil {
		return err
	}
	if err := validateActs("doc_acts", c.DocActs, seen); err != nil {
		return err
	}
	return nil
}

func validateActs(field string, acts []ActConfig, seen map[string]struct{}) error {
	for i, a := range acts {
		if a.ID == "" {
			return fmt.Errorf("%s[%d].id is required", field, i)
		}
		if a.Description == "" {
			return fmt.Errorf("%s[%d].description is required (used as routing hint)", field, i)
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("duplicate act id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
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
