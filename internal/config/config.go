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

// Config holds the spyglass client configuration.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig holds remote search service settings.
type SearchConfig struct {
	BaseURL            string `yaml:"base_url"`
	YachtID            string `yaml:"yacht_id"`
	YachtSignature     string `yaml:"yacht_signature"`
	FallbackLimit      int    `yaml:"fallback_limit"`
	FallbackTimeoutSec int    `yaml:"fallback_timeout_sec"`
	TokenTimeoutSec    int    `yaml:"token_timeout_sec"`
	CacheTTLSec        int    `yaml:"cache_ttl_sec"`
}

// StorageConfig selects the durable store for recent queries.
type StorageConfig struct {
	Driver string   `yaml:"driver"` // memory, file, redis (default: file)
	Dir    string   `yaml:"dir"`    // file driver
	Addrs  []string `yaml:"addrs"`  // redis driver
	// Password is the redis password, usually supplied as ${REDIS_PASSWORD}.
	Password string `yaml:"password"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
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
	if c.Search.FallbackLimit <= 0 {
		c.Search.FallbackLimit = 50
	}
	if c.Search.FallbackTimeoutSec <= 0 {
		c.Search.FallbackTimeoutSec = 5
	}
	if c.Search.TokenTimeoutSec <= 0 {
		c.Search.TokenTimeoutSec = 2
	}
	if c.Search.CacheTTLSec <= 0 {
		c.Search.CacheTTLSec = 300
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = filepath.Join(".spyglass", "state")
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if !strings.HasPrefix(c.Search.BaseURL, "http://") && !strings.HasPrefix(c.Search.BaseURL, "https://") {
		return fmt.Errorf("search.base_url must be an http(s) URL, got %q", c.Search.BaseURL)
	}
	switch c.Storage.Driver {
	case "memory", "file":
	case "redis":
		if len(c.Storage.Addrs) == 0 {
			return fmt.Errorf("storage.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("storage.driver must be memory, file, or redis, got %q", c.Storage.Driver)
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
