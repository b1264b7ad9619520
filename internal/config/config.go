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

// Config holds the designdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Matching   MatchingConfig   `yaml:"matching"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds catalog store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig holds catalog storage and refresh settings.
type CatalogConfig struct {
	KeyPrefix          string `yaml:"key_prefix"`
	RefreshIntervalSec int    `yaml:"refresh_interval_sec"` // 0 disables periodic refresh
}

// MatchingConfig holds similarity engine settings.
type MatchingConfig struct {
	// NeutralAbsenceScore is assigned when a queried attribute is missing
	// from a catalog record. Must stay in [0,1].
	NeutralAbsenceScore *float64 `yaml:"neutral_absence_score"`
	// AllowBoundOnly admits queries carrying only upper-bound constraints.
	AllowBoundOnly *bool `yaml:"allow_bound_only"`
	// Workers sizes the scoring pool; 0 means runtime.NumCPU().
	Workers int `yaml:"workers"`
	// ParallelThreshold is the corpus size at which scoring moves to the pool.
	ParallelThreshold int `yaml:"parallel_threshold"`
	// Attributes overrides the built-in weight/tolerance table when non-empty.
	Attributes []AttributeConfig `yaml:"attributes"`
}

// AttributeConfig declares one matchable attribute.
type AttributeConfig struct {
	Name          string     `yaml:"name"`
	Kind          string     `yaml:"kind"` // numeric, categorical
	Weight        float64    `yaml:"weight"`
	ToleranceMode string     `yaml:"tolerance_mode"` // relative (default), absolute
	Tolerance     float64    `yaml:"tolerance"`
	Classes       [][]string `yaml:"classes"`
}

// ExtractionConfig holds the natural-language parameter extractor settings.
// The endpoint is any OpenAI-compatible chat API (Ollama included).
type ExtractionConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalog.KeyPrefix == "" {
		c.Catalog.KeyPrefix = "designdex:"
	}
	if c.Matching.ParallelThreshold <= 0 {
		c.Matching.ParallelThreshold = 256
	}
	if c.Extraction.TimeoutSec <= 0 {
		c.Extraction.TimeoutSec = 30
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
	if s := c.Matching.NeutralAbsenceScore; s != nil && (*s < 0 || *s > 1) {
		return fmt.Errorf("matching.neutral_absence_score must be between 0 and 1, got %v", *s)
	}
	if c.Matching.Workers < 0 {
		return fmt.Errorf("matching.workers must be non-negative, got %d", c.Matching.Workers)
	}
	for i, a := range c.Matching.Attributes {
		if a.Name == "" {
			return fmt.Errorf("matching.attributes[%d].name is required", i)
		}
		switch a.Kind {
		case "numeric", "categorical":
			// ok
		default:
			return fmt.Errorf(
				"matching.attributes[%d].kind must be \"numeric\" or \"categorical\", got %q", i, a.Kind)
		}
		switch a.ToleranceMode {
		case "", "relative", "absolute":
			// ok
		default:
			return fmt.Errorf(
				"matching.attributes[%d].tolerance_mode must be \"relative\" or \"absolute\", got %q",
				i, a.ToleranceMode)
		}
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
