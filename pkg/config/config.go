package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Pinterest DM archiver
type Config struct {
	// Pinterest request settings
	Pinterest PinterestConfig `yaml:"pinterest" json:"pinterest"`

	// Pacing configuration for the sequential download loop
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Resolution settings
	Resolve ResolveConfig `yaml:"resolve" json:"resolve"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PinterestConfig holds Pinterest-specific request configuration
type PinterestConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// PacingConfig holds adaptive pacing configuration for downloads.
// The delay floor is also the initial delay; rate-limit responses grow the
// delay by GrowthFactor up to MaxDelay, successes shrink it by DecayFactor
// back toward the floor.
type PacingConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	GrowthFactor float64       `yaml:"growth_factor" json:"growth_factor"`
	DecayFactor  float64       `yaml:"decay_factor" json:"decay_factor"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory      string `yaml:"base_directory" json:"base_directory"`
	OverwriteGalleries bool   `yaml:"overwrite_galleries" json:"overwrite_galleries"`
	FetchViewerAssets  bool   `yaml:"fetch_viewer_assets" json:"fetch_viewer_assets"`
}

// ResolveConfig holds pin-page resolution configuration
type ResolveConfig struct {
	Workers           int           `yaml:"workers" json:"workers"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pinterest: PinterestConfig{
			BaseURL:   "https://www.pinterest.com",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Pacing: PacingConfig{
			InitialDelay: 1 * time.Second,
			MaxDelay:     60 * time.Second,
			GrowthFactor: 2.0,
			DecayFactor:  0.75,
		},
		Output: OutputConfig{
			BaseDirectory:      "./downloads",
			OverwriteGalleries: true,
			FetchViewerAssets:  true,
		},
		Resolve: ResolveConfig{
			Workers:           4,
			FetchTimeout:      30 * time.Second,
			MaxRetries:        2,
			RequestsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if userAgent := os.Getenv("PINDM_USER_AGENT"); userAgent != "" {
		c.Pinterest.UserAgent = userAgent
	}
	if baseURL := os.Getenv("PINDM_BASE_URL"); baseURL != "" {
		c.Pinterest.BaseURL = baseURL
	}

	if outputDir := os.Getenv("PINDM_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if workers := os.Getenv("PINDM_RESOLVE_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Resolve.Workers = val
		}
	}
	if rpm := os.Getenv("PINDM_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Resolve.RequestsPerMinute = val
		}
	}

	if delay := os.Getenv("PINDM_INITIAL_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			c.Pacing.InitialDelay = d
		}
	}
	if delay := os.Getenv("PINDM_MAX_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			c.Pacing.MaxDelay = d
		}
	}

	if logLevel := os.Getenv("PINDM_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".pindm.yaml",
		".pindm.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "pindm", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "pindm", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".pindm.yaml"),
		filepath.Join(os.Getenv("HOME"), ".pindm.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Pinterest.BaseURL == "" {
		errs = append(errs, errors.New("Pinterest base URL is required"))
	}
	if c.Pinterest.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Pacing.InitialDelay <= 0 {
		errs = append(errs, errors.New("initial delay must be positive"))
	}
	if c.Pacing.MaxDelay < c.Pacing.InitialDelay {
		errs = append(errs, errors.New("max delay must not be below the initial delay"))
	}
	if c.Pacing.GrowthFactor <= 1.0 {
		errs = append(errs, errors.New("growth factor must be greater than 1"))
	}
	if c.Pacing.DecayFactor <= 0 || c.Pacing.DecayFactor >= 1.0 {
		errs = append(errs, errors.New("decay factor must be between 0 and 1"))
	}

	if c.Resolve.Workers <= 0 {
		errs = append(errs, errors.New("resolve workers must be positive"))
	}
	if c.Resolve.Workers > 16 {
		errs = append(errs, errors.New("resolve workers should not exceed 16"))
	}
	if c.Resolve.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.Resolve.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Resolve.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Resolve.Workers = workers
	}
	if delay, ok := flags["delay"].(time.Duration); ok && delay > 0 {
		c.Pacing.InitialDelay = delay
	}
	if maxDelay, ok := flags["max-delay"].(time.Duration); ok && maxDelay > 0 {
		c.Pacing.MaxDelay = maxDelay
	}
	if overwrite, ok := flags["overwrite-galleries"].(bool); ok {
		c.Output.OverwriteGalleries = overwrite
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".pindm.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
