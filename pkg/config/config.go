package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "lxpfetch/pkg/errors"
)

// KnownDomains lists the platform franchises that resolve to
// <domain>.bulgakov.app without an explicit base URL.
var KnownDomains = []string{"ithub", "vvsu", "rostov", "ekat", "caspian"}

// Duration wraps time.Duration so YAML values like "30s" parse cleanly
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("30s") or a bare integer
// number of seconds
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!str":
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		*d = Duration(parsed)
		return nil
	case "!!int":
		seconds, err := strconv.ParseInt(value.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	default:
		return fmt.Errorf("invalid duration value %q", value.Value)
	}
}

// MarshalYAML renders the duration in its string form
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config holds all configuration options for the fetcher
type Config struct {
	// Platform connection settings
	Platform PlatformConfig `yaml:"platform"`

	// Credential resolution
	Credentials CredentialsConfig `yaml:"credentials"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Retry policy for transient failures
	Retry RetryConfig `yaml:"retry"`

	// Download settings
	Download DownloadConfig `yaml:"download"`

	// Output settings
	Output OutputConfig `yaml:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// PlatformConfig identifies which platform instance to talk to
type PlatformConfig struct {
	// Domain is a franchise shorthand like "ithub".
	Domain string `yaml:"domain"`
	// BaseURL overrides the domain-derived URL when set.
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each HTTP request.
	Timeout Duration `yaml:"timeout"`
}

// CredentialsConfig tells the fetcher where to find the login pair.
// The pair itself is never serialized back to disk.
type CredentialsConfig struct {
	// File points at a .json or dotenv file with the login pair.
	File string `yaml:"file"`

	Login    string `yaml:"-"`
	Password string `yaml:"-"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int    `yaml:"requests_per_second"`
	Strategy          string `yaml:"strategy"`
}

// RetryConfig holds the retry policy for transient failures
type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// Subject limits the run to one subject id. Zero means all subjects.
	Subject     int64  `yaml:"subject"`
	Format      string `yaml:"format"`
	Concurrency int    `yaml:"concurrency"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Overwrite re-downloads documents and assets that already exist.
	Overwrite bool `yaml:"overwrite"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			Domain:  "",
			BaseURL: "",
			Timeout: Duration(30 * time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Strategy:          "sliding_window",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   Duration(1 * time.Second),
			MaxDelay:    Duration(30 * time.Second),
		},
		Download: DownloadConfig{
			Subject:     0,
			Format:      "markdown",
			Concurrency: 4,
		},
		Output: OutputConfig{
			Directory: "./out",
			Overwrite: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// BaseURL resolves the effective platform URL from the explicit override or
// the franchise domain
func (c *Config) BaseURL() (string, error) {
	if c.Platform.BaseURL != "" {
		return strings.TrimRight(c.Platform.BaseURL, "/"), nil
	}
	if c.Platform.Domain == "" {
		return "", apperrors.New(apperrors.ErrorTypeConfig, "platform domain or base URL is required")
	}
	for _, known := range KnownDomains {
		if c.Platform.Domain == known {
			return "https://" + c.Platform.Domain + ".bulgakov.app", nil
		}
	}
	return "", apperrors.Newf(apperrors.ErrorTypeConfig,
		"unknown platform domain %q (known: %s)", c.Platform.Domain, strings.Join(KnownDomains, ", "))
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if login := os.Getenv("LXPFETCH_LOGIN"); login != "" {
		c.Credentials.Login = login
	}
	if password := os.Getenv("LXPFETCH_PASSWORD"); password != "" {
		c.Credentials.Password = password
	}
	if credFile := os.Getenv("LXPFETCH_CREDENTIALS_FILE"); credFile != "" {
		c.Credentials.File = credFile
	}

	if domain := os.Getenv("LXPFETCH_DOMAIN"); domain != "" {
		c.Platform.Domain = domain
	}
	if baseURL := os.Getenv("LXPFETCH_BASE_URL"); baseURL != "" {
		c.Platform.BaseURL = baseURL
	}

	if subject := os.Getenv("LXPFETCH_SUBJECT"); subject != "" {
		if val, err := strconv.ParseInt(subject, 10, 64); err == nil && val > 0 {
			c.Download.Subject = val
		}
	}
	if format := os.Getenv("LXPFETCH_FORMAT"); format != "" {
		c.Download.Format = format
	}
	if concurrency := os.Getenv("LXPFETCH_CONCURRENCY"); concurrency != "" {
		if val, err := strconv.Atoi(concurrency); err == nil && val > 0 {
			c.Download.Concurrency = val
		}
	}

	if outputDir := os.Getenv("LXPFETCH_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	if logLevel := os.Getenv("LXPFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = findConfigFile()
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
func findConfigFile() string {
	locations := []string{
		".lxpfetch.yaml",
		".lxpfetch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "lxpfetch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "lxpfetch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".lxpfetch.yaml"),
		filepath.Join(os.Getenv("HOME"), ".lxpfetch.yml"),
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

	if _, err := c.BaseURL(); err != nil {
		errs = append(errs, err)
	}
	if time.Duration(c.Platform.Timeout) <= 0 {
		errs = append(errs, errors.New("platform timeout must be positive"))
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if time.Duration(c.Retry.BaseDelay) <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}
	if time.Duration(c.Retry.MaxDelay) < time.Duration(c.Retry.BaseDelay) {
		errs = append(errs, errors.New("retry max delay must not be below base delay"))
	}

	if c.Download.Subject < 0 {
		errs = append(errs, errors.New("subject id cannot be negative"))
	}
	if c.Download.Format != "markdown" && c.Download.Format != "md" && c.Download.Format != "json" {
		errs = append(errs, errors.New("format must be markdown or json"))
	}
	if c.Download.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}
	if c.Download.Concurrency > 16 {
		errs = append(errs, errors.New("concurrency should not exceed 16"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return apperrors.Wrap(apperrors.ErrorTypeConfig, "invalid configuration", errors.Join(errs...))
	}

	return nil
}

// Save saves the configuration to a file. Credentials are excluded from
// serialization, only the pointer to their file survives.
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

// MergeFlags merges command line flags into the configuration
func (c *Config) MergeFlags(flags map[string]interface{}) {
	if domain, ok := flags["domain"].(string); ok && domain != "" {
		c.Platform.Domain = domain
	}
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Platform.BaseURL = baseURL
	}
	if credFile, ok := flags["credentials"].(string); ok && credFile != "" {
		c.Credentials.File = credFile
	}
	if subject, ok := flags["subject"].(int64); ok && subject > 0 {
		c.Download.Subject = subject
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Download.Format = format
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency > 0 {
		c.Download.Concurrency = concurrency
	}
	if outputDir, ok := flags["out"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if overwrite, ok := flags["overwrite"].(bool); ok && overwrite {
		c.Output.Overwrite = true
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".lxpfetch.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConfig, "failed to load config file", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeConfig, "failed to load environment variables", err)
	}

	config.MergeFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
