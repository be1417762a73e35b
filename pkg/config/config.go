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
)

// Environment variable names
const (
	EnvUsername    = "IG_USERNAME"
	EnvPassword    = "IG_PASSWORD"
	EnvTOTPSecret  = "IG_TOTP_SECRET"
	EnvSessionFile = "FOLLOWCHECK_SESSION_FILE"
	EnvOutputDir   = "FOLLOWCHECK_OUTPUT_DIR"
	EnvLogLevel    = "FOLLOWCHECK_LOG_LEVEL"
	EnvFetchDelay  = "FOLLOWCHECK_FETCH_DELAY"
	EnvLookupDelay = "FOLLOWCHECK_LOOKUP_DELAY"
	EnvUserAgent   = "FOLLOWCHECK_USER_AGENT"
)

// Config holds all configuration options for followcheck
type Config struct {
	// Instagram account and client settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Persisted session location
	Session SessionConfig `yaml:"session" json:"session"`

	// Report locations
	Output OutputConfig `yaml:"output" json:"output"`

	// Advisory pauses between API calls
	Delays DelayConfig `yaml:"delays" json:"delays"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	Username   string        `yaml:"username" json:"username"`
	Password   string        `yaml:"password,omitempty" json:"password,omitempty"`
	TOTPSecret string        `yaml:"totp_secret,omitempty" json:"totp_secret,omitempty"`
	UserAgent  string        `yaml:"user_agent" json:"user_agent"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	File string `yaml:"file" json:"file"`
}

// OutputConfig holds report file configuration
type OutputConfig struct {
	Directory            string `yaml:"directory" json:"directory"`
	NotFollowingBackFile string `yaml:"not_following_back_file" json:"not_following_back_file"`
	FansFile             string `yaml:"fans_file" json:"fans_file"`
	SkippedUsersFile     string `yaml:"skipped_users_file" json:"skipped_users_file"`
	ProfilesFile         string `yaml:"profiles_file" json:"profiles_file"`
}

// DelayConfig holds the fixed pauses taken after API calls
type DelayConfig struct {
	AfterFetch  time.Duration `yaml:"after_fetch" json:"after_fetch"`
	AfterLookup time.Duration `yaml:"after_lookup" json:"after_lookup"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent: "Instagram 269.0.0.18.75 Android (26/8.0.0; 480dpi; 1080x1920; OnePlus; 6T Dev; devitron; qcom; en_US; 314665256)",
			BaseURL:   "https://i.instagram.com/api/v1",
			Timeout:   30 * time.Second,
		},
		Session: SessionConfig{
			File: "session.json",
		},
		Output: OutputConfig{
			Directory:            "outputs",
			NotFollowingBackFile: "not_following_back.txt",
			FansFile:             "fans.txt",
			SkippedUsersFile:     "skipped_users.txt",
			ProfilesFile:         "profiles.csv",
		},
		Delays: DelayConfig{
			AfterFetch:  3 * time.Second,
			AfterLookup: 1500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// NotFollowingBackPath is where accounts that do not follow back are written
func (o OutputConfig) NotFollowingBackPath() string {
	return filepath.Join(o.Directory, o.NotFollowingBackFile)
}

// FansPath is where followers that are not followed back are written
func (o OutputConfig) FansPath() string {
	return filepath.Join(o.Directory, o.FansFile)
}

// SkippedUsersPath is where failed profile lookups are written
func (o OutputConfig) SkippedUsersPath() string {
	return filepath.Join(o.Directory, o.SkippedUsersFile)
}

// ProfilesPath is where enriched profile records are written
func (o OutputConfig) ProfilesPath() string {
	return filepath.Join(o.Directory, o.ProfilesFile)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if username := os.Getenv(EnvUsername); username != "" {
		c.Instagram.Username = username
	}
	if password := os.Getenv(EnvPassword); password != "" {
		c.Instagram.Password = password
	}
	if secret := os.Getenv(EnvTOTPSecret); secret != "" {
		c.Instagram.TOTPSecret = secret
	}
	if userAgent := os.Getenv(EnvUserAgent); userAgent != "" {
		c.Instagram.UserAgent = userAgent
	}
	if sessionFile := os.Getenv(EnvSessionFile); sessionFile != "" {
		c.Session.File = sessionFile
	}
	if outputDir := os.Getenv(EnvOutputDir); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if v := os.Getenv(EnvFetchDelay); v != "" {
		d, err := ParseDelay(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFetchDelay, err))
		} else {
			c.Delays.AfterFetch = d
		}
	}
	if v := os.Getenv(EnvLookupDelay); v != "" {
		d, err := ParseDelay(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLookupDelay, err))
		} else {
			c.Delays.AfterLookup = d
		}
	}

	return errors.Join(errs...)
}

// ParseDelay parses "3s", "1500ms" or a bare number of seconds such as "1.5"
func ParseDelay(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.ParseFloat(s, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("negative delay %q", s)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid delay %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative delay %q", s)
	}
	return d, nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
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
	home, _ := os.UserHomeDir()
	locations := []string{
		".followcheck.yaml",
		".followcheck.yml",
		filepath.Join(home, ".config", "followcheck", "config.yaml"),
		filepath.Join(home, ".config", "followcheck", "config.yml"),
		filepath.Join(home, ".followcheck.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
// Credentials are not checked here; the credential loader owns that decision.
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram base URL is required"))
	}
	if c.Instagram.Timeout <= 0 {
		errs = append(errs, errors.New("instagram timeout must be positive"))
	}

	if c.Session.File == "" {
		errs = append(errs, errors.New("session file path is required"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	for name, file := range map[string]string{
		"not_following_back_file": c.Output.NotFollowingBackFile,
		"fans_file":               c.Output.FansFile,
		"skipped_users_file":      c.Output.SkippedUsersFile,
		"profiles_file":           c.Output.ProfilesFile,
	} {
		if file == "" {
			errs = append(errs, fmt.Errorf("output %s is required", name))
		}
	}

	if c.Delays.AfterFetch < 0 {
		errs = append(errs, errors.New("after_fetch delay cannot be negative"))
	}
	if c.Delays.AfterLookup < 0 {
		errs = append(errs, errors.New("after_lookup delay cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file. The password is never written.
func (c *Config) Save(path string) error {
	out := *c
	out.Instagram.Password = ""

	data, err := yaml.Marshal(&out)
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
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Instagram.Username = username
	}
	if sessionFile, ok := flags["session-file"].(string); ok && sessionFile != "" {
		c.Session.File = sessionFile
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := flags["log-file"].(string); ok && logFile != "" {
		c.Logging.File = logFile
	}
	if d, ok := flags["fetch-delay"].(time.Duration); ok && d >= 0 {
		c.Delays.AfterFetch = d
	}
	if d, ok := flags["lookup-delay"].(time.Duration); ok && d >= 0 {
		c.Delays.AfterLookup = d
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env never overrides variables that are already set
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".followcheck.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
