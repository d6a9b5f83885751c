// Package config provides configuration management for the meetsum watcher and CLI.
// It supports loading configuration from YAML files, .env files, environment
// variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Source kinds for watch.source.
const (
	SourceLocal = "local"
	SourceDrive = "drive"
)

// LLM providers for llm.provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Default configuration values.
const (
	DefaultConfigDir    = ".meetsum"
	DefaultConfigFile   = "config.yaml"
	DefaultEnvFile      = ".env"
	DefaultOutputFormat = OutputFormatText

	DefaultInterval        = 10 * time.Minute
	DefaultMaxFileSize     = 10 * 1024 * 1024
	DefaultWorkers         = 4
	DefaultQueueSize       = 64
	DefaultShutdownTimeout = 2 * time.Minute
	DefaultTimezoneOffset  = 7 * time.Hour

	DefaultLLMBaseURL  = "https://openrouter.ai/api/v1"
	DefaultLLMTimeout  = 120 * time.Second
	DefaultMaxRetries  = 1
	DefaultAppURL      = "http://localhost:3000"
	DefaultAPIAddr     = ":8080"
	DefaultRedisAddr   = "localhost:6379"
	DefaultDBHost      = "localhost"
	DefaultDBPort      = 5432
	DefaultDBName      = "meetsum"
	DefaultDBUser      = "meetsum"
	DefaultDBSSLMode   = "disable"
	DefaultDBMaxConns  = 10
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	EnvOpenRouterKey   = "OPENROUTER_API_KEY"
	EnvGeminiKey       = "GEMINI_API_KEY"
	EnvConfigDir       = "MEETSUM_CONFIG_DIR"
	EnvTestDatabaseURL = "MEETSUM_TEST_DATABASE_URL"
)

// WatchConfig configures the transcript watcher.
type WatchConfig struct {
	// Source is "local" or "drive".
	Source string `yaml:"source"`

	// Directory is the watched folder when Source is local.
	Directory string `yaml:"directory,omitempty"`

	// DriveFolderID and DriveCredentialsFile configure the Drive source.
	DriveFolderID        string `yaml:"drive_folder_id,omitempty"`
	DriveCredentialsFile string `yaml:"drive_credentials_file,omitempty"`

	Interval        time.Duration `yaml:"interval"`
	MaxFileSize     int64         `yaml:"max_file_size"`
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// OwnerID is the identity that owns meetings created by the watcher.
	OwnerID string `yaml:"owner_id,omitempty"`

	// TimezoneOffset is the display offset applied to UTC filename timestamps.
	TimezoneOffset time.Duration `yaml:"timezone_offset"`
}

// LLMConfig configures the summarization provider.
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	Model       string        `yaml:"model,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	AppURL      string        `yaml:"app_url,omitempty"`

	// APIKey is usually left empty in the file and resolved from the
	// environment or the keyring.
	APIKey string `yaml:"api_key,omitempty"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string `yaml:"url,omitempty"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// RedisConfig configures the optional event publisher.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

// APIConfig configures the read API served by `meetsum serve`.
type APIConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds the complete meetsum configuration.
type Config struct {
	Watch        WatchConfig    `yaml:"watch"`
	LLM          LLMConfig      `yaml:"llm"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`
	API          APIConfig      `yaml:"api"`
	Log          LogConfig      `yaml:"log"`
	OutputFormat OutputFormat   `yaml:"output_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Watch: WatchConfig{
			Source:          SourceLocal,
			Interval:        DefaultInterval,
			MaxFileSize:     DefaultMaxFileSize,
			Workers:         DefaultWorkers,
			QueueSize:       DefaultQueueSize,
			ShutdownTimeout: DefaultShutdownTimeout,
			OwnerID:         uuid.Nil.String(),
			TimezoneOffset:  DefaultTimezoneOffset,
		},
		LLM: LLMConfig{
			Provider:   ProviderOpenRouter,
			BaseURL:    DefaultLLMBaseURL,
			Timeout:    DefaultLLMTimeout,
			MaxRetries: DefaultMaxRetries,
			AppURL:     DefaultAppURL,
		},
		Database: DatabaseConfig{
			Host:     DefaultDBHost,
			Port:     DefaultDBPort,
			Name:     DefaultDBName,
			User:     DefaultDBUser,
			SSLMode:  DefaultDBSSLMode,
			MaxConns: DefaultDBMaxConns,
		},
		Redis: RedisConfig{
			Addr: DefaultRedisAddr,
		},
		API: APIConfig{
			Addr: DefaultAPIAddr,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MEETSUM_CONFIG_DIR if set, otherwise ~/.meetsum
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom loads configuration with path as the config file.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. .env in the working directory, then in the config directory (never
// overriding variables already set)
// 3. Config file
// 4. Environment variables (MEETSUM_*)
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	loadDotEnv(filepath.Dir(path))

	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.Watch.Directory = expandPath(cfg.Watch.Directory)
	cfg.Watch.DriveCredentialsFile = expandPath(cfg.Watch.DriveCredentialsFile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads .env files. godotenv.Load does not override variables
// that are already set, so the shell environment wins.
func loadDotEnv(configDir string) {
	for _, p := range []string{DefaultEnvFile, filepath.Join(configDir, DefaultEnvFile)} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// fileConfig mirrors Config with durations as strings.
type fileConfig struct {
	Watch struct {
		Source               string `yaml:"source"`
		Directory            string `yaml:"directory"`
		DriveFolderID        string `yaml:"drive_folder_id"`
		DriveCredentialsFile string `yaml:"drive_credentials_file"`
		Interval             string `yaml:"interval"`
		MaxFileSize          int64  `yaml:"max_file_size"`
		Workers              int    `yaml:"workers"`
		QueueSize            *int   `yaml:"queue_size"`
		ShutdownTimeout      string `yaml:"shutdown_timeout"`
		OwnerID              string `yaml:"owner_id"`
		TimezoneOffset       string `yaml:"timezone_offset"`
	} `yaml:"watch"`
	LLM struct {
		Provider    string  `yaml:"provider"`
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
		Timeout     string  `yaml:"timeout"`
		MaxRetries  *int    `yaml:"max_retries"`
		AppURL      string  `yaml:"app_url"`
		APIKey      string  `yaml:"api_key"`
	} `yaml:"llm"`
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`
	API          APIConfig      `yaml:"api"`
	Log          LogConfig      `yaml:"log"`
	OutputFormat OutputFormat   `yaml:"output_format"`
	Debug        bool           `yaml:"debug"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	w := fc.Watch
	setString(&cfg.Watch.Source, w.Source)
	setString(&cfg.Watch.Directory, w.Directory)
	setString(&cfg.Watch.DriveFolderID, w.DriveFolderID)
	setString(&cfg.Watch.DriveCredentialsFile, w.DriveCredentialsFile)
	setString(&cfg.Watch.OwnerID, w.OwnerID)
	if w.MaxFileSize != 0 {
		cfg.Watch.MaxFileSize = w.MaxFileSize
	}
	if w.Workers != 0 {
		cfg.Watch.Workers = w.Workers
	}
	if w.QueueSize != nil {
		cfg.Watch.QueueSize = *w.QueueSize
	}
	if err := setDuration(&cfg.Watch.Interval, w.Interval, "watch.interval"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Watch.ShutdownTimeout, w.ShutdownTimeout, "watch.shutdown_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Watch.TimezoneOffset, w.TimezoneOffset, "watch.timezone_offset"); err != nil {
		return err
	}

	l := fc.LLM
	if l.Provider != "" && l.Provider != cfg.LLM.Provider && l.BaseURL == "" {
		// The default base URL belongs to OpenRouter.
		cfg.LLM.BaseURL = ""
	}
	setString(&cfg.LLM.Provider, l.Provider)
	setString(&cfg.LLM.BaseURL, l.BaseURL)
	setString(&cfg.LLM.Model, l.Model)
	setString(&cfg.LLM.AppURL, l.AppURL)
	setString(&cfg.LLM.APIKey, l.APIKey)
	if l.Temperature != 0 {
		cfg.LLM.Temperature = l.Temperature
	}
	if l.MaxTokens != 0 {
		cfg.LLM.MaxTokens = l.MaxTokens
	}
	if l.MaxRetries != nil {
		cfg.LLM.MaxRetries = *l.MaxRetries
	}
	if err := setDuration(&cfg.LLM.Timeout, l.Timeout, "llm.timeout"); err != nil {
		return err
	}

	d := fc.Database
	setString(&cfg.Database.URL, d.URL)
	setString(&cfg.Database.Host, d.Host)
	setString(&cfg.Database.Name, d.Name)
	setString(&cfg.Database.User, d.User)
	setString(&cfg.Database.Password, d.Password)
	setString(&cfg.Database.SSLMode, d.SSLMode)
	if d.Port != 0 {
		cfg.Database.Port = d.Port
	}
	if d.MaxConns != 0 {
		cfg.Database.MaxConns = d.MaxConns
	}

	cfg.Redis.Enabled = fc.Redis.Enabled
	setString(&cfg.Redis.Addr, fc.Redis.Addr)
	setString(&cfg.Redis.Password, fc.Redis.Password)
	if fc.Redis.DB != 0 {
		cfg.Redis.DB = fc.Redis.DB
	}

	setString(&cfg.API.Addr, fc.API.Addr)
	if fc.API.AllowedOrigins != nil {
		cfg.API.AllowedOrigins = fc.API.AllowedOrigins
	}

	setString(&cfg.Log.Level, fc.Log.Level)
	setString(&cfg.Log.Format, fc.Log.Format)

	if fc.OutputFormat != "" {
		cfg.OutputFormat = fc.OutputFormat
	}
	cfg.Debug = fc.Debug

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, field string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", field, err)
	}
	*dst = d
	return nil
}

// loadFromEnv overlays MEETSUM_* environment variables onto the configuration.
func loadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"MEETSUM_WATCH_SOURCE":                 &cfg.Watch.Source,
		"MEETSUM_WATCH_DIRECTORY":              &cfg.Watch.Directory,
		"MEETSUM_WATCH_DRIVE_FOLDER_ID":        &cfg.Watch.DriveFolderID,
		"MEETSUM_WATCH_DRIVE_CREDENTIALS_FILE": &cfg.Watch.DriveCredentialsFile,
		"MEETSUM_WATCH_OWNER_ID":               &cfg.Watch.OwnerID,
		"MEETSUM_LLM_PROVIDER":                 &cfg.LLM.Provider,
		"MEETSUM_LLM_BASE_URL":                 &cfg.LLM.BaseURL,
		"MEETSUM_LLM_MODEL":                    &cfg.LLM.Model,
		"MEETSUM_LLM_APP_URL":                  &cfg.LLM.AppURL,
		"MEETSUM_LLM_API_KEY":                  &cfg.LLM.APIKey,
		"MEETSUM_DATABASE_URL":                 &cfg.Database.URL,
		"MEETSUM_DATABASE_HOST":                &cfg.Database.Host,
		"MEETSUM_DATABASE_NAME":                &cfg.Database.Name,
		"MEETSUM_DATABASE_USER":                &cfg.Database.User,
		"MEETSUM_DATABASE_PASSWORD":            &cfg.Database.Password,
		"MEETSUM_DATABASE_SSLMODE":             &cfg.Database.SSLMode,
		"MEETSUM_REDIS_ADDR":                   &cfg.Redis.Addr,
		"MEETSUM_REDIS_PASSWORD":               &cfg.Redis.Password,
		"MEETSUM_API_ADDR":                     &cfg.API.Addr,
		"MEETSUM_LOG_LEVEL":                    &cfg.Log.Level,
		"MEETSUM_LOG_FORMAT":                   &cfg.Log.Format,
	}
	for key, dst := range strs {
		setString(dst, os.Getenv(key))
	}

	durations := map[string]*time.Duration{
		"MEETSUM_WATCH_INTERVAL":         &cfg.Watch.Interval,
		"MEETSUM_WATCH_SHUTDOWN_TIMEOUT": &cfg.Watch.ShutdownTimeout,
		"MEETSUM_WATCH_TIMEZONE_OFFSET":  &cfg.Watch.TimezoneOffset,
		"MEETSUM_LLM_TIMEOUT":            &cfg.LLM.Timeout,
	}
	for key, dst := range durations {
		if err := setDuration(dst, os.Getenv(key), key); err != nil {
			return err
		}
	}

	ints := map[string]*int{
		"MEETSUM_WATCH_WORKERS":      &cfg.Watch.Workers,
		"MEETSUM_WATCH_QUEUE_SIZE":   &cfg.Watch.QueueSize,
		"MEETSUM_LLM_MAX_TOKENS":     &cfg.LLM.MaxTokens,
		"MEETSUM_LLM_MAX_RETRIES":    &cfg.LLM.MaxRetries,
		"MEETSUM_DATABASE_PORT":      &cfg.Database.Port,
		"MEETSUM_DATABASE_MAX_CONNS": &cfg.Database.MaxConns,
		"MEETSUM_REDIS_DB":           &cfg.Redis.DB,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("MEETSUM_WATCH_MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing MEETSUM_WATCH_MAX_FILE_SIZE: %w", err)
		}
		cfg.Watch.MaxFileSize = n
	}
	if v := os.Getenv("MEETSUM_LLM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing MEETSUM_LLM_TEMPERATURE: %w", err)
		}
		cfg.LLM.Temperature = f
	}
	if v := os.Getenv("MEETSUM_API_ALLOWED_ORIGINS"); v != "" {
		cfg.API.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("MEETSUM_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("MEETSUM_REDIS_ENABLED"); v == "true" || v == "1" {
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("MEETSUM_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Watch.Source {
	case SourceLocal, SourceDrive:
	default:
		return fmt.Errorf("invalid watch.source: %q (must be local or drive)", c.Watch.Source)
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive")
	}
	if c.Watch.MaxFileSize <= 0 {
		return fmt.Errorf("watch.max_file_size must be positive")
	}
	if c.Watch.Workers <= 0 {
		return fmt.Errorf("watch.workers must be positive")
	}
	if c.Watch.QueueSize < 0 {
		return fmt.Errorf("watch.queue_size must not be negative")
	}
	if c.Watch.ShutdownTimeout < 0 {
		return fmt.Errorf("watch.shutdown_timeout must not be negative")
	}
	if _, err := c.Watch.Owner(); err != nil {
		return err
	}
	if c.Watch.TimezoneOffset < -14*time.Hour || c.Watch.TimezoneOffset > 14*time.Hour {
		return fmt.Errorf("watch.timezone_offset out of range: %s", c.Watch.TimezoneOffset)
	}

	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderGemini:
	default:
		return fmt.Errorf("invalid llm.provider: %q (must be openrouter or gemini)", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}

	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}

	return nil
}

// ValidateSource checks the settings the chosen watch source needs. It is
// separate from Validate so read-only commands work without a source.
func (c *Config) ValidateSource() error {
	switch c.Watch.Source {
	case SourceLocal:
		if c.Watch.Directory == "" {
			return fmt.Errorf("watch.directory is required for the local source")
		}
		info, err := os.Stat(c.Watch.Directory)
		if err != nil {
			return fmt.Errorf("watch.directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watch.directory %s is not a directory", c.Watch.Directory)
		}
	case SourceDrive:
		if c.Watch.DriveFolderID == "" {
			return fmt.Errorf("watch.drive_folder_id is required for the drive source")
		}
	}
	return nil
}

// Owner parses OwnerID. An empty value is the nil UUID.
func (w WatchConfig) Owner() (uuid.UUID, error) {
	if w.OwnerID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(w.OwnerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid watch.owner_id: %w", err)
	}
	return id, nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// KeyStore looks up a stored API key for a provider.
type KeyStore interface {
	GetAPIKey(provider string) (string, error)
}

// APIKeyEnvVar returns the environment variable holding provider's key.
func APIKeyEnvVar(provider string) string {
	if provider == ProviderGemini {
		return EnvGeminiKey
	}
	return EnvOpenRouterKey
}

// ResolveAPIKey returns the LLM API key and where it came from. The explicit
// config value wins, then the provider environment variable, then store.
// store may be nil.
func (c *Config) ResolveAPIKey(store KeyStore) (key, origin string, err error) {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey, "config", nil
	}
	env := APIKeyEnvVar(c.LLM.Provider)
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v, env, nil
	}
	if store != nil {
		v, err := store.GetAPIKey(c.LLM.Provider)
		if err == nil && v != "" {
			return v, "keyring", nil
		}
	}
	return "", "", fmt.Errorf("no API key for %s: set llm.api_key, %s, or run 'meetsum auth set-key'", c.LLM.Provider, env)
}

// SaveConfig writes cfg to the config file. The API key and database password
// are never written.
func SaveConfig(cfg *Config) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out := *cfg
	out.LLM.APIKey = ""
	out.Database.Password = ""

	data, err := MarshalYAML(&out)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(configDir, DefaultConfigFile), data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// MarshalYAML renders cfg with durations as strings, the form LoadConfig reads.
func MarshalYAML(cfg *Config) ([]byte, error) {
	var fc fileConfig
	fc.Watch.Source = cfg.Watch.Source
	fc.Watch.Directory = cfg.Watch.Directory
	fc.Watch.DriveFolderID = cfg.Watch.DriveFolderID
	fc.Watch.DriveCredentialsFile = cfg.Watch.DriveCredentialsFile
	fc.Watch.Interval = cfg.Watch.Interval.String()
	fc.Watch.MaxFileSize = cfg.Watch.MaxFileSize
	fc.Watch.Workers = cfg.Watch.Workers
	queueSize := cfg.Watch.QueueSize
	fc.Watch.QueueSize = &queueSize
	fc.Watch.ShutdownTimeout = cfg.Watch.ShutdownTimeout.String()
	fc.Watch.OwnerID = cfg.Watch.OwnerID
	fc.Watch.TimezoneOffset = cfg.Watch.TimezoneOffset.String()

	fc.LLM.Provider = cfg.LLM.Provider
	fc.LLM.BaseURL = cfg.LLM.BaseURL
	fc.LLM.Model = cfg.LLM.Model
	fc.LLM.Temperature = cfg.LLM.Temperature
	fc.LLM.MaxTokens = cfg.LLM.MaxTokens
	fc.LLM.Timeout = cfg.LLM.Timeout.String()
	retries := cfg.LLM.MaxRetries
	fc.LLM.MaxRetries = &retries
	fc.LLM.AppURL = cfg.LLM.AppURL
	fc.LLM.APIKey = cfg.LLM.APIKey

	fc.Database = cfg.Database
	fc.Redis = cfg.Redis
	fc.API = cfg.API
	fc.Log = cfg.Log
	fc.OutputFormat = cfg.OutputFormat
	fc.Debug = cfg.Debug

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
