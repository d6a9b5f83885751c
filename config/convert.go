package config

import (
	"github.com/otherjamesbrown/meetsum/pkg/api"
	"github.com/otherjamesbrown/meetsum/pkg/db"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/events"
	"github.com/otherjamesbrown/meetsum/pkg/ingest/source"
	"github.com/otherjamesbrown/meetsum/pkg/logging"
	"github.com/otherjamesbrown/meetsum/pkg/summarize"
	"github.com/otherjamesbrown/meetsum/pkg/watcher"
)

// DBConfig returns the connection settings for pkg/db.
func (c *Config) DBConfig() *db.Config {
	out := db.DefaultConfig()
	out.URL = c.Database.URL
	out.Host = c.Database.Host
	out.Port = c.Database.Port
	out.Database = c.Database.Name
	out.User = c.Database.User
	out.Password = c.Database.Password
	out.SSLMode = c.Database.SSLMode
	if c.Database.MaxConns > 0 {
		out.MaxConns = int32(c.Database.MaxConns)
	}
	return out
}

// SummarizerConfig returns the LLM client settings with apiKey filled in.
func (c *Config) SummarizerConfig(apiKey string) summarize.Config {
	baseURL := c.LLM.BaseURL
	if c.LLM.Provider == ProviderGemini && baseURL == DefaultLLMBaseURL {
		baseURL = ""
	}
	return summarize.Config{
		Provider:    c.LLM.Provider,
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       c.LLM.Model,
		Temperature: float32(c.LLM.Temperature),
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     c.LLM.Timeout,
		MaxRetries:  c.LLM.MaxRetries,
		AppURL:      c.LLM.AppURL,
	}.WithDefaults()
}

// WatcherConfig returns the watcher settings. Validate has already checked
// the owner ID.
func (c *Config) WatcherConfig() watcher.Config {
	owner, _ := c.Watch.Owner()
	return watcher.Config{
		Interval:         c.Watch.Interval,
		MaxFileSize:      c.Watch.MaxFileSize,
		Workers:          c.Watch.Workers,
		QueueSize:        c.Watch.QueueSize,
		ShutdownTimeout:  c.Watch.ShutdownTimeout,
		OwnerID:          owner,
		TimezoneOffset:   c.Watch.TimezoneOffset,
		Provider:         c.LLM.Provider,
		SummarizeTimeout: c.LLM.Timeout,
		MaxRetries:       c.LLM.MaxRetries,
	}
}

// DriveConfig returns the Drive source settings.
func (c *Config) DriveConfig() source.DriveConfig {
	return source.DriveConfig{
		FolderID:        c.Watch.DriveFolderID,
		CredentialsFile: c.Watch.DriveCredentialsFile,
	}
}

// PublisherConfig returns the Redis event publisher settings.
func (c *Config) PublisherConfig() events.PublisherConfig {
	return events.PublisherConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// APIConfig returns the read API settings.
func (c *Config) APIConfig() api.Config {
	return api.Config{
		Addr:           c.API.Addr,
		AllowedOrigins: c.API.AllowedOrigins,
		TimezoneOffset: c.Watch.TimezoneOffset,
	}
}

// LogConfig returns the logger settings. json forces JSON output regardless
// of log.format.
func (c *Config) LogConfig(json bool) *logging.Config {
	out := logging.DefaultConfig()
	out.Level = logging.ParseLevel(c.Log.Level)
	if c.Debug {
		out.Level = logging.LevelDebug
	}
	out.JSONFormat = json || c.Log.Format == "json"
	return out
}
