// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Queue driver names selected by configuration at construction.
const (
	QueueDriverSQLite = "sqlite"
	QueueDriverMemory = "memory"
)

// Config holds the public API server configuration.
type Config struct {
	Port          string
	QueueDriver   string
	DBPath        string
	PollingSecret string
	ProjectsFile  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	TriageTextModel   string
	TriageVisionModel string
	AnalysisModel     string
}

// Load reads server configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		QueueDriver:   strings.ToLower(getEnv("QUEUE_DRIVER", QueueDriverSQLite)),
		DBPath:        getEnv("DB_PATH", "./data/tasks.db"),
		PollingSecret: getEnv("POLLING_SECRET", "dev-secret"),
		ProjectsFile:  getEnv("PROJECTS_FILE", "./projects.toml"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		LLMTimeout:    getEnvDuration("LLM_TIMEOUT", 60*time.Second),

		TriageTextModel:   getEnv("TRIAGE_TEXT_MODEL", "gpt-4o-mini"),
		TriageVisionModel: getEnv("TRIAGE_VISION_MODEL", "gpt-4o"),
		AnalysisModel:     getEnv("ANALYSIS_MODEL", "gpt-4o"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	switch c.QueueDriver {
	case QueueDriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty with the sqlite queue driver")
		}
	case QueueDriverMemory:
	default:
		return fmt.Errorf("QUEUE_DRIVER must be %q or %q, got %q", QueueDriverSQLite, QueueDriverMemory, c.QueueDriver)
	}
	if c.PollingSecret == "" {
		return fmt.Errorf("POLLING_SECRET cannot be empty")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY cannot be empty")
	}
	return nil
}

// BridgeConfig holds the local bridge configuration.
type BridgeConfig struct {
	APIURL        string
	PollingSecret string
	PollInterval  time.Duration
	HTTPTimeout   time.Duration
	LogFile       string
	ProjectsFile  string
	// DefaultSpecsDir is the target root for tasks whose project has no
	// configured root of its own.
	DefaultSpecsDir string
}

// LoadBridge reads bridge configuration from environment variables.
func LoadBridge() (*BridgeConfig, error) {
	cfg := &BridgeConfig{
		APIURL:          strings.TrimRight(getEnv("API_URL", "https://your-app.example.com"), "/"),
		PollingSecret:   getEnv("POLLING_SECRET", "dev-secret"),
		PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL", 30)) * time.Second,
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		LogFile:         getEnv("LOG_FILE", "./sync.log"),
		ProjectsFile:    getEnv("PROJECTS_FILE", "./projects.toml"),
		DefaultSpecsDir: getEnv("SPECS_DIR", "./specs"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required bridge configuration fields are set.
func (c *BridgeConfig) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API_URL cannot be empty")
	}
	if c.PollingSecret == "" {
		return fmt.Errorf("POLLING_SECRET cannot be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be > 0")
	}
	if c.LogFile == "" {
		return fmt.Errorf("LOG_FILE cannot be empty")
	}
	if c.DefaultSpecsDir == "" {
		return fmt.Errorf("SPECS_DIR cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
