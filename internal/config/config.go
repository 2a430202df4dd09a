// Package config loads runtime settings from the environment and the
// upstream source list from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger backends.
const (
	LedgerFile     = "file"
	LedgerGCS      = "gcs"
	LedgerPostgres = "postgres"
	LedgerSQLite   = "sqlite"
)

// Delivery modes.
const (
	ModeSingle = "single"
	ModeDigest = "digest"
)

type Config struct {
	// Telegram settings
	TelegramToken    string
	TelegramChatID   string // numeric id or @channel
	BotMode          string // "single" or "digest"
	ChannelSignature string
	MessageDelay     time.Duration
	DryRun           bool

	// Sources
	SourcesConfigPath string
	Sources           []SourceConfig

	// Ledger settings
	LedgerBackend string
	LedgerPath    string
	LedgerBucket  string
	LedgerObject  string
	DatabaseURL   string

	// Translation settings
	GeminiAPIKey      string
	OpenAIAPIKey      string
	TranslateFrom     string
	TranslateTo       string
	MaxGeminiRequests int // per day, 0 = unlimited
	MaxOpenAIRequests int
	TranslationTTL    time.Duration

	// Assembly
	DescriptionMaxRunes int
	ExpiryTimezone      string

	// App settings
	Debug           bool
	RequestTimeout  time.Duration
	ValidateTimeout time.Duration
	RunInterval     time.Duration
	EnableHTTP      bool
	MonitoringPort  string
}

// Load reads the environment and the sources file, then validates the result.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse reads the environment and the sources file without validating.
func Parse() (*Config, error) {
	cfg := &Config{
		// Default values
		BotMode:             ModeSingle,
		MessageDelay:        3 * time.Second,
		SourcesConfigPath:   "configs/sources.yaml",
		LedgerBackend:       LedgerFile,
		LedgerPath:          "sent_games.json",
		LedgerObject:        "sent_games.json",
		TranslateFrom:       "en",
		TranslateTo:         "it",
		MaxGeminiRequests:   20,
		MaxOpenAIRequests:   20,
		TranslationTTL:      24 * time.Hour,
		DescriptionMaxRunes: 200,
		ExpiryTimezone:      "Europe/Rome",
		RequestTimeout:      15 * time.Second,
		ValidateTimeout:     10 * time.Second,
		RunInterval:         time.Hour,
		MonitoringPort:      "8080",
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.ChannelSignature = os.Getenv("CHANNEL_SIGNATURE")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LedgerBucket = os.Getenv("LEDGER_BUCKET")

	cfg.BotMode = getEnvOrDefault("BOT_MODE", cfg.BotMode)
	cfg.SourcesConfigPath = getEnvOrDefault("SOURCES_CONFIG_PATH", cfg.SourcesConfigPath)
	cfg.LedgerBackend = strings.ToLower(getEnvOrDefault("LEDGER_BACKEND", cfg.LedgerBackend))
	cfg.LedgerPath = getEnvOrDefault("LEDGER_PATH", cfg.LedgerPath)
	cfg.LedgerObject = getEnvOrDefault("LEDGER_OBJECT", cfg.LedgerObject)
	cfg.ExpiryTimezone = getEnvOrDefault("EXPIRY_TIMEZONE", cfg.ExpiryTimezone)
	cfg.MonitoringPort = getEnvOrDefault("MONITORING_PORT", cfg.MonitoringPort)
	cfg.TranslateFrom = getEnvOrDefault("TRANSLATE_FROM", cfg.TranslateFrom)
	// an explicitly empty TRANSLATE_TO disables localisation
	if v, ok := os.LookupEnv("TRANSLATE_TO"); ok {
		cfg.TranslateTo = strings.TrimSpace(v)
	}

	cfg.MaxGeminiRequests = getEnvIntOrDefault("MAX_GEMINI_REQUESTS", cfg.MaxGeminiRequests)
	cfg.MaxOpenAIRequests = getEnvIntOrDefault("MAX_OPENAI_REQUESTS", cfg.MaxOpenAIRequests)
	cfg.DescriptionMaxRunes = getEnvIntOrDefault("DESCRIPTION_MAX_RUNES", cfg.DescriptionMaxRunes)

	cfg.MessageDelay = getEnvDurationOrDefault("MESSAGE_DELAY", cfg.MessageDelay)
	cfg.TranslationTTL = getEnvDurationOrDefault("TRANSLATION_CACHE_TTL", cfg.TranslationTTL)
	cfg.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ValidateTimeout = getEnvDurationOrDefault("VALIDATE_TIMEOUT", cfg.ValidateTimeout)
	cfg.RunInterval = getEnvDurationOrDefault("RUN_INTERVAL", cfg.RunInterval)

	cfg.Debug = os.Getenv("DEBUG") == "true"
	cfg.DryRun = os.Getenv("DRY_RUN") == "true"
	cfg.EnableHTTP = os.Getenv("ENABLE_HTTP_MONITORING") == "true"

	sources, err := LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}

// Location resolves ExpiryTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ExpiryTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	if !c.DryRun {
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_TOKEN is required")
		}
		if c.TelegramChatID == "" {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required")
		}
	}
	if c.BotMode != ModeSingle && c.BotMode != ModeDigest {
		return fmt.Errorf("BOT_MODE must be '%s' or '%s'", ModeSingle, ModeDigest)
	}
	if err := c.ValidateLedger(); err != nil {
		return err
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	return nil
}

// ValidateLedger checks only the ledger backend settings.
func (c *Config) ValidateLedger() error {
	switch c.LedgerBackend {
	case LedgerFile:
		if c.LedgerPath == "" {
			return fmt.Errorf("LEDGER_PATH is required for the file ledger")
		}
	case LedgerGCS:
		if c.LedgerBucket == "" {
			return fmt.Errorf("LEDGER_BUCKET is required for the gcs ledger")
		}
	case LedgerPostgres, LedgerSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s ledger", c.LedgerBackend)
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND must be one of file, gcs, postgres, sqlite (got %q)", c.LedgerBackend)
	}
	return nil
}
