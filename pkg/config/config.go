package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/korjavin/mealdeals/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP configuration
	HTTPAddr string

	// Storage configuration
	DataDir string

	// Logging
	LogLevel logger.Level

	// SortLanguage is the BCP 47 tag used to collate food component categories
	SortLanguage string

	// Stored offer properties that feed Offer.OfferStart and Offer.OfferEnd
	OfferStartField string
	OfferEndField   string

	// Telegram Bot configuration, optional
	BotToken string

	// OpenAI configuration, optional
	OpenAIAPIBase string
	OpenAIAPIKey  string
	OpenAIModel   string
	TagInterval   time.Duration
}

// Upstream property names for the offer period
const (
	FieldRunFrom = "run_from"
	FieldRunTill = "run_till"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	log := logger.New("config")

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("Error loading .env file: %v", err)
	}

	cfg := &Config{
		HTTPAddr:        getEnvWithDefault("HTTP_ADDR", ":8080"),
		DataDir:         getEnvWithDefault("DATA_DIR", "./data"),
		LogLevel:        logger.ParseLevel(getEnvWithDefault("LOG_LEVEL", "info")),
		SortLanguage:    getEnvWithDefault("SORT_LANGUAGE", "da"),
		OfferStartField: getEnvWithDefault("OFFER_START_FIELD", FieldRunTill),
		OfferEndField:   getEnvWithDefault("OFFER_END_FIELD", FieldRunFrom),
		BotToken:        os.Getenv("BOT_TOKEN"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIAPIBase:   getEnvWithDefault("OPENAI_API_BASE", "https://api.openai.com/v1"),
		OpenAIModel:     getEnvWithDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
	}

	interval, err := time.ParseDuration(getEnvWithDefault("TAG_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAG_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("TAG_INTERVAL must be positive, got %v", interval)
	}
	cfg.TagInterval = interval

	if cfg.OfferStartField == cfg.OfferEndField {
		return nil, fmt.Errorf("OFFER_START_FIELD and OFFER_END_FIELD must differ, both are %q", cfg.OfferStartField)
	}

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	logCfg.BotToken = redact(logCfg.BotToken)
	logCfg.OpenAIAPIKey = redact(logCfg.OpenAIAPIKey)
	log.Info("Configuration loaded: %+v", logCfg)

	if cfg.OffersPeriodSwapped() {
		log.Warn("Offer period mapping reads offerStart from %q and offerEnd from %q; set OFFER_START_FIELD/OFFER_END_FIELD if this is unintended",
			cfg.OfferStartField, cfg.OfferEndField)
	}
	return cfg, nil
}

// OffersPeriodSwapped reports whether the offer period is read with start and end reversed
// relative to the upstream property names.
func (c *Config) OffersPeriodSwapped() bool {
	return c.OfferStartField == FieldRunTill && c.OfferEndField == FieldRunFrom
}

// BotEnabled reports whether the Telegram bot should be started
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}

// TaggingEnabled reports whether offers should be tagged through the LLM
func (c *Config) TaggingEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func redact(secret string) string {
	if len(secret) > 8 {
		return secret[:8] + "...REDACTED..."
	}
	if secret != "" {
		return "REDACTED"
	}
	return ""
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
