package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	defaultPollInterval   = 2 * time.Second
	defaultPort           = "8080"
	defaultFeedbackWindow = 72 * time.Hour
)

// Load reads configuration from environment variables and .env file.
// Invalid or missing required settings are fatal.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	cfg, err := Parse(os.LookupEnv)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
	return cfg
}

// Parse builds a Config from lookup.
func Parse(lookup func(string) (string, bool)) (Config, error) {
	var errs []string
	getEnv := func(key string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		errs = append(errs, fmt.Sprintf("required environment variable %s is not set", key))
		return ""
	}
	optional := func(key, fallback string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return fallback
	}
	duration := func(key string, fallback time.Duration) time.Duration {
		raw := optional(key, "")
		if raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be a positive duration, got %q", key, raw))
			return fallback
		}
		return d
	}

	cfg := Config{
		API: APIConfig{
			BaseURL:  getEnv("API_BASE_URL"),
			Token:    optional("API_TOKEN", ""),
			InitData: optional("TG_INIT_DATA", ""),
		},
		PollInterval: duration("POLL_INTERVAL", defaultPollInterval),
		Port:         optional("PORT", defaultPort),
		LogLevel:     optional("LOG_LEVEL", "info"),
		Slack: SlackConfig{
			Token:     optional("SLACK_BOT_TOKEN", ""),
			ChannelID: optional("SLACK_CHANNEL_ID", ""),
		},
		Telegram: TelegramConfig{
			Token: optional("TELEGRAM_BOT_TOKEN", ""),
		},
		PubSub: PubSubConfig{
			ProjectID: optional("GCP_PROJECT", ""),
			Topic:     optional("PUBSUB_TOPIC", ""),
		},
		FeedbackWindow: duration("FEEDBACK_WINDOW", defaultFeedbackWindow),
	}

	ids, err := ParseMatchIDs(optional("MATCH_IDS", ""))
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.MatchIDs = ids

	if raw := optional("TELEGRAM_CHAT_ID", ""); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("TELEGRAM_CHAT_ID must be an integer, got %q", raw))
		}
		cfg.Telegram.ChatID = chatID
	}
	if raw := optional("DRY_RUN", ""); raw != "" {
		dryRun, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("DRY_RUN must be a boolean, got %q", raw))
		}
		cfg.DryRun = dryRun
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL: %s", err))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// ParseMatchIDs parses a comma separated list of match ids.
func ParseMatchIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("MATCH_IDS: invalid match id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
