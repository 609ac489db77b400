package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	API          APIConfig
	MatchIDs     []int64
	PollInterval time.Duration
	Port         string
	LogLevel     string
	Slack        SlackConfig
	Telegram     TelegramConfig
	PubSub       PubSubConfig
	// FeedbackWindow is how long after finishing feedback is accepted.
	FeedbackWindow time.Duration
	DryRun         bool
}

type APIConfig struct {
	BaseURL  string
	Token    string
	InitData string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether both Slack settings are present.
func (c SlackConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

type PubSubConfig struct {
	ProjectID string
	Topic     string
}

func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != "" && c.Topic != ""
}
