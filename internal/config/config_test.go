package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(env(map[string]string{"API_BASE_URL": "https://api.example.com"}))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.FeedbackWindow)
	assert.Empty(t, cfg.MatchIDs)
	assert.False(t, cfg.Slack.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
	assert.False(t, cfg.PubSub.Enabled())
	assert.False(t, cfg.DryRun)
}

func TestParseFull(t *testing.T) {
	cfg, err := Parse(env(map[string]string{
		"API_BASE_URL":       "https://api.example.com",
		"API_TOKEN":          "secret",
		"MATCH_IDS":          "12, 15,,20",
		"POLL_INTERVAL":      "5s",
		"PORT":               "9090",
		"LOG_LEVEL":          "debug",
		"SLACK_BOT_TOKEN":    "xoxb",
		"SLACK_CHANNEL_ID":   "C1",
		"TELEGRAM_BOT_TOKEN": "123:abc",
		"TELEGRAM_CHAT_ID":   "-1001",
		"GCP_PROJECT":        "proj",
		"PUBSUB_TOPIC":       "match-events",
		"FEEDBACK_WINDOW":    "48h",
		"DRY_RUN":            "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, []int64{12, 15, 20}, cfg.MatchIDs)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Slack.Enabled())
	assert.Equal(t, int64(-1001), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
	assert.True(t, cfg.PubSub.Enabled())
	assert.Equal(t, 48*time.Hour, cfg.FeedbackWindow)
	assert.True(t, cfg.DryRun)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(env(map[string]string{
		"MATCH_IDS":        "12,abc",
		"POLL_INTERVAL":    "-1s",
		"TELEGRAM_CHAT_ID": "chat",
		"LOG_LEVEL":        "loud",
	}))
	require.Error(t, err)
	for _, want := range []string{"API_BASE_URL", "MATCH_IDS", "POLL_INTERVAL", "TELEGRAM_CHAT_ID", "LOG_LEVEL"} {
		assert.Contains(t, err.Error(), want)
	}
}
