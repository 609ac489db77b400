package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/mauv0809/pitchside/internal/notifier"
	"github.com/mauv0809/pitchside/internal/transitions"
	"github.com/slack-go/slack"
)

const channelName = "slack"

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts match announcements to a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	location  *time.Location
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, m metrics.Metrics) *Notifier {
	if m == nil {
		m = metrics.Discard
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   m,
		location:  time.UTC,
	}
}

// WithLocation sets the zone used for timestamps in messages.
func (s *Notifier) WithLocation(loc *time.Location) *Notifier {
	s.location = loc
	return s
}

func (s *Notifier) Name() string { return channelName }

func (s *Notifier) Announce(ctx context.Context, e transitions.Event, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.format(e), notifier.Text(e), dryRun)
	return err
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, fallback string, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionText(fallback, false),
	)
	if err != nil {
		s.metrics.IncNotifFailed(channelName)
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncNotifSent(channelName)
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// format builds the Block Kit message for e: a header, the details and a
// context line with the match and time.
func (s *Notifier) format(e transitions.Event) slack.Message {
	blocks := make([]slack.Block, 0, 3)

	headerText := slack.NewTextBlockObject("plain_text", notifier.Headline(e), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	details := notifier.Details(e)
	if e.Kind == transitions.KindFinished {
		details = fmt.Sprintf("*%s*", details)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", details, false, false), nil, nil))

	contextText := fmt.Sprintf("Match #%d", e.MatchID)
	if !e.At.IsZero() {
		contextText += " · " + e.At.In(s.location).Format("Mon 02 Jan, 15:04")
	}
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", contextText, false, false)))

	return slack.NewBlockMessage(blocks...)
}
