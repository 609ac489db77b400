package slack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/mauv0809/pitchside/internal/transitions"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

var finished = transitions.Event{
	Kind:    transitions.KindFinished,
	MatchID: 12,
	Venue:   "Riverside",
	NameA:   "Reds",
	NameB:   "Blues",
	ScoreA:  2,
	ScoreB:  1,
	At:      time.Date(2025, 6, 1, 19, 30, 0, 0, time.UTC),
}

func TestAnnounce_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	require.NoError(t, notifier.Announce(context.Background(), finished, true))
	assert.Equal(t, 0, metrics.NotifSent(channelName))
}

func TestAnnounce_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	require.NoError(t, notifier.Announce(context.Background(), finished, false))
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.NotifSent(channelName))
	assert.Equal(t, 0, metrics.NotifFailed(channelName))
}

func TestAnnounce_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.Announce(context.Background(), finished, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.NotifSent(channelName))
	assert.Equal(t, 1, metrics.NotifFailed(channelName))
}

func TestFormatFinished(t *testing.T) {
	client := NewNotifierWithAPI(nil, "C123", nil)
	msg := client.format(finished)
	require.Len(t, msg.Blocks.BlockSet, 3, "Expected 3 blocks")

	header, ok := msg.Blocks.BlockSet[0].(*slackapi.HeaderBlock)
	require.True(t, ok, "First block should be a HeaderBlock")
	assert.Equal(t, "Full time!", header.Text.Text)

	details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok, "Second block should be a SectionBlock")
	assert.Equal(t, "*Reds 2:1 Blues*", details.Text.Text)

	contextBlock, ok := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
	require.True(t, ok, "Third block should be a ContextBlock")
	require.Len(t, contextBlock.ContextElements.Elements, 1)
	element, ok := contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject)
	require.True(t, ok)
	assert.Equal(t, "Match #12 · Sun 01 Jun, 19:30", element.Text)
}

func TestFormatPayerAssigned(t *testing.T) {
	client := NewNotifierWithAPI(nil, "C123", nil)
	msg := client.format(transitions.Event{Kind: transitions.KindPayerAssigned, MatchID: 3, Venue: "Arena", PayerTgID: 8})

	details, ok := msg.Blocks.BlockSet[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Player 8 pays for the pitch at Arena", details.Text.Text)

	contextBlock := msg.Blocks.BlockSet[2].(*slackapi.ContextBlock)
	assert.Equal(t, "Match #3", contextBlock.ContextElements.Elements[0].(*slackapi.TextBlockObject).Text)
}
