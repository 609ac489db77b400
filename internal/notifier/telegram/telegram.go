// Package telegram announces match transitions in a Telegram group chat.
package telegram

import (
	"context"
	"fmt"
	"html"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mauv0809/pitchside/internal/metrics"
	"github.com/mauv0809/pitchside/internal/notifier"
	"github.com/mauv0809/pitchside/internal/transitions"
)

const channelName = "telegram"

// botAPI is the part of tgbotapi.BotAPI we use.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var _ notifier.Notifier = &Notifier{}

type Notifier struct {
	bot     botAPI
	chatID  int64
	metrics metrics.Metrics
}

// NewNotifier authenticates the bot token and returns a notifier posting
// to chatID.
func NewNotifier(token string, chatID int64, m metrics.Metrics) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info("Telegram bot authorized", "username", bot.Self.UserName)
	return NewNotifierWithAPI(bot, chatID, m), nil
}

func NewNotifierWithAPI(bot botAPI, chatID int64, m metrics.Metrics) *Notifier {
	if m == nil {
		m = metrics.Discard
	}
	return &Notifier{bot: bot, chatID: chatID, metrics: m}
}

func (n *Notifier) Name() string { return channelName }

func format(e transitions.Event) string {
	return fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(notifier.Headline(e)), html.EscapeString(notifier.Details(e)))
}

func (n *Notifier) Announce(ctx context.Context, e transitions.Event, dryRun bool) error {
	text := format(e)
	if dryRun {
		log.Info("[Dry Run] Would send Telegram message", "chat_id", n.chatID, "text", text)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := n.bot.Send(msg)
	if err != nil {
		n.metrics.IncNotifFailed(channelName)
		log.Error("Failed to send Telegram message", "error", err, "chat_id", n.chatID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	n.metrics.IncNotifSent(channelName)
	log.Info("Successfully sent Telegram message", "chat_id", n.chatID, "message_id", sent.MessageID)
	return nil
}
