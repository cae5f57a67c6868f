package bot

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/registrar/internal/dialog"
	"github.com/UnknownOlympus/registrar/internal/i18n"
	"github.com/UnknownOlympus/registrar/internal/metrics"
	"gopkg.in/telebot.v4"
)

// sender is the part of telebot.Bot used to deliver notifications.
type sender interface {
	Send(to telebot.Recipient, what any, opts ...any) (*telebot.Message, error)
}

// chatNotifier delivers dialog notifications to one chat as plain messages.
type chatNotifier struct {
	sender    sender
	chat      telebot.Recipient
	lang      string
	localizer *i18n.Localizer
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func (b *Bot) newNotifier(chat telebot.Recipient, lang string) *chatNotifier {
	return &chatNotifier{
		sender:    b.bot,
		chat:      chat,
		lang:      lang,
		localizer: b.localizer,
		metrics:   b.metrics,
		log:       b.log,
	}
}

// Notify sends the notification. The backend text is shown verbatim when present.
func (n *chatNotifier) Notify(ctx context.Context, notification dialog.Notification) {
	text := notification.Text
	if text == "" {
		text = n.localizer.Get(n.lang, notification.Key)
	}

	n.metrics.SentMessages.WithLabelValues("notification").Inc()
	if _, err := n.sender.Send(n.chat, levelIcon(notification.Level)+" "+text); err != nil {
		n.log.ErrorContext(ctx, "Failed to send notification", "error", err, "key", notification.Key)
	}
}

func levelIcon(level dialog.Level) string {
	switch level {
	case dialog.LevelSuccess:
		return "✅"
	case dialog.LevelWarning:
		return "⚠️"
	default:
		return "❌"
	}
}
