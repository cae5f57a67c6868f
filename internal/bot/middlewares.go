package bot

import (
	"context"

	"gopkg.in/telebot.v4"
)

// AuthMiddleware lets the update through only for chats with a stored administrator session.
func (b *Bot) AuthMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		userID := ctx.Sender().ID
		log := b.log.With("op", "Bot.AuthMiddleware", "user", userID)

		isAllowed, err := b.repo.IsAuthenticated(timeoutCtx, userID)
		if err != nil {
			log.Error("Failed to check admin session", "error", err)
			b.metrics.SentMessages.WithLabelValues("error").Inc()
			return ctx.Send(b.t(timeoutCtx, ctx, "error.access_check"))
		}

		if !isAllowed {
			log.Info("Access denied", "username", ctx.Sender().Username)
			text := b.t(timeoutCtx, ctx, "auth.login_required")
			if ctx.Callback() != nil {
				return ctx.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
			}
			return ctx.Send(text)
		}

		log.Debug("Access granted")
		return next(ctx)
	}
}
