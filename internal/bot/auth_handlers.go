package bot

import (
	"context"
	"errors"
	"time"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"gopkg.in/telebot.v4"
)

// logoutHandler ends the backend session and forgets the stored tokens. Backend failures are
// only logged: the local session is removed either way.
func (b *Bot) logoutHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("logout").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	if err := b.session(userID).Logout(timeoutCtx); err != nil {
		b.log.WarnContext(timeoutCtx, "Backend logout failed", "user", userID, "error", err)
	}

	if err := b.forgetSession(timeoutCtx, userID); err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.localizer.Get(lang, "auth.logout_failed"))
	}

	b.log.Info("User logged out", "user", userID)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.localizer.Get(lang, "auth.logged_out"), b.menus.Build(lang, MenuGuest))
}

// infoHandler shows the backend profile of the logged in administrator.
func (b *Bot) infoHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.log.Info("User requested info", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("info").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	user, err := b.session(userID).Me(timeoutCtx)
	if err != nil {
		return b.replyBackendError(timeoutCtx, ctx, lang, err, "error.internal")
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.formatUserInfo(lang, user), telebot.ModeHTML)
}

// forgetSession deletes the stored session together with everything kept in memory for the chat.
func (b *Bot) forgetSession(ctx context.Context, userID int64) error {
	startTime := time.Now()
	err := b.repo.DeleteSession(ctx, userID)
	b.metrics.DBQueryDuration.WithLabelValues("delete_session").Observe(time.Since(startTime).Seconds())
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to delete admin session", "user", userID, "error", err)
		return err
	}

	b.stateManager.Reset(userID)
	b.menus.navStack.Reset(userID)
	b.dialogs.Discard(userID)
	return nil
}

// replyBackendError reports a failed backend call. An expired session is dropped and the user
// is asked to log in again.
func (b *Bot) replyBackendError(
	ctx context.Context,
	tCtx telebot.Context,
	lang string,
	err error,
	fallbackKey string,
) error {
	b.metrics.SentMessages.WithLabelValues("error").Inc()

	if errors.Is(err, backend.ErrSessionExpired) {
		b.log.InfoContext(ctx, "Admin session expired", "user", tCtx.Sender().ID)
		_ = b.forgetSession(ctx, tCtx.Sender().ID)
		if tCtx.Callback() != nil {
			_ = tCtx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "auth.session_expired"), ShowAlert: true})
		}
		return tCtx.Send(b.localizer.Get(lang, "auth.session_expired"), b.menus.Build(lang, MenuGuest))
	}

	b.log.ErrorContext(ctx, "Backend request failed", "user", tCtx.Sender().ID, "error", err)
	text := b.errorText(lang, err, fallbackKey)
	if tCtx.Callback() != nil {
		return tCtx.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}
	return tCtx.Send(text)
}
