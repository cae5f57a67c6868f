package bot

import (
	"context"
	"slices"
	"time"

	"github.com/UnknownOlympus/registrar/internal/i18n"
	"gopkg.in/telebot.v4"
)

// languageHandler presents the supported languages.
func (b *Bot) languageHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	lang := b.getUserLanguage(timeoutCtx, ctx)
	menu := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, len(i18n.Languages))
	for _, code := range i18n.Languages {
		rows = append(rows, menu.Row(menu.Data(b.localizer.Get(lang, "language.button."+code), btnLanguage.Unique, code)))
	}
	menu.Inline(rows...)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.localizer.Get(lang, "language.select"), menu)
}

// languageChangeHandler stores the chosen language and resends the menu in it.
func (b *Bot) languageChangeHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	langCode := ctx.Data()
	b.log.DebugContext(timeoutCtx, "User selected language", "data", langCode, "user", userID)

	if !slices.Contains(i18n.Languages, langCode) {
		b.log.Error("Unknown language callback", "data", langCode)
		return ctx.Respond(&telebot.CallbackResponse{Text: "Unknown language"})
	}

	startTime := time.Now()
	err := b.repo.SetLanguage(timeoutCtx, userID, langCode)
	b.metrics.DBQueryDuration.WithLabelValues("set_language").Observe(time.Since(startTime).Seconds())
	if err != nil {
		b.log.ErrorContext(timeoutCtx, "Failed to set user language", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(langCode, "error.internal")})
	}

	b.log.InfoContext(timeoutCtx, "User changed language", "user", userID, "language", langCode)

	menu := MenuGuest
	if ok, authErr := b.repo.IsAuthenticated(timeoutCtx, userID); authErr == nil && ok {
		menu = b.menus.navStack.Current(userID)
	}

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond(&telebot.CallbackResponse{Text: "✅"})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.localizer.Get(langCode, "language.changed"), b.menus.Build(langCode, menu))
}
