package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/models"
	"gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/react"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.log.Info("User started the bot", "user", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("start").Inc()

	b.stateManager.Clear(userID)
	b.menus.navStack.Reset(userID)

	lang := b.getUserLanguage(timeoutCtx, ctx)
	menu := MenuGuest
	if ok, err := b.repo.IsAuthenticated(timeoutCtx, userID); err != nil {
		b.log.ErrorContext(timeoutCtx, "Failed to check admin session", "error", err, "user", userID)
	} else if ok {
		menu = MenuMain
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.ShowMenu(ctx, lang, menu, true)
}

// routeTextHandler dispatches free text: pending input first, then reply keyboard buttons.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	lang := b.getUserLanguage(timeoutCtx, ctx)
	text := strings.TrimSpace(ctx.Text())

	btn, isButton := b.menus.ResolveButton(lang, text)
	if isButton {
		return b.handleButton(ctx, lang, btn)
	}

	if state, ok := b.stateManager.Peek(userID); ok {
		switch state.WaitingFor {
		case stateAwaitingPhone:
			return b.handlePhoneInput(ctx, lang, text)
		case stateAwaitingCode:
			return b.handleCodeInput(ctx, lang, state.Phone, text)
		case stateAwaitingSearch:
			return b.AuthMiddleware(func(c telebot.Context) error {
				return b.handleSearchInput(c, lang, text)
			})(ctx)
		case stateAwaitingForm:
			return b.AuthMiddleware(func(c telebot.Context) error {
				return b.handleFormInput(c, lang, state.Form, text)
			})(ctx)
		}
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Reply(b.localizer.Get(lang, "general.use_buttons"))
}

func (b *Bot) handleButton(ctx telebot.Context, lang string, btn MenuButton) error {
	if btn.SubMenu != "" {
		b.stateManager.Clear(ctx.Sender().ID)
		return b.AuthMiddleware(func(c telebot.Context) error {
			return b.menus.ShowMenu(c, lang, btn.SubMenu, true)
		})(ctx)
	}

	handlers := map[string]telebot.HandlerFunc{
		actionLogin:    b.loginHandler,
		actionLanguage: b.languageHandler,
		actionBack:     b.backHandler,
		actionCancel:   b.cancelHandler,
		actionLogout:   b.logoutHandler,
		actionInfo:     b.infoHandler,
		actionList:     b.employeesHandler,
		actionSearch:   b.searchHandler,
		actionCreate:   b.createEmployeeHandler,
		actionExport:   b.exportHandler,
	}

	handler, ok := handlers[btn.Handler]
	if !ok {
		b.log.Error("No handler for menu button", "button", btn.TextKey, "handler", btn.Handler)
		return ctx.Reply(b.localizer.Get(lang, "general.use_buttons"))
	}
	if btn.RequiresAuth {
		return b.AuthMiddleware(handler)(ctx)
	}
	return handler(ctx)
}

// backHandler returns the user to the previous menu.
func (b *Bot) backHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	b.stateManager.Clear(ctx.Sender().ID)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.NavigateBack(ctx, b.getUserLanguage(timeoutCtx, ctx))
}

// cancelHandler drops pending input and shows the current menu again.
func (b *Bot) cancelHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	lang := b.getUserLanguage(timeoutCtx, ctx)
	if err := b.discardDialog(userID); err != nil {
		return b.respondDialogError(ctx, lang, err)
	}
	b.stateManager.Clear(userID)

	menu := b.menus.navStack.Current(userID)
	if ok, err := b.repo.IsAuthenticated(timeoutCtx, userID); err != nil || !ok {
		menu = MenuGuest
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.localizer.Get(lang, "general.cancelled"), b.menus.Build(lang, menu))
}

// loginHandler asks for the phone number the SMS code is sent to.
func (b *Bot) loginHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("login").Inc()

	if ok, err := b.repo.IsAuthenticated(timeoutCtx, userID); err == nil && ok {
		return ctx.Send(b.t(timeoutCtx, ctx, "auth.already_logged_in"))
	}

	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingPhone})

	lang := b.getUserLanguage(timeoutCtx, ctx)
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Contact(b.localizer.Get(lang, "auth.share_phone"))),
		menu.Row(menu.Text(b.localizer.Get(lang, "menu.cancel"))),
	)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.localizer.Get(lang, "auth.enter_phone"), menu)
}

// contactHandler accepts a shared contact as the login phone number.
func (b *Bot) contactHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	lang := b.getUserLanguage(timeoutCtx, ctx)
	state, ok := b.stateManager.Peek(ctx.Sender().ID)
	contact := ctx.Message().Contact
	if !ok || state.WaitingFor != stateAwaitingPhone || contact == nil {
		return ctx.Reply(b.localizer.Get(lang, "general.use_buttons"))
	}
	if contact.UserID != 0 && contact.UserID != ctx.Sender().ID {
		return ctx.Reply(b.localizer.Get(lang, "auth.foreign_contact"))
	}
	return b.handlePhoneInput(ctx, lang, contact.PhoneNumber)
}

func (b *Bot) handlePhoneInput(ctx telebot.Context, lang, input string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	phone := normalizePhone(input)
	if phone == "" {
		return ctx.Reply(b.localizer.Get(lang, "auth.enter_phone"))
	}

	if err := b.backend.SendCode(timeoutCtx, phone); err != nil {
		b.log.WarnContext(timeoutCtx, "Failed to send login code", "user", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.errorText(lang, err, "auth.send_code_failed"))
	}

	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingCode, Phone: phone})
	b.log.Info("Login code sent", "user", userID)

	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(b.localizer.Get(lang, "menu.cancel"))))

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.localizer.GetWithData(lang, "auth.enter_code", map[string]any{"phone": phone}), menu)
}

func (b *Bot) handleCodeInput(ctx telebot.Context, lang, phone, code string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID

	tokens, err := b.backend.Login(timeoutCtx, phone, code)
	if err != nil {
		b.log.InfoContext(timeoutCtx, "Login rejected", "user", userID, "error", err)
		_ = ctx.Bot().React(ctx.Recipient(), ctx.Message(), react.React(react.ThumbDown))
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.errorText(lang, err, "auth.invalid_code"))
	}

	store := &loginTokens{tokens: tokens}
	user, err := b.backend.Session(store).Me(timeoutCtx)
	if err != nil {
		b.log.ErrorContext(timeoutCtx, "Failed to get current user after login", "user", userID, "error", err)
		b.stateManager.Clear(userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.errorText(lang, err, "error.internal"))
	}

	if !user.CanManageEmployees() {
		b.log.Info("Access denied", "user", userID, "backendUser", user.UserID)
		if err = b.backend.Session(store).Logout(timeoutCtx); err != nil {
			b.log.WarnContext(timeoutCtx, "Failed to logout rejected user", "error", err)
		}
		b.stateManager.Clear(userID)
		return ctx.Send(b.localizer.Get(lang, "auth.access_denied"), b.menus.Build(lang, MenuGuest))
	}

	startTime := time.Now()
	err = b.repo.SaveSession(timeoutCtx, models.AdminSession{
		TelegramID:  userID,
		UserID:      user.UserID,
		PhoneNumber: phone,
		Tokens:      store.tokens,
	})
	b.metrics.DBQueryDuration.WithLabelValues("save_session").Observe(time.Since(startTime).Seconds())
	if err != nil {
		b.log.ErrorContext(timeoutCtx, "Failed to save admin session", "user", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.localizer.Get(lang, "error.internal"))
	}

	b.stateManager.Clear(userID)
	b.metrics.NewSessions.Inc()
	b.log.Info("Administrator logged in", "user", userID, "backendUser", user.UserID)
	_ = ctx.Bot().React(ctx.Recipient(), ctx.Message(), react.React(react.ThumbUp))

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	b.menus.navStack.Reset(userID)
	return b.menus.ShowMenu(ctx, lang, MenuMain, true)
}

// errorText returns the backend text of err, or the localized fallback.
func (b *Bot) errorText(lang string, err error, fallbackKey string) string {
	if errors.Is(err, backend.ErrSessionExpired) {
		return b.localizer.Get(lang, "auth.session_expired")
	}
	if msg := backend.UserMessage(err); msg != "" {
		return msg
	}
	return b.localizer.Get(lang, fallbackKey)
}

// normalizePhone strips formatting from a phone number and adds the leading plus.
func normalizePhone(input string) string {
	var sb strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return ""
	}
	return "+" + sb.String()
}
