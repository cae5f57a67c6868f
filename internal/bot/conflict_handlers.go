package bot

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/dialog"
	"gopkg.in/telebot.v4"
)

// renderConflict builds the dialog message for the current flow state. The keyboard is nil
// while a call is in flight, so no second action can be started. Output is HTML.
func (b *Bot) renderConflict(lang string, view dialog.View) (string, *telebot.ReplyMarkup) {
	var sb strings.Builder

	switch view.State {
	case dialog.ShowingUserExistsDialog:
		sb.WriteString(b.localizer.Get(lang, "dialog.user_exists_title"))
	case dialog.ShowingEmployeeExistsDialog:
		sb.WriteString(b.localizer.Get(lang, "dialog.employee_exists_title"))
	case dialog.ShowingRefusalDialog:
		sb.WriteString(b.localizer.Get(lang, "dialog.refusal"))
	default:
		return b.localizer.Get(lang, "dialog.closed"), nil
	}

	if view.State != dialog.ShowingRefusalDialog && view.Conflict != nil {
		sb.WriteString("\n\n")
		if view.Conflict.ExistingUser != nil {
			sb.WriteString(b.formatExistingUser(lang, *view.Conflict.ExistingUser))
		} else {
			sb.WriteString("<i>" + html.EscapeString(view.Conflict.Message) + "</i>")
		}
	}

	if view.Submitting {
		sb.WriteString("\n\n")
		sb.WriteString(b.localizer.Get(lang, "dialog.submitting"))
		return sb.String(), nil
	}

	menu := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, 3)
	switch view.State {
	case dialog.ShowingUserExistsDialog:
		rows = append(rows,
			menu.Row(menu.Data(b.localizer.Get(lang, "conflict.confirm"), btnConfirmExisting.Unique)),
			menu.Row(menu.Data(b.localizer.Get(lang, "conflict.take_phone"), btnTakePhone.Unique)),
		)
	case dialog.ShowingEmployeeExistsDialog:
		rows = append(rows,
			menu.Row(menu.Data(b.localizer.Get(lang, "conflict.confirm"), btnConfirmIdentity.Unique)),
			menu.Row(menu.Data(b.localizer.Get(lang, "conflict.take_phone"), btnTakePhone.Unique)),
		)
	}
	rows = append(rows, menu.Row(menu.Data(b.localizer.Get(lang, "conflict.close"), btnCloseDialog.Unique)))
	menu.Inline(rows...)

	return sb.String(), menu
}

// confirmExistingHandler turns the existing user into the new employee.
func (b *Bot) confirmExistingHandler(ctx telebot.Context) error {
	return b.resolveConflict(ctx, "confirm_existing", (*dialog.Flow).ConfirmExisting)
}

// takePhoneHandler creates the employee with the phone taken from the existing record.
func (b *Bot) takePhoneHandler(ctx telebot.Context) error {
	return b.resolveConflict(ctx, "take_phone", (*dialog.Flow).TakePhone)
}

func (b *Bot) resolveConflict(
	ctx telebot.Context,
	action string,
	resolve func(*dialog.Flow, context.Context) (dialog.Result, error),
) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues(action).Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	flow, ok := b.dialogs.Get(userID)
	if !ok {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "dialog.stale"), ShowAlert: true})
	}

	if view := flow.View(); view.CanResolve() {
		view.Submitting = true
		text, _ := b.renderConflict(lang, view)
		_ = b.sendOrEditMessage(ctx, text, nil)
	}

	result, err := resolve(flow, timeoutCtx)
	if err != nil {
		return b.respondDialogError(ctx, lang, err)
	}

	switch result.Outcome {
	case dialog.OutcomeCreated:
		b.metrics.SentMessages.WithLabelValues("respond").Inc()
		_ = ctx.Respond()
		return b.finishCreated(ctx, lang, result.Employee)
	case dialog.OutcomeIgnored:
		b.metrics.SentMessages.WithLabelValues("respond").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "notify.conflict_no_detail"), ShowAlert: true})
	default:
		// The conflict is kept: show the same dialog again so the user may retry or switch action.
		if errors.Is(result.Err, backend.ErrSessionExpired) {
			return b.replyBackendError(timeoutCtx, ctx, lang, result.Err, "notify.resolve_failed")
		}
		b.metrics.SentMessages.WithLabelValues("respond").Inc()
		_ = ctx.Respond()
		text, markup := b.renderConflict(lang, flow.View())
		return b.sendOrEditMessage(ctx, text, markup)
	}
}

// confirmIdentityHandler answers "yes, it is them" in the existing employee dialog.
func (b *Bot) confirmIdentityHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	lang := b.getUserLanguage(timeoutCtx, ctx)
	flow, ok := b.dialogs.Get(ctx.Sender().ID)
	if !ok {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "dialog.stale"), ShowAlert: true})
	}

	if err := flow.ConfirmIdentity(); err != nil {
		return b.respondDialogError(ctx, lang, err)
	}

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond()
	text, markup := b.renderConflict(lang, flow.View())
	return b.sendOrEditMessage(ctx, text, markup)
}

// closeDialogHandler dismisses the conflict dialog and the form behind it.
func (b *Bot) closeDialogHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	lang := b.getUserLanguage(timeoutCtx, ctx)

	if err := b.discardDialog(userID); err != nil {
		return b.respondDialogError(ctx, lang, err)
	}
	b.stateManager.Clear(userID)
	b.log.Info("Conflict dialog closed", "user", userID)

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond()
	_ = b.sendOrEditMessage(ctx, b.localizer.Get(lang, "dialog.closed"), nil)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.ShowMenu(ctx, lang, MenuEmployees, false)
}

// discardDialog closes and forgets the dialog of the chat. A dialog with a call in flight is kept.
func (b *Bot) discardDialog(userID int64) error {
	flow, ok := b.dialogs.Get(userID)
	if !ok {
		return nil
	}
	if err := flow.Close(); err != nil {
		return err
	}
	b.dialogs.Discard(userID)
	return nil
}

func (b *Bot) respondDialogError(ctx telebot.Context, lang string, err error) error {
	key := "error.internal"
	switch {
	case errors.Is(err, dialog.ErrBusy):
		key = "dialog.busy"
	case errors.Is(err, dialog.ErrInvalidTransition):
		key = "dialog.stale"
	default:
		b.log.Error("Dialog action failed", "user", ctx.Sender().ID, "error", err)
	}

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	if ctx.Callback() != nil {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, key), ShowAlert: true})
	}
	return ctx.Send(b.localizer.Get(lang, key))
}
