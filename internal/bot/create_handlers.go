package bot

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/dialog"
	"github.com/UnknownOlympus/registrar/internal/models"
	"gopkg.in/telebot.v4"
)

const (
	answerYes = "yes"
	answerNo  = "no"
)

// createEmployeeHandler starts the create employee wizard.
func (b *Bot) createEmployeeHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.log.Info("User started employee creation", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("create_employee").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	if flow, ok := b.dialogs.Get(userID); ok && flow.View().Submitting {
		return ctx.Send(b.localizer.Get(lang, "dialog.busy"))
	}
	b.dialogs.Discard(userID)

	form := EmployeeForm{}
	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingForm, Form: form})

	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(b.localizer.Get(lang, "menu.cancel"))))

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	if err := ctx.Send(b.localizer.Get(lang, "form.intro"), menu); err != nil {
		return err
	}
	return b.sendFormPrompt(ctx, lang, form)
}

func (b *Bot) handleFormInput(ctx telebot.Context, lang string, form EmployeeForm, text string) error {
	userID := ctx.Sender().ID

	if err := form.ApplyText(text); err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		if replyErr := ctx.Reply(b.localizer.Get(lang, formErrorKey(err))); replyErr != nil {
			return replyErr
		}
		if errors.Is(err, ErrUseButtons) {
			return b.sendFormPrompt(ctx, lang, form)
		}
		return nil
	}

	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingForm, Form: form})
	return b.sendFormPrompt(ctx, lang, form)
}

// sendFormPrompt asks for the field of the current step. Choice steps come with inline buttons.
func (b *Bot) sendFormPrompt(ctx telebot.Context, lang string, form EmployeeForm) error {
	prompt := b.localizer.Get(lang, form.Step.promptKey())
	menu := &telebot.ReplyMarkup{}

	switch form.Step {
	case stepCitizenship:
		menu.Inline(menu.Row(
			menu.Data(b.localizer.Get(lang, "general.yes"), btnFormCitizenship.Unique, answerYes),
			menu.Data(b.localizer.Get(lang, "general.no"), btnFormCitizenship.Unique, answerNo),
		))
	case stepRole:
		rows := make([]telebot.Row, 0, len(models.Roles))
		for _, role := range models.Roles {
			rows = append(rows, menu.Row(menu.Data(b.roleName(lang, role), btnFormRole.Unique, string(role))))
		}
		menu.Inline(rows...)
	case stepConfirm:
		text, markup := b.renderFormSummary(lang, form)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(text, markup, telebot.ModeHTML)
	default:
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(prompt)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(prompt, menu)
}

// renderFormSummary shows the collected fields with the submit and cancel buttons. Output is HTML.
func (b *Bot) renderFormSummary(lang string, form EmployeeForm) (string, *telebot.ReplyMarkup) {
	var sb strings.Builder

	sb.WriteString(b.localizer.Get(lang, "form.prompt.confirm"))
	sb.WriteString("\n\n")
	writeField(&sb, b.localizer.Get(lang, "field.last_name"), form.LastName)
	writeField(&sb, b.localizer.Get(lang, "field.first_name"), form.FirstName)
	writeField(&sb, b.localizer.Get(lang, "field.phone"), form.PhoneNumber)
	writeField(&sb, b.localizer.Get(lang, "field.email"), form.Email)
	if form.NotCitizen {
		writeField(&sb, b.localizer.Get(lang, "field.citizenship"), b.localizer.Get(lang, "form.not_citizen"))
	} else {
		writeField(&sb, b.localizer.Get(lang, "field.iin"), form.IIN)
	}
	writeField(&sb, b.localizer.Get(lang, "field.role"), b.roleName(lang, form.Role))

	menu := &telebot.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data(b.localizer.Get(lang, "form.submit"), btnFormSubmit.Unique),
		menu.Data(b.localizer.Get(lang, "form.cancel"), btnFormCancel.Unique),
	))
	return sb.String(), menu
}

// formCitizenshipHandler answers the citizenship question of the wizard.
func (b *Bot) formCitizenshipHandler(ctx telebot.Context) error {
	return b.answerFormChoice(ctx, func(form *EmployeeForm) error {
		switch ctx.Data() {
		case answerYes:
			return form.SetCitizenship(true)
		case answerNo:
			return form.SetCitizenship(false)
		default:
			return ErrUseButtons
		}
	})
}

// formRoleHandler answers the role question of the wizard.
func (b *Bot) formRoleHandler(ctx telebot.Context) error {
	return b.answerFormChoice(ctx, func(form *EmployeeForm) error {
		return form.SetRole(models.Role(ctx.Data()))
	})
}

func (b *Bot) answerFormChoice(ctx telebot.Context, apply func(form *EmployeeForm) error) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	lang := b.getUserLanguage(timeoutCtx, ctx)

	state, ok := b.stateManager.Peek(userID)
	if !ok || state.WaitingFor != stateAwaitingForm {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "dialog.stale"), ShowAlert: true})
	}

	form := state.Form
	if err := apply(&form); err != nil {
		b.metrics.SentMessages.WithLabelValues("respond").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, formErrorKey(err)), ShowAlert: true})
	}
	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingForm, Form: form})

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond()
	_ = b.sendOrEditMessage(ctx, html.EscapeString(ctx.Message().Text), nil)
	return b.sendFormPrompt(ctx, lang, form)
}

// formSubmitHandler submits the confirmed form into a new creation dialog.
func (b *Bot) formSubmitHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("submit_employee").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	state, ok := b.stateManager.Peek(userID)
	if !ok || state.WaitingFor != stateAwaitingForm || state.Form.Step != stepConfirm {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "dialog.stale"), ShowAlert: true})
	}
	if err := state.Form.Validate(); err != nil {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, formErrorKey(err)), ShowAlert: true})
	}

	flow, err := b.dialogs.Start(userID, b.session(userID), b.newNotifier(ctx.Recipient(), lang),
		dialog.WithOnSuccess(func(context.Context, models.Employee) {
			b.stateManager.Clear(userID)
		}),
	)
	if err != nil {
		return b.respondDialogError(ctx, lang, err)
	}

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond()
	_ = b.sendOrEditMessage(ctx, b.localizer.Get(lang, "dialog.submitting"), nil)

	result, err := flow.Submit(timeoutCtx, state.Form.Request())
	if err != nil {
		return b.respondDialogError(ctx, lang, err)
	}

	switch result.Outcome {
	case dialog.OutcomeCreated:
		return b.finishCreated(ctx, lang, result.Employee)
	case dialog.OutcomeConflict:
		text, markup := b.renderConflict(lang, flow.View())
		return b.sendOrEditMessage(ctx, text, markup)
	default:
		b.dialogs.Discard(userID)
		if errors.Is(result.Err, backend.ErrSessionExpired) {
			return b.replyBackendError(timeoutCtx, ctx, lang, result.Err, "notify.create_failed")
		}
		text, markup := b.renderFormSummary(lang, state.Form)
		return b.sendOrEditMessage(ctx, text, markup)
	}
}

// formCancelHandler abandons the wizard.
func (b *Bot) formCancelHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	lang := b.getUserLanguage(timeoutCtx, ctx)

	if err := b.discardDialog(userID); err != nil {
		return b.respondDialogError(ctx, lang, err)
	}
	b.stateManager.Clear(userID)

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond()
	_ = b.sendOrEditMessage(ctx, b.localizer.Get(lang, "general.cancelled"), nil)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.ShowMenu(ctx, lang, MenuEmployees, false)
}

// finishCreated replaces the dialog message with the created employee and restores the menu.
func (b *Bot) finishCreated(ctx telebot.Context, lang string, employee models.Employee) error {
	userID := ctx.Sender().ID
	b.dialogs.Discard(userID)
	b.stateManager.Clear(userID)

	text := b.localizer.GetWithData(lang, "dialog.created", map[string]any{"name": html.EscapeString(employee.FullName())})
	_ = b.sendOrEditMessage(ctx, text, nil)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return b.menus.ShowMenu(ctx, lang, MenuEmployees, false)
}
