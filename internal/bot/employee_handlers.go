package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/UnknownOlympus/registrar/internal/report"
	"gopkg.in/telebot.v4"
)

const (
	statusActive   = "active"
	statusInactive = "inactive"

	exportPageSize = 100
	exportMaxPages = 50

	xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// employeesHandler shows the first page of the employee table with the remembered filters.
func (b *Bot) employeesHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.log.Info("User requested employee list", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("employees").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	params := b.listParams(userID)
	params.Page = 0

	text, markup, err := b.renderEmployeeList(timeoutCtx, userID, lang, params)
	if err != nil {
		return b.replyBackendError(timeoutCtx, ctx, lang, err, "employees.load_failed")
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(text, markup, telebot.ModeHTML)
}

// employeesPageHandler switches the list to the page carried in the callback.
func (b *Bot) employeesPageHandler(ctx telebot.Context) error {
	page, err := strconv.Atoi(ctx.Data())
	if err != nil || page < 0 {
		b.log.Error("Invalid page in callback", "error", err, "data", ctx.Data())
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Respond()
	}

	params := b.listParams(ctx.Sender().ID)
	params.Page = page
	return b.refreshEmployeeList(ctx, params)
}

// filterStatusHandler cycles the status filter: all, active, inactive.
func (b *Bot) filterStatusHandler(ctx telebot.Context) error {
	params := b.listParams(ctx.Sender().ID)
	params.Status = nextStatus(params.Status)
	params.Page = 0
	return b.refreshEmployeeList(ctx, params)
}

// filterRoleHandler cycles the role filter through every role and back to all.
func (b *Bot) filterRoleHandler(ctx telebot.Context) error {
	params := b.listParams(ctx.Sender().ID)
	params.Role = nextRole(params.Role)
	params.Page = 0
	return b.refreshEmployeeList(ctx, params)
}

func (b *Bot) refreshEmployeeList(ctx telebot.Context, params backend.ListParams) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	lang := b.getUserLanguage(timeoutCtx, ctx)

	text, markup, err := b.renderEmployeeList(timeoutCtx, userID, lang, params)
	if err != nil {
		return b.replyBackendError(timeoutCtx, ctx, lang, err, "employees.load_failed")
	}

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond()
	return b.sendOrEditMessage(ctx, text, markup)
}

// renderEmployeeList loads one page and builds its text and keyboard. The filter is stored
// only after the page loaded.
func (b *Bot) renderEmployeeList(
	ctx context.Context,
	userID int64,
	lang string,
	params backend.ListParams,
) (string, *telebot.ReplyMarkup, error) {
	page, err := b.session(userID).ListEmployees(ctx, params)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list employees: %w", err)
	}

	b.stateManager.SetFilter(userID, params)
	b.stateManager.Remember(userID, page.Items)

	var sb strings.Builder
	sb.WriteString(b.localizer.GetWithData(lang, "employees.list_title", map[string]any{
		"total":  page.Total,
		"status": b.statusFilterName(lang, params.Status),
		"role":   b.roleFilterName(lang, params.Role),
	}))
	sb.WriteString("\n\n")
	if len(page.Items) == 0 {
		sb.WriteString(b.localizer.Get(lang, "employees.empty"))
	}
	offset := params.Page * params.Size
	for i, employee := range page.Items {
		sb.WriteString(b.formatEmployeeLine(offset+i+1, lang, employee))
		sb.WriteString("\n")
	}

	menu := &telebot.ReplyMarkup{}
	rows := b.employeeCardRows(menu, page.Items)

	var nav []telebot.Btn
	if params.Page > 0 {
		nav = append(nav, menu.Data("⬅️", btnPage.Unique, strconv.Itoa(params.Page-1)))
	}
	if (params.Page+1)*params.Size < page.Total {
		nav = append(nav, menu.Data("➡️", btnPage.Unique, strconv.Itoa(params.Page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, menu.Row(nav...))
	}
	rows = append(rows, menu.Row(
		menu.Data(b.localizer.Get(lang, "employees.filter_status"), btnFilterStatus.Unique),
		menu.Data(b.localizer.Get(lang, "employees.filter_role"), btnFilterRole.Unique),
	))
	menu.Inline(rows...)

	return sb.String(), menu, nil
}

func (b *Bot) employeeCardRows(menu *telebot.ReplyMarkup, employees []models.Employee) []telebot.Row {
	rows := make([]telebot.Row, 0, len(employees)/2+2)
	buttons := make([]telebot.Btn, 0, 2)
	for _, employee := range employees {
		buttons = append(buttons, menu.Data(employee.FullName(), btnEmployeeCard.Unique, strconv.FormatInt(employee.UserID, 10)))
		if len(buttons) == 2 {
			rows = append(rows, menu.Row(buttons...))
			buttons = make([]telebot.Btn, 0, 2)
		}
	}
	if len(buttons) > 0 {
		rows = append(rows, menu.Row(buttons...))
	}
	return rows
}

// employeeCardHandler opens the card of a remembered employee.
func (b *Bot) employeeCardHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	lang := b.getUserLanguage(timeoutCtx, ctx)
	employee, ok := b.callbackEmployee(ctx)
	if !ok {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "employees.stale"), ShowAlert: true})
	}

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond()
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.formatEmployeeCard(lang, employee), b.employeeCardMarkup(lang, employee), telebot.ModeHTML)
}

func (b *Bot) employeeCardMarkup(lang string, employee models.Employee) *telebot.ReplyMarkup {
	id := strconv.FormatInt(employee.UserID, 10)
	toggleKey := "employees.deactivate"
	if !employee.Active {
		toggleKey = "employees.activate"
	}

	menu := &telebot.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(b.localizer.Get(lang, toggleKey), btnToggleStatus.Unique, id)),
		menu.Row(menu.Data(b.localizer.Get(lang, "employees.make_head"), btnMakeHead.Unique, id)),
	)
	return menu
}

// toggleStatusHandler activates or deactivates the employee of the card.
func (b *Bot) toggleStatusHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("toggle_status").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	employee, ok := b.callbackEmployee(ctx)
	if !ok {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "employees.stale"), ShowAlert: true})
	}

	if err := b.session(userID).ToggleEmployeeStatus(timeoutCtx, employee.UserID, !employee.Active); err != nil {
		return b.replyBackendError(timeoutCtx, ctx, lang, err, "error.internal")
	}

	employee.Active = !employee.Active
	b.stateManager.UpdateEmployee(userID, employee)
	b.log.Info("Employee status changed", "user", userID, "employee", employee.UserID, "active", employee.Active)

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "notify.saved")})
	return b.sendOrEditMessage(ctx, b.formatEmployeeCard(lang, employee), b.employeeCardMarkup(lang, employee))
}

// makeHeadHandler appoints the employee of the card as head.
func (b *Bot) makeHeadHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("make_head").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	employee, ok := b.callbackEmployee(ctx)
	if !ok {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "employees.stale"), ShowAlert: true})
	}

	if err := b.session(userID).MakeHead(timeoutCtx, employee.UserID); err != nil {
		return b.replyBackendError(timeoutCtx, ctx, lang, err, "error.internal")
	}

	b.log.Info("Employee appointed head", "user", userID, "employee", employee.UserID)
	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(lang, "employees.head_done"), ShowAlert: true})
}

// searchHandler asks for the search text.
func (b *Bot) searchHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("search").Inc()
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingSearch})

	lang := b.getUserLanguage(timeoutCtx, ctx)
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(b.localizer.Get(lang, "menu.cancel"))))

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.localizer.Get(lang, "employees.search_prompt"), menu)
}

func (b *Bot) handleSearchInput(ctx telebot.Context, lang, query string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	if query == "" {
		return ctx.Reply(b.localizer.Get(lang, "employees.search_prompt"))
	}
	b.stateManager.Clear(userID)

	employees, err := b.session(userID).SearchEmployees(timeoutCtx, query)
	if err != nil {
		return b.replyBackendError(timeoutCtx, ctx, lang, err, "employees.load_failed")
	}

	// The reply keyboard is swapped back before the inline results are sent.
	_ = ctx.Send(b.menus.Title(lang, MenuEmployees), b.menus.Build(lang, MenuEmployees))

	if len(employees) == 0 {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.localizer.Get(lang, "employees.not_found"))
	}

	b.stateManager.Remember(userID, employees)

	var sb strings.Builder
	sb.WriteString(b.localizer.GetWithData(lang, "employees.search_title", map[string]any{"total": len(employees)}))
	sb.WriteString("\n\n")
	for i, employee := range employees {
		sb.WriteString(b.formatEmployeeLine(i+1, lang, employee))
		sb.WriteString("\n")
	}

	menu := &telebot.ReplyMarkup{}
	menu.Inline(b.employeeCardRows(menu, employees)...)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(sb.String(), menu, telebot.ModeHTML)
}

// exportHandler sends the whole employee table as an xlsx workbook.
func (b *Bot) exportHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 2*backendTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.log.Info("User requested employee export", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("export").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	_ = ctx.Notify(telebot.UploadingDocument)

	startTime := time.Now()
	employees, err := b.fetchAllEmployees(timeoutCtx, userID)
	if err != nil {
		return b.replyBackendError(timeoutCtx, ctx, lang, err, "employees.load_failed")
	}

	reportBuffer, err := report.GenerateEmployeeReport(employees, b.reportLabels(lang))
	b.metrics.ExportGeneration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		if errors.Is(err, report.ErrNoEmployees) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(b.localizer.Get(lang, "employees.empty"))
		}
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		b.log.ErrorContext(timeoutCtx, "Failed to generate employee export", "error", err, "user", userID)
		return ctx.Send(b.localizer.Get(lang, "error.internal"))
	}

	reportFile := &telebot.Document{
		File:     telebot.FromReader(reportBuffer),
		FileName: fmt.Sprintf("employees_%s.xlsx", time.Now().Format("2006-01-02")),
		MIME:     xlsxMIME,
		Caption:  b.localizer.GetWithData(lang, "employees.export_ready", map[string]any{"total": len(employees)}),
	}

	b.log.InfoContext(timeoutCtx, "Successfully generated employee export", "user", userID, "employees", len(employees))
	b.metrics.SentMessages.WithLabelValues("file").Inc()
	return ctx.Send(reportFile)
}

// fetchAllEmployees walks every page of the unfiltered employee table.
func (b *Bot) fetchAllEmployees(ctx context.Context, userID int64) ([]models.Employee, error) {
	session := b.session(userID)

	var employees []models.Employee
	for page := range exportMaxPages {
		result, err := session.ListEmployees(ctx, backend.ListParams{Page: page, Size: exportPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch employee page %d: %w", page, err)
		}
		employees = append(employees, result.Items...)
		if len(result.Items) == 0 || len(employees) >= result.Total {
			break
		}
	}
	return employees, nil
}

func (b *Bot) reportLabels(lang string) report.Labels {
	labels := report.Labels{
		Roles:    make(map[models.Role]string, len(models.Roles)),
		Active:   b.localizer.Get(lang, "status.active"),
		Inactive: b.localizer.Get(lang, "status.inactive"),
	}
	for i, key := range []string{"id", "last_name", "first_name", "phone", "email", "iin", "status", "created"} {
		labels.Headers[i] = b.localizer.Get(lang, "report.header."+key)
	}
	for _, role := range models.Roles {
		labels.Roles[role] = b.roleName(lang, role)
	}
	return labels
}

// listParams returns the stored list filter, or the default one.
func (b *Bot) listParams(userID int64) backend.ListParams {
	params, ok := b.stateManager.Filter(userID)
	if !ok {
		params = backend.ListParams{}
	}
	params.Size = b.pageSize
	return params
}

func (b *Bot) callbackEmployee(ctx telebot.Context) (models.Employee, bool) {
	employeeID, err := strconv.ParseInt(ctx.Data(), 10, 64)
	if err != nil {
		b.log.Error("Invalid employee ID in callback", "error", err, "data", ctx.Data())
		return models.Employee{}, false
	}
	return b.stateManager.Employee(ctx.Sender().ID, employeeID)
}

func (b *Bot) statusFilterName(lang, status string) string {
	switch status {
	case statusActive:
		return b.localizer.Get(lang, "status.active")
	case statusInactive:
		return b.localizer.Get(lang, "status.inactive")
	default:
		return b.localizer.Get(lang, "employees.filter_all")
	}
}

func (b *Bot) roleFilterName(lang string, role models.Role) string {
	if role == "" {
		return b.localizer.Get(lang, "employees.filter_all")
	}
	return b.roleName(lang, role)
}

func nextStatus(status string) string {
	switch status {
	case "":
		return statusActive
	case statusActive:
		return statusInactive
	default:
		return ""
	}
}

func nextRole(role models.Role) models.Role {
	idx := slices.Index(models.Roles, role)
	if idx+1 >= len(models.Roles) {
		return ""
	}
	return models.Roles[idx+1]
}

// sendOrEditMessage replaces the callback message. A nil markup removes the inline keyboard.
// Identical content is not an error.
func (b *Bot) sendOrEditMessage(ctx telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	opts := []any{telebot.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}

	b.metrics.SentMessages.WithLabelValues("edit").Inc()
	err := ctx.Edit(text, opts...)
	if err != nil && !errors.Is(err, telebot.ErrSameMessageContent) {
		b.log.Error("Failed to edit message", "error", err)
		return err
	}
	return nil
}
