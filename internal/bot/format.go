package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/UnknownOlympus/registrar/internal/models"
)

const dateLayout = "02.01.2006"

// formatUserInfo renders the "about me" card. Output is HTML.
func (b *Bot) formatUserInfo(lang string, user models.User) string {
	var sb strings.Builder

	sb.WriteString(b.localizer.Get(lang, "info.title"))
	sb.WriteString("\n\n")
	writeField(&sb, b.localizer.Get(lang, "field.name"), strings.TrimSpace(user.LastName+" "+user.FirstName))
	writeField(&sb, b.localizer.Get(lang, "field.phone"), user.PhoneNumber)
	writeField(&sb, b.localizer.Get(lang, "field.email"), user.Email)
	writeField(&sb, b.localizer.Get(lang, "field.roles"), strings.Join(user.Roles, ", "))

	return sb.String()
}

// formatEmployeeCard renders a single employee. Output is HTML.
func (b *Bot) formatEmployeeCard(lang string, employee models.Employee) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>%s</b>\n\n", html.EscapeString(employee.FullName()))
	writeField(&sb, "ID", fmt.Sprint(employee.UserID))
	writeField(&sb, b.localizer.Get(lang, "field.phone"), employee.PhoneNumber)
	writeField(&sb, b.localizer.Get(lang, "field.email"), employee.Email)
	writeField(&sb, b.localizer.Get(lang, "field.iin"), employee.IIN)
	writeField(&sb, b.localizer.Get(lang, "field.role"), b.roleName(lang, employee.Role))
	writeField(&sb, b.localizer.Get(lang, "field.status"), b.statusName(lang, employee.Active))
	if !employee.CreatedAt.IsZero() {
		writeField(&sb, b.localizer.Get(lang, "field.created"), employee.CreatedAt.Format(dateLayout))
	}

	return sb.String()
}

// formatEmployeeLine renders one row of the employee list. Output is HTML.
func (b *Bot) formatEmployeeLine(index int, lang string, employee models.Employee) string {
	status := "🟢"
	if !employee.Active {
		status = "⚪️"
	}
	return fmt.Sprintf("%d. %s <b>%s</b>, %s",
		index, status, html.EscapeString(employee.FullName()), html.EscapeString(b.roleName(lang, employee.Role)))
}

// formatExistingUser renders the record that collided with a creation attempt. Output is HTML.
func (b *Bot) formatExistingUser(lang string, user models.ExistingUserInfo) string {
	var sb strings.Builder

	writeField(&sb, "ID", fmt.Sprint(user.UserID))
	writeField(&sb, b.localizer.Get(lang, "field.name"), strings.TrimSpace(user.LastName+" "+user.FirstName))
	writeField(&sb, b.localizer.Get(lang, "field.phone"), user.PhoneNumber)
	writeField(&sb, b.localizer.Get(lang, "field.iin"), user.IIN)

	return sb.String()
}

func (b *Bot) roleName(lang string, role models.Role) string {
	if role == "" {
		return "-"
	}
	key := "role." + string(role)
	if name := b.localizer.Get(lang, key); name != key {
		return name
	}
	return string(role)
}

func (b *Bot) statusName(lang string, active bool) string {
	if active {
		return b.localizer.Get(lang, "status.active")
	}
	return b.localizer.Get(lang, "status.inactive")
}

// writeField appends an escaped "label: value" line. Empty values are shown as a dash.
func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(sb, "%s: %s\n", html.EscapeString(label), html.EscapeString(value))
}
