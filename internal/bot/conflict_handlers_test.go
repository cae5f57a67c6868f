package bot

import (
	"testing"

	"github.com/UnknownOlympus/registrar/internal/conflict"
	"github.com/UnknownOlympus/registrar/internal/dialog"
	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

func inlineUniques(markup *telebot.ReplyMarkup) []string {
	var uniques []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			uniques = append(uniques, btn.Unique)
		}
	}
	return uniques
}

func conflictView(state dialog.State, existing *models.ExistingUserInfo) dialog.View {
	return dialog.View{
		State: state,
		Conflict: &dialog.ConflictState{
			Scenario:     conflict.UserExists,
			ExistingUser: existing,
			Message:      "Пользователь с таким номером уже существует",
		},
	}
}

var ivanov = &models.ExistingUserInfo{
	UserID:      42,
	FirstName:   "Иван",
	LastName:    "Иванов",
	PhoneNumber: "+77011234567",
	IIN:         "850101123456",
}

func TestRenderConflict_UserExistsWithDetail(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	text, markup := b.renderConflict("ru", conflictView(dialog.ShowingUserExistsDialog, ivanov))

	assert.Contains(t, text, "Пользователь с таким номером уже существует, вот его данные:")
	assert.Contains(t, text, "ID: 42")
	assert.Contains(t, text, "Фамилия и имя: Иванов Иван")
	assert.Contains(t, text, "ИИН: 850101123456")
	require.NotNil(t, markup)
	assert.Equal(t, []string{"conflict_confirm", "conflict_take_phone", "conflict_close"}, inlineUniques(markup))
	assert.Equal(t, "Да, это он", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "Нет, это не он, отобрать номер", markup.InlineKeyboard[1][0].Text)
	assert.Equal(t, "Закрыть", markup.InlineKeyboard[2][0].Text)
}

func TestRenderConflict_MessageOnlyKeepsActions(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	text, markup := b.renderConflict("ru", conflictView(dialog.ShowingUserExistsDialog, nil))

	assert.Contains(t, text, "<i>Пользователь с таким номером уже существует</i>")
	assert.NotContains(t, text, "ID:")
	require.NotNil(t, markup)
	assert.Equal(t, []string{"conflict_confirm", "conflict_take_phone", "conflict_close"}, inlineUniques(markup))
}

func TestRenderConflict_EscapesBackendMessage(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	view := conflictView(dialog.ShowingUserExistsDialog, nil)
	view.Conflict.Message = "<b>bad</b> & co"
	text, _ := b.renderConflict("en", view)

	assert.Contains(t, text, "&lt;b&gt;bad&lt;/b&gt; &amp; co")
}

func TestRenderConflict_EmployeeExists(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	text, markup := b.renderConflict("ru", conflictView(dialog.ShowingEmployeeExistsDialog, ivanov))

	assert.Contains(t, text, "Сотрудник с таким номером уже существует")
	require.NotNil(t, markup)
	assert.Equal(t, []string{"conflict_identity", "conflict_take_phone", "conflict_close"}, inlineUniques(markup))
}

func TestRenderConflict_Refusal(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	text, markup := b.renderConflict("ru", conflictView(dialog.ShowingRefusalDialog, ivanov))

	assert.Equal(t, "Вам нужно найти этого сотрудника в разделе Сотрудники и активировать. "+
		"А так же проверить актуальность его данных: ИИН, почта, должность/роль.", text)
	require.NotNil(t, markup)
	assert.Equal(t, []string{"conflict_close"}, inlineUniques(markup))
}

func TestRenderConflict_SubmittingHidesButtons(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	view := conflictView(dialog.ShowingUserExistsDialog, ivanov)
	view.Submitting = true
	text, markup := b.renderConflict("en", view)

	assert.Nil(t, markup)
	assert.Contains(t, text, "⏳ Sending...")
	assert.Contains(t, text, "Full name: Иванов Иван")
}

func TestRenderConflict_Closed(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	text, markup := b.renderConflict("en", dialog.View{State: dialog.Closed})

	assert.Equal(t, "Dialog closed.", text)
	assert.Nil(t, markup)
}
