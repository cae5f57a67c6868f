package bot

import (
	"testing"
	"time"

	"github.com/UnknownOlympus/registrar/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "+7 (701) 123-45-67", expected: "+77011234567"},
		{input: "77011234567", expected: "+77011234567"},
		{input: "phone", expected: ""},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, normalizePhone(tt.input))
		})
	}
}

func TestFormatEmployeeCard(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	card := b.formatEmployeeCard("ru", models.Employee{
		UserID:      5,
		FirstName:   "Айгерим",
		LastName:    "<Сейтова>",
		PhoneNumber: "+77011234567",
		Role:        models.RoleMentor,
		Active:      false,
		CreatedAt:   time.Date(2024, time.March, 8, 10, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, card, "<b>&lt;Сейтова&gt; Айгерим</b>")
	assert.Contains(t, card, "ID: 5\n")
	assert.Contains(t, card, "Почта: -\n")
	assert.Contains(t, card, "Должность: Наставник\n")
	assert.Contains(t, card, "Статус: Неактивен\n")
	assert.Contains(t, card, "Добавлен: 08.03.2024\n")
}

func TestFormatEmployeeLine(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	active := models.Employee{FirstName: "Ivan", LastName: "Ivanov", Role: models.RoleTeacher, Active: true}
	inactive := models.Employee{FirstName: "Olga", Role: "intern"}

	assert.Equal(t, "1. 🟢 <b>Ivanov Ivan</b>, Teacher", b.formatEmployeeLine(1, "en", active))
	assert.Equal(t, "12. ⚪️ <b>Olga</b>, intern", b.formatEmployeeLine(12, "en", inactive))
}

func TestFormatUserInfo(t *testing.T) {
	t.Parallel()
	b := newTestBot(t)

	info := b.formatUserInfo("en", models.User{
		FirstName: "Ivan",
		LastName:  "Ivanov",
		Email:     "ivanov@gmail.com",
		Roles:     []string{"admin", "hr"},
	})

	assert.Contains(t, info, "Full name: Ivanov Ivan\n")
	assert.Contains(t, info, "WhatsApp number: -\n")
	assert.Contains(t, info, "Roles: admin, hr\n")
}
