package bot

import (
	"gopkg.in/telebot.v4"

	"github.com/UnknownOlympus/registrar/internal/i18n"
)

// MenuBuilder handles dynamic menu generation with i18n support.
type MenuBuilder struct {
	localizer *i18n.Localizer
	registry  *MenuRegistry
	navStack  *NavigationStack
}

// NewMenuBuilder creates a new menu builder instance.
func NewMenuBuilder(localizer *i18n.Localizer) *MenuBuilder {
	return &MenuBuilder{
		localizer: localizer,
		registry:  NewMenuRegistry(),
		navStack:  NewNavigationStack(),
	}
}

// Build generates a reply keyboard from a menu definition.
func (mb *MenuBuilder) Build(lang string, menuType MenuType) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	menuDef := mb.registry.Get(menuType)
	if menuDef == nil {
		menu.Reply(menu.Row(menu.Text(mb.localizer.Get(lang, "menu.back"))))
		return menu
	}

	rows := mb.buildRows(lang, menu, menuDef.Buttons, menuDef.Layout)
	if menuDef.HasBack {
		rows = append(rows, menu.Row(menu.Text(mb.localizer.Get(lang, "menu.back"))))
	}

	menu.Reply(rows...)
	return menu
}

// buildRows creates telebot.Row slices based on button layout.
func (mb *MenuBuilder) buildRows(
	lang string,
	menu *telebot.ReplyMarkup,
	buttons []MenuButton,
	layout []int,
) []telebot.Row {
	rows := make([]telebot.Row, 0, len(layout))
	buttonIdx := 0

	for _, rowSize := range layout {
		rowButtons := make([]telebot.Btn, 0, rowSize)
		for i := 0; i < rowSize && buttonIdx < len(buttons); i++ {
			rowButtons = append(rowButtons, menu.Text(mb.localizer.Get(lang, buttons[buttonIdx].TextKey)))
			buttonIdx++
		}
		if len(rowButtons) > 0 {
			rows = append(rows, menu.Row(rowButtons...))
		}
	}

	// Handle remaining buttons if any
	for ; buttonIdx < len(buttons); buttonIdx++ {
		rows = append(rows, menu.Row(menu.Text(mb.localizer.Get(lang, buttons[buttonIdx].TextKey))))
	}

	return rows
}

// Title returns the message shown together with a menu.
func (mb *MenuBuilder) Title(lang string, menuType MenuType) string {
	if menuDef := mb.registry.Get(menuType); menuDef != nil && menuDef.TitleKey != "" {
		return mb.localizer.Get(lang, menuDef.TitleKey)
	}
	return mb.localizer.Get(lang, "general.welcome_back")
}

// ShowMenu sends a menu to the user. Untracked menus are not added to the navigation history.
func (mb *MenuBuilder) ShowMenu(tCtx telebot.Context, lang string, menuType MenuType, track bool) error {
	userID := tCtx.Sender().ID
	if track {
		mb.navStack.Push(userID, menuType)
	}
	return tCtx.Send(mb.Title(lang, menuType), mb.Build(lang, menuType))
}

// NavigateBack returns user to previous menu.
func (mb *MenuBuilder) NavigateBack(tCtx telebot.Context, lang string) error {
	userID := tCtx.Sender().ID
	mb.navStack.Pop(userID)
	return mb.ShowMenu(tCtx, lang, mb.navStack.Current(userID), false)
}

// ResolveButton looks up which button a reply keyboard text belongs to. The chat language is
// tried first, then every other language, because keyboards outlive language changes.
func (mb *MenuBuilder) ResolveButton(lang, text string) (MenuButton, bool) {
	languages := []string{lang}
	for _, l := range i18n.Languages {
		if l != lang {
			languages = append(languages, l)
		}
	}

	for _, l := range languages {
		btn, ok := mb.registry.Find(func(textKey string) bool {
			return mb.localizer.Get(l, textKey) == text
		})
		if ok {
			return btn, true
		}
	}
	return MenuButton{}, false
}
