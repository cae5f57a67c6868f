package bot

// MenuType represents different menu screens in the bot.
type MenuType string

const (
	MenuGuest     MenuType = "guest"
	MenuMain      MenuType = "main"
	MenuEmployees MenuType = "employees"
)

// Handler names resolved from reply keyboard buttons.
const (
	actionLogin     = "login"
	actionLogout    = "logout"
	actionInfo      = "info"
	actionLanguage  = "language"
	actionList      = "list"
	actionSearch    = "search"
	actionCreate    = "create"
	actionExport    = "export"
	actionBack      = "back"
	actionCancel    = "cancel"
)

// MenuButton represents a single button in a menu.
type MenuButton struct {
	TextKey      string   // i18n key for button text
	Handler      string   // Handler name, empty when the button only opens SubMenu
	SubMenu      MenuType // If this button opens a submenu
	RequiresAuth bool     // Whether user must be authenticated
}

// MenuDefinition represents a complete menu screen.
type MenuDefinition struct {
	Type     MenuType
	TitleKey string // i18n key for menu title (optional, sent as message)
	Buttons  []MenuButton
	Layout   []int // Button layout: [2, 2, 1] means 2+2+1 buttons per row
	HasBack  bool  // Whether to show back button
}

// MenuRegistry holds all menu definitions.
type MenuRegistry struct {
	menus map[MenuType]*MenuDefinition
}

// NewMenuRegistry creates and initializes the menu registry with all menu definitions.
func NewMenuRegistry() *MenuRegistry {
	registry := &MenuRegistry{
		menus: make(map[MenuType]*MenuDefinition),
	}

	registry.registerGuestMenu()
	registry.registerMainMenu()
	registry.registerEmployeesMenu()

	return registry
}

func (r *MenuRegistry) registerGuestMenu() {
	r.menus[MenuGuest] = &MenuDefinition{
		Type:     MenuGuest,
		TitleKey: "welcome.guest",
		Layout:   []int{1, 1},
		Buttons: []MenuButton{
			{TextKey: "menu.login", Handler: actionLogin},
			{TextKey: "menu.language", Handler: actionLanguage},
		},
	}
}

func (r *MenuRegistry) registerMainMenu() {
	r.menus[MenuMain] = &MenuDefinition{
		Type:     MenuMain,
		TitleKey: "welcome.authenticated",
		Layout:   []int{1, 2, 1},
		Buttons: []MenuButton{
			{TextKey: "menu.employees", SubMenu: MenuEmployees, RequiresAuth: true},
			{TextKey: "menu.about_me", Handler: actionInfo, RequiresAuth: true},
			{TextKey: "menu.language", Handler: actionLanguage},
			{TextKey: "menu.logout", Handler: actionLogout, RequiresAuth: true},
		},
	}
}

func (r *MenuRegistry) registerEmployeesMenu() {
	r.menus[MenuEmployees] = &MenuDefinition{
		Type:     MenuEmployees,
		TitleKey: "employees.title",
		Layout:   []int{2, 2},
		HasBack:  true,
		Buttons: []MenuButton{
			{TextKey: "menu.employee_list", Handler: actionList, RequiresAuth: true},
			{TextKey: "menu.employee_search", Handler: actionSearch, RequiresAuth: true},
			{TextKey: "menu.employee_create", Handler: actionCreate, RequiresAuth: true},
			{TextKey: "menu.employee_export", Handler: actionExport, RequiresAuth: true},
		},
	}
}

// Get returns the menu definition of the given type.
func (r *MenuRegistry) Get(menuType MenuType) *MenuDefinition {
	return r.menus[menuType]
}

// Find returns the button of any menu whose text key matches.
func (r *MenuRegistry) Find(match func(textKey string) bool) (MenuButton, bool) {
	for _, menuType := range []MenuType{MenuGuest, MenuMain, MenuEmployees} {
		for _, btn := range r.menus[menuType].Buttons {
			if match(btn.TextKey) {
				return btn, true
			}
		}
	}
	if match("menu.back") {
		return MenuButton{TextKey: "menu.back", Handler: actionBack}, true
	}
	if match("menu.cancel") {
		return MenuButton{TextKey: "menu.cancel", Handler: actionCancel}, true
	}
	return MenuButton{}, false
}
