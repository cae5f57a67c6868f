package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/registrar/internal/client/backend"
	"github.com/UnknownOlympus/registrar/internal/config"
	"github.com/UnknownOlympus/registrar/internal/dialog"
	"github.com/UnknownOlympus/registrar/internal/i18n"
	"github.com/UnknownOlympus/registrar/internal/metrics"
	"github.com/UnknownOlympus/registrar/internal/repository"
	"gopkg.in/telebot.v4"
)

const (
	dbTimeout      = 3 * time.Second
	backendTimeout = 30 * time.Second
)

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	log          *slog.Logger
	repo         repository.Interface
	backend      *backend.Client
	metrics      *metrics.Metrics
	stateManager *StateManager
	dialogs      *dialog.Registry
	menus        *MenuBuilder
	localizer    *i18n.Localizer
	pageSize     int
}

var (
	btnLanguage = telebot.Btn{Unique: "language"}

	// employee list
	btnPage         = telebot.Btn{Unique: "emp_page"}
	btnFilterStatus = telebot.Btn{Unique: "emp_status"}
	btnFilterRole   = telebot.Btn{Unique: "emp_role"}
	btnEmployeeCard = telebot.Btn{Unique: "emp_card"}
	btnToggleStatus = telebot.Btn{Unique: "emp_toggle"}
	btnMakeHead     = telebot.Btn{Unique: "emp_head"}

	// create employee wizard
	btnFormCitizenship = telebot.Btn{Unique: "form_citizen"}
	btnFormRole        = telebot.Btn{Unique: "form_role"}
	btnFormSubmit      = telebot.Btn{Unique: "form_submit"}
	btnFormCancel      = telebot.Btn{Unique: "form_cancel"}

	// conflict dialogs
	btnConfirmExisting = telebot.Btn{Unique: "conflict_confirm"}
	btnTakePhone       = telebot.Btn{Unique: "conflict_take_phone"}
	btnConfirmIdentity = telebot.Btn{Unique: "conflict_identity"}
	btnCloseDialog     = telebot.Btn{Unique: "conflict_close"}
)

// NewBot creates a new bot with the given token.
func NewBot(
	log *slog.Logger,
	repo repository.Interface,
	client *backend.Client,
	metrics *metrics.Metrics,
	cfg config.TelegramConfig,
	pageSize int,
) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Token,
		Poller: &telebot.LongPoller{Timeout: cfg.PollerTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	localizer, err := i18n.NewLocalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize localizer: %w", err)
	}

	botInstance := &Bot{
		bot:          bot,
		log:          log,
		repo:         repo,
		backend:      client,
		metrics:      metrics,
		stateManager: NewStateManager(),
		dialogs:      dialog.NewRegistry(log.With("component", "dialog"), dialog.WithMetrics(metrics)),
		menus:        NewMenuBuilder(localizer),
		localizer:    localizer,
		pageSize:     pageSize,
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/login", b.loginHandler)
	b.bot.Handle("/language", b.languageHandler)
	b.bot.Handle(telebot.OnText, b.routeTextHandler)
	b.bot.Handle(telebot.OnContact, b.contactHandler)
	b.bot.Handle(&btnLanguage, b.languageChangeHandler)

	// Routes behind a stored administrator session.
	admin := b.bot.Group()
	admin.Use(b.AuthMiddleware)

	admin.Handle("/logout", b.logoutHandler)
	admin.Handle("/me", b.infoHandler)
	admin.Handle("/employees", b.employeesHandler)
	admin.Handle("/search", b.searchHandler)
	admin.Handle("/create", b.createEmployeeHandler)
	admin.Handle("/export", b.exportHandler)

	admin.Handle(&btnPage, b.employeesPageHandler)
	admin.Handle(&btnFilterStatus, b.filterStatusHandler)
	admin.Handle(&btnFilterRole, b.filterRoleHandler)
	admin.Handle(&btnEmployeeCard, b.employeeCardHandler)
	admin.Handle(&btnToggleStatus, b.toggleStatusHandler)
	admin.Handle(&btnMakeHead, b.makeHeadHandler)

	admin.Handle(&btnFormCitizenship, b.formCitizenshipHandler)
	admin.Handle(&btnFormRole, b.formRoleHandler)
	admin.Handle(&btnFormSubmit, b.formSubmitHandler)
	admin.Handle(&btnFormCancel, b.formCancelHandler)

	admin.Handle(&btnConfirmExisting, b.confirmExistingHandler)
	admin.Handle(&btnTakePhone, b.takePhoneHandler)
	admin.Handle(&btnConfirmIdentity, b.confirmIdentityHandler)
	admin.Handle(&btnCloseDialog, b.closeDialogHandler)
}

// getUserLanguage returns the language chosen in the chat, falling back to the Telegram client language.
func (b *Bot) getUserLanguage(ctx context.Context, tCtx telebot.Context) string {
	userID := tCtx.Sender().ID

	lang, err := b.repo.GetLanguage(ctx, userID)
	if err != nil {
		b.log.WarnContext(ctx, "Failed to get user language, using default", "error", err, "user", userID)
		return i18n.DefaultLanguage
	}
	if lang == "" {
		return i18n.NormalizeLanguageCode(tCtx.Sender().LanguageCode)
	}
	return lang
}

// t is a shorthand method for getting translations.
func (b *Bot) t(ctx context.Context, tCtx telebot.Context, key string) string {
	return b.localizer.Get(b.getUserLanguage(ctx, tCtx), key)
}

// tWithData is a shorthand method for getting translations with placeholder data.
func (b *Bot) tWithData(ctx context.Context, tCtx telebot.Context, key string, data map[string]any) string {
	return b.localizer.GetWithData(b.getUserLanguage(ctx, tCtx), key, data)
}

// session returns a backend session authorized with the stored tokens of the chat.
func (b *Bot) session(telegramID int64) *backend.Session {
	return b.backend.Session(&sessionTokens{repo: b.repo, telegramID: telegramID})
}
