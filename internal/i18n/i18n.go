package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLanguage is used when a chat has no language of its own and as the translation fallback.
const DefaultLanguage = "ru"

// Languages lists the supported language codes.
var Languages = []string{"ru", "en"}

// Localizer handles translation for different languages.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer creates a new Localizer instance and loads all translations.
func NewLocalizer() (*Localizer, error) {
	locale := &Localizer{
		translations: make(map[string]map[string]string),
	}

	for _, lang := range Languages {
		if err := locale.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	return locale, nil
}

func (l *Localizer) loadLanguage(lang string) error {
	filename := fmt.Sprintf("locales/%s.json", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read locale file %s: %w", filename, err)
	}

	var translations map[string]string
	if err = json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal locale file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.translations[lang] = translations
	l.mu.Unlock()

	return nil
}

// Get returns the translation for the given key in the specified language.
// Missing keys fall back to the default language, then to the key itself.
func (l *Localizer) Get(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if translation, ok := l.translations[lang][key]; ok {
		return translation
	}
	if translation, ok := l.translations[DefaultLanguage][key]; ok {
		return translation
	}
	return key
}

// GetWithData returns the translation for the given key with {placeholder} replacement.
// Example: GetWithData("en", "employee.created", map[string]any{"name": "John"}).
func (l *Localizer) GetWithData(lang, key string, data map[string]any) string {
	translation := l.Get(lang, key)

	for k, v := range data {
		translation = strings.ReplaceAll(translation, "{"+k+"}", fmt.Sprint(v))
	}

	return translation
}

// NormalizeLanguageCode maps a Telegram language code such as "en-US" to a supported language.
func NormalizeLanguageCode(telegramLang string) string {
	code, _, _ := strings.Cut(strings.ToLower(telegramLang), "-")
	switch code {
	case "en":
		return "en"
	case "ru", "kk", "uk", "be":
		return "ru"
	default:
		return DefaultLanguage
	}
}
