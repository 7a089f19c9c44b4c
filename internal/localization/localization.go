// Package localization provides the bot's message catalogs. Translations
// are embedded into the binary; Russian is the default language of the
// reception and the fallback for missing keys.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLang is used when a user has no language preference.
const DefaultLang = "ru"

// Localizer resolves message keys to localized strings. It is immutable
// after construction and safe for concurrent use.
type Localizer struct {
	translations map[string]map[string]string
}

// NewLocalizer parses every embedded locale file.
func NewLocalizer() (*Localizer, error) {
	l := &Localizer{translations: make(map[string]map[string]string)}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}

	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".json")
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", entry.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", entry.Name(), err)
		}
		l.translations[lang] = translations
	}

	if _, ok := l.translations[DefaultLang]; !ok {
		return nil, fmt.Errorf("default locale %q is missing", DefaultLang)
	}
	return l, nil
}

// GetString returns the localized string for a key, falling back to the
// default language and finally to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	if translations, ok := l.translations[lang]; ok {
		if value, ok := translations[key]; ok {
			return value
		}
	}
	if lang != DefaultLang {
		if value, ok := l.translations[DefaultLang][key]; ok {
			return value
		}
	}
	return key
}
