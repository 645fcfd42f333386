// Package locale translates the user-facing lookup messages.
package locale

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tartampluch/go-ddcheck/internal/config"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves message keys for a requested language.
type Translator struct {
	bundle      *i18n.Bundle
	defaultLang string
	languages   []string
}

// NewTranslator loads every embedded locale file.
// defaultLang is used when a request carries no usable language.
func NewTranslator(defaultLang string) *Translator {
	if defaultLang == "" {
		defaultLang = config.DefaultLanguage
	}
	bundle := i18n.NewBundle(language.MustParse(config.DefaultLanguage))
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	t := &Translator{
		bundle:      bundle,
		defaultLang: defaultLang,
	}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return t
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}

		t.languages = append(t.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}
	return t
}

// Languages lists the loaded language codes.
func (t *Translator) Languages() []string {
	return t.languages
}

// Msg translates key for the given language preferences (codes or Accept-Language values).
// Unknown keys are returned unchanged.
func (t *Translator) Msg(key string, langs ...string) string {
	msg, err := t.localizer(langs).Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

func (t *Translator) localizer(langs []string) *i18n.Localizer {
	prefs := make([]string, 0, len(langs)+1)
	for _, l := range langs {
		if l != "" {
			prefs = append(prefs, l)
		}
	}
	prefs = append(prefs, t.defaultLang)
	return i18n.NewLocalizer(t.bundle, prefs...)
}
