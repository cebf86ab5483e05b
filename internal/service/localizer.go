// Package service holds the localization layer. Every user-visible string
// the bot sends (status placeholders, error notices, command replies) is
// looked up here by message ID.
package service

import (
	"embed"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

type Localizer struct {
	localizer *i18n.Localizer
}

// NewLocalizer loads all embedded locale bundles and resolves messages in
// currentLang, falling back to English for keys a bundle does not translate.
func NewLocalizer(currentLang string) (*Localizer, error) {
	lang, err := language.Parse(currentLang)
	if err != nil {
		return nil, err
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	paths, err := fs.Glob(localeFS, "locales/*.toml")
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, err
		}
	}

	return &Localizer{
		localizer: i18n.NewLocalizer(bundle, lang.String()),
	}, nil
}

// Localize resolves messageID with the given template data. Unknown IDs come
// back verbatim so a missing translation never blocks a reply.
func (s *Localizer) Localize(messageID string, data map[string]any) string {
	msg, err := s.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
