// Package i18n holds the UI string catalog.
//
// Every user-facing string goes through T with its English text as the
// default, so a missing translation degrades to English:
//
//	i18n.Init(i18n.ResolveLocale(cfg.Language))
//	i18n.T("tui.picker.title", "pick your scene partner...")
//	i18n.Tf("tui.download.started", "downloading image to %s...", dir)
package i18n

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

var (
	mu        sync.RWMutex
	localizer *i18n.Localizer
	active    = "en"
)

// Init loads the embedded catalogs and selects lang, falling back to
// English for anything lang does not translate. It may be called again
// when the configured language changes.
func Init(lang string) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, _ := localeFS.ReadDir("locales")
	for _, e := range entries {
		_, _ = bundle.LoadMessageFileFS(localeFS, "locales/"+e.Name())
	}

	mu.Lock()
	localizer = i18n.NewLocalizer(bundle, lang, "en")
	active = lang
	mu.Unlock()
}

// Lang returns the tag passed to the last Init.
func Lang() string {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// T returns the translation of id, or defaultMsg.
func T(id, defaultMsg string) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()
	if l == nil {
		return defaultMsg
	}
	s, err := l.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id, Other: defaultMsg},
	})
	if err != nil {
		return defaultMsg
	}
	return s
}

// Tf is T followed by fmt.Sprintf.
func Tf(id, defaultMsg string, args ...any) string {
	return fmt.Sprintf(T(id, defaultMsg), args...)
}

// Tn picks the plural form for count. one and other may use {{.Count}}.
func Tn(id, one, other string, count int) string {
	mu.RLock()
	l := localizer
	mu.RUnlock()

	fallback := func() string {
		form := other
		if count == 1 {
			form = one
		}
		return strings.ReplaceAll(form, "{{.Count}}", fmt.Sprint(count))
	}
	if l == nil {
		return fallback()
	}
	s, err := l.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id, One: one, Other: other},
		PluralCount:    count,
		TemplateData:   map[string]int{"Count": count},
	})
	if err != nil {
		return fallback()
	}
	return s
}

// ResolveLocale picks the UI language: YESAND_LANG, then configLang, then
// LC_ALL or LANG, then English.
func ResolveLocale(configLang string) string {
	if v := os.Getenv("YESAND_LANG"); v != "" {
		return v
	}
	if configLang != "" {
		return configLang
	}
	for _, name := range []string{"LC_ALL", "LANG"} {
		if tag, ok := posixTag(os.Getenv(name)); ok {
			return tag
		}
	}
	return "en"
}

// posixTag turns "pt_BR.UTF-8" into "pt-BR". "C" and "POSIX" carry no
// language.
func posixTag(v string) (string, bool) {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	if v == "" || v == "C" || v == "POSIX" {
		return "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(v, "_", "-"))
	if err != nil {
		return "", false
	}
	return tag.String(), true
}
