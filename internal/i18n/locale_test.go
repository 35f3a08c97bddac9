package i18n

import "testing"

func TestSpanishLocale(t *testing.T) {
	Init("es")
	t.Cleanup(func() { Init("en") })

	tests := []struct {
		id, def, want string
	}{
		{"tui.picker.title", "pick your scene partner...", "elige tu compañero de escena..."},
		{"tui.error.chat", "error: chat failed", "error: falló el chat"},
		{"tui.prompt.newScene", "new scene? [y/n]", "¿nueva escena? [y/n]"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := T(tt.id, tt.def); got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestLocaleSwitch(t *testing.T) {
	Init("es")
	if got := T("tui.input.chat", "enter to send..."); got != "enter para enviar..." {
		t.Errorf("es = %q", got)
	}
	Init("en")
	if got := T("tui.input.chat", "enter to send..."); got != "enter to send..." {
		t.Errorf("en after switch = %q", got)
	}
}

func TestUntranslatedKeyFallsBack(t *testing.T) {
	Init("es")
	t.Cleanup(func() { Init("en") })
	if got := T("some.untranslated.key", "English fallback"); got != "English fallback" {
		t.Errorf("untranslated key = %q", got)
	}
}

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		name                     string
		env, config, lcAll, lang string
		want                     string
	}{
		{"env wins", "es", "fr", "de_DE.UTF-8", "", "es"},
		{"config next", "", "fr", "de_DE.UTF-8", "", "fr"},
		{"posix lc_all", "", "", "pt_BR.UTF-8", "en_US", "pt-BR"},
		{"posix lang", "", "", "", "es_ES.utf8", "es-ES"},
		{"C locale ignored", "", "", "C", "POSIX", "en"},
		{"nothing set", "", "", "", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("YESAND_LANG", tt.env)
			t.Setenv("LC_ALL", tt.lcAll)
			t.Setenv("LANG", tt.lang)
			if got := ResolveLocale(tt.config); got != tt.want {
				t.Errorf("ResolveLocale(%q) = %q, want %q", tt.config, got, tt.want)
			}
		})
	}
}
